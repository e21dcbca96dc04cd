package logconf

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"logbridge/pkg/logx"
)

const (
	reloadDebounce     = 250 * time.Millisecond
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// Watch re-applies the config file whenever it changes on disk, until ctx is
// done or the logging context is closed. Parse or apply failures keep the
// last good config.
//
// The parent directory is watched rather than the file, so editors that
// replace the file via rename are handled too. When fsnotify gets into a bad
// state the watcher is recreated with a jittered exponential backoff.
func (c *Configurator) Watch(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.lc.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	dir := filepath.Dir(c.path)
	file := filepath.Base(c.path)

	backoff := restartBackoffBase
	// local RNG to avoid global contention
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	nextWait := func() time.Duration {
		wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff = min(backoff*2, restartBackoffMax)
		}
		return wait
	}

	// debounce to avoid partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		c.log.Debug("config change detected; scheduling reload", logx.String("path", c.path))
		timer = time.AfterFunc(reloadDebounce, func() {
			if ctx.Err() != nil {
				return
			}
			c.reload()
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		w, err := fsnotify.NewWatcher()
		if err == nil {
			if err = w.Add(dir); err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			c.log.Warn("config watch init failed", logx.Err(err), logx.String("dir", dir))
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextWait()):
				continue
			}
		}

		// success; reset backoff so transient issues don't cause long restart delays
		backoff = restartBackoffBase
		c.log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", file))

		// inner loop: runs until watcher breaks, then outer loop recreates it.
		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				// Compare by basename (more robust across absolute/relative paths and OS quirks).
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				// Overflow means we may have missed events; reload once and keep going.
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					c.log.Warn("config watch overflow; forcing reload", logx.Err(err), logx.String("dir", dir))
					debounce()
					continue
				}
				c.log.Warn("config watch error", logx.Err(err), logx.String("dir", dir))
				// Some fsnotify backends surface watcher closure via an error.
				if strings.Contains(strings.ToLower(err.Error()), "closed") {
					broken = true
				}
			}
		}

		_ = w.Close()
		if ctx.Err() != nil {
			return
		}
		// restart with a small jittered backoff to avoid tight restart loops.
		wait := nextWait()
		c.log.Warn("config watcher stopped; restarting",
			logx.String("dir", dir),
			logx.String("file", file),
			logx.Duration("backoff", wait),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (c *Configurator) reload() {
	cfg, err := ParseFile(c.path)
	if err != nil {
		c.log.Warn("config parse failed; keeping previous config", logx.String("path", c.path), logx.Err(err))
		return
	}
	if c.unchanged(cfg) {
		c.log.Debug("config unchanged; skipping apply", logx.String("path", c.path))
		return
	}
	if err := c.Apply(cfg); err != nil {
		c.log.Warn("config rejected", logx.String("path", c.path), logx.Err(err))
		return
	}
	c.log.Info("config reloaded", logx.String("path", c.path), logx.String("hash", fmt.Sprintf("%x", hashConfig(cfg))))
}
