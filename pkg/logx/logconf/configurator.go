package logconf

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"logbridge/pkg/logx"
)

// Configurator applies one config file to a logx.Context and keeps track of
// the sinks it created, so a reload can swap exactly those.
type Configurator struct {
	lc   *logx.Context
	path string
	log  logx.Logger

	// Stdout is where console sinks write (logx.Stdout() when nil).
	Stdout io.Writer

	mu       sync.Mutex
	applied  []logx.Sink
	lastHash uint64
}

func NewConfigurator(lc *logx.Context, path string) *Configurator {
	return &Configurator{lc: lc, path: path, log: lc.Diagnostics().Named("config")}
}

func (c *Configurator) Path() string { return c.path }

// Load parses the file and applies it.
func (c *Configurator) Load() error {
	cfg, err := ParseFile(c.path)
	if err != nil {
		return err
	}
	return c.Apply(cfg)
}

// Apply builds the sinks described by cfg and swaps them in for the ones the
// previous Apply created. On error the context is left as it was.
func (c *Configurator) Apply(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sinks := make([]logx.Sink, 0, len(cfg.Sinks))
	for _, sc := range cfg.Sinks {
		s, err := c.build(sc)
		if err != nil {
			_ = closeAll(sinks)
			return err
		}
		sinks = append(sinks, s)
	}

	if err := c.lc.SwapSinks(c.applied, sinks); err != nil {
		if errors.Is(err, logx.ErrClosed) {
			_ = closeAll(sinks)
			return err
		}
		c.log.Warn("closing replaced sinks failed", logx.Err(err))
	}
	c.applied = sinks
	c.lastHash = hashConfig(cfg)

	c.lc.SetLevel(logx.ParseLevel(cfg.Level, logx.LevelDebug))
	c.lc.SetConfigured(true)
	c.log.Debug("logging config applied",
		logx.String("path", c.path),
		logx.Int("sinks", len(sinks)),
	)
	return nil
}

func (c *Configurator) build(sc SinkConfig) (logx.Sink, error) {
	var (
		s interface {
			logx.Sink
			SetThreshold(logx.Level)
			AddFilter(logx.Range)
		}
		err error
	)
	switch strings.ToLower(strings.TrimSpace(sc.Type)) {
	case SinkConsole:
		s, err = logx.NewConsoleSink(sc.Name, c.Stdout)
	case SinkFile:
		path := sc.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(c.path), path)
		}
		s, err = logx.NewFileSink(sc.Name, path)
	default:
		err = fmt.Errorf("%w: sink %q: unknown type %q", ErrInvalidConfig, sc.Name, sc.Type)
	}
	if err != nil {
		return nil, err
	}

	s.SetThreshold(logx.ParseLevel(sc.Threshold, logx.LevelDebug))
	if sc.Min != "" || sc.Max != "" {
		s.AddFilter(sc.levelRange())
	}
	return s, nil
}

// unchanged reports whether cfg matches the last applied config.
func (c *Configurator) unchanged(cfg *Config) bool {
	h := hashConfig(cfg)
	c.mu.Lock()
	defer c.mu.Unlock()
	return h != 0 && h == c.lastHash
}

func closeAll(sinks []logx.Sink) error {
	var errs []error
	for _, s := range sinks {
		if cl, ok := s.(io.Closer); ok {
			errs = append(errs, cl.Close())
		}
	}
	return errors.Join(errs...)
}
