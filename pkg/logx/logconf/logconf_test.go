package logconf

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logbridge/pkg/logx"
)

const devXML = `<logging level="DEBUG">
  <sink name="dev-console" type="console" />
</logging>`

const defaultXML = `<logging level="INFO">
  <sink name="file" type="file" path="logs/app.log" min="ERROR" max="FATAL" />
</logging>`

func newContext(t *testing.T) *logx.Context {
	t.Helper()
	lc := logx.New(logx.WithDiagnostics(logx.Nop()))
	t.Cleanup(func() { _ = lc.Close() })
	return lc
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func sinkNames(lc *logx.Context) []string {
	var names []string
	for _, s := range lc.Sinks() {
		names = append(names, s.Name())
	}
	return names
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "xml", file: "logging.config", body: defaultXML},
		{name: "yaml", file: "logging.yaml", body: "level: info\nsinks:\n  - name: file\n    type: file\n    path: logs/app.log\n    min: error\n    max: fatal\n"},
		{name: "json", file: "logging.json", body: `{"level":"info","sinks":[{"name":"file","type":"file","path":"logs/app.log","min":"error","max":"fatal"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.file, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, logx.LevelInfo, logx.ParseLevel(cfg.Level, logx.LevelDebug))
			require.Len(t, cfg.Sinks, 1)
			s := cfg.Sinks[0]
			assert.Equal(t, "file", s.Name)
			assert.Equal(t, SinkFile, s.Type)
			assert.Equal(t, "logs/app.log", s.Path)
			assert.Equal(t, logx.QuietRange, s.levelRange())
		})
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "wrong root", file: "logging.config", body: `<log4net/>`},
		{name: "unknown type", file: "logging.config", body: `<logging><sink name="x" type="smtp"/></logging>`},
		{name: "file without path", file: "logging.config", body: `<logging><sink name="file" type="file"/></logging>`},
		{name: "bad level", file: "logging.config", body: `<logging level="LOUD"/>`},
		{name: "empty range", file: "logging.config", body: `<logging><sink name="c" type="console" min="ERROR" max="INFO"/></logging>`},
		{name: "unknown json field", file: "logging.json", body: `{"sinks":[],"colour":true}`},
		{name: "trailing json", file: "logging.json", body: `{"sinks":[]}{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.file, []byte(tt.body))
			require.Error(t, err)
		})
	}
}

func TestDiscover(t *testing.T) {
	both := t.TempDir()
	writeFile(t, both, DevelopmentFileName, devXML)
	writeFile(t, both, DefaultFileName, defaultXML)

	defaultOnly := t.TempDir()
	writeFile(t, defaultOnly, DefaultFileName, defaultXML)

	devOnly := t.TempDir()
	writeFile(t, devOnly, DevelopmentFileName, devXML)

	tests := []struct {
		name        string
		root        string
		development bool
		wantFile    string
		wantVariant Variant
		wantErr     bool
	}{
		{name: "dev preferred", root: both, development: true, wantFile: DevelopmentFileName, wantVariant: VariantDevelopment},
		{name: "production ignores dev", root: both, development: false, wantFile: DefaultFileName, wantVariant: VariantDefault},
		{name: "dev falls back", root: defaultOnly, development: true, wantFile: DefaultFileName, wantVariant: VariantDefault},
		{name: "production without default", root: devOnly, development: false, wantErr: true},
		{name: "empty", root: t.TempDir(), development: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, v, err := Discover(tt.root, tt.development)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(tt.root, tt.wantFile), path)
			assert.Equal(t, tt.wantVariant, v)
		})
	}
}

func TestTryConfigureFallsBackToDefault(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, DefaultFileName, defaultXML)
	lc := newContext(t)

	res := TryConfigure(context.Background(), lc, Options{Root: root, Mode: ModeDevelopment, NoWatch: true})
	require.True(t, res.OK, "%v", res.Err)
	assert.False(t, res.Value.IsDevelopment())
	assert.True(t, lc.Configured())
	assert.Equal(t, logx.LevelInfo, lc.Level())

	s, ok := lc.Sink(logx.FileSinkName)
	require.True(t, ok)
	fs, ok := s.(*logx.FileSink)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "logs", "app.log"), fs.Path())
	assert.Equal(t, []logx.Range{logx.QuietRange}, fs.Filters())

	// the file sink is what the level toggle expects
	require.True(t, logx.TrySetVerbose(lc, true))
	assert.Equal(t, []logx.Range{logx.VerboseRange}, fs.Filters())
}

func TestTryConfigureUsesDevelopmentFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, DevelopmentFileName, devXML)
	writeFile(t, root, DefaultFileName, defaultXML)
	lc := newContext(t)

	res := TryConfigure(context.Background(), lc, Options{Root: root, Mode: ModeDevelopment, NoWatch: true, Stdout: io.Discard})
	require.True(t, res.OK)
	assert.Equal(t, VariantDevelopment, res.Value)
	assert.Equal(t, []string{"dev-console"}, sinkNames(lc))
	assert.Equal(t, logx.LevelDebug, lc.Level())
}

func TestTryConfigureWithoutFiles(t *testing.T) {
	lc := newContext(t)
	lc.SetLevel(logx.LevelWarn)

	res := TryConfigure(context.Background(), lc, Options{Root: t.TempDir(), Mode: ModeDevelopment, NoWatch: true})
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrNoConfig)
	assert.False(t, lc.Configured())
	assert.Empty(t, lc.Sinks())
	assert.Equal(t, logx.LevelWarn, lc.Level())
}

func TestTryConfigureInvalidFileLeavesContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, DefaultFileName, `<logging><sink name="x" type="smtp"/></logging>`)
	lc := newContext(t)

	res := TryConfigure(context.Background(), lc, Options{Root: root, NoWatch: true})
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, ErrInvalidConfig)
	assert.False(t, lc.Configured())
	assert.Empty(t, lc.Sinks())
}

func TestApplyKeepsProgrammaticSinks(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, DefaultFileName, defaultXML)
	lc := newContext(t)

	cfgr := NewConfigurator(lc, path)
	cfgr.Stdout = io.Discard
	require.NoError(t, cfgr.Load())

	viewer := logx.TryAddEventSink(lc, "viewer")
	require.True(t, viewer.OK)
	assert.Equal(t, []string{"file", "viewer"}, sinkNames(lc))

	cfg, err := Parse(path, []byte(devXML))
	require.NoError(t, err)
	require.NoError(t, cfgr.Apply(cfg))
	assert.Equal(t, []string{"viewer", "dev-console"}, sinkNames(lc))
	assert.True(t, cfgr.unchanged(cfg))
}

func TestWatchReappliesChangedFile(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, DefaultFileName, defaultXML)
	lc := newContext(t)

	cfgr := NewConfigurator(lc, path)
	cfgr.Stdout = io.Discard
	require.NoError(t, cfgr.Load())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		cfgr.Watch(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Rewrite on every tick: writes made before the watcher is ready are
	// missed, and the tick is longer than the reload debounce.
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(devXML), 0o644); err != nil {
			return false
		}
		_, ok := lc.Sink("dev-console")
		return ok
	}, 10*time.Second, 500*time.Millisecond)

	_, stillFile := lc.Sink("file")
	assert.False(t, stillFile)
}

func TestWatchStopsWhenLoggingContextCloses(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, DefaultFileName, defaultXML)
	lc := newContext(t)

	cfgr := NewConfigurator(lc, path)
	require.NoError(t, cfgr.Load())

	done := make(chan struct{})
	go func() {
		defer close(done)
		cfgr.Watch(context.Background())
	}()

	require.NoError(t, lc.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher still running after the logging context closed")
	}
}

func TestWatchKeepsLastGoodConfig(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, DefaultFileName, defaultXML)
	lc := newContext(t)

	cfgr := NewConfigurator(lc, path)
	require.NoError(t, cfgr.Load())

	require.NoError(t, os.WriteFile(path, []byte("<logging><sink"), 0o644))
	cfgr.reload()
	assert.Equal(t, []string{"file"}, sinkNames(lc))
}
