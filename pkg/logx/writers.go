package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FileSinkName is the registry name TrySetVerbose looks for.
const FileSinkName = "file"

// ConsoleSink prints records with zerolog's human-friendly ConsoleWriter.
type ConsoleSink struct {
	Filter

	name string
	w    io.Writer
}

func NewConsoleSink(name string, out io.Writer) (*ConsoleSink, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if out == nil {
		out = Stdout()
	}
	return &ConsoleSink{name: name, w: zerolog.SyncWriter(newConsoleWriter(out))}, nil
}

func (s *ConsoleSink) Name() string { return s.name }

func (s *ConsoleSink) Write(r Record) error {
	_, err := s.w.Write(r.JSON())
	return err
}

// FileSink appends records as JSON lines.
type FileSink struct {
	Filter

	name string
	path string

	mu sync.Mutex
	f  *os.File
	w  io.Writer
}

// NewFileSink opens (creating if needed) path for appending.
func NewFileSink(name, path string) (*FileSink, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("file sink %q: empty path", name)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file sink %q: %w", name, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file sink %q: %w", name, err)
	}
	return &FileSink{name: name, path: path, f: f, w: zerolog.SyncWriter(f)}, nil
}

func (s *FileSink) Name() string { return s.name }

func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(r Record) error {
	s.mu.Lock()
	w := s.w
	s.mu.Unlock()
	if w == nil {
		return nil
	}
	_, err := w.Write(r.JSON())
	return err
}

// Close syncs and closes the file. Later writes are dropped.
func (s *FileSink) Close() error {
	s.mu.Lock()
	f := s.f
	s.f = nil
	s.w = nil
	s.mu.Unlock()
	if f == nil {
		return nil
	}
	_ = f.Sync()
	return f.Close()
}

func newConsoleWriter(w io.Writer) io.Writer {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	cw.FormatCaller = func(i interface{}) string {
		s, _ := i.(string)
		return s
	}
	return cw
}

// Stdout returns the configured stdout sink.
func Stdout() io.Writer { return os.Stdout }

// Stderr returns the configured stderr sink.
func Stderr() io.Writer { return os.Stderr }
