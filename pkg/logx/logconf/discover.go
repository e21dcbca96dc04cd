package logconf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"logbridge/pkg/logx"
)

const (
	DevelopmentFileName = "logging.Development.config"
	DefaultFileName     = "logging.config"
)

var ErrNoConfig = errors.New("no logging config file found")

// Variant tells which config file was applied.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDevelopment
)

func (v Variant) IsDevelopment() bool { return v == VariantDevelopment }

func (v Variant) String() string {
	if v == VariantDevelopment {
		return "development"
	}
	return "default"
}

// Mode selects whether the development file is considered.
type Mode int

const (
	// ModeAuto follows the build: development only with -tags debug.
	ModeAuto Mode = iota
	ModeDevelopment
	ModeProduction
)

func (m Mode) development() bool {
	switch m {
	case ModeDevelopment:
		return true
	case ModeProduction:
		return false
	default:
		return developmentBuild
	}
}

type Options struct {
	// Root is the folder holding the config files (ApplicationRoot() when empty).
	Root string
	Mode Mode
	// NoWatch applies the file once without watching it.
	NoWatch bool
	// Stdout is where console sinks write.
	Stdout io.Writer
}

// ApplicationRoot returns the directory of the running executable, falling
// back to the working directory.
func ApplicationRoot() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Discover picks the config file under root: the development file when
// development is true and it exists, otherwise the default file.
func Discover(root string, development bool) (string, Variant, error) {
	if development {
		p := filepath.Join(root, DevelopmentFileName)
		if isFile(p) {
			return p, VariantDevelopment, nil
		}
	}
	p := filepath.Join(root, DefaultFileName)
	if isFile(p) {
		return p, VariantDefault, nil
	}
	return "", VariantDefault, fmt.Errorf("%w in %s", ErrNoConfig, root)
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

// Configure discovers, applies and (unless opts.NoWatch) watches the config
// until ctx is done or lc is closed. When no file is found or it fails to apply, lc is left
// untouched.
func Configure(ctx context.Context, lc *logx.Context, opts Options) (*Configurator, Variant, error) {
	if lc == nil {
		return nil, VariantDefault, logx.ErrNilContext
	}
	root := opts.Root
	if root == "" {
		root = ApplicationRoot()
	}

	path, variant, err := Discover(root, opts.Mode.development())
	if err != nil {
		return nil, variant, err
	}

	cfgr := NewConfigurator(lc, path)
	cfgr.Stdout = opts.Stdout
	if err := cfgr.Load(); err != nil {
		return nil, variant, err
	}

	if !opts.NoWatch {
		go cfgr.Watch(ctx)
	}
	return cfgr, variant, nil
}

// TryConfigure is Configure reporting through a Result: failures are logged
// on lc's diagnostic channel and never panic.
func TryConfigure(ctx context.Context, lc *logx.Context, opts Options) (res logx.Result[Variant]) {
	diag := logx.NewConsole(logx.Stderr(), logx.LevelInfo)
	if lc != nil {
		diag = lc.Diagnostics()
	}
	diag = diag.Named("config")

	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("configure logging: panic: %v", p)
			diag.Error("failed to configure logging", logx.Err(err))
			res = logx.Fail[Variant](err)
		}
	}()

	cfgr, variant, err := Configure(ctx, lc, opts)
	if err != nil {
		if errors.Is(err, ErrNoConfig) {
			diag.Warn("logging not configured", logx.Err(err))
		} else {
			diag.Error("failed to configure logging", logx.Err(err))
		}
		return logx.Fail[Variant](err)
	}
	diag.Debug("logging configured",
		logx.String("path", cfgr.Path()),
		logx.String("variant", variant.String()),
	)
	return logx.Ok(variant)
}
