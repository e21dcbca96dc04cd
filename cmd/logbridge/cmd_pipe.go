package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"logbridge/pkg/logx"
	"logbridge/pkg/logx/logconf"
)

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Log every stdin line through the configured logging context",
	Long: `Reads stdin line by line and logs each line. A leading level word
(DEBUG, INFO, WARN, ERROR, FATAL) sets the record level; other lines are INFO.

Logging config is discovered in --root (logging.Development.config in
development mode, else logging.config) and re-applied when it changes.
Every record is also echoed to stdout through an event sink.`,
	Args: cobra.NoArgs,
	RunE: runPipe,
}

func init() {
	f := pipeCmd.Flags()
	f.String("root", "", "Folder holding the logging config files (default: executable dir)")
	f.String("mode", "auto", "Config variant: auto, development or production")
	f.Bool("verbose", false, "Switch the \"file\" sink to DEBUG..FATAL (default ERROR..FATAL)")
	f.Bool("no-watch", false, "Apply the config once without watching it")
	f.String("logger", "stdin", "Logger name for piped lines")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	for _, name := range []string{"root", "mode", "verbose", "no-watch", "logger", "metrics-addr"} {
		viper.BindPFlag("pipe."+name, f.Lookup(name))
	}

	rootCmd.AddCommand(pipeCmd)
}

func parseMode(s string) (logconf.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return logconf.ModeAuto, nil
	case "dev", "development":
		return logconf.ModeDevelopment, nil
	case "prod", "production":
		return logconf.ModeProduction, nil
	default:
		return logconf.ModeAuto, fmt.Errorf("unknown mode %q", s)
	}
}

func runPipe(cmd *cobra.Command, args []string) error {
	mode, err := parseMode(viper.GetString("pipe.mode"))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	lc := logx.New()
	defer lc.Close()

	res := logconf.TryConfigure(ctx, lc, logconf.Options{
		Root:    viper.GetString("pipe.root"),
		Mode:    mode,
		NoWatch: viper.GetBool("pipe.no-watch"),
	})
	if res.OK {
		lc.Diagnostics().Info("logging configured", logx.String("variant", res.Value.String()))
	}
	if _, env := os.LookupEnv("LOGBRIDGE_PIPE_VERBOSE"); env || cmd.Flags().Changed("verbose") {
		logx.TrySetVerbose(lc, viper.GetBool("pipe.verbose"))
	}

	out := cmd.OutOrStdout()
	ev := logx.TryAddEventSink(lc, "cli")
	if sink, ok := ev.Get(); ok {
		var mu sync.Mutex
		sink.Subscribe(func(r logx.Record) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(out, formatRecord(r))
		})
	}

	if addr := viper.GetString("pipe.metrics-addr"); addr != "" {
		stop, err := serveMetrics(ctx, lc, addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	return pipeLines(ctx, cmd.InOrStdin(), lc.Logger(viper.GetString("pipe.logger")))
}

func pipeLines(ctx context.Context, in io.Reader, log logx.Logger) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			level, msg := splitLevel(line)
			log.Log(level, msg)
		}
	}
}

// splitLevel peels a leading level word ("ERROR", "warn:", "[DEBUG]") off line.
func splitLevel(line string) (logx.Level, string) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	word = strings.Trim(word, "[]:")
	if l, ok := logx.LookupLevel(word); ok && strings.TrimSpace(rest) != "" {
		return l, strings.TrimSpace(rest)
	}
	return logx.LevelInfo, line
}

func formatRecord(r logx.Record) string {
	var b strings.Builder
	b.WriteString(r.Time.Local().Format("15:04:05.000"))
	b.WriteString(" ")
	b.WriteString(fmt.Sprintf("%-5s", r.Level))
	if r.Logger != "" {
		b.WriteString(" [")
		b.WriteString(r.Logger)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(r.Message)
	if r.HasErr() {
		b.WriteString(" err=")
		b.WriteString(r.Err)
	}
	return b.String()
}

func serveMetrics(ctx context.Context, lc *logx.Context, addr string) (stop func(), err error) {
	reg := prometheus.NewRegistry()
	ms, err := logx.NewMetricsSink("metrics", reg)
	if err != nil {
		return nil, err
	}
	if err := lc.AddSink(ms); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	diag := lc.Diagnostics().Named("metrics")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			diag.Error("metrics server failed", logx.String("addr", addr), logx.Err(err))
		}
	}()
	diag.Info("serving metrics", logx.String("addr", addr))

	return func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}, nil
}
