package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcodamonte/concurrency/sharedstate/internal/config"
	"github.com/marcodamonte/concurrency/sharedstate/internal/metrics"
	"github.com/marcodamonte/concurrency/sharedstate/internal/scenario"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	env       scenario.Env
	server    *http.Server
	debugAddr string
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sharedstate",
		Short:         "Run shared-state concurrency demonstrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	for _, s := range scenario.All() {
		root.AddCommand(&cobra.Command{
			Use:   s.Name(),
			Short: s.Description(),
			Args:  cobra.NoArgs,
			RunE: a.runE(func(*cobra.Command) error {
				return a.run(s)
			}),
		})
	}

	root.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Run every scenario in order",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command) error {
			var errs []error
			for _, s := range scenario.All() {
				if err := cmd.Context().Err(); err != nil {
					a.env.Logger.Warn("interrupted", "err", err)
					break
				}
				if err := a.run(s); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}),
	})

	return root
}

// runE wraps a subcommand body so the debug server is closed whatever the
// body returns. cobra skips PersistentPostRunE when RunE fails.
func (a *app) runE(fn func(cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		defer func() {
			err = errors.Join(err, a.teardown())
		}()
		return fn(cmd)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), level)
	slog.SetDefault(logger)

	a.env = scenario.Env{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Out:     cmd.OutOrStdout(),
	}

	if cfg.MetricsAddr != "" {
		return a.serveDebug(cfg.MetricsAddr)
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// serveDebug exposes /metrics and /debug/pprof/. A goroutine profile taken
// while a deadlock scenario is waiting shows the parked workers.
func (a *app) serveDebug(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.env.Metrics.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.debugAddr = ln.Addr().String()
	a.env.Logger.Info("debug server listening", "addr", a.debugAddr)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.env.Logger.Error("debug server", "err", err)
		}
	}()
	return nil
}

func (a *app) teardown() error {
	if a.server == nil {
		return nil
	}
	srv := a.server
	a.server = nil
	return srv.Close()
}

func (a *app) run(s scenario.Scenario) error {
	res, err := scenario.Run(a.env, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.env.Out, "  → %s in %s\n", res.Outcome, res.Duration.Round(time.Millisecond))
	return nil
}
