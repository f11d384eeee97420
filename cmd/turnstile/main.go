// Command turnstile drives a coin-operated turnstile from an interactive console, serving the
// machine's state and Prometheus metrics over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/fsm/fsmhttp"
	"github.com/amp-labs/amp-fsm/fsm/visualizer"
	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/shutdown"
	"github.com/amp-labs/amp-fsm/telemetry"
	"github.com/amp-labs/amp-fsm/turnstile"
)

const (
	appName           = "turnstile"
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "turnstile:", err)
		os.Exit(1)
	}
}

func run(envFiles []string) error {
	cfg, err := loadConfig(envFiles...)
	if err != nil {
		return err
	}

	logOpts, err := loggingOptions(cfg)
	if err != nil {
		return err
	}

	logger.ConfigureLoggingWithOptions(logOpts)

	handler := shutdown.New(context.Background(), cfg.ShutdownTimeout)
	handler.Listen()

	ctx := logger.WithMachine(handler.Context(), appName)

	telemetryCfg, err := telemetry.LoadConfigFromEnv(appName)
	if err != nil {
		return err
	}

	provider, err := telemetry.Initialize(ctx, telemetryCfg)
	if err != nil {
		return err
	}

	handler.BeforeShutdown("telemetry", provider.Shutdown)

	if extra := provider.LogHandler(appName); extra != nil {
		logOpts.Extra = []slog.Handler{extra}
		logger.ConfigureLoggingWithOptions(logOpts)
	}

	log := logger.Get(ctx)

	gate := &consoleGate{out: os.Stdout}

	opts := []fsm.Option{fsm.WithLogger(fsm.NewDefaultLogger(log))}
	if cfg.Trace {
		opts = append(opts,
			fsm.WithStateChangedSink(printTrace(os.Stdout)),
			fsm.WithTriggerSink(printTrace(os.Stdout)))
	}

	ts, err := turnstile.New(gate, turnstile.Config{
		Price:       cfg.Price,
		RelockAfter: cfg.RelockAfter,
		Logger:      log,
	}, opts...)
	if err != nil {
		return err
	}

	handler.BeforeShutdown("turnstile", func(context.Context) error {
		ts.Close()

		return nil
	})

	if cfg.Diagram != "" {
		defer func() { _ = handler.Shutdown() }()

		return printDiagram(os.Stdout, ts.Machine().Definition(), cfg.Diagram)
	}

	if err := ts.Start(ctx); err != nil {
		_ = handler.Shutdown()

		return err
	}

	if cfg.HTTPAddr != "" {
		serve(handler, cfg.HTTPAddr, newRouter(ts.Machine(), log), log)
	}

	if cfg.Interactive {
		err = console(ctx, cli.Console{}, ts)
		if errors.Is(err, cli.ErrQuit) {
			err = nil
		}

		// A signal may have started the shutdown already; either way wait for the hooks.
		_ = handler.Shutdown()

		return errors.Join(err, handler.Wait())
	}

	<-handler.Context().Done()

	return nil
}

func loggingOptions(cfg Config) (logger.Options, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return logger.Options{}, err
	}

	legacy, err := logger.ParseLevel(cfg.LegacyLogLevel)
	if err != nil {
		return logger.Options{}, err
	}

	output, err := logger.ParseOutput(cfg.LogOutput)
	if err != nil {
		return logger.Options{}, err
	}

	return logger.Options{
		Subsystem:   appName,
		JSON:        cfg.LogJSON,
		MinLevel:    level,
		LegacyLevel: legacy,
		Output:      output,
	}, nil
}

func newRouter(machine *fsm.Machine, log *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/fsm", fsmhttp.NewRouter(machine, log))

	return router
}

func serve(handler *shutdown.Handler, addr string, router http.Handler, log *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	handler.BeforeShutdown("http", srv.Shutdown)

	go func() {
		log.Info("serving HTTP", "addr", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()
}

func printDiagram(out io.Writer, def *fsm.Definition, format string) error {
	render := visualizer.Mermaid
	if format == "dot" {
		render = visualizer.DOT
	}

	diagram, err := render(def, visualizer.DefaultOptions().WithShowActions(true))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, diagram)

	return err
}

func printTrace(out io.Writer) fsm.TraceFunc {
	return func(description string) {
		_, _ = fmt.Fprintln(out, description)
	}
}

type consoleGate struct {
	out io.Writer
}

func (g *consoleGate) Lock() {
	_, _ = fmt.Fprintln(g.out, "Gate locked")
}

func (g *consoleGate) Unlock() {
	_, _ = fmt.Fprintln(g.out, "Gate unlocked")
}
