// Package logger configures the process-wide slog logger and hands out loggers carrying
// per-context attributes such as the subsystem and the machine being driven.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Used for logging machine-specific messages (so the reader can tell which part of the system
// is generating the log). Using atomic.Value to ensure thread-safe reads and writes.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex serializes ConfigureLoggingWithOptions, which replaces global state.
var configMutex sync.Mutex //nolint:gochecknoglobals

// Unexported custom type for context keys, so other packages using the same string values
// for their own keys cannot collide with ours.
type contextKey string

var (
	// ErrInvalidLogOutput is returned when an invalid log output destination is specified.
	ErrInvalidLogOutput = errors.New("invalid log output")
	// ErrInvalidLogLevel is returned when a log level name cannot be parsed.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer
	// Extra handlers receive every record in addition to the console handler.
	Extra []slog.Handler
}

// ConfigureLoggingWithOptions configures logging for the application.
// It returns the default logger.
// This function is thread-safe but modifies global state, so concurrent calls
// will be serialized.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	var handler slog.Handler

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	if opts.JSON {
		// Configure logging for JSON output
		handler = slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	} else {
		// Configure logging for text output
		handler = slog.NewTextHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	}

	// Extra handlers (such as the OTLP log bridge) see the same records as the console.
	if extra := compact(opts.Extra); len(extra) > 0 {
		handler = newFanout(append([]slog.Handler{handler}, extra...))
	}

	// Create a logger
	logger := slog.New(handler)

	// Set the default logger
	slog.SetDefault(logger)

	// Third party packages may still write through the log package.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	// Set the default name of the subsystem (for informational purposes only)
	subsystem.Store(opts.Subsystem)

	return logger
}

// ParseLevel converts a level name (debug, info, warn, error) into a slog.Level.
// An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level

	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}

	return level, nil
}

// ParseOutput maps "stdout" and "stderr" to the matching file. An empty name means stdout.
func ParseOutput(name string) (io.Writer, error) {
	switch name {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, name)
	}
}

// WithMuted adds a muted flag to the context. Loggers obtained from a muted context
// discard everything.
func WithMuted(ctx context.Context, muted bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("mute"), muted)
}

// isMuted checks if the context has the muted flag set to true.
// Returns false if the context is nil or if the mute flag is not set.
func isMuted(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	muted, ok := ctx.Value(contextKey("mute")).(bool)

	return ok && muted
}

// WithSubsystem adds a subsystem to the context, overriding the one set by
// ConfigureLoggingWithOptions.
func WithSubsystem(ctx context.Context, subsystem string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("subsystem"), subsystem)
}

// GetSubsystem returns the subsystem from the context. If the
// subsystem is not provided, the default subsystem will be used.
func GetSubsystem(ctx context.Context) string { //nolint:contextcheck
	if ctx == nil {
		ctx = context.Background()
	}

	// Check for a subsystem override.
	if val, ok := ctx.Value(contextKey("subsystem")).(string); ok {
		return val
	}

	// Return the default subsystem value (thread-safe read)
	if val, ok := subsystem.Load().(string); ok {
		return val
	}

	return ""
}

// WithMachine records the name of the state machine being driven.
func WithMachine(ctx context.Context, machine string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("machine"), machine)
}

// GetMachine returns the machine name stored by WithMachine.
func GetMachine(ctx context.Context) (string, bool) { //nolint:contextcheck
	if ctx == nil {
		return "", false
	}

	val, ok := ctx.Value(contextKey("machine")).(string)

	return val, ok
}

// getRealContext extracts the first non-nil context from a variadic list.
// If no context is provided or all are nil, it returns context.Background().
func getRealContext(ctx ...context.Context) context.Context {
	// Honestly we only care if there's zero or one contexts.
	// If there's more than one, we'll just use the first one.
	for _, c := range ctx {
		if c != nil {
			return c
		}
	}

	return context.Background()
}

// nullHandler is a slog.Handler implementation that discards all log output.
// It is used to implement the muted logging feature:
// Enabled always returns false, Handle does nothing, and WithAttrs/WithGroup return the
// same handler.
type nullHandler struct{}

func (n *nullHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (n *nullHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (n *nullHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return n
}

func (n *nullHandler) WithGroup(_ string) slog.Handler {
	return n
}

var nullLogger = slog.New(&nullHandler{}) //nolint:gochecknoglobals

// Get returns the default logger decorated with whatever the context carries: the subsystem,
// the machine name and any values added by With.
//
//nolint:contextcheck
func Get(ctx ...context.Context) *slog.Logger {
	realCtx := getRealContext(ctx...)

	// If the logger is muted, we still return a logger,
	// but the logger is incapable of outputting anything.
	if isMuted(realCtx) {
		return nullLogger
	}

	// Get the default logger and add the subsystem name.
	logger := slog.Default().With("subsystem", GetSubsystem(realCtx))

	if machine, ok := GetMachine(realCtx); ok {
		logger = logger.With("machine", machine)
	}

	// Check for key-values to add to the logger.
	if vals := getValues(realCtx); vals != nil {
		logger = logger.With(vals...)
	}

	return logger
}

// With returns a new context with the given values added.
// The values are added to the logger automatically.
func With(ctx context.Context, values ...any) context.Context {
	if len(values) == 0 && ctx != nil {
		// Corner case, don't bother creating a new context.
		return ctx
	}

	if ctx == nil {
		ctx = context.Background()
	}

	existing := getValues(ctx)
	vals := make([]any, 0, len(existing)+len(values))
	vals = append(vals, existing...)
	vals = append(vals, values...)

	return context.WithValue(ctx, contextKey("loggerValues"), vals)
}

// getValues retrieves logger values from the context that were added via With.
// Returns nil if no values are present in the context.
func getValues(ctx context.Context) []any { //nolint:contextcheck
	if ctx == nil {
		return nil
	}

	vals, ok := ctx.Value(contextKey("loggerValues")).([]any)
	if !ok {
		return nil
	}

	return vals
}
