package fsm

import (
	"context"
	"log/slog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const labelsContextKey contextKey = "fsm_labels"

// Logger receives structured notifications from an engine. Unlike the trace sinks, a Logger is
// meant for operational logging.
type Logger interface {
	Triggered(ctx context.Context, transition string, outcome Outcome)
	StateChanged(ctx context.Context, from, to string)
	HookFailed(ctx context.Context, state, hook string, err error)
}

// ObservabilityLabels identifies the engine that produced a log call.
type ObservabilityLabels struct {
	Machine  string
	EngineID string
}

// GetObservabilityLabels extracts the engine labels from a context passed to a Logger.
// Returns an empty ObservabilityLabels struct if none are present.
func GetObservabilityLabels(ctx context.Context) ObservabilityLabels {
	labels, ok := ctx.Value(labelsContextKey).(ObservabilityLabels)
	if !ok {
		return ObservabilityLabels{}
	}

	return labels
}

func (e *Engine) withLabels(ctx context.Context) context.Context {
	return context.WithValue(ctx, labelsContextKey, ObservabilityLabels{
		Machine:  e.name,
		EngineID: e.id,
	})
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger that writes to l, or to slog.Default() when l is nil.
func NewDefaultLogger(l *slog.Logger) *DefaultLogger {
	if l == nil {
		l = slog.Default()
	}

	return &DefaultLogger{logger: l}
}

func (l *DefaultLogger) Triggered(ctx context.Context, transition string, outcome Outcome) {
	l.logger.DebugContext(ctx, "Transition triggered",
		append(labelFields(ctx), "transition", transition, "outcome", string(outcome))...)
}

func (l *DefaultLogger) StateChanged(ctx context.Context, from, to string) {
	l.logger.InfoContext(ctx, "State changed",
		append(labelFields(ctx), "from", from, "to", to)...)
}

func (l *DefaultLogger) HookFailed(ctx context.Context, state, hook string, err error) {
	l.logger.ErrorContext(ctx, "State action failed",
		append(labelFields(ctx), "state", state, "hook", hook, "error", err)...)
}

func labelFields(ctx context.Context) []any {
	labels := GetObservabilityLabels(ctx)

	return []any{
		"machine", labels.Machine,
		"engine_id", labels.EngineID,
	}
}
