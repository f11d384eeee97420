package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout copies each record to several handlers.
type fanout struct {
	handlers []slog.Handler
}

func newFanout(handlers []slog.Handler) *fanout {
	return &fanout{handlers: handlers}
}

func compact(handlers []slog.Handler) []slog.Handler {
	var out []slog.Handler

	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}

	return out
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error

	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}

		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}

	return newFanout(handlers)
}

func (f *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = h.WithGroup(name)
	}

	return newFanout(handlers)
}
