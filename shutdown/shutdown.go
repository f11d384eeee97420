// Package shutdown turns SIGINT and SIGTERM into context cancellation and runs cleanup hooks
// before the context is canceled.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const defaultHookTimeout = 5 * time.Second

// ErrInProgress is returned by Shutdown calls made while the hooks are already running.
var ErrInProgress = errors.New("shutdown in progress")

// Hook releases one resource. The context carries the hook timeout.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler collects hooks and runs them once, on the first signal or Shutdown call.
type Handler struct {
	timeout time.Duration

	mu      sync.Mutex
	hooks   []namedHook
	signals chan os.Signal
	done    bool
	err     error

	// finished is closed once every hook has run.
	finished chan struct{}

	ctx    context.Context //nolint:containedctx
	cancel context.CancelFunc
}

// New creates a handler whose context derives from parent. Hooks get timeout to finish; a
// non-positive timeout means five seconds.
func New(parent context.Context, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}

	ctx, cancel := context.WithCancel(parent)

	return &Handler{
		finished: make(chan struct{}),
		timeout:  timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context is canceled after the hooks have run.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// BeforeShutdown registers a hook. The handler context is still alive while hooks run.
// Hooks run in reverse registration order.
func (h *Handler) BeforeShutdown(name string, fn Hook) {
	if fn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.hooks = append(h.hooks, namedHook{name: name, fn: fn})
}

// Listen starts watching for SIGINT and SIGTERM.
func (h *Handler) Listen() {
	h.mu.Lock()

	if h.signals != nil || h.done {
		h.mu.Unlock()

		return
	}

	h.signals = make(chan os.Signal, 1)
	signals := h.signals

	h.mu.Unlock()

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-signals:
			slog.Warn("Received " + sig.String() + ", shutting down...")

			_ = h.Shutdown()
		case <-h.ctx.Done():
		}

		signal.Stop(signals)
	}()
}

// Shutdown runs the hooks and cancels the context. Only the first call does any work and
// returns the joined hook errors. Calls made while the hooks run, including calls from a hook,
// return ErrInProgress at once; later calls return the same errors as the first.
func (h *Handler) Shutdown() error {
	h.mu.Lock()

	if h.done {
		defer h.mu.Unlock()

		select {
		case <-h.finished:
			return h.err
		default:
			return ErrInProgress
		}
	}

	h.done = true

	h.mu.Unlock()

	var errs []error

	// Hooks may register more hooks; keep draining until none are left.
	for hooks := h.takeHooks(); len(hooks) > 0; hooks = h.takeHooks() {
		for i := len(hooks) - 1; i >= 0; i-- {
			hook := hooks[i]

			if err := h.run(hook); err != nil {
				slog.Error("shutdown hook failed", "hook", hook.name, "error", err)

				errs = append(errs, err)
			}
		}
	}

	h.mu.Lock()
	h.err = errors.Join(errs...)
	h.mu.Unlock()

	close(h.finished)
	h.cancel()

	return h.err
}

// Wait blocks until the hooks have run and returns their joined errors.
func (h *Handler) Wait() error {
	<-h.finished

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}

func (h *Handler) takeHooks() []namedHook {
	h.mu.Lock()
	defer h.mu.Unlock()

	hooks := h.hooks
	h.hooks = nil

	return hooks
}

func (h *Handler) run(hook namedHook) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), h.timeout)
	defer cancel()

	return hook.fn(ctx)
}
