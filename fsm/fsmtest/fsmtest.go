// Package fsmtest provides testing utilities for state machines built with package fsm.
package fsmtest

import (
	"context"
	"sync"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// Recorder is a goroutine-safe trace sink that keeps every description it receives.
type Recorder struct {
	mu      sync.Mutex
	entries []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Sink returns a TraceFunc that appends to the recorder.
func (r *Recorder) Sink() fsm.TraceFunc {
	return func(description string) {
		r.mu.Lock()
		defer r.mu.Unlock()

		r.entries = append(r.entries, description)
	}
}

// Entries returns a copy of the recorded descriptions.
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.entries))
	copy(out, r.entries)

	return out
}

// Len returns the number of recorded descriptions.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Counter is an Action that counts its invocations and optionally fails or runs a callback.
type Counter struct {
	calls atomic.Int64
	err   error
	hook  func(ctx context.Context)
}

// NewCounter creates a counting action that always succeeds.
func NewCounter() *Counter {
	return &Counter{}
}

// FailingCounter creates a counting action that returns err on every call.
func FailingCounter(err error) *Counter {
	return &Counter{err: err}
}

// CounterWith creates a counting action that runs fn on every call.
func CounterWith(fn func(ctx context.Context)) *Counter {
	return &Counter{hook: fn}
}

func (c *Counter) Run(ctx context.Context) error {
	c.calls.Inc()

	if c.hook != nil {
		c.hook(ctx)
	}

	return c.err
}

// Calls returns how many times the action ran.
func (c *Counter) Calls() int {
	return int(c.calls.Load())
}

// Switch is a Rule whose answer can be flipped from any goroutine.
type Switch struct {
	allowed     atomic.Bool
	evaluations atomic.Int64
}

// NewSwitch creates a switch rule with the given initial answer.
func NewSwitch(allowed bool) *Switch {
	s := &Switch{}
	s.allowed.Store(allowed)

	return s
}

func (s *Switch) Evaluate(context.Context) (bool, error) {
	s.evaluations.Inc()

	return s.allowed.Load(), nil
}

// Set changes the answer.
func (s *Switch) Set(allowed bool) {
	s.allowed.Store(allowed)
}

// Evaluations returns how many times the rule was evaluated.
func (s *Switch) Evaluations() int {
	return int(s.evaluations.Load())
}

// MustState creates a state or fails the test.
func MustState(t *testing.T, engine *fsm.Engine, name string, opts ...fsm.StateOption) *fsm.State {
	t.Helper()

	state, err := engine.NewState(name, opts...)
	require.NoError(t, err, "failed to create state %s", name)

	return state
}

// MustTransition creates a transition or fails the test.
func MustTransition(t *testing.T, from, to *fsm.State, opts ...fsm.TransitionOption) *fsm.Transition {
	t.Helper()

	transition, err := from.TransitionTo(to, opts...)
	require.NoError(t, err, "failed to create transition %s->%s", from.Name(), to.Name())

	return transition
}

// RequireState fails the test unless the engine rests in the expected state.
func RequireState(t *testing.T, engine *fsm.Engine, expected *fsm.State) {
	t.Helper()

	require.Equal(t, fsm.PhaseActive, engine.Phase(), "engine is not resting in a state")
	require.Same(t, expected, engine.CurrentState(),
		"expected state %s, got %s", expected.Name(), engine.CurrentState())
}
