package fsm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/atomic"
)

const (
	defaultMachineName = "fsm"

	// pausedName is how traces, logs and metrics refer to the register while it holds no state,
	// whether before Start or mid hand-off.
	pausedName = "State Machine Paused"
)

// Phase is the condition of an engine's current-state register. Unstarted and paused both
// report as "State Machine Paused" in traces; Start is a hand-off out of that pseudo-state.
type Phase int

const (
	// PhaseUnstarted means Start has not completed its hand-off yet.
	PhaseUnstarted Phase = iota
	// PhasePaused means a hand-off is in progress; every transition is disarmed.
	PhasePaused
	// PhaseActive means the engine rests in a state.
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseUnstarted:
		return "unstarted"
	case PhasePaused:
		return "paused"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// register is an immutable snapshot of the current-state register.
type register struct {
	phase Phase
	state *State
}

var (
	unstartedRegister = &register{phase: PhaseUnstarted}
	pausedRegister    = &register{phase: PhasePaused}
)

func (r *register) is(s *State) bool {
	return r.phase == PhaseActive && r.state == s
}

func (r *register) name() string {
	if r.phase != PhaseActive {
		return pausedName
	}

	return r.state.name
}

type traceSlot struct {
	fn TraceFunc
}

// Engine holds the current state of one machine and serializes its transitions.
//
// Transitions may be triggered from any goroutine. At most one hand-off (exit action plus
// state assignment) runs at a time. Enter actions run after the lock is released, so a second
// transition may begin before the first transition's enter action has returned.
type Engine struct {
	id     string
	name   string
	logger Logger

	// mu serializes hand-offs. register is written only while mu is held.
	mu       sync.Mutex
	register atomic.Pointer[register]

	onStateChanged atomic.Pointer[traceSlot]
	onTrigger      atomic.Pointer[traceSlot]
}

// New creates an unstarted engine.
func New(opts ...Option) *Engine {
	engine := &Engine{
		id:   uuid.NewString(),
		name: defaultMachineName,
	}

	engine.register.Store(unstartedRegister)

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// ID returns the random identifier of this engine instance.
func (e *Engine) ID() string {
	return e.id
}

// Name returns the machine name used in logs, metrics and spans.
func (e *Engine) Name() string {
	return e.name
}

// CurrentState returns the state the engine rests in, or nil while unstarted or mid hand-off.
func (e *Engine) CurrentState() *State {
	return e.register.Load().state
}

// Phase reports whether the engine is unstarted, mid hand-off, or resting in a state.
func (e *Engine) Phase() Phase {
	return e.register.Load().phase
}

// Started reports whether Start has succeeded.
func (e *Engine) Started() bool {
	return e.Phase() != PhaseUnstarted
}

// SetStateChangedSink replaces the state-changed trace sink. Nil removes it.
func (e *Engine) SetStateChangedSink(fn TraceFunc) {
	setSink(&e.onStateChanged, fn)
}

// SetTriggerSink replaces the trigger trace sink. Nil removes it.
func (e *Engine) SetTriggerSink(fn TraceFunc) {
	setSink(&e.onTrigger, fn)
}

// Start moves the engine from unstarted into the initial state, running the initial state's
// enter action. An engine can be started once; later calls fail with ErrFalseStart and leave the
// current state untouched.
func (e *Engine) Start(ctx context.Context, initial *State) (err error) {
	if initial == nil {
		return invalidArgument("initial state is required")
	}

	if initial.engine != e {
		return invalidArgument("initial state " + initial.name + " belongs to a different engine")
	}

	ctx, span := e.startStartSpan(ctx, initial)

	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
			span.End()

			panic(r)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "started")
		}

		span.End()
	}()

	// Exit actions run under the lock, so a Start issued from one must not wait for it.
	if e.register.Load().phase != PhaseUnstarted {
		return ErrFalseStart
	}

	moved, err := e.handOff(ctx, nil, initial)
	if !moved {
		return ErrFalseStart
	}

	return err
}

// handOff moves the engine from one state to another. A nil from means the unstarted register.
// It reports false, without running any action, when the register no longer matches from.
//
// Once the register has been paused, the engine always ends in to, even if the exit action
// fails or panics. A failed exit action skips the enter action. Trace sinks, the logger and the
// enter action are called after the lock is released, so they may trigger further transitions.
func (e *Engine) handOff(ctx context.Context, from, to *State) (bool, error) {
	var (
		start    = time.Now()
		fromName string
		settled  bool
		notified bool
	)

	defer func() {
		if settled && !notified {
			e.stateChanged(ctx, fromName, to.name)
		}
	}()

	e.mu.Lock()

	unlock := sync.OnceFunc(e.mu.Unlock)
	defer unlock()

	current := e.register.Load()
	if from == nil && current.phase != PhaseUnstarted {
		return false, nil
	}

	if from != nil && !current.is(from) {
		return false, nil
	}

	fromName = current.name()

	e.register.Store(pausedRegister)

	err := func() error {
		defer func() {
			e.register.Store(&register{phase: PhaseActive, state: to})
			settled = true
		}()

		if from == nil {
			return nil
		}

		return from.exit(ctx)
	}()

	unlock()
	observeHandOff(e.name, time.Since(start))

	notified = true
	e.stateChanged(ctx, fromName, to.name)

	if err != nil {
		e.hookFailed(ctx, from.name, HookExit, err)

		return true, err
	}

	err = to.enter(ctx)
	if err != nil {
		e.hookFailed(ctx, to.name, HookEnter, err)
	}

	return true, err
}

func (e *Engine) stateChanged(ctx context.Context, from, to string) {
	emit(&e.onStateChanged, "State transition ["+from+"]->["+to+"]")

	transitionsTotal.WithLabelValues(sanitizeMachine(e.name), from, to).Inc()

	if e.logger != nil {
		e.logger.StateChanged(e.withLabels(ctx), from, to)
	}
}

func (e *Engine) traceTrigger(t *Transition, outcome Outcome) {
	emit(&e.onTrigger,
		"Triggered transition from ["+t.from.name+"] to ["+t.to.name+"] outcome: "+string(outcome))
}

func (e *Engine) recordTrigger(ctx context.Context, t *Transition, outcome Outcome) {
	triggersTotal.WithLabelValues(sanitizeMachine(e.name), string(outcome)).Inc()

	if e.logger != nil {
		e.logger.Triggered(e.withLabels(ctx), t.name, outcome)
	}
}

func (e *Engine) hookFailed(ctx context.Context, state, hook string, err error) {
	hookFailuresTotal.WithLabelValues(sanitizeMachine(e.name), state, hook).Inc()

	if e.logger != nil {
		e.logger.HookFailed(e.withLabels(ctx), state, hook, err)
	}
}

func setSink(slot *atomic.Pointer[traceSlot], fn TraceFunc) {
	if fn == nil {
		slot.Store(nil)

		return
	}

	slot.Store(&traceSlot{fn: fn})
}

// emit delivers a trace description. Sink panics are swallowed.
func emit(slot *atomic.Pointer[traceSlot], description string) {
	sink := slot.Load()
	if sink == nil {
		return
	}

	defer func() {
		_ = recover()
	}()

	sink.fn(description)
}
