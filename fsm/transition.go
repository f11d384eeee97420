package fsm

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Outcome describes what a trigger did.
type Outcome string

const (
	// OutcomeDisarmed means the engine was not in the transition's owning state.
	OutcomeDisarmed Outcome = "disarmed"
	// OutcomeRejected means the rule evaluated to false.
	OutcomeRejected Outcome = "armed, rejected"
	// OutcomeExecuted means the engine moved to the destination state.
	OutcomeExecuted Outcome = "armed, executing"
	// OutcomeSuperseded means the rule allowed the transition, but another transition moved the
	// engine before the hand-off could begin.
	OutcomeSuperseded Outcome = "armed, superseded"
	// OutcomeRuleFailed means the rule returned an error.
	OutcomeRuleFailed Outcome = "armed, rule failed"
	// OutcomePanicked means a rule or action panicked. It reaches loggers, metrics and spans only;
	// the panic itself propagates to the caller of Fire.
	OutcomePanicked Outcome = "armed, panicked"
)

// Transition moves its engine from an owning state to a destination state when triggered,
// provided the engine is in the owning state and the rule allows it.
type Transition struct {
	name string
	from *State
	to   *State
	rule Rule
}

// TransitionOption configures a Transition at construction.
type TransitionOption func(*Transition)

// WithRule sets the rule gating the transition. A nil rule means Always.
func WithRule(rule Rule) TransitionOption {
	return func(t *Transition) {
		if rule != nil {
			t.rule = rule
		}
	}
}

// WithTransitionName overrides the default "<from>-><to>" name.
func WithTransitionName(name string) TransitionOption {
	return func(t *Transition) {
		if name != "" {
			t.name = name
		}
	}
}

// TransitionTo creates a transition owned by s that leads to the destination state.
func (s *State) TransitionTo(to *State, opts ...TransitionOption) (*Transition, error) {
	if s == nil {
		return nil, invalidArgument("owning state is required")
	}

	if to == nil {
		return nil, invalidArgument("destination state is required")
	}

	if to.engine != s.engine {
		return nil, invalidArgument(fmt.Sprintf("state %q belongs to a different engine", to.name))
	}

	transition := &Transition{
		name: s.name + "->" + to.name,
		from: s,
		to:   to,
		rule: Always,
	}

	for _, opt := range opts {
		opt(transition)
	}

	s.addTransition(transition)

	return transition, nil
}

// Name returns the transition name, "<from>-><to>" unless WithTransitionName was given.
func (t *Transition) Name() string {
	return t.name
}

// From returns the owning state.
func (t *Transition) From() *State {
	return t.from
}

// To returns the destination state.
func (t *Transition) To() *State {
	return t.to
}

// Rule returns the rule gating the transition; Always when none was given.
func (t *Transition) Rule() Rule {
	return t.rule
}

// Armed reports whether the engine is currently in the owning state. The answer may be stale by
// the time the caller acts on it.
func (t *Transition) Armed() bool {
	return t.from.engine.register.Load().is(t.from)
}

// Trigger attempts the transition. Disarmed and rejected triggers are silent no-ops; only errors
// from the rule or from enter/exit actions are returned.
func (t *Transition) Trigger(ctx context.Context) error {
	_, err := t.Fire(ctx)

	return err
}

// Fire attempts the transition and reports what happened.
func (t *Transition) Fire(ctx context.Context) (outcome Outcome, err error) {
	engine := t.from.engine

	ctx, span := engine.startTriggerSpan(ctx, t)

	defer func() {
		r := recover()
		if r != nil {
			outcome = OutcomePanicked
		}

		span.SetAttributes(attribute.String("outcome", string(outcome)))

		switch {
		case r != nil:
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		default:
			span.SetStatus(codes.Ok, string(outcome))
		}

		span.End()

		engine.recordTrigger(ctx, t, outcome)

		if r != nil {
			panic(r)
		}
	}()

	// This read is unlocked and may be stale; the hand-off re-checks under the lock.
	if !engine.register.Load().is(t.from) {
		engine.traceTrigger(t, OutcomeDisarmed)

		return OutcomeDisarmed, nil
	}

	allowed, err := t.rule.Evaluate(ctx)
	if err != nil {
		engine.traceTrigger(t, OutcomeRuleFailed)

		return OutcomeRuleFailed, wrapRuleError(t.from.name, t.to.name, err)
	}

	if !allowed {
		engine.traceTrigger(t, OutcomeRejected)

		return OutcomeRejected, nil
	}

	engine.traceTrigger(t, OutcomeExecuted)

	moved, err := engine.handOff(ctx, t.from, t.to)
	if !moved {
		return OutcomeSuperseded, err
	}

	return OutcomeExecuted, err
}
