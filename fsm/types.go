// Package fsm provides an embeddable finite state machine: named states with enter/exit actions,
// guarded transitions, and a single-transition-at-a-time engine that is safe to trigger from many
// goroutines.
package fsm

import "context"

// Rule gates a transition. A triggered transition only executes when its rule evaluates to true.
type Rule interface {
	Evaluate(ctx context.Context) (bool, error)
}

// Action is a side effect run when a state is entered or exited.
type Action interface {
	Run(ctx context.Context) error
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(ctx context.Context) (bool, error)

func (f RuleFunc) Evaluate(ctx context.Context) (bool, error) {
	return f(ctx)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context) error

func (f ActionFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// TraceFunc receives human-readable diagnostics from an engine.
type TraceFunc func(description string)

var (
	// Always is the default rule: every trigger is allowed.
	Always Rule = RuleFunc(func(context.Context) (bool, error) { return true, nil })

	// Never rejects every trigger.
	Never Rule = RuleFunc(func(context.Context) (bool, error) { return false, nil })

	// Noop is the default enter/exit action.
	Noop Action = ActionFunc(func(context.Context) error { return nil })
)

// Predicate wraps a plain boolean check as a Rule.
func Predicate(check func() bool) Rule {
	return RuleFunc(func(context.Context) (bool, error) {
		return check(), nil
	})
}

// Do wraps a plain function as an Action that never fails.
func Do(fn func()) Action {
	return ActionFunc(func(context.Context) error {
		fn()

		return nil
	})
}

// Sequence runs actions in order and stops at the first error.
func Sequence(actions ...Action) Action {
	return ActionFunc(func(ctx context.Context) error {
		for _, action := range actions {
			if action == nil {
				continue
			}

			if err := action.Run(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
