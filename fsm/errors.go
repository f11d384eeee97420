package fsm

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrInvalidArgument indicates a malformed state, transition or start request.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrFalseStart is returned when Start is called on an engine that was already started.
	ErrFalseStart = errors.New("state machine already started")

	// ErrInvalidDefinition indicates that a machine definition failed validation.
	ErrInvalidDefinition = errors.New("invalid definition")
	// ErrDuplicateName indicates that a state or transition name is used twice.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrUnknownState indicates that a state name could not be resolved.
	ErrUnknownState = errors.New("unknown state")
	// ErrUnknownTransition indicates that a transition name could not be resolved.
	ErrUnknownTransition = errors.New("unknown transition")
	// ErrUnknownRule indicates that a rule name is not registered.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrUnknownAction indicates that an action name is not registered.
	ErrUnknownAction = errors.New("unknown action")
)

// Hook names used in HookError.
const (
	HookEnter = "enter"
	HookExit  = "exit"
)

// HookError wraps a failure returned by a state's enter or exit action.
type HookError struct {
	State string
	Hook  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("state %s: %s action: %v", e.State, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// RuleError wraps a failure returned by a transition rule.
type RuleError struct {
	From string
	To   string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("transition %s -> %s: rule: %v", e.From, e.To, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func wrapHookError(state, hook string, err error) error {
	if err == nil {
		return nil
	}

	return &HookError{
		State: state,
		Hook:  hook,
		Err:   err,
	}
}

func wrapRuleError(from, to string, err error) error {
	if err == nil {
		return nil
	}

	return &RuleError{
		From: from,
		To:   to,
		Err:  err,
	}
}

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
