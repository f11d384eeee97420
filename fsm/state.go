package fsm

import (
	"context"
	"sync"
)

// State is a named node of a machine with an enter and an exit action.
// States are created by, and only usable with, the Engine that created them.
type State struct {
	engine  *Engine
	name    string
	onEnter Action
	onExit  Action

	mu          sync.Mutex
	transitions []*Transition
}

// StateOption configures a State at construction.
type StateOption func(*State)

// OnEnter sets the action run when the state is entered. A nil action is a no-op.
func OnEnter(action Action) StateOption {
	return func(s *State) {
		if action != nil {
			s.onEnter = action
		}
	}
}

// OnExit sets the action run when the state is left. A nil action is a no-op.
func OnExit(action Action) StateOption {
	return func(s *State) {
		if action != nil {
			s.onExit = action
		}
	}
}

// NewState creates a state owned by this engine.
func (e *Engine) NewState(name string, opts ...StateOption) (*State, error) {
	if name == "" {
		return nil, invalidArgument("state name must not be empty")
	}

	state := &State{
		engine:  e,
		name:    name,
		onEnter: Noop,
		onExit:  Noop,
	}

	for _, opt := range opts {
		opt(state)
	}

	return state, nil
}

// Name returns the name given at construction.
func (s *State) Name() string {
	return s.name
}

func (s *State) String() string {
	return s.name
}

// Transitions returns the transitions created from this state, in creation order.
func (s *State) Transitions() []*Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Transition, len(s.transitions))
	copy(out, s.transitions)

	return out
}

func (s *State) addTransition(t *Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transitions = append(s.transitions, t)
}

func (s *State) enter(ctx context.Context) error {
	return wrapHookError(s.name, HookEnter, s.onEnter.Run(ctx))
}

func (s *State) exit(ctx context.Context) error {
	return wrapHookError(s.name, HookExit, s.onExit.Run(ctx))
}
