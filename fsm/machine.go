package fsm

import (
	"context"
	"fmt"
)

// Machine is an engine built from a Definition, with its states and transitions indexed by name.
type Machine struct {
	*Engine

	definition  *Definition
	states      map[string]*State
	transitions map[string]*Transition
}

// Build validates a definition and creates its engine, states and transitions. Names in the
// definition are resolved against the registry; a nil registry only knows the built-in rules.
// The machine name defaults to the definition name.
func Build(def *Definition, registry *Registry, opts ...Option) (*Machine, error) {
	if def == nil {
		return nil, invalidArgument("definition is required")
	}

	err := def.Validate()
	if err != nil {
		return nil, err
	}

	if registry == nil {
		registry = NewRegistry()
	}

	engine := New(append([]Option{WithName(def.Name)}, opts...)...)

	machine := &Machine{
		Engine:      engine,
		definition:  def,
		states:      make(map[string]*State, len(def.States)),
		transitions: make(map[string]*Transition, len(def.Transitions)),
	}

	for _, stateDef := range def.States {
		onEnter, err := registry.Action(stateDef.OnEnter...)
		if err != nil {
			return nil, fmt.Errorf("state %s: on enter: %w", stateDef.Name, err)
		}

		onExit, err := registry.Action(stateDef.OnExit...)
		if err != nil {
			return nil, fmt.Errorf("state %s: on exit: %w", stateDef.Name, err)
		}

		state, err := engine.NewState(stateDef.Name, OnEnter(onEnter), OnExit(onExit))
		if err != nil {
			return nil, err
		}

		machine.states[stateDef.Name] = state
	}

	for _, transDef := range def.Transitions {
		rule, err := registry.Rule(transDef.Rule)
		if err != nil {
			return nil, fmt.Errorf("transition %s: %w", transDef.TransitionName(), err)
		}

		transition, err := machine.states[transDef.From].TransitionTo(
			machine.states[transDef.To],
			WithRule(rule),
			WithTransitionName(transDef.TransitionName()),
		)
		if err != nil {
			return nil, err
		}

		machine.transitions[transition.Name()] = transition
	}

	return machine, nil
}

// Definition returns the definition the machine was built from.
func (m *Machine) Definition() *Definition {
	return m.definition
}

// State returns the named state.
func (m *Machine) State(name string) (*State, error) {
	state, ok := m.states[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownState, name)
	}

	return state, nil
}

// Transition returns the named transition.
func (m *Machine) Transition(name string) (*Transition, error) {
	transition, ok := m.transitions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransition, name)
	}

	return transition, nil
}

// States returns the states in definition order.
func (m *Machine) States() []*State {
	out := make([]*State, 0, len(m.definition.States))
	for _, stateDef := range m.definition.States {
		out = append(out, m.states[stateDef.Name])
	}

	return out
}

// Transitions returns the transitions in definition order.
func (m *Machine) Transitions() []*Transition {
	out := make([]*Transition, 0, len(m.definition.Transitions))
	for _, transDef := range m.definition.Transitions {
		out = append(out, m.transitions[transDef.TransitionName()])
	}

	return out
}

// Start starts the engine in the definition's initial state.
func (m *Machine) Start(ctx context.Context) error {
	return m.Engine.Start(ctx, m.states[m.definition.Initial])
}

// Trigger triggers the named transition.
func (m *Machine) Trigger(ctx context.Context, name string) error {
	_, err := m.Fire(ctx, name)

	return err
}

// Fire triggers the named transition and reports the outcome.
func (m *Machine) Fire(ctx context.Context, name string) (Outcome, error) {
	transition, err := m.Transition(name)
	if err != nil {
		return "", err
	}

	return transition.Fire(ctx)
}
