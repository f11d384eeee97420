package fsm

import (
	"fmt"
	"sync"
)

// Built-in rule names.
const (
	RuleAlways = "always"
	RuleNever  = "never"
)

// Registry maps names used in a Definition to rules and actions supplied by the host.
type Registry struct {
	mu      sync.RWMutex
	rules   map[string]Rule
	actions map[string]Action
}

// NewRegistry creates a registry with the built-in "always" and "never" rules.
func NewRegistry() *Registry {
	registry := &Registry{
		rules:   make(map[string]Rule),
		actions: make(map[string]Action),
	}

	registry.RegisterRule(RuleAlways, Always)
	registry.RegisterRule(RuleNever, Never)

	return registry
}

// RegisterRule registers a rule under a name, replacing any previous registration.
func (r *Registry) RegisterRule(name string, rule Rule) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules[name] = rule

	return r
}

// RegisterAction registers an action under a name, replacing any previous registration.
func (r *Registry) RegisterAction(name string, action Action) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions[name] = action

	return r
}

// Rule resolves a rule name. The empty name resolves to Always.
func (r *Registry) Rule(name string) (Rule, error) {
	if name == "" {
		return Always, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, name)
	}

	return rule, nil
}

// Action resolves a list of action names into one action running them in order.
func (r *Registry) Action(names ...string) (Action, error) {
	if len(names) == 0 {
		return Noop, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]Action, 0, len(names))

	for _, name := range names {
		action, ok := r.actions[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
		}

		actions = append(actions, action)
	}

	if len(actions) == 1 {
		return actions[0], nil
	}

	return Sequence(actions...), nil
}
