package fsm

import (
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition describes the shape of a machine. Actions and rules are referenced by name and
// resolved against a Registry when the machine is built.
type Definition struct {
	Name        string                 `json:"name"        yaml:"name"`
	Initial     string                 `json:"initial"     yaml:"initial"`
	States      []StateDefinition      `json:"states"      yaml:"states"`
	Transitions []TransitionDefinition `json:"transitions" yaml:"transitions"`
}

// StateDefinition describes one state. OnEnter and OnExit list action names run in order.
type StateDefinition struct {
	Name    string   `json:"name"    yaml:"name"`
	OnEnter []string `json:"onEnter" yaml:"onEnter"`
	OnExit  []string `json:"onExit"  yaml:"onExit"`
}

// TransitionDefinition describes one transition. An empty rule means "always".
type TransitionDefinition struct {
	Name string `json:"name" yaml:"name"`
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
	Rule string `json:"rule" yaml:"rule"`
}

// TransitionName returns the explicit name, or "<from>-><to>" when none is set.
func (t TransitionDefinition) TransitionName() string {
	if t.Name != "" {
		return t.Name
	}

	return t.From + "->" + t.To
}

// LoadDefinition reads a YAML definition from a file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %q: %w", path, err)
	}

	return LoadDefinitionFromBytes(data)
}

// LoadDefinitionFromFS reads a YAML definition from a filesystem, such as an embed.FS.
func LoadDefinitionFromFS(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition from FS: %w", err)
	}

	return LoadDefinitionFromBytes(data)
}

// LoadDefinitionFromBytes parses and validates a YAML definition.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition

	err := yaml.Unmarshal(data, &def)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = def.Validate()
	if err != nil {
		return nil, err
	}

	return &def, nil
}

// Validate checks that the definition is internally consistent.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}

	if len(d.States) == 0 {
		return fmt.Errorf("%w: at least one state is required", ErrInvalidDefinition)
	}

	states := make(map[string]bool, len(d.States))

	for i, state := range d.States {
		if state.Name == "" {
			return fmt.Errorf("%w: state %d: name is required", ErrInvalidDefinition, i)
		}

		if states[state.Name] {
			return fmt.Errorf("%w: state %s: %w", ErrInvalidDefinition, state.Name, ErrDuplicateName)
		}

		states[state.Name] = true
	}

	if d.Initial == "" {
		return fmt.Errorf("%w: initial state is required", ErrInvalidDefinition)
	}

	if !states[d.Initial] {
		return fmt.Errorf("%w: initial state %s: %w", ErrInvalidDefinition, d.Initial, ErrUnknownState)
	}

	names := make(map[string]bool, len(d.Transitions))

	for i, transition := range d.Transitions {
		if !states[transition.From] {
			return fmt.Errorf("%w: transition %d: from %q: %w", ErrInvalidDefinition, i, transition.From, ErrUnknownState)
		}

		if !states[transition.To] {
			return fmt.Errorf("%w: transition %d: to %q: %w", ErrInvalidDefinition, i, transition.To, ErrUnknownState)
		}

		name := transition.TransitionName()
		if names[name] {
			return fmt.Errorf("%w: transition %s: %w", ErrInvalidDefinition, name, ErrDuplicateName)
		}

		names[name] = true
	}

	return nil
}

// Outgoing returns the transitions leaving the named state, in definition order.
func (d *Definition) Outgoing(state string) []TransitionDefinition {
	var out []TransitionDefinition

	for _, transition := range d.Transitions {
		if transition.From == state {
			out = append(out, transition)
		}
	}

	return out
}
