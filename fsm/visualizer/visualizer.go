// Package visualizer renders machine definitions as Mermaid or Graphviz DOT diagrams.
package visualizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/amp-fsm/fsm"
)

// Visualizer errors.
var (
	ErrDefinitionNil  = errors.New("definition cannot be nil")
	ErrNoInitialState = errors.New("definition must have an initial state")
)

// Mermaid converts a Definition to a Mermaid state diagram.
func Mermaid(def *fsm.Definition, opts Options) (string, error) {
	err := check(def)
	if err != nil {
		return "", err
	}

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}

	var sb strings.Builder

	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    direction %s\n", direction)
	fmt.Fprintf(&sb, "    [*] --> %s\n", mermaidID(def.Initial))

	for _, state := range sortedStates(def) {
		id := mermaidID(state.Name)

		if id != state.Name || (opts.ShowActions && hasActions(state)) {
			label := state.Name
			if opts.ShowActions && hasActions(state) {
				label += `\n` + actionSummary(state)
			}

			fmt.Fprintf(&sb, "    %s: %s\n", id, label)
		}

		for _, transition := range def.Outgoing(state.Name) {
			label := ""
			if opts.ShowRules && transition.Rule != "" && transition.Rule != fsm.RuleAlways {
				label = ": " + transition.Rule
			}

			fmt.Fprintf(&sb, "    %s --> %s%s\n", id, mermaidID(transition.To), label)
		}
	}

	if opts.Highlight != "" {
		sb.WriteString("\n")
		sb.WriteString("    classDef current fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
		fmt.Fprintf(&sb, "    class %s current\n", mermaidID(opts.Highlight))
	}

	return sb.String(), nil
}

// DOT converts a Definition to a Graphviz digraph.
func DOT(def *fsm.Definition, opts Options) (string, error) {
	err := check(def)
	if err != nil {
		return "", err
	}

	rankdir := "TB"
	if opts.Direction == "LR" {
		rankdir = "LR"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "digraph %q {\n", def.Name)
	fmt.Fprintf(&sb, "    rankdir=%s;\n", rankdir)
	sb.WriteString("    __start [shape=point];\n")

	for _, state := range sortedStates(def) {
		attrs := []string{"shape=box", "style=rounded"}

		label := state.Name
		if opts.ShowActions && hasActions(state) {
			label += `\n` + actionSummary(state)
		}

		attrs = append(attrs, fmt.Sprintf("label=%q", label))

		if state.Name == opts.Highlight {
			attrs = append(attrs, `style="rounded,filled"`, `fillcolor="#fff9c4"`)
		}

		fmt.Fprintf(&sb, "    %q [%s];\n", state.Name, strings.Join(attrs, ", "))
	}

	fmt.Fprintf(&sb, "    __start -> %q;\n", def.Initial)

	for _, state := range sortedStates(def) {
		for _, transition := range def.Outgoing(state.Name) {
			label := transition.TransitionName()
			if opts.ShowRules && transition.Rule != "" && transition.Rule != fsm.RuleAlways {
				label += " [" + transition.Rule + "]"
			}

			fmt.Fprintf(&sb, "    %q -> %q [label=%q];\n", transition.From, transition.To, label)
		}
	}

	sb.WriteString("}\n")

	return sb.String(), nil
}

func check(def *fsm.Definition) error {
	if def == nil {
		return ErrDefinitionNil
	}

	if def.Initial == "" {
		return ErrNoInitialState
	}

	return nil
}

// sortedStates returns the states in natural name order so "State 2" sorts before "State 10".
func sortedStates(def *fsm.Definition) []fsm.StateDefinition {
	states := slices.Clone(def.States)

	slices.SortStableFunc(states, func(a, b fsm.StateDefinition) int {
		switch {
		case a.Name == b.Name:
			return 0
		case natsort.Compare(a.Name, b.Name):
			return -1
		default:
			return 1
		}
	})

	return states
}

func hasActions(state fsm.StateDefinition) bool {
	return len(state.OnEnter) > 0 || len(state.OnExit) > 0
}

func actionSummary(state fsm.StateDefinition) string {
	var parts []string

	if len(state.OnEnter) > 0 {
		parts = append(parts, "enter: "+strings.Join(state.OnEnter, ", "))
	}

	if len(state.OnExit) > 0 {
		parts = append(parts, "exit: "+strings.Join(state.OnExit, ", "))
	}

	return strings.Join(parts, `\n`)
}

// mermaidID turns a state name into a Mermaid-safe identifier.
func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
