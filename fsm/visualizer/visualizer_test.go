package visualizer

import (
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnstileDefinition() *fsm.Definition {
	return &fsm.Definition{
		Name:    "turnstile",
		Initial: "Gate Locked",
		States: []fsm.StateDefinition{
			{Name: "Gate Unlocked", OnEnter: []string{"unlock_gate"}},
			{Name: "Gate Locked", OnEnter: []string{"lock_gate", "clear_total"}},
		},
		Transitions: []fsm.TransitionDefinition{
			{Name: "coin", From: "Gate Locked", To: "Gate Unlocked", Rule: "paid"},
			{Name: "push", From: "Gate Unlocked", To: "Gate Locked", Rule: fsm.RuleAlways},
		},
	}
}

func TestMermaid(t *testing.T) {
	t.Parallel()

	out, err := Mermaid(turnstileDefinition(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "stateDiagram-v2\n"+
		"    direction TD\n"+
		"    [*] --> Gate_Locked\n"+
		"    Gate_Locked: Gate Locked\n"+
		"    Gate_Locked --> Gate_Unlocked: paid\n"+
		"    Gate_Unlocked: Gate Unlocked\n"+
		"    Gate_Unlocked --> Gate_Locked\n", out)
}

func TestMermaidWithActionsAndHighlight(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions().
		WithShowRules(false).
		WithShowActions(true).
		WithDirection("LR").
		WithHighlight("Gate Unlocked")

	out, err := Mermaid(turnstileDefinition(), opts)
	require.NoError(t, err)

	assert.Contains(t, out, "    direction LR\n")
	assert.Contains(t, out, `    Gate_Locked: Gate Locked\nenter: lock_gate, clear_total`+"\n")
	assert.Contains(t, out, "    Gate_Locked --> Gate_Unlocked\n")
	assert.Contains(t, out, "    class Gate_Unlocked current\n")
}

func TestDOT(t *testing.T) {
	t.Parallel()

	out, err := DOT(turnstileDefinition(), DefaultOptions().WithHighlight("Gate Locked"))
	require.NoError(t, err)

	assert.Contains(t, out, "digraph \"turnstile\" {\n")
	assert.Contains(t, out, "    rankdir=TB;\n")
	assert.Contains(t, out, "    __start -> \"Gate Locked\";\n")
	assert.Contains(t, out, "    \"Gate Locked\" -> \"Gate Unlocked\" [label=\"coin [paid]\"];\n")
	assert.Contains(t, out, "    \"Gate Unlocked\" -> \"Gate Locked\" [label=\"push\"];\n")
	assert.Contains(t, out, `fillcolor="#fff9c4"`)
}

func TestStatesAreNaturallySorted(t *testing.T) {
	t.Parallel()

	def := &fsm.Definition{
		Name:    "steps",
		Initial: "step 1",
		States: []fsm.StateDefinition{
			{Name: "step 10"}, {Name: "step 2"}, {Name: "step 1"},
		},
	}

	names := make([]string, 0, len(def.States))
	for _, state := range sortedStates(def) {
		names = append(names, state.Name)
	}

	assert.Equal(t, []string{"step 1", "step 2", "step 10"}, names)
	assert.Equal(t, "step 10", def.States[0].Name, "definition order is untouched")
}

func TestInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Mermaid(nil, DefaultOptions())
	require.ErrorIs(t, err, ErrDefinitionNil)

	_, err = DOT(&fsm.Definition{Name: "empty"}, DefaultOptions())
	require.ErrorIs(t, err, ErrNoInitialState)
}
