package fsm_test

import (
	"context"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/fsm/fsmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSinksDescribeTriggersAndStateChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	changes := fsmtest.NewRecorder()
	triggers := fsmtest.NewRecorder()
	rule := fsmtest.NewSwitch(false)

	engine := fsm.New(
		fsm.WithStateChangedSink(changes.Sink()),
		fsm.WithTriggerSink(triggers.Sink()),
	)

	locked := fsmtest.MustState(t, engine, "Gate Locked")
	unlocked := fsmtest.MustState(t, engine, "Gate Unlocked")
	unlock := fsmtest.MustTransition(t, locked, unlocked, fsm.WithRule(rule))
	lock := fsmtest.MustTransition(t, unlocked, locked)

	require.NoError(t, engine.Start(ctx, locked))
	require.NoError(t, lock.Trigger(ctx))
	require.NoError(t, unlock.Trigger(ctx))

	rule.Set(true)
	require.NoError(t, unlock.Trigger(ctx))

	assert.Equal(t, []string{
		"State transition [State Machine Paused]->[Gate Locked]",
		"State transition [Gate Locked]->[Gate Unlocked]",
	}, changes.Entries())

	assert.Equal(t, []string{
		"Triggered transition from [Gate Unlocked] to [Gate Locked] outcome: disarmed",
		"Triggered transition from [Gate Locked] to [Gate Unlocked] outcome: armed, rejected",
		"Triggered transition from [Gate Locked] to [Gate Unlocked] outcome: armed, executing",
	}, triggers.Entries())
}

func TestTraceSinkIsSingleSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first := fsmtest.NewRecorder()
	second := fsmtest.NewRecorder()

	engine := fsm.New()
	engine.SetStateChangedSink(first.Sink())
	engine.SetStateChangedSink(second.Sink())

	start := fsmtest.MustState(t, engine, "Start")
	finish := fsmtest.MustState(t, engine, "Finish")
	transition := fsmtest.MustTransition(t, start, finish)

	require.NoError(t, engine.Start(ctx, start))

	engine.SetStateChangedSink(nil)
	require.NoError(t, transition.Trigger(ctx))

	assert.Equal(t, 0, first.Len())
	assert.Equal(t, []string{"State transition [State Machine Paused]->[Start]"}, second.Entries())
}

func TestPanickingTraceSinkIsSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	panicking := func(string) { panic("sink failure") }

	engine := fsm.New(fsm.WithStateChangedSink(panicking), fsm.WithTriggerSink(panicking))
	enter := fsmtest.NewCounter()

	start := fsmtest.MustState(t, engine, "Start")
	finish := fsmtest.MustState(t, engine, "Finish", fsm.OnEnter(enter))
	transition := fsmtest.MustTransition(t, start, finish)

	require.NotPanics(t, func() {
		require.NoError(t, engine.Start(ctx, start))
		require.NoError(t, transition.Trigger(ctx))
	})

	fsmtest.RequireState(t, engine, finish)
	assert.Equal(t, 1, enter.Calls())
}

func TestTraceSinkMayTriggerTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := fsm.New()

	start := fsmtest.MustState(t, engine, "Start")
	middle := fsmtest.MustState(t, engine, "Middle")
	finish := fsmtest.MustState(t, engine, "Finish")
	startToMiddle := fsmtest.MustTransition(t, start, middle)
	middleToFinish := fsmtest.MustTransition(t, middle, finish)

	engine.SetStateChangedSink(func(description string) {
		if description == "State transition [Start]->[Middle]" {
			_ = middleToFinish.Trigger(ctx)
		}
	})

	require.NoError(t, engine.Start(ctx, start))
	require.NoError(t, startToMiddle.Trigger(ctx))
	fsmtest.RequireState(t, engine, finish)
}
