package fsm_test

import (
	"context"
	"sync"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/fsm/fsmtest"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loggedEvent struct {
	kind   string
	labels fsm.ObservabilityLabels
	detail string
}

type recordingLogger struct {
	mu     sync.Mutex
	events []loggedEvent
}

func (l *recordingLogger) add(ctx context.Context, kind, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, loggedEvent{kind: kind, labels: fsm.GetObservabilityLabels(ctx), detail: detail})
}

func (l *recordingLogger) Triggered(ctx context.Context, transition string, outcome fsm.Outcome) {
	l.add(ctx, "triggered", transition+": "+string(outcome))
}

func (l *recordingLogger) StateChanged(ctx context.Context, from, to string) {
	l.add(ctx, "changed", from+"->"+to)
}

func (l *recordingLogger) HookFailed(ctx context.Context, state, hook string, err error) {
	l.add(ctx, "failed", state+" "+hook+": "+err.Error())
}

func TestLoggerReceivesEngineEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := &recordingLogger{}
	engine := fsm.New(fsm.WithName("logging-test"), fsm.WithLogger(logger))

	start := fsmtest.MustState(t, engine, "Start")
	finish := fsmtest.MustState(t, engine, "Finish", fsm.OnEnter(fsmtest.FailingCounter(errTestAction)))
	transition := fsmtest.MustTransition(t, start, finish, fsm.WithTransitionName("finish"))

	require.NoError(t, engine.Start(ctx, start))
	require.ErrorIs(t, transition.Trigger(ctx), errTestAction)

	expectedLabels := fsm.ObservabilityLabels{Machine: "logging-test", EngineID: engine.ID()}

	assert.Equal(t, []loggedEvent{
		{kind: "changed", labels: expectedLabels, detail: "State Machine Paused->Start"},
		{kind: "changed", labels: expectedLabels, detail: "Start->Finish"},
		{kind: "failed", labels: expectedLabels, detail: "Finish enter: state Finish: enter action: action failed"},
		{kind: "triggered", labels: expectedLabels, detail: "finish: armed, executing"},
	}, logger.events)
}

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	engine := fsm.New(fsm.WithName("default-logger-test"), fsm.WithLogger(fsm.NewDefaultLogger(slogt.New(t))))

	start := fsmtest.MustState(t, engine, "Start", fsm.OnExit(fsmtest.FailingCounter(errTestAction)))
	finish := fsmtest.MustState(t, engine, "Finish")
	transition := fsmtest.MustTransition(t, start, finish)

	require.NoError(t, engine.Start(ctx, start))
	require.ErrorIs(t, transition.Trigger(ctx), errTestAction)
	fsmtest.RequireState(t, engine, finish)
}

func TestObservabilityLabelsMissing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, fsm.ObservabilityLabels{}, fsm.GetObservabilityLabels(context.Background()))
	assert.NotNil(t, fsm.NewDefaultLogger(nil))
}
