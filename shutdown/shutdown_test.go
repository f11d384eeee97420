package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errHook = errors.New("hook failed")

func TestBeforeShutdown(t *testing.T) {
	t.Parallel()

	handler := New(t.Context(), time.Second)

	var called atomic.Int32

	handler.BeforeShutdown("one", func(context.Context) error {
		called.Add(1)

		return nil
	})
	handler.BeforeShutdown("ten", func(context.Context) error {
		called.Add(10)

		return nil
	})
	handler.BeforeShutdown("nil", nil)

	require.NoError(t, handler.Shutdown())

	assert.Equal(t, int32(11), called.Load())
	require.Error(t, handler.Context().Err())
}

func TestHooksRunInReverseOrder(t *testing.T) {
	t.Parallel()

	handler := New(t.Context(), time.Second)

	var order []int

	for i := 1; i <= 3; i++ {
		handler.BeforeShutdown("hook", func(context.Context) error {
			order = append(order, i)

			return nil
		})
	}

	require.NoError(t, handler.Shutdown())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestShutdownOnce(t *testing.T) {
	t.Parallel()

	handler := New(t.Context(), time.Second)

	var called atomic.Int32

	handler.BeforeShutdown("failing", func(context.Context) error {
		called.Add(1)

		return errHook
	})

	require.ErrorIs(t, handler.Shutdown(), errHook)
	require.ErrorIs(t, handler.Shutdown(), errHook)
	assert.Equal(t, int32(1), called.Load())
}

func TestHookFailureDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	handler := New(t.Context(), time.Second)

	var ran atomic.Bool

	handler.BeforeShutdown("last", func(context.Context) error {
		ran.Store(true)

		return nil
	})
	handler.BeforeShutdown("first", func(context.Context) error {
		return errHook
	})

	require.ErrorIs(t, handler.Shutdown(), errHook)
	assert.True(t, ran.Load())
}

func TestContextCanceledAfterHooks(t *testing.T) {
	t.Parallel()

	handler := New(t.Context(), time.Second)

	var (
		canceledDuringHook atomic.Bool
		hookHadDeadline    atomic.Bool
	)

	handler.BeforeShutdown("probe", func(ctx context.Context) error {
		canceledDuringHook.Store(handler.Context().Err() != nil)

		_, ok := ctx.Deadline()
		hookHadDeadline.Store(ok)

		return nil
	})

	require.NoError(t, handler.Shutdown())

	assert.False(t, canceledDuringHook.Load())
	assert.True(t, hookHadDeadline.Load())
	<-handler.Context().Done()
}

func TestListenSignal(t *testing.T) { //nolint:paralleltest
	handler := New(t.Context(), time.Second)

	var hookCalled atomic.Bool

	handler.BeforeShutdown("flag", func(context.Context) error {
		hookCalled.Store(true)

		return nil
	})

	handler.Listen()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-handler.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled after signal")
	}

	assert.True(t, hookCalled.Load())
}

func TestListenStopsWithParent(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(t.Context())
	handler := New(parent, 0)

	handler.Listen()
	handler.Listen()
	cancel()

	select {
	case <-handler.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled with its parent")
	}
}

func TestHookMayCallHandler(t *testing.T) {
	t.Parallel()

	handler := New(t.Context(), time.Second)

	var (
		nestedErr error
		lateRan   atomic.Bool
	)

	handler.BeforeShutdown("reentrant", func(context.Context) error {
		nestedErr = handler.Shutdown()

		handler.BeforeShutdown("late", func(context.Context) error {
			lateRan.Store(true)

			return nil
		})

		return nil
	})

	done := make(chan error, 1)

	go func() {
		done <- handler.Shutdown()
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("a hook calling back into the handler blocked shutdown")
	}

	require.ErrorIs(t, nestedErr, ErrInProgress)
	assert.True(t, lateRan.Load())
	require.NoError(t, handler.Wait())
}
