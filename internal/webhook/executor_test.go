package webhook

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExecutorRunsSubmittedTasks(t *testing.T) {
	e := NewExecutor(zap.NewNop())
	defer e.Stop(context.Background())

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := e.Submit("count", func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
		require.True(t, ok)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, ran)
}

func TestExecutorSurvivesPanickingTask(t *testing.T) {
	e := NewExecutor(zap.NewNop())
	defer e.Stop(context.Background())

	done := make(chan struct{})
	require.True(t, e.Submit("boom", func(ctx context.Context) error {
		defer close(done)
		panic("boom")
	}))
	<-done

	// Workers must keep serving after a panic.
	after := make(chan struct{})
	require.True(t, e.Submit("after", func(ctx context.Context) error {
		close(after)
		return nil
	}))

	select {
	case <-after:
	case <-time.After(2 * time.Second):
		t.Fatal("executor stopped processing after panic")
	}
}

func TestExecutorRejectsAfterStop(t *testing.T) {
	e := NewExecutor(zap.NewNop())
	require.NoError(t, e.Stop(context.Background()))

	assert.False(t, e.Submit("late", func(ctx context.Context) error { return nil }))
}

func TestExecutorStopDrainsInFlightTasks(t *testing.T) {
	e := NewExecutor(zap.NewNop())

	started := make(chan struct{})
	finished := make(chan struct{})
	require.True(t, e.Submit("slow", func(ctx context.Context) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(finished)
		return nil
	}))
	<-started

	require.NoError(t, e.Stop(context.Background()))

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before in-flight task finished")
	}
}
