package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	l := NewRunLimiter(2, time.Second)
	ctx := context.Background()

	assert.Equal(t, 2, l.Available())

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, 2, l.ActiveCount())
	assert.Equal(t, 0, l.Available())

	l.Release()
	assert.Equal(t, 1, l.ActiveCount())
	l.Release()
	assert.Equal(t, 0, l.ActiveCount())
}

func TestRunLimiter_TimesOutWhenFull(t *testing.T) {
	l := NewRunLimiter(1, 50*time.Millisecond)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())

	assert.ErrorIs(t, err, ErrTooManyRuns)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRunLimiter_ContextCancelled(t *testing.T) {
	l := NewRunLimiter(1, 5*time.Second)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestRunLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	l := NewRunLimiter(maxConcurrent, time.Second)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		observed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, l.Acquire(context.Background())) {
				return
			}
			defer l.Release()

			mu.Lock()
			observed = max(observed, l.ActiveCount())
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, observed, maxConcurrent)
	assert.Equal(t, 0, l.ActiveCount())
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	l := NewRunLimiter(2, time.Second)
	require.NoError(t, l.WaitForDrain(context.Background()), "idle limiter drains at once")

	require.True(t, l.TryAcquire())
	require.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())

	drained := make(chan error, 1)
	go func() { drained <- l.WaitForDrain(context.Background()) }()

	l.Release()
	select {
	case <-drained:
		t.Fatal("drained with one run active")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-drained:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return")
	}
}

func TestRunLimiter_WaitForDrainCancelled(t *testing.T) {
	l := NewRunLimiter(1, time.Second)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.WaitForDrain(ctx), context.DeadlineExceeded)
}

func TestRunLimiter_Status(t *testing.T) {
	l := NewRunLimiter(0, 0)
	assert.Equal(t, RunLimiterStatus{Active: 0, Available: DefaultMaxConcurrentRuns, MaxConcurrent: DefaultMaxConcurrentRuns}, l.Status())

	require.True(t, l.TryAcquire())
	defer l.Release()
	st := l.Status()
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, DefaultMaxConcurrentRuns-1, st.Available)
}
