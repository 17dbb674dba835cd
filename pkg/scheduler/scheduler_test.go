package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"jpltour/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcherRejectsBadSpec(t *testing.T) {
	_, err := NewWatcher(context.Background(), "tours", "every now and then", func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestRunNowRecordsStatus(t *testing.T) {
	var gotID string
	w, err := NewWatcher(context.Background(), "tours", "*/15 * * * *", func(ctx context.Context, runID string) error {
		gotID = runID
		assert.Equal(t, runID, logger.RunID(ctx))
		return nil
	})
	require.NoError(t, err)

	w.RunNow()

	st := w.Status()
	assert.Equal(t, JobStatusCompleted, st.Status)
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, gotID, st.LastID)
	assert.NotEmpty(t, gotID)
	assert.False(t, st.NextRun.IsZero())
}

func TestRunNowMarksFailure(t *testing.T) {
	w, err := NewWatcher(context.Background(), "tours", "@hourly", func(context.Context, string) error {
		return errors.New("browser did not start")
	})
	require.NoError(t, err)

	w.RunNow()
	assert.Equal(t, JobStatusFailed, w.Status().Status)
}

func TestRunNowRecoversPanic(t *testing.T) {
	w, err := NewWatcher(context.Background(), "tours", "@hourly", func(context.Context, string) error {
		panic("boom")
	})
	require.NoError(t, err)

	assert.NotPanics(t, w.RunNow)
	w.RunNow()
	assert.Equal(t, 2, w.Status().Runs, "a panicking run must not block the next one")
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	w, err := NewWatcher(context.Background(), "tours", "@hourly", func(context.Context, string) error {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		w.RunNow()
		close(done)
	}()
	<-started

	w.RunNow()
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	<-done
	w.RunNow()
	assert.Equal(t, int32(2), calls.Load())
}

func TestTryRunRefusesWhileRunning(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	finished := make(chan struct{}, 2)
	w, err := NewWatcher(context.Background(), "tours", "@hourly", func(context.Context, string) error {
		calls.Add(1)
		<-release
		finished <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	require.True(t, w.TryRun())
	assert.Equal(t, JobStatusRunning, w.Status().Status, "claimed before TryRun returns")
	assert.False(t, w.TryRun())

	// a scheduled tick during the run is skipped too
	w.RunNow()

	close(release)
	<-finished
	require.Eventually(t, func() bool { return w.Status().Status == JobStatusCompleted }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, w.Status().Runs)

	require.True(t, w.TryRun())
	<-finished
	assert.Equal(t, int32(2), calls.Load())
}

func TestTryRunReleasesAfterPanic(t *testing.T) {
	w, err := NewWatcher(context.Background(), "tours", "@hourly", func(context.Context, string) error {
		panic("boom")
	})
	require.NoError(t, err)

	require.True(t, w.TryRun())
	require.Eventually(t, func() bool { return w.Status().Status == JobStatusFailed }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, w.TryRun())
}

func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(ctx, "tours", "@hourly", func(context.Context, string) error { return nil })
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() { errc <- w.Start() }()
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	assert.NoError(t, w.Shutdown(shutdownCtx))
	assert.ErrorIs(t, w.Start(), ErrAlreadyStarted)
}
