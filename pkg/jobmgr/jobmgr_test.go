package jobmgr

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStopWaitsForJob(t *testing.T) {
	m := NewManager(nil)
	var settled atomic.Bool

	require.NoError(t, m.Start(context.Background(), "a", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		settled.Store(true)
		return ctx.Err()
	}))
	assert.True(t, m.Running("a"))

	require.NoError(t, m.Stop(context.Background(), "a"))
	assert.True(t, settled.Load(), "Stop returns only after the job finished")
	assert.False(t, m.Running("a"))
}

func TestDuplicateAndMissing(t *testing.T) {
	m := NewManager(nil)
	block := func(ctx context.Context) error { <-ctx.Done(); return nil }

	require.NoError(t, m.Start(context.Background(), "a", block))
	assert.ErrorIs(t, m.Start(context.Background(), "a", block), ErrRunning)
	assert.ErrorIs(t, m.Stop(context.Background(), "b"), ErrNotRunning)
	assert.Equal(t, "Running jobs: a", m.Status())

	require.NoError(t, m.StopAll(context.Background()))
	assert.Equal(t, "No jobs are running.", m.Status())
}

func TestFinishedJobIsForgotten(t *testing.T) {
	var events []string
	done := make(chan struct{})
	m := NewManager(func(s string) {
		events = append(events, s)
		if s == "done:quick" {
			close(done)
		}
	})

	require.NoError(t, m.Start(context.Background(), "quick", func(context.Context) error { return nil }))
	<-done
	assert.Eventually(t, func() bool { return !m.Running("quick") }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"running:quick", "done:quick"}, events)
}

func TestParentCancellationStopsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(nil)
	require.NoError(t, m.Start(ctx, "a", func(ctx context.Context) error { <-ctx.Done(); return nil }))

	cancel()
	assert.Eventually(t, func() bool { return !m.Running("a") }, time.Second, time.Millisecond)
}
