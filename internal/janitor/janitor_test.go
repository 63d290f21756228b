package janitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu     sync.Mutex
	cutoff []time.Time
	err    error
}

func (f *fakeSweeper) SweepPartials(_ context.Context, olderThan time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = append(f.cutoff, olderThan)
	return 2, f.err
}

func (f *fakeSweeper) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoff)
}

func TestSweepUsesStaleThreshold(t *testing.T) {
	sweeper := &fakeSweeper{}
	j := New(sweeper, time.Hour, 24*time.Hour, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	removed, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []time.Time{now.Add(-24 * time.Hour)}, sweeper.cutoff)
}

func TestSweepWrapsErrors(t *testing.T) {
	boom := errors.New("permission denied")
	j := New(&fakeSweeper{err: boom}, time.Hour, time.Hour, nil)

	_, err := j.Sweep(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunSweepsImmediatelyAndStops(t *testing.T) {
	sweeper := &fakeSweeper{}
	j := New(sweeper, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return sweeper.calls() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestRunDisabled(t *testing.T) {
	sweeper := &fakeSweeper{}
	j := New(sweeper, 0, time.Hour, nil)

	assert.NoError(t, j.Run(context.Background()))
	assert.Zero(t, sweeper.calls())
}
