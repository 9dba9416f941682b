package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrackerLifecycle(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	run, err := tr.Create(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, run.Status)

	_, err = tr.Create(ctx, "r1")
	assert.Error(t, err)

	require.NoError(t, tr.Start(ctx, "r1"))
	got, err := tr.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)

	require.NoError(t, tr.Finish(ctx, "r1", Report{Files: 1, Chunks: 3, Upserted: 3}, nil))
	got, err = tr.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, Report{Files: 1, Chunks: 3, Upserted: 3}, got.Report())
	assert.Empty(t, got.Error)
}

func TestMemoryTrackerRecordsFailure(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()
	_, err := tr.Create(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, tr.Finish(ctx, "r1", Report{}, errors.New("embed chunks: quota")))
	got, err := tr.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "embed chunks: quota", got.Error)
}

func TestMemoryTrackerUnknownRun(t *testing.T) {
	tr := NewMemoryTracker()
	ctx := context.Background()

	_, err := tr.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, tr.Start(ctx, "nope"), ErrRunNotFound)
	assert.ErrorIs(t, tr.Finish(ctx, "nope", Report{}, nil), ErrRunNotFound)
}

func TestMemoryTrackerListsNewestFirst(t *testing.T) {
	tr := NewMemoryTracker()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	tr.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := tr.Create(ctx, id)
		require.NoError(t, err)
	}

	runs, err := tr.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}
