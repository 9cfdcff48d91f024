package bench

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	// Empty store
	runs, err := store.LoadAll(ctx, "square")
	require.NoError(t, err)
	assert.Empty(t, runs)
	latest, err := store.LoadLatest(ctx, "square")
	require.NoError(t, err)
	assert.Nil(t, latest)

	run1 := Run{
		Suite:     "square",
		Timestamp: time.Now().Add(-time.Hour).UTC(),
		Times:     100,
		Order:     OrderRandom,
		Summaries: []Summary{{Label: "mul", Median: 100, NEval: 100}},
	}
	other := Run{Suite: "call", Timestamp: time.Now().UTC(), Summaries: []Summary{{Label: "direct"}}}
	run2 := Run{
		Suite:     "square",
		Timestamp: time.Now().UTC(),
		Times:     100,
		Order:     OrderBlock,
		Summaries: []Summary{{Label: "mul", Median: 110, NEval: 100}},
	}

	// Saved out of order on purpose
	require.NoError(t, store.Save(ctx, run2))
	require.NoError(t, store.Save(ctx, other))
	require.NoError(t, store.Save(ctx, run1))

	runs, err = store.LoadAll(ctx, "square")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 100.0, runs[0].Summaries[0].Median)
	assert.Equal(t, 110.0, runs[1].Summaries[0].Median)

	latest, err = store.LoadLatest(ctx, "square")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, OrderBlock, latest.Order)

	calls, err := store.LoadAll(ctx, "call")
	require.NoError(t, err)
	assert.Len(t, calls, 1)
}

func TestFileStore_SaveReplacesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, Run{Suite: "sum", Timestamp: time.Unix(int64(i), 0).UTC()}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "runs.json", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	runs, err := store.LoadAll(ctx, "sum")
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.LoadAll(context.Background(), "x")
	assert.ErrorContains(t, err, "failed to unmarshal runs")
}

func TestNewRun(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	res := &Result{
		Order:   OrderInOrder,
		Started: started,
		Candidates: []CandidateSamples{
			{Label: "a", Samples: samples(1, 2, 3)},
		},
	}

	run := NewRun("suite", BenchParams{Times: 3}, res)
	assert.Equal(t, "suite", run.Suite)
	assert.Equal(t, started, run.Timestamp)
	assert.Equal(t, 3, run.Times)
	assert.Equal(t, OrderInOrder, run.Order)
	require.Len(t, run.Summaries, 1)
	assert.Equal(t, 3, run.Summaries[0].NEval)
}
