package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"microbench/bench"
	"microbench/config"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	saved  []bench.Run
	latest *bench.Run
	all    []bench.Run
}

func (m *mockStore) Save(ctx context.Context, run bench.Run) error {
	m.saved = append(m.saved, run)
	return nil
}

func (m *mockStore) LoadLatest(ctx context.Context, suite string) (*bench.Run, error) {
	return m.latest, nil
}

func (m *mockStore) LoadAll(ctx context.Context, suite string) ([]bench.Run, error) {
	return m.all, nil
}

func (m *mockStore) Close() error { return nil }

func setup(t *testing.T, store bench.Store) {
	t.Helper()
	color.NoColor = true
	Logger.SetOutput(io.Discard)

	origLoad, origStore := loadConfig, newStoreFunc
	t.Cleanup(func() {
		loadConfig, newStoreFunc = origLoad, origStore
		color.NoColor = false
		Logger.SetOutput(os.Stderr)
	})

	loadConfig = func() (*config.Config, error) {
		return &config.Config{StoreFile: filepath.Join(t.TempDir(), "runs.json")}, nil
	}
	newStoreFunc = func(ctx context.Context, kind string, cfg *config.Config) (bench.Store, error) {
		return store, nil
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRunCmd_Workloads(t *testing.T) {
	store := &mockStore{}
	setup(t, store)

	out, err := execute(t, "run", "-w", "sum", "-w", "square/mul", "--times", "5", "--size", "8", "--seed", "1", "--save")
	require.NoError(t, err)

	assert.Contains(t, out, "sum+square/mul")
	assert.Contains(t, out, "Unit: ")
	assert.Contains(t, out, "sum/boxed")
	assert.Contains(t, out, "square/mul")
	assert.Contains(t, out, "Results saved")

	require.Len(t, store.saved, 1)
	run := store.saved[0]
	assert.Equal(t, "sum+square/mul", run.Suite)
	require.Len(t, run.Summaries, 4)
	for _, s := range run.Summaries {
		assert.Equal(t, 5, s.NEval)
	}
}

func TestRunCmd_JSONOutput(t *testing.T) {
	setup(t, &mockStore{})

	out, err := execute(t, "run", "-w", "mean", "-n", "3", "--unit", "ns", "-o", "json")
	require.NoError(t, err)

	var rep struct {
		Unit string          `json:"unit"`
		Rows []bench.Summary `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "ns", rep.Unit)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "mean/one-pass", rep.Rows[0].Label)
}

func TestRunCmd_MachineFormatsStayParseable(t *testing.T) {
	prev := bench.Run{
		Suite:     "mean",
		Summaries: []bench.Summary{{Label: "mean/one-pass", Median: 1e12}},
	}

	t.Run("json with save and compare", func(t *testing.T) {
		store := &mockStore{latest: &prev}
		setup(t, store)

		out, err := execute(t, "run", "-w", "mean", "-n", "3", "-o", "json", "--save", "--compare")
		require.NoError(t, err)

		var rep struct {
			Rows       []bench.Summary `json:"rows"`
			Comparison []struct {
				Label  string `json:"label"`
				Status string `json:"status"`
			} `json:"comparison"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
		require.Len(t, rep.Rows, 2)
		require.Len(t, rep.Comparison, 2)
		assert.Equal(t, "FASTER", rep.Comparison[0].Status)
		assert.Equal(t, "NEW", rep.Comparison[1].Status)
		assert.Len(t, store.saved, 1)
	})

	t.Run("json without a previous run", func(t *testing.T) {
		setup(t, &mockStore{})

		out, err := execute(t, "run", "-w", "mean", "-n", "3", "-o", "json", "--save", "--compare")
		require.NoError(t, err)

		var rep map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
		assert.NotContains(t, rep, "comparison")
	})

	t.Run("csv with save and compare", func(t *testing.T) {
		setup(t, &mockStore{})

		out, err := execute(t, "run", "-w", "mean", "-n", "3", "-o", "csv", "--save", "--compare")
		require.NoError(t, err)
		assert.NotContains(t, out, "No previous run")
		assert.NotContains(t, out, "Results saved")

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}

func TestRunCmd_SuiteFile(t *testing.T) {
	store := &mockStore{}
	setup(t, store)

	path := filepath.Join(t.TempDir(), "calls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
times: 4
order: inorder
size: 4
candidates:
  - workload: call/direct
    label: direct
  - workload: call/closure
`), 0o644))

	out, err := execute(t, "run", path, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "direct")

	require.Len(t, store.saved, 1)
	assert.Equal(t, "calls", store.saved[0].Suite)
	assert.Equal(t, bench.OrderInOrder, store.saved[0].Order)
	assert.Equal(t, "direct", store.saved[0].Summaries[0].Label)
	assert.Equal(t, "call/closure", store.saved[0].Summaries[1].Label)
	assert.Equal(t, 4, store.saved[0].Times)
}

func TestRunCmd_Compare(t *testing.T) {
	prev := bench.Run{
		Suite:     "grow/prealloc",
		Summaries: []bench.Summary{{Label: "grow/prealloc", Median: 1e12}},
	}
	store := &mockStore{latest: &prev}
	setup(t, store)

	out, err := execute(t, "run", "-w", "grow/prealloc", "-n", "3", "--compare", "--fail-threshold", "10")
	require.NoError(t, err, "a much faster run is not a regression")
	assert.Contains(t, out, "Comparison with previous run")
	assert.Contains(t, out, "FASTER")
	assert.Empty(t, store.saved, "compare alone does not save")
}

func TestRunCmd_FailThreshold(t *testing.T) {
	prev := bench.Run{
		Suite:     "grow/copy",
		Summaries: []bench.Summary{{Label: "grow/copy", Median: 0.001}},
	}
	setup(t, &mockStore{latest: &prev})

	_, err := execute(t, "run", "-w", "grow/copy", "-n", "3", "--size", "64", "--compare", "--fail-threshold", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "performance regression detected")
	assert.Contains(t, err.Error(), "grow/copy")
}

func TestRunCmd_Errors(t *testing.T) {
	setup(t, &mockStore{})

	_, err := execute(t, "run")
	assert.ErrorContains(t, err, "nothing to run")

	_, err = execute(t, "run", "-w", "nope")
	assert.ErrorContains(t, err, "unknown workload group")

	_, err = execute(t, "run", "-w", "sum", "--unit", "furlongs")
	assert.ErrorContains(t, err, "unknown unit")

	_, err = execute(t, "run", "-w", "sum", "--order", "sideways")
	assert.ErrorContains(t, err, "unknown order")

	_, err = execute(t, "run", "-w", "sum", "--times", "0")
	assert.ErrorIs(t, err, bench.ErrInvalidTimes)
}

func TestListCmd(t *testing.T) {
	setup(t, &mockStore{})

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "square")
	assert.Contains(t, out, "mul, pow, exp-log")
	assert.Contains(t, out, "direct, closure, interface, reflect")
}

func TestHistoryCmd(t *testing.T) {
	store := &mockStore{all: []bench.Run{
		{Suite: "square", Times: 10, Order: bench.OrderRandom, Summaries: []bench.Summary{{Label: "square/mul", Median: 1500, NEval: 10}}},
		{Suite: "square", Times: 10, Order: bench.OrderBlock, Summaries: []bench.Summary{{Label: "square/pow", Median: 2500, NEval: 10}}},
	}}
	setup(t, store)

	out, err := execute(t, "history", "square", "--unit", "us", "--last", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "square/mul")
	assert.Contains(t, out, "square/pow")
	assert.Contains(t, out, "order=block")
	assert.Contains(t, out, "2.500")

	store.all = nil
	out, err = execute(t, "history", "square")
	require.NoError(t, err)
	assert.Contains(t, out, `No saved runs for "square"`)
}
