package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Run is the persisted form of one benchmarking run: summaries only, in
// nanoseconds.
type Run struct {
	Suite     string    `json:"suite"`
	Timestamp time.Time `json:"timestamp"`
	Times     int       `json:"times"`
	Order     Order     `json:"order"`
	Summaries []Summary `json:"summaries"`
}

func NewRun(suite string, params BenchParams, res *Result) Run {
	return Run{
		Suite:     suite,
		Timestamp: res.Started.UTC(),
		Times:     params.Times,
		Order:     res.Order,
		Summaries: Summarize(res),
	}
}

// Store persists runs.
type Store interface {
	Save(ctx context.Context, run Run) error
	// LoadLatest returns the most recent run of suite, or nil if none exists.
	LoadLatest(ctx context.Context, suite string) (*Run, error)
	LoadAll(ctx context.Context, suite string) ([]Run, error)
	Close() error
}

// FileStore implements Store using a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(ctx context.Context, run Run) error {
	runs, err := s.load()
	if err != nil {
		return err
	}
	runs = append(runs, run)

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

// writeFileAtomic replaces path through a temp file in the same directory so
// an interrupted write leaves the previous history intact.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write runs: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write runs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) LoadAll(ctx context.Context, suite string) ([]Run, error) {
	runs, err := s.load()
	if err != nil {
		return nil, err
	}
	out := runs[:0]
	for _, r := range runs {
		if r.Suite == suite {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *FileStore) LoadLatest(ctx context.Context, suite string) (*Run, error) {
	runs, err := s.LoadAll(ctx, suite)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[len(runs)-1], nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() ([]Run, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Run{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return []Run{}, nil
	}

	var runs []Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal runs: %w", err)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

var _ Store = (*FileStore)(nil)
