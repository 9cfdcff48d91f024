package bench

import (
	"errors"
	"fmt"
)

var (
	ErrNoCandidates   = errors.New("no candidates to benchmark")
	ErrDuplicateLabel = errors.New("duplicate candidate label")
	ErrEmptyLabel     = errors.New("candidate label is empty")
	ErrNilWork        = errors.New("candidate has no unit of work")
	ErrInvalidTimes   = errors.New("times must be at least 1")
	ErrInvalidWarmup  = errors.New("warmup must not be negative")
)

// CandidateError reports a unit of work that failed and aborted the run.
type CandidateError struct {
	Label     string
	Iteration int // 0-based measured iteration, -1 during warmup
	Err       error
}

func (e *CandidateError) Error() string {
	if e.Iteration < 0 {
		return fmt.Sprintf("candidate %q failed during warmup: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("candidate %q failed on iteration %d: %v", e.Label, e.Iteration+1, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }

func validate(candidates []Candidate, params BenchParams) error {
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	if params.Times < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTimes, params.Times)
	}
	if params.Warmup < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWarmup, params.Warmup)
	}
	seen := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		if c.Label == "" {
			return fmt.Errorf("candidate #%d: %w", i+1, ErrEmptyLabel)
		}
		if c.Fn == nil {
			return fmt.Errorf("candidate %q: %w", c.Label, ErrNilWork)
		}
		if _, dup := seen[c.Label]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateLabel, c.Label)
		}
		seen[c.Label] = struct{}{}
	}
	return nil
}
