package bench

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner executes candidates one at a time and records per-execution timings.
type Runner struct {
	log   logrus.FieldLogger
	now   func() time.Time
	sleep func(time.Duration)
}

type RunnerOption func(*Runner)

// WithClock replaces the time source used to measure executions.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithSleep replaces the function used for the cool-down between runs.
func WithSleep(sleep func(time.Duration)) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

func NewRunner(log logrus.FieldLogger, opts ...RunnerOption) *Runner {
	r := &Runner{
		log:   log.WithField("component", "bench.runner"),
		now:   time.Now,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run warms up every candidate, then measures each one params.Times times in
// the interleaving requested by params.Order. The first failing unit of work
// aborts the run with a *CandidateError.
func (r *Runner) Run(candidates []Candidate, params BenchParams) (*Result, error) {
	if err := validate(candidates, params); err != nil {
		return nil, err
	}
	order, err := ParseOrder(string(params.Order))
	if err != nil {
		return nil, err
	}

	if params.Warmup > 0 {
		r.log.Debugf("Warming up (%d executions per candidate)", params.Warmup)
		for _, c := range candidates {
			for i := 0; i < params.Warmup; i++ {
				if err := invoke(c.Fn); err != nil {
					return nil, &CandidateError{Label: c.Label, Iteration: -1, Err: err}
				}
			}
		}
	}

	seed := params.Seed
	if seed == 0 {
		seed = r.now().UnixNano()
	}
	schedule := buildSchedule(len(candidates), params.Times, order, rand.New(rand.NewSource(seed)))

	res := &Result{
		Order:      order,
		Candidates: make([]CandidateSamples, len(candidates)),
	}
	for i, c := range candidates {
		res.Candidates[i] = CandidateSamples{
			Label:   c.Label,
			Samples: make([]time.Duration, 0, params.Times),
		}
	}

	r.log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"times":      params.Times,
		"order":      order,
	}).Debug("Measuring")

	res.Started = r.now()
	for _, idx := range schedule {
		c := candidates[idx]
		start := r.now()
		err := invoke(c.Fn)
		elapsed := r.now().Sub(start)
		if err != nil {
			return nil, &CandidateError{
				Label:     c.Label,
				Iteration: len(res.Candidates[idx].Samples),
				Err:       err,
			}
		}
		res.Candidates[idx].Samples = append(res.Candidates[idx].Samples, elapsed)
	}
	res.Elapsed = r.now().Sub(res.Started)

	return res, nil
}

// RunMultiple repeats a whole benchmark params.Runs times, checks that the
// runs agree within tolerance and returns the median run.
func (r *Runner) RunMultiple(candidates []Candidate, params BenchParams) (*Result, error) {
	runs := params.Runs
	if runs <= 1 {
		return r.Run(candidates, params)
	}

	r.log.Infof("%d-run benchmark: median of %d runs, steady-state verified", runs, runs)

	all := make([]*Result, runs)
	for i := 0; i < runs; i++ {
		p := params
		if p.Seed != 0 {
			p.Seed += int64(i)
		}

		res, err := r.Run(candidates, p)
		if err != nil {
			return nil, fmt.Errorf("run %d/%d: %w", i+1, runs, err)
		}
		all[i] = res

		r.log.WithFields(logrus.Fields{
			"run":     i + 1,
			"score":   FmtNanos(runScore(res)),
			"elapsed": res.Elapsed.Round(time.Millisecond),
		}).Info("Run complete")

		// Cooldown between runs (not after last)
		if i < runs-1 && params.Cooldown > 0 {
			r.log.Debugf("Cooling down (%s)", params.Cooldown)
			r.sleep(params.Cooldown)
		}
	}

	steady, maxDev := SteadyState(all, SteadyStateTolerance)
	if steady {
		r.log.Infof("Steady-state check passed (max deviation %.1f%%)", maxDev*100)
	} else {
		r.log.Warnf("Steady-state check failed (%.1f%% > %.0f%%), results still reported as median",
			maxDev*100, SteadyStateTolerance*100)
	}

	return MedianRun(all), nil
}

func buildSchedule(n, times int, order Order, rng *rand.Rand) []int {
	schedule := make([]int, 0, n*times)
	switch order {
	case OrderBlock:
		for i := 0; i < n; i++ {
			for t := 0; t < times; t++ {
				schedule = append(schedule, i)
			}
		}
	default:
		for t := 0; t < times; t++ {
			for i := 0; i < n; i++ {
				schedule = append(schedule, i)
			}
		}
		if order == OrderRandom {
			rng.Shuffle(len(schedule), func(i, j int) {
				schedule[i], schedule[j] = schedule[j], schedule[i]
			})
		}
	}
	return schedule
}

func invoke(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
