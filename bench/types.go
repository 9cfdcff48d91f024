package bench

import (
	"fmt"
	"time"
)

// ConnConfig describes a database used by SQL candidates or result stores.
type ConnConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Params   string // extra DSN query parameters, driver specific
}

func (c ConnConfig) IsZero() bool {
	return c.Host == "" && c.Database == ""
}

// Candidate is one labelled unit of work to be timed.
type Candidate struct {
	Label string
	Fn    func() error
}

// Order controls how executions of different candidates are interleaved.
type Order string

const (
	OrderRandom  Order = "random"
	OrderInOrder Order = "inorder"
	OrderBlock   Order = "block"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case OrderRandom, OrderInOrder, OrderBlock:
		return o, nil
	case "":
		return OrderRandom, nil
	}
	return "", fmt.Errorf("unknown order %q (want random, inorder or block)", s)
}

type BenchParams struct {
	Times    int   // measured executions per candidate
	Warmup   int   // unmeasured executions per candidate
	Order    Order // interleaving of candidates
	Seed     int64 // 0 = seed from the clock
	Runs     int   // number of runs for median (0 or 1 = single run)
	Cooldown time.Duration
}

func DefaultParams() BenchParams {
	return BenchParams{
		Times:    100,
		Warmup:   2,
		Order:    OrderRandom,
		Cooldown: 3 * time.Second,
	}
}

// CandidateSamples holds the raw timings collected for one candidate.
type CandidateSamples struct {
	Label   string
	Samples []time.Duration
}

// Result is the outcome of one benchmarking run. Candidates keep the order
// they were declared in, regardless of execution order.
type Result struct {
	Order      Order
	Candidates []CandidateSamples
	Started    time.Time
	Elapsed    time.Duration
}

func (r *Result) Lookup(label string) (CandidateSamples, bool) {
	for _, c := range r.Candidates {
		if c.Label == label {
			return c, true
		}
	}
	return CandidateSamples{}, false
}

// Summary holds the derived statistics for one candidate, in nanoseconds.
type Summary struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	LQ     float64 `json:"lq"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	UQ     float64 `json:"uq"`
	Max    float64 `json:"max"`
	NEval  int     `json:"neval"`
}
