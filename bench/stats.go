package bench

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// SteadyStateTolerance is the maximum relative deviation between runs that
// RunMultiple still accepts as steady.
const SteadyStateTolerance = 0.05

// Summarize derives per-candidate statistics in nanoseconds, in declaration
// order. Quartiles use the type 8 estimator of go-moremath.
func Summarize(res *Result) []Summary {
	out := make([]Summary, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		out = append(out, SummarizeSamples(c))
	}
	return out
}

func SummarizeSamples(c CandidateSamples) Summary {
	s := Summary{Label: c.Label, NEval: len(c.Samples)}
	if len(c.Samples) == 0 {
		return s
	}

	xs := make([]float64, len(c.Samples))
	for i, d := range c.Samples {
		xs[i] = float64(d.Nanoseconds())
	}
	sample := &stats.Sample{Xs: xs}
	sample.Sort()

	s.Min, s.Max = sample.Bounds()
	s.LQ = sample.Quantile(0.25)
	s.Median = sample.Quantile(0.5)
	s.UQ = sample.Quantile(0.75)
	s.Mean = sample.Mean()
	return s
}

// MedianRun picks the median run by score from multiple runs.
func MedianRun(runs []*Result) *Result {
	if len(runs) == 1 {
		return runs[0]
	}
	sorted := make([]*Result, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return runScore(sorted[i]) < runScore(sorted[j]) })
	return sorted[len(sorted)/2]
}

// SteadyState checks if run scores are within tolerance of their mean.
func SteadyState(runs []*Result, tolerance float64) (bool, float64) {
	if len(runs) < 2 {
		return true, 0
	}
	var sum float64
	for _, r := range runs {
		sum += runScore(r)
	}
	mean := sum / float64(len(runs))
	if mean == 0 {
		return false, 0
	}

	var maxDev float64
	for _, r := range runs {
		dev := math.Abs(runScore(r)-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= tolerance, maxDev
}

// runScore is the sum of candidate medians.
func runScore(r *Result) float64 {
	var score float64
	for _, s := range Summarize(r) {
		score += s.Median
	}
	return score
}
