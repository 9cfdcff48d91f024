// Package workload holds built-in candidate groups. Each group times several
// ways of doing the same small thing, the kind of comparison used to show
// where an interpreter spends its time: arithmetic dispatch, function lookup,
// boxing and vector growth.
package workload

import (
	"fmt"
	"sort"
	"strings"

	"microbench/bench"
)

// Builder returns the candidates of one group for input size n.
type Builder func(n int) []bench.Candidate

var registry = map[string]Builder{
	"square": square,
	"call":   call,
	"sum":    sum,
	"grow":   grow,
	"mean":   mean,
}

// Groups lists the registered group names.
func Groups() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names lists every candidate as "group/label".
func Names() []string {
	var names []string
	for _, g := range Groups() {
		for _, c := range registry[g](1) {
			names = append(names, g+"/"+c.Label)
		}
	}
	return names
}

// Group resolves every candidate of a group. Labels are prefixed with the
// group name so that several groups can share one run.
func Group(name string, n int) ([]bench.Candidate, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown workload group %q (have %s)", name, strings.Join(Groups(), ", "))
	}
	if n < 1 {
		return nil, fmt.Errorf("workload size must be at least 1, got %d", n)
	}
	cands := build(n)
	for i := range cands {
		cands[i].Label = name + "/" + cands[i].Label
	}
	return cands, nil
}

// Lookup resolves a single candidate ("group/label") or a whole group
// ("group").
func Lookup(ref string, n int) ([]bench.Candidate, error) {
	group, label, single := strings.Cut(ref, "/")
	cands, err := Group(group, n)
	if err != nil || !single {
		return cands, err
	}
	for _, c := range cands {
		if c.Label == ref {
			return []bench.Candidate{c}, nil
		}
	}
	return nil, fmt.Errorf("unknown candidate %q in workload group %q", label, group)
}

// sink keeps results observable so the compiler cannot drop the work.
var sink any

func floats(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i%97) + 0.5
	}
	return xs
}
