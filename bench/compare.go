package bench

import "fmt"

type Comparison struct {
	Label      string  `json:"label"`
	New        bool    `json:"new,omitempty"` // not present in the previous run
	MedianDiff float64 `json:"median_diff"`   // percentage change
	MinDiff    float64 `json:"min_diff"`      // percentage change
	Prev       Summary `json:"prev"`
	Curr       Summary `json:"curr"`
}

// Compare matches candidates of curr against prev by label, keeping the
// order of curr. Candidates missing from prev are marked New.
func Compare(prev, curr Run) []Comparison {
	prevMap := make(map[string]Summary, len(prev.Summaries))
	for _, s := range prev.Summaries {
		prevMap[s.Label] = s
	}

	comparisons := make([]Comparison, 0, len(curr.Summaries))
	for _, c := range curr.Summaries {
		p, ok := prevMap[c.Label]
		if !ok {
			comparisons = append(comparisons, Comparison{Label: c.Label, New: true, Curr: c})
			continue
		}
		comp := Comparison{Label: c.Label, Prev: p, Curr: c}
		if p.Median > 0 {
			comp.MedianDiff = (c.Median - p.Median) / p.Median * 100
		}
		if p.Min > 0 {
			comp.MinDiff = (c.Min - p.Min) / p.Min * 100
		}
		comparisons = append(comparisons, comp)
	}
	return comparisons
}

// Regressions returns the comparisons whose median slowed down by more than
// threshold percent.
func Regressions(comps []Comparison, threshold float64) []Comparison {
	var out []Comparison
	for _, c := range comps {
		if !c.New && c.MedianDiff > threshold {
			out = append(out, c)
		}
	}
	return out
}

func (c Comparison) String() string {
	if c.New {
		return fmt.Sprintf("%s: new", c.Label)
	}
	return fmt.Sprintf("%s: %+.2f%% median", c.Label, c.MedianDiff)
}
