package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	prev := Run{Summaries: []Summary{
		{Label: "B1", Min: 80, Median: 100},
		{Label: "B2", Min: 150, Median: 200},
	}}
	curr := Run{Summaries: []Summary{
		{Label: "B3", Median: 300},
		{Label: "B1", Min: 100, Median: 110},
	}}

	comps := Compare(prev, curr)
	require.Len(t, comps, 2)

	assert.Equal(t, "B3", comps[0].Label)
	assert.True(t, comps[0].New)

	c := comps[1]
	assert.Equal(t, "B1", c.Label)
	assert.False(t, c.New)
	assert.InDelta(t, 10.0, c.MedianDiff, 0.01)
	assert.InDelta(t, 25.0, c.MinDiff, 0.01)
	assert.Equal(t, "B1: +10.00% median", c.String())
}

func TestRegressions(t *testing.T) {
	comps := []Comparison{
		{Label: "slower", MedianDiff: 20},
		{Label: "borderline", MedianDiff: 10},
		{Label: "faster", MedianDiff: -50},
		{Label: "new", New: true, MedianDiff: 0},
	}

	regs := Regressions(comps, 10)
	require.Len(t, regs, 1)
	assert.Equal(t, "slower", regs[0].Label)
}
