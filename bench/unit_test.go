package bench

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureSummaries = []Summary{
	{Label: "slow", Min: 4000, LQ: 5000, Mean: 6500, Median: 6000, UQ: 7000, Max: 12000, NEval: 100},
	{Label: "fast", Min: 1000, LQ: 1200, Mean: 1600, Median: 1500, UQ: 1800, Max: 9000, NEval: 100},
}

func columns(s Summary) []float64 {
	return []float64{s.Min, s.LQ, s.Mean, s.Median, s.UQ, s.Max}
}

func TestParseUnit(t *testing.T) {
	tests := map[string]Unit{
		"":             UnitAuto,
		"auto":         UnitAuto,
		"ns":           UnitNanos,
		"us":           UnitMicros,
		"µs":           UnitMicros,
		"MS":           UnitMillis,
		"s":            UnitSeconds,
		"eps":          UnitEPS,
		"relative":     UnitRelative,
		"microseconds": UnitMicros,
	}
	for in, want := range tests {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseUnit("fortnights")
	assert.ErrorContains(t, err, "unknown unit")
}

func TestScale_TimeUnitsAreConstantFactor(t *testing.T) {
	for _, u := range []Unit{UnitNanos, UnitMicros, UnitMillis, UnitSeconds} {
		t.Run(string(u), func(t *testing.T) {
			factor, ok := u.NanosPer()
			require.True(t, ok)

			scaled, resolved := Scale(fixtureSummaries, u)
			assert.Equal(t, u, resolved)
			for i := range scaled {
				orig := columns(fixtureSummaries[i])
				got := columns(scaled[i])
				for c := range orig {
					assert.InDelta(t, orig[c]/factor, got[c], 1e-12)
				}
				for c := 1; c < len(got); c++ {
					if orig[c-1] <= orig[c] {
						assert.LessOrEqual(t, got[c-1], got[c])
					}
				}
				assert.Equal(t, fixtureSummaries[i].NEval, scaled[i].NEval)
				assert.Equal(t, fixtureSummaries[i].Label, scaled[i].Label)
			}
			assert.Greater(t, scaled[0].Median, scaled[1].Median, "order across candidates kept")
		})
	}
}

func TestScale_DoesNotMutateInput(t *testing.T) {
	before := append([]Summary(nil), fixtureSummaries...)
	Scale(fixtureSummaries, UnitMillis)
	Scale(fixtureSummaries, UnitRelative)
	assert.Equal(t, before, fixtureSummaries)
}

func TestScale_EPS(t *testing.T) {
	scaled, u := Scale(fixtureSummaries, UnitEPS)
	assert.Equal(t, UnitEPS, u)
	assert.InDelta(t, 1e9/6000, scaled[0].Median, 1e-6)
	assert.InDelta(t, 1e9/1000, scaled[1].Min, 1e-6)

	zero, _ := Scale([]Summary{{Label: "z", NEval: 1}}, UnitEPS)
	assert.True(t, math.IsInf(zero[0].Median, 1))
}

func TestScale_Relative(t *testing.T) {
	scaled, u := Scale(fixtureSummaries, UnitRelative)
	assert.Equal(t, UnitRelative, u)

	fast := scaled[1]
	for _, v := range columns(fast) {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
	assert.InDelta(t, 4.0, scaled[0].Median, 1e-12)
	assert.InDelta(t, 4.0, scaled[0].Min, 1e-12)
}

func TestScale_RelativeZeroBase(t *testing.T) {
	sums := []Summary{
		{Label: "instant", Min: 0, LQ: 0, Mean: 2, Median: 0, UQ: 4, Max: 8, NEval: 3},
		{Label: "slow", Min: 100, LQ: 100, Mean: 100, Median: 100, UQ: 100, Max: 100, NEval: 3},
	}
	scaled, _ := Scale(sums, UnitRelative)

	assert.Equal(t, 1.0, scaled[0].Min, "zero against a zero base reads as the fastest")
	assert.Equal(t, 1.0, scaled[0].Median)
	assert.True(t, math.IsInf(scaled[1].Median, 1), "no finite multiple of zero")
	assert.InDelta(t, 50.0, scaled[1].Mean, 1e-12)
	assert.InDelta(t, 1.0, scaled[0].Mean, 1e-12)
}

func TestUnit_ResolveAuto(t *testing.T) {
	tests := []struct {
		median float64
		want   Unit
	}{
		{500, UnitNanos},
		{1500, UnitMicros},
		{2.5e6, UnitMillis},
		{3e9, UnitSeconds},
	}
	for _, tt := range tests {
		got := UnitAuto.Resolve([]Summary{{Median: tt.median, NEval: 1}, {Median: tt.median * 10, NEval: 1}})
		assert.Equal(t, tt.want, got, "median %v", tt.median)
	}
	assert.Equal(t, UnitNanos, UnitAuto.Resolve(nil))
	assert.Equal(t, UnitEPS, UnitEPS.Resolve(fixtureSummaries))
}
