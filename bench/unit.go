package bench

import (
	"fmt"
	"math"
	"strings"
)

// Unit is the display unit of a report.
type Unit string

const (
	UnitNanos    Unit = "ns"
	UnitMicros   Unit = "us"
	UnitMillis   Unit = "ms"
	UnitSeconds  Unit = "s"
	UnitEPS      Unit = "eps"      // evaluations per second
	UnitRelative Unit = "relative" // multiples of the fastest candidate
	UnitAuto     Unit = "auto"
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "t":
		return UnitAuto, nil
	case "ns", "nanoseconds":
		return UnitNanos, nil
	case "us", "µs", "microseconds":
		return UnitMicros, nil
	case "ms", "milliseconds":
		return UnitMillis, nil
	case "s", "seconds":
		return UnitSeconds, nil
	case "eps", "f", "hz":
		return UnitEPS, nil
	case "relative", "r":
		return UnitRelative, nil
	}
	return "", fmt.Errorf("unknown unit %q (want ns, us, ms, s, eps, relative or auto)", s)
}

// NanosPer returns how many nanoseconds one u is. ok is false for units that
// are not a constant multiple of time.
func (u Unit) NanosPer() (factor float64, ok bool) {
	switch u {
	case UnitNanos:
		return 1, true
	case UnitMicros:
		return 1e3, true
	case UnitMillis:
		return 1e6, true
	case UnitSeconds:
		return 1e9, true
	}
	return 0, false
}

func (u Unit) String() string {
	if u == UnitMicros {
		return "µs"
	}
	return string(u)
}

// Resolve turns UnitAuto into the time unit that keeps the smallest median
// at or above one.
func (u Unit) Resolve(sums []Summary) Unit {
	if u != UnitAuto {
		return u
	}
	smallest := math.Inf(1)
	for _, s := range sums {
		if s.NEval > 0 && s.Median < smallest {
			smallest = s.Median
		}
	}
	switch {
	case math.IsInf(smallest, 1) || smallest < 1e3:
		return UnitNanos
	case smallest < 1e6:
		return UnitMicros
	case smallest < 1e9:
		return UnitMillis
	}
	return UnitSeconds
}

// Scale converts nanosecond summaries into u. It returns new summaries and
// the concrete unit used. Time units divide every column by the same factor.
func Scale(sums []Summary, u Unit) ([]Summary, Unit) {
	u = u.Resolve(sums)
	out := make([]Summary, len(sums))
	copy(out, sums)

	if factor, ok := u.NanosPer(); ok {
		for i := range out {
			out[i].apply(func(v float64) float64 { return v / factor })
		}
		return out, u
	}

	switch u {
	case UnitEPS:
		for i := range out {
			out[i].apply(func(v float64) float64 {
				if v == 0 {
					return math.Inf(1)
				}
				return 1e9 / v
			})
		}
	case UnitRelative:
		var mins Summary
		for i, s := range out {
			if i == 0 {
				mins = s
				continue
			}
			mins.Min = math.Min(mins.Min, s.Min)
			mins.LQ = math.Min(mins.LQ, s.LQ)
			mins.Mean = math.Min(mins.Mean, s.Mean)
			mins.Median = math.Min(mins.Median, s.Median)
			mins.UQ = math.Min(mins.UQ, s.UQ)
			mins.Max = math.Min(mins.Max, s.Max)
		}
		for i := range out {
			out[i].Min = relative(out[i].Min, mins.Min)
			out[i].LQ = relative(out[i].LQ, mins.LQ)
			out[i].Mean = relative(out[i].Mean, mins.Mean)
			out[i].Median = relative(out[i].Median, mins.Median)
			out[i].UQ = relative(out[i].UQ, mins.UQ)
			out[i].Max = relative(out[i].Max, mins.Max)
		}
	}
	return out, u
}

// relative divides v by the column minimum. A zero minimum means the fastest
// candidate was below clock resolution: zero reads 1, anything else +Inf.
func relative(v, base float64) float64 {
	if base == 0 {
		if v == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return v / base
}

func (s *Summary) apply(f func(float64) float64) {
	s.Min = f(s.Min)
	s.LQ = f(s.LQ)
	s.Mean = f(s.Mean)
	s.Median = f(s.Median)
	s.UQ = f(s.UQ)
	s.Max = f(s.Max)
}
