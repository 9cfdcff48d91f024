package workload

import (
	"math"
	"reflect"

	"microbench/bench"
)

func square(n int) []bench.Candidate {
	xs := floats(n)
	out := make([]float64, n)
	return []bench.Candidate{
		{Label: "mul", Fn: func() error {
			for i, x := range xs {
				out[i] = x * x
			}
			sink = out
			return nil
		}},
		{Label: "pow", Fn: func() error {
			for i, x := range xs {
				out[i] = math.Pow(x, 2)
			}
			sink = out
			return nil
		}},
		{Label: "exp-log", Fn: func() error {
			for i, x := range xs {
				out[i] = math.Exp(2 * math.Log(x))
			}
			sink = out
			return nil
		}},
	}
}

type squarer interface{ Square(float64) float64 }

type plainSquarer struct{}

func (plainSquarer) Square(x float64) float64 { return x * x }

//go:noinline
func sq(x float64) float64 { return x * x }

func call(n int) []bench.Candidate {
	xs := floats(n)
	closure := func(x float64) float64 { return x * x }
	var iface squarer = plainSquarer{}
	rf := reflect.ValueOf(sq)
	args := make([]reflect.Value, 1)

	return []bench.Candidate{
		{Label: "direct", Fn: func() error {
			var acc float64
			for _, x := range xs {
				acc += sq(x)
			}
			sink = acc
			return nil
		}},
		{Label: "closure", Fn: func() error {
			var acc float64
			for _, x := range xs {
				acc += closure(x)
			}
			sink = acc
			return nil
		}},
		{Label: "interface", Fn: func() error {
			var acc float64
			for _, x := range xs {
				acc += iface.Square(x)
			}
			sink = acc
			return nil
		}},
		{Label: "reflect", Fn: func() error {
			var acc float64
			for _, x := range xs {
				args[0] = reflect.ValueOf(x)
				acc += rf.Call(args)[0].Float()
			}
			sink = acc
			return nil
		}},
	}
}

func sum(n int) []bench.Candidate {
	xs := floats(n)
	boxed := make([]any, n)
	for i, x := range xs {
		boxed[i] = x
	}
	return []bench.Candidate{
		{Label: "index", Fn: func() error {
			var acc float64
			for i := 0; i < len(xs); i++ {
				acc += xs[i]
			}
			sink = acc
			return nil
		}},
		{Label: "range", Fn: func() error {
			var acc float64
			for _, x := range xs {
				acc += x
			}
			sink = acc
			return nil
		}},
		{Label: "boxed", Fn: func() error {
			var acc float64
			for _, v := range boxed {
				acc += v.(float64)
			}
			sink = acc
			return nil
		}},
	}
}

func grow(n int) []bench.Candidate {
	return []bench.Candidate{
		{Label: "append", Fn: func() error {
			var xs []int
			for i := 0; i < n; i++ {
				xs = append(xs, i)
			}
			sink = xs
			return nil
		}},
		{Label: "prealloc", Fn: func() error {
			xs := make([]int, 0, n)
			for i := 0; i < n; i++ {
				xs = append(xs, i)
			}
			sink = xs
			return nil
		}},
		// Every element copies the whole vector, like c(x, i) in a loop.
		{Label: "copy", Fn: func() error {
			var xs []int
			for i := 0; i < n; i++ {
				next := make([]int, len(xs)+1)
				copy(next, xs)
				next[len(xs)] = i
				xs = next
			}
			sink = xs
			return nil
		}},
	}
}

func mean(n int) []bench.Candidate {
	xs := floats(n)
	return []bench.Candidate{
		{Label: "one-pass", Fn: func() error {
			var acc float64
			for _, x := range xs {
				acc += x
			}
			sink = acc / float64(len(xs))
			return nil
		}},
		// Second pass adds the mean of the residuals, which is what R's mean()
		// does for accuracy.
		{Label: "two-pass", Fn: func() error {
			var acc float64
			for _, x := range xs {
				acc += x
			}
			m := acc / float64(len(xs))
			var resid float64
			for _, x := range xs {
				resid += x - m
			}
			sink = m + resid/float64(len(xs))
			return nil
		}},
	}
}
