// Package stats accumulates running statistics over solver effort.
package stats

import "math"

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running keeps a count, mean and variance without storing the values,
// using Welford's method. The zero value is ready to use.
type Running struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (r *Running) Push(val float64) {
	r.n++
	if r.n == 1 {
		r.mean = val
		r.m2 = 0
		r.min, r.max = val, val
		return
	}
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
	r.min = math.Min(r.min, val)
	r.max = math.Max(r.max, val)
}

// Merge folds o into r as if every value pushed to o had been pushed to r.
func (r *Running) Merge(o *Running) {
	if o.n == 0 {
		return
	}
	if r.n == 0 {
		*r = *o
		return
	}
	n := r.n + o.n
	delta := o.mean - r.mean
	r.m2 += o.m2 + delta*delta*float64(r.n)*float64(o.n)/float64(n)
	r.mean += delta * float64(o.n) / float64(n)
	r.min = math.Min(r.min, o.min)
	r.max = math.Max(r.max, o.max)
	r.n = n
}

func (r *Running) Count() int {
	return r.n
}

func (r *Running) Mean() float64 {
	return r.mean
}

// Variance is the sample variance.
func (r *Running) Variance() float64 {
	if r.n <= 1 {
		return 0.0
	}
	return r.m2 / float64(r.n-1)
}

func (r *Running) Stdev() float64 {
	return math.Sqrt(r.Variance())
}

func (r *Running) Min() float64 {
	return r.min
}

func (r *Running) Max() float64 {
	return r.max
}

// HalfWidth is the half width of the confidence interval around the mean,
// for a confidence given in percent.
func (r *Running) HalfWidth(confidence float64) float64 {
	if r.n <= 1 {
		return 0.0
	}
	return ZVal(confidence) * r.Stdev() / math.Sqrt(float64(r.n))
}
