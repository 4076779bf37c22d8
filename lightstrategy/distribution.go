// Package lightstrategy implements the core's light-selection strategies:
// the three static distributions (uniform, power, log-power) and the
// direct-light-sampling (DLS) cache that refines them per shading point.
package lightstrategy

import "sort"

// Distribution1D is a piecewise-constant 1-D probability distribution built
// from non-negative weights, supporting discrete sampling and pdf lookup.
type Distribution1D struct {
	funcValues []float32
	cdf        []float32
	integral   float32
}

// NewDistribution1D builds a distribution from weights. A weight slice that
// sums to zero produces a distribution where every Pdf/SampleDiscrete call
// reports failure (pdf 0), matching the "zero contribution" edge case.
func NewDistribution1D(weights []float32) *Distribution1D {
	n := len(weights)
	d := &Distribution1D{
		funcValues: append([]float32(nil), weights...),
		cdf:        make([]float32, n+1),
	}
	for i, w := range weights {
		d.cdf[i+1] = d.cdf[i] + w
	}
	d.integral = d.cdf[n]
	if d.integral > 0 {
		for i := range d.cdf {
			d.cdf[i] /= d.integral
		}
	}
	return d
}

// Count returns the number of weighted bins.
func (d *Distribution1D) Count() int { return len(d.funcValues) }

// Integral returns the sum of the original (un-normalized) weights.
func (d *Distribution1D) Integral() float32 { return d.integral }

// SampleDiscrete picks a bin index in proportion to its weight, returning
// the bin's own pdf (not the continuous pdf within the bin). pdf is 0 and
// index is -1 when the distribution has zero total weight.
func (d *Distribution1D) SampleDiscrete(u float32) (index int, pdf float32) {
	if d.integral <= 0 || len(d.funcValues) == 0 {
		return -1, 0
	}
	i := sort.Search(len(d.cdf), func(i int) bool { return d.cdf[i] > u }) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(d.funcValues) {
		i = len(d.funcValues) - 1
	}
	return i, d.Pdf(i)
}

// Pdf returns the discrete probability of bin index, 0 if out of range or
// the distribution has zero total weight.
func (d *Distribution1D) Pdf(index int) float32 {
	if d.integral <= 0 || index < 0 || index >= len(d.funcValues) {
		return 0
	}
	return d.funcValues[index] / d.integral
}
