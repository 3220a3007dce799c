package aggregate

import "math"

// z95 is the normal quantile for a two-sided 95% interval.
const z95 = 1.959963984540054

// smooth blends a raw proportion (0–1) toward a neutral prior using a
// Bayesian pseudo-count: the prior contributes priorWeight virtual samples.
// As n grows the result converges to the raw estimate; at n=1 a raw 100% is
// pulled strictly below 100%.
func smooth(raw float64, n int, prior, priorWeight float64) float64 {
	if n <= 0 {
		return 0
	}
	return (raw*float64(n) + prior*priorWeight) / (float64(n) + priorWeight)
}

// wilson computes the 95% Wilson score interval for a proportion p observed
// over n samples. Returns [0,0] when n is zero. Bounds are clamped to [0,1]
// by construction.
func wilson(p float64, n int) (lo, hi float64) {
	if n <= 0 {
		return 0, 0
	}

	nf := float64(n)
	z2 := z95 * z95
	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	margin := (z95 / denom) * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf))

	lo = center - margin
	hi = center + margin
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}
	return lo, hi
}

// positionWeight returns the exponential decay weight for a 1-based first
// mention position: earlier mentions contribute more to depth of mention.
func positionWeight(firstPosition int, decayRate float64) float64 {
	if firstPosition < 1 {
		return 0
	}
	return math.Exp(-decayRate * float64(firstPosition-1))
}

// ratio returns a/b, guarding the zero denominator with 0 rather than NaN.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
