package wkb

import (
	"fmt"
	"math"
)

// ============================================================
// Bracketed root finding
// ============================================================

// FindRoot returns a zero of f in [a, b] using the Illinois variant of
// regula falsi. f(a) and f(b) must differ in sign.
func FindRoot(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	if tol <= 0 {
		tol = defaultTol
	}
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}
	if a > b {
		a, b = b, a
	}
	fa, fb := f(a), f(b)
	switch {
	case math.IsNaN(fa) || math.IsNaN(fb):
		return math.NaN(), fmt.Errorf("%w: f is NaN at the bracket [%g, %g]", ErrNoRoot, a, b)
	case fa == 0:
		return a, nil
	case fb == 0:
		return b, nil
	case math.Signbit(fa) == math.Signbit(fb):
		return math.NaN(), fmt.Errorf("%w: f(%g)=%g and f(%g)=%g share a sign", ErrNoRoot, a, fa, b, fb)
	}

	side := 0
	prev := math.Inf(1)
	for i := 0; i < maxIter; i++ {
		c := (a*fb - b*fa) / (fb - fa)
		if !(c > a && c < b) {
			c = a + (b-a)/2
		}
		fc := f(c)
		if fc == 0 || math.Abs(c-prev) <= tol*math.Max(1, math.Abs(c)) || b-a <= tol*math.Max(1, math.Abs(c)) {
			return c, nil
		}
		prev = c
		if math.Signbit(fc) == math.Signbit(fb) {
			b, fb = c, fc
			if side == -1 {
				fa /= 2
			}
			side = -1
		} else {
			a, fa = c, fc
			if side == 1 {
				fb /= 2
			}
			side = 1
		}
	}
	return math.NaN(), fmt.Errorf("%w: no convergence after %d iterations in [%g, %g]", ErrNoRoot, maxIter, a, b)
}

// expandBracket grows [lo, hi] to the right until f changes sign, doubling
// the width each time.
func expandBracket(f func(float64) float64, lo, hi float64) (float64, error) {
	flo := f(lo)
	for i := 0; i < maxDoublings; i++ {
		fhi := f(hi)
		if math.IsNaN(fhi) {
			return math.NaN(), fmt.Errorf("%w: f is NaN at %g", ErrNoRoot, hi)
		}
		if fhi == 0 || math.Signbit(fhi) != math.Signbit(flo) {
			return hi, nil
		}
		hi = lo + 2*(hi-lo)
	}
	return math.NaN(), ErrNotConfining
}

// firstCrossing scans [from, to] in equal segments and returns the first
// segment where f changes sign. to may be left of from.
func firstCrossing(f func(float64) float64, from, to float64, segments int) (float64, float64, bool) {
	step := (to - from) / float64(segments)
	x0, f0 := from, f(from)
	for i := 1; i <= segments; i++ {
		x1 := from + float64(i)*step
		if i == segments {
			x1 = to
		}
		f1 := f(x1)
		if f1 == 0 || math.Signbit(f1) != math.Signbit(f0) {
			return x0, x1, true
		}
		x0, f0 = x1, f1
	}
	return 0, 0, false
}
