package wkb

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
)

// Geometric grading toward an endpoint where the integrand behaves like
// |x - c|^p. Panel j covers [r^(j+1), r^j] of the range, so Gauss-Legendre
// sees an analytic integrand on every panel but the last, which is too
// short to matter.
const (
	gradedPanels = 16
	gradedRatio  = 0.15
	minPanelNode = 16
)

func panelNodes(nodes int) int {
	if n := nodes / 8; n > minPanelNode {
		return n
	}
	return minPanelNode
}

// graded integrates f over [0, top], refining toward 0.
func graded(f func(float64) float64, top float64, nodes int) float64 {
	per := panelNodes(nodes)
	sum, hi := 0.0, top
	for j := 0; j < gradedPanels; j++ {
		lo := hi * gradedRatio
		sum += quad.Fixed(f, lo, hi, per, quad.Legendre{}, 0)
		hi = lo
	}
	return sum + quad.Fixed(f, 0, hi, per, quad.Legendre{}, 0)
}

// centreToTurning integrates g from c to a turning point t, where g may be
// non-analytic at c and vanishes like sqrt(|t - x|) at t. The map
// x = c + (t-c)·sin(θ), θ ∈ [0, π/2], smooths the turning point; grading
// toward θ = 0 handles c. The result is non-negative for non-negative g.
func centreToTurning(g func(float64) float64, c, t float64, nodes int) float64 {
	h := t - c
	f := func(theta float64) float64 {
		return g(c+h*math.Sin(theta)) * math.Abs(h) * math.Cos(theta)
	}
	return graded(f, math.Pi/2, nodes)
}

// fromTurning integrates g between a turning point t and x, where g
// vanishes like sqrt(|x - t|) at t. x = t ± s² removes the square root.
// When c lies strictly between t and x the range is split there and both
// pieces are graded toward c.
func fromTurning(g func(float64) float64, t, x, c float64, nodes int) float64 {
	if (c-t)*(x-c) > 0 {
		return centreToTurning(g, c, t, nodes) + toward(g, x, c, nodes)
	}
	dir := math.Copysign(1, x-t)
	top := math.Sqrt(math.Abs(x - t))
	f := func(s float64) float64 { return g(t+dir*s*s) * 2 * s }
	return quad.Fixed(f, 0, top, nodes, quad.Legendre{}, 0)
}

// toward integrates g between x and c, graded toward c.
func toward(g func(float64) float64, x, c float64, nodes int) float64 {
	h := x - c
	f := func(u float64) float64 { return g(c+h*u) * math.Abs(h) }
	return graded(f, 1, nodes)
}

// splitAt integrates f over [lo, hi], split at every break strictly inside.
func splitAt(f func(float64) float64, lo, hi float64, nodes int, breaks []float64) float64 {
	cuts := append([]float64{lo}, sortedInside(breaks, lo, hi)...)
	cuts = append(cuts, hi)
	sum := 0.0
	for i := 1; i < len(cuts); i++ {
		sum += quad.Fixed(f, cuts[i-1], cuts[i], nodes, quad.Legendre{}, 0)
	}
	return sum
}

func sortedInside(xs []float64, lo, hi float64) []float64 {
	var out []float64
	for _, x := range xs {
		if x > lo && x < hi {
			out = append(out, x)
		}
	}
	sort.Float64s(out)
	uniq := out[:0]
	for _, x := range out {
		if len(uniq) == 0 || x != uniq[len(uniq)-1] {
			uniq = append(uniq, x)
		}
	}
	return uniq
}
