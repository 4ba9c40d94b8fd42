package wkb

import (
	"fmt"
	"math"
)

const (
	crossingSegments = 64
	validitySegments = 2048
)

// TurningPoints are the classical turning points around the well minimum.
type TurningPoints struct {
	Left, Right float64
}

// Scale multiplies both points by factor. It widens or narrows the window
// used for display around x = 0.
func (t TurningPoints) Scale(factor float64) TurningPoints {
	return TurningPoints{Left: t.Left * factor, Right: t.Right * factor}
}

func (t TurningPoints) Width() float64 { return t.Right - t.Left }

// Union returns the smallest interval covering both t and o.
func (t TurningPoints) Union(o TurningPoints) TurningPoints {
	return TurningPoints{Left: math.Min(t.Left, o.Left), Right: math.Max(t.Right, o.Right)}
}

// FindTurningPoints solves V(x) = energy for the two crossings around the
// well minimum. Quadratic wells are solved algebraically.
func FindTurningPoints(p *Potential, energy float64, opts Options) (TurningPoints, error) {
	if math.IsNaN(energy) || energy <= p.Min() {
		return TurningPoints{}, fmt.Errorf("%w: energy %g is not above the well minimum %g", ErrInvalidInput, energy, p.Min())
	}
	if a, b, c, ok := p.Quadratic(); ok && a > 0 {
		roots, err := SolveQuadratic(a, b, c-energy)
		if err != nil {
			return TurningPoints{}, err
		}
		if len(roots) == 2 {
			return TurningPoints{Left: roots[0], Right: roots[1]}, nil
		}
	}

	opts = opts.withDefaults()
	g := func(x float64) float64 { return p.At(x) - energy }
	right, err := crossing(g, p.Center(), 1, opts)
	if err != nil {
		return TurningPoints{}, fmt.Errorf("right turning point: %w", err)
	}
	left, err := crossing(g, p.Center(), -1, opts)
	if err != nil {
		return TurningPoints{}, fmt.Errorf("left turning point: %w", err)
	}
	return TurningPoints{Left: left, Right: right}, nil
}

// crossing walks from center in direction dir until g changes sign, then
// refines the first sign change.
func crossing(g func(float64) float64, center, dir float64, opts Options) (float64, error) {
	along := func(d float64) float64 { return g(center + dir*d) }
	far, err := expandBracket(along, 0, 1e-3)
	if err != nil {
		return math.NaN(), err
	}
	lo, hi, ok := firstCrossing(along, 0, far, crossingSegments)
	if !ok {
		return math.NaN(), fmt.Errorf("%w: no crossing within %g of %g", ErrNoRoot, far, center)
	}
	d, err := FindRoot(along, lo, hi, opts.Tol, opts.MaxIter)
	if err != nil {
		return math.NaN(), err
	}
	return center + dir*d, nil
}

// ============================================================
// Turning regions
// ============================================================

// TurningRegion is the neighbourhood (Lo, Hi) of the turning point Point in
// which the WKB form is not trusted.
type TurningRegion struct {
	Lo, Hi, Point float64
}

// Validity is |V'(x)|/sqrt(2m) - (V(x) - E)². The WKB form holds where it is
// negative: away from turning points the kinetic term dominates the slope.
func Validity(p *Potential, mass, energy float64) func(float64) float64 {
	scale := 1 / math.Sqrt(2*mass)
	return func(x float64) float64 {
		d := p.At(x) - energy
		return math.Abs(p.Slope(x))*scale - d*d
	}
}

// GroupTurningRegions scans view for the intervals where Validity is
// positive and pairs each with the crossing of V = E inside it. Intervals
// cut by an edge of view are followed outward until they close. Intervals
// without a crossing are dropped; a NaN validity counts as positive.
func GroupTurningRegions(p *Potential, mass, energy float64, view TurningPoints, opts Options) ([]TurningRegion, error) {
	if !(mass > 0) {
		return nil, fmt.Errorf("%w: mass %g", ErrInvalidInput, mass)
	}
	if !(view.Right > view.Left) {
		return nil, fmt.Errorf("%w: view [%g, %g]", ErrInvalidInput, view.Left, view.Right)
	}
	opts = opts.withDefaults()
	valid := Validity(p, mass, energy)
	bad := func(x float64) bool { return !(valid(x) <= 0) }
	edge := func(a, b float64) float64 {
		x, err := FindRoot(valid, a, b, opts.Tol, opts.MaxIter)
		if err != nil {
			return a + (b-a)/2
		}
		return x
	}

	var bounds [][2]float64
	lo, open := 0.0, bad(view.Left)
	if open {
		x, err := crossing(valid, view.Left, -1, opts)
		if err != nil {
			return nil, fmt.Errorf("region left of %g never closes: %w", view.Left, err)
		}
		lo = x
	}
	step := view.Width() / validitySegments
	prev, prevBad := view.Left, open
	for i := 1; i <= validitySegments; i++ {
		x := view.Left + float64(i)*step
		if i == validitySegments {
			x = view.Right
		}
		cur := bad(x)
		if cur != prevBad {
			at := edge(prev, x)
			if cur {
				lo, open = at, true
			} else {
				bounds = append(bounds, [2]float64{lo, at})
				open = false
			}
		}
		prev, prevBad = x, cur
	}
	if open {
		x, err := crossing(valid, view.Right, 1, opts)
		if err != nil {
			return nil, fmt.Errorf("region right of %g never closes: %w", view.Right, err)
		}
		bounds = append(bounds, [2]float64{lo, x})
	}

	g := func(x float64) float64 { return p.At(x) - energy }
	var regions []TurningRegion
	for _, b := range bounds {
		a, c, ok := firstCrossing(g, b[0], b[1], crossingSegments)
		if !ok {
			continue
		}
		t, err := FindRoot(g, a, c, opts.Tol, opts.MaxIter)
		if err != nil {
			return nil, fmt.Errorf("turning point in [%g, %g]: %w", b[0], b[1], err)
		}
		regions = append(regions, TurningRegion{Lo: b[0], Hi: b[1], Point: t})
	}
	return regions, nil
}
