package wkb

import (
	"fmt"
	"math"
)

// ActionIntegral returns ∫ sqrt(2m(E - V(x))) dx between the turning points
// of V at energy. Energies at or below the minimum carry no action.
//
// The range is split at the well centre, where k|x|^p is not analytic
// unless p is an even integer. Each half maps x = c ± h·sin(θ), θ ∈ [0, π/2],
// which cancels the square root at the turning point.
func ActionIntegral(p *Potential, mass, energy float64, opts Options) (float64, error) {
	if !(mass > 0) {
		return math.NaN(), fmt.Errorf("%w: mass %g", ErrInvalidInput, mass)
	}
	if energy <= p.Min() {
		return 0, nil
	}
	opts = opts.withDefaults()
	tp, err := FindTurningPoints(p, energy, opts)
	if err != nil {
		return math.NaN(), err
	}
	return actionBetween(p, mass, energy, tp, opts.Nodes), nil
}

func actionBetween(p *Potential, mass, energy float64, tp TurningPoints, nodes int) float64 {
	c := p.Center()
	if !(c > tp.Left && c < tp.Right) {
		c = (tp.Left + tp.Right) / 2
	}
	mom := momentum(p, mass, energy)
	return centreToTurning(mom, c, tp.Left, nodes) + centreToTurning(mom, c, tp.Right, nodes)
}

// momentum is sqrt(2m(E - V)), zero in forbidden regions.
func momentum(p *Potential, mass, energy float64) func(float64) float64 {
	return func(x float64) float64 {
		kin := 2 * mass * (energy - p.At(x))
		if kin <= 0 {
			return 0
		}
		return math.Sqrt(kin)
	}
}

// QuantizedEnergy solves ActionIntegral(E) = π(n + 1/2) for E.
//
// The action grows strictly with E in a confining well, so the root above
// the minimum is unique and is the one returned.
func QuantizedEnergy(p *Potential, mass float64, n int, opts Options) (float64, error) {
	if n < 0 {
		return math.NaN(), stageErr(StageQuantize, n, fmt.Errorf("%w: quantum number %d", ErrInvalidInput, n))
	}
	if !(mass > 0) {
		return math.NaN(), stageErr(StageQuantize, n, fmt.Errorf("%w: mass %g", ErrInvalidInput, mass))
	}
	opts = opts.withDefaults()
	target := QuantizationTarget(n)

	var evalErr error
	residual := func(e float64) float64 {
		s, err := ActionIntegral(p, mass, e, opts)
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return s - target
	}

	lo := p.Min()
	hi, err := expandBracket(residual, lo, lo+1)
	if evalErr != nil {
		return math.NaN(), stageErr(StageQuantize, n, evalErr)
	}
	if err != nil {
		return math.NaN(), stageErr(StageQuantize, n, fmt.Errorf("action never reaches %g: %w", target, err))
	}
	e, err := FindRoot(residual, lo, hi, opts.Tol, opts.MaxIter)
	if evalErr != nil {
		return math.NaN(), stageErr(StageQuantize, n, evalErr)
	}
	if err != nil {
		return math.NaN(), stageErr(StageQuantize, n, err)
	}
	return e, nil
}

// HarmonicEnergy is the exact level (n + 1/2)ω + V(0) of a harmonic well,
// which Bohr-Sommerfeld reproduces.
func HarmonicEnergy(p *Potential, mass float64, n int) (float64, bool) {
	w, ok := p.Frequency(mass)
	if !ok {
		return 0, false
	}
	return (float64(n)+0.5)*w + p.Min(), true
}
