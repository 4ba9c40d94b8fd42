// Package wkb computes semiclassical bound states of a particle in a
// one-dimensional power-law well.
//
// Design goals:
//   - Potentials are symbolic expressions, differentiated and compiled once
//   - Bohr-Sommerfeld quantization by numeric quadrature and bracketed roots
//   - Closed-form Hermite wavefunctions for harmonic wells, RK4 shooting
//     for everything else
//   - Units with ħ = 1; no global state, every step is a plain function
package wkb

import "math"

// Var is the coordinate symbol every potential is written in.
const Var = "x"

// Options tunes the numeric kernels. Zero fields fall back to defaults.
type Options struct {
	// Nodes is the Gauss-Legendre order used for action and norm integrals.
	Nodes int
	// Tol is the relative tolerance of the root finder.
	Tol float64
	// MaxIter bounds root-finder iterations.
	MaxIter int
}

const (
	defaultNodes   = 256
	defaultTol     = 1e-12
	defaultMaxIter = 200
	maxDoublings   = 64
)

// DefaultOptions returns the settings used by the command-line tools.
func DefaultOptions() Options {
	return Options{Nodes: defaultNodes, Tol: defaultTol, MaxIter: defaultMaxIter}
}

func (o Options) withDefaults() Options {
	if o.Nodes <= 0 {
		o.Nodes = defaultNodes
	}
	if o.Tol <= 0 {
		o.Tol = defaultTol
	}
	if o.MaxIter <= 0 {
		o.MaxIter = defaultMaxIter
	}
	return o
}

// QuantizationTarget is π(n + 1/2), the action a bound state of level n
// must carry.
func QuantizationTarget(n int) float64 {
	return math.Pi * (float64(n) + 0.5)
}
