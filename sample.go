package wkb

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Sample is ψ at one grid point, split into parts.
type Sample struct {
	X, Re, Im float64
}

// SampleTable is ordered by X.
type SampleTable []Sample

// Rows flattens the table to (x, re, im) tuples.
func (t SampleTable) Rows() [][]float64 {
	rows := make([][]float64, len(t))
	for i, s := range t {
		rows[i] = []float64{s.X, s.Re, s.Im}
	}
	return rows
}

// Density returns |ψ|² per sample.
func (t SampleTable) Density() []float64 {
	out := make([]float64, len(t))
	for i, s := range t {
		out[i] = s.Re*s.Re + s.Im*s.Im
	}
	return out
}

// Normalization selects what samples are divided by.
type Normalization string

const (
	// NormL2 divides by sqrt(∫|ψ|²) so the result has unit norm.
	NormL2 Normalization = "l2"
	// NormIntegral divides by ∫|ψ|² itself.
	NormIntegral Normalization = "integral"
)

// Grid returns points+1 equally spaced values from window.Left to
// window.Right inclusive.
func Grid(window TurningPoints, points int) ([]float64, error) {
	if points < 1 {
		return nil, fmt.Errorf("%w: number of points %d", ErrInvalidInput, points)
	}
	if !(window.Right > window.Left) {
		return nil, fmt.Errorf("%w: window [%g, %g]", ErrInvalidInput, window.Left, window.Right)
	}
	return floats.Span(make([]float64, points+1), window.Left, window.Right), nil
}

// SampleWavefunction evaluates wf on Grid(window, points).
func SampleWavefunction(wf Wavefunction, window TurningPoints, points int) (SampleTable, error) {
	xs, err := Grid(window, points)
	if err != nil {
		return nil, err
	}
	table := make(SampleTable, len(xs))
	for i, x := range xs {
		v := wf.Eval(x)
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return nil, fmt.Errorf("%w: ψ(%g) = %v", ErrInvalidInput, x, v)
		}
		table[i] = Sample{X: x, Re: real(v), Im: imag(v)}
	}
	return table, nil
}

// Piecewise is implemented by wavefunctions assembled from pieces.
// Breakpoints are where the pieces meet.
type Piecewise interface {
	Breakpoints() []float64
}

func breakpointsOf(wf Wavefunction) []float64 {
	if pw, ok := wf.(Piecewise); ok {
		return pw.Breakpoints()
	}
	return nil
}

// NormSquared returns ∫|ψ|² dx over interval. The range is split at breaks
// and at the breakpoints of a Piecewise ψ, so each Gauss-Legendre panel
// sees a smooth integrand.
func NormSquared(wf Wavefunction, interval TurningPoints, opts Options, breaks ...float64) float64 {
	opts = opts.withDefaults()
	f := func(x float64) float64 {
		v := wf.Eval(x)
		return real(v)*real(v) + imag(v)*imag(v)
	}
	cuts := append(append([]float64(nil), breaks...), breakpointsOf(wf)...)
	return splitAt(f, interval.Left, interval.Right, opts.Nodes, cuts)
}

// Divisor turns a norm integral into the factor samples are divided by.
func Divisor(total float64, mode Normalization) (float64, error) {
	if !(total > 0) || math.IsInf(total, 0) {
		return math.NaN(), fmt.Errorf("%w: ∫|ψ|² = %g", ErrNormalization, total)
	}
	switch mode {
	case NormL2, "":
		return math.Sqrt(total), nil
	case NormIntegral:
		return total, nil
	}
	return math.NaN(), fmt.Errorf("%w: normalization mode %q", ErrInvalidInput, mode)
}

// Scaled is Factor·ψ.
type Scaled struct {
	Wavefunction
	Factor complex128
}

func (s Scaled) Eval(x float64) complex128 {
	return s.Factor * s.Wavefunction.Eval(x)
}

func (s Scaled) Breakpoints() []float64 { return breakpointsOf(s.Wavefunction) }

// ScalingMode selects how ψ is scaled before it is sampled.
type ScalingMode string

const (
	// ScaleNone leaves ψ as solved.
	ScaleNone ScalingMode = "none"
	// ScaleMul multiplies ψ by the factor.
	ScaleMul ScalingMode = "mul"
	// ScaleRenormalize multiplies ψ by the factor over its norm divisor.
	ScaleRenormalize ScalingMode = "renormalize"
)

// Scaling is applied to ψ on an interval. A zero Factor means 1 and an
// empty Mode means ScaleRenormalize.
type Scaling struct {
	Mode   ScalingMode
	Factor complex128
	Norm   Normalization
}

// Apply returns the scaled ψ together with ∫|ψ|² of the unscaled ψ over
// interval.
func (s Scaling) Apply(wf Wavefunction, interval TurningPoints, opts Options, breaks ...float64) (Scaled, float64, error) {
	factor := s.Factor
	if factor == 0 {
		factor = 1
	}
	total := NormSquared(wf, interval, opts, breaks...)
	switch s.Mode {
	case ScaleNone:
		return Scaled{Wavefunction: wf, Factor: 1}, total, nil
	case ScaleMul:
		return Scaled{Wavefunction: wf, Factor: factor}, total, nil
	case ScaleRenormalize, "":
		d, err := Divisor(total, s.Norm)
		if err != nil {
			return Scaled{}, total, err
		}
		return Scaled{Wavefunction: wf, Factor: factor / complex(d, 0)}, total, nil
	}
	return Scaled{}, total, fmt.Errorf("%w: scaling mode %q", ErrInvalidInput, s.Mode)
}

// PeakDensity is max |ψ|² over the table.
func (t SampleTable) PeakDensity() float64 {
	if len(t) == 0 {
		return 0
	}
	return floats.Max(t.Density())
}
