package wkb

import (
	"fmt"
	"math"
)

// Potential is a well V(x) together with its compiled value and slope.
type Potential struct {
	expr   Expr
	center float64
	v      func(float64) float64
	dv     func(float64) float64
}

// NewPotential compiles expr (written in Var) and its derivative. center is
// the location of the well minimum; turning-point searches start there.
func NewPotential(expr Expr, center float64) (*Potential, error) {
	expr = expr.Simplify()
	v, err := Compile(expr, Var)
	if err != nil {
		return nil, fmt.Errorf("compile potential %s: %w", expr, err)
	}
	dv, err := Compile(Diff(expr, Var), Var)
	if err != nil {
		return nil, fmt.Errorf("compile dV/dx of %s: %w", expr, err)
	}
	if y := v(center); math.IsNaN(y) || math.IsInf(y, 0) {
		return nil, fmt.Errorf("%w: V(%g) = %g", ErrInvalidInput, center, y)
	}
	return &Potential{expr: expr, center: center, v: v, dv: dv}, nil
}

// Harmonic returns V(x) = k*x^2.
func Harmonic(k float64) (*Potential, error) {
	if !(k > 0) || math.IsInf(k, 0) {
		return nil, fmt.Errorf("%w: harmonic coefficient %g", ErrInvalidInput, k)
	}
	return NewPotential(MulOf(NFloat(k), PowOf(S(Var), N(2))), 0)
}

// PowerLaw returns V(x) = k*|x|^p. p == 2 yields the polynomial form so the
// closed-form paths apply.
func PowerLaw(k, p float64) (*Potential, error) {
	if !(p > 0) || math.IsInf(p, 0) {
		return nil, fmt.Errorf("%w: power-law exponent %g", ErrInvalidInput, p)
	}
	if p == 2 {
		return Harmonic(k)
	}
	if !(k > 0) || math.IsInf(k, 0) {
		return nil, fmt.Errorf("%w: power-law coefficient %g", ErrInvalidInput, k)
	}
	return NewPotential(MulOf(NFloat(k), PowOf(AbsOf(S(Var)), NFloat(p))), 0)
}

func (p *Potential) Expr() Expr              { return p.expr }
func (p *Potential) Center() float64         { return p.center }
func (p *Potential) At(x float64) float64    { return p.v(x) }
func (p *Potential) Slope(x float64) float64 { return p.dv(x) }
func (p *Potential) Min() float64            { return p.v(p.center) }
func (p *Potential) String() string          { return p.expr.String() }

// Quadratic reports the coefficients of V = a*x^2 + b*x + c when V is a
// polynomial of degree two.
func (p *Potential) Quadratic() (a, b, c float64, ok bool) {
	if Degree(p.expr, Var) != 2 {
		return 0, 0, 0, false
	}
	coeffs, ok := PolyCoeffs(p.expr, Var)
	if !ok {
		return 0, 0, 0, false
	}
	get := func(d int) float64 {
		if n, seen := coeffs[d]; seen {
			return n.Float64()
		}
		return 0
	}
	return get(2), get(1), get(0), true
}

// HarmonicConstant returns k when V = k*x^2 + c with k > 0.
func (p *Potential) HarmonicConstant() (float64, bool) {
	a, b, _, ok := p.Quadratic()
	if !ok || b != 0 || a <= 0 {
		return 0, false
	}
	return a, true
}

// Frequency returns ω = sqrt(2k/m) of a harmonic well.
func (p *Potential) Frequency(mass float64) (float64, bool) {
	k, ok := p.HarmonicConstant()
	if !ok || mass <= 0 {
		return 0, false
	}
	return math.Sqrt(2 * k / mass), true
}
