package wkb

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Wavefunction is a solution ψ(x) of the stationary Schrödinger equation
//
//	V(x)ψ(x) - ψ''(x)/(2m) = Eψ(x).
type Wavefunction interface {
	Eval(x float64) complex128
}

// Method selects how the equation is solved.
type Method string

const (
	MethodAuto     Method = "auto"
	MethodHermite  Method = "hermite"
	MethodShooting Method = "shooting"
	MethodWKB      Method = "wkb"
)

// WaveOptions fixes the two free coefficients of the general solution
// ψ = C1*y1 + C2*y2 and the solver.
type WaveOptions struct {
	C1, C2 complex128
	Method Method
	// Steps is the RK4 step count across the shooting interval.
	Steps int
	// Options drives the turning-point and phase integrals of the WKB form.
	Options Options
}

const (
	defaultSteps = 20000
	// Relative mismatch allowed between the requested energy and the exact
	// harmonic level before the Hermite form is refused.
	hermiteEnergyTol = 1e-6
)

// SolveWavefunction builds ψ for energy. span is the interval the caller
// will evaluate ψ on; the shooting solver integrates across it. Auto never
// picks the WKB form; it has to be asked for.
func SolveWavefunction(p *Potential, mass, energy float64, n int, span TurningPoints, opts WaveOptions) (Wavefunction, Method, error) {
	if !(mass > 0) {
		return nil, "", fmt.Errorf("%w: mass %g", ErrInvalidInput, mass)
	}
	method := opts.Method
	if method == "" || method == MethodAuto {
		method = MethodShooting
		if _, ok := p.HarmonicConstant(); ok && opts.C2 == 0 {
			method = MethodHermite
		}
	}

	switch method {
	case MethodHermite:
		wf, err := newHermite(p, mass, energy, n, opts.C1, opts.C2)
		return wf, method, err
	case MethodShooting:
		wf, err := newShooting(p, mass, energy, span, opts)
		return wf, method, err
	case MethodWKB:
		wf, err := newWKB(p, mass, energy, n, opts)
		return wf, method, err
	}
	return nil, "", fmt.Errorf("%w: unknown method %q", ErrInvalidInput, opts.Method)
}

// ============================================================
// Hermite functions
// ============================================================

// HermiteFunction is c·ψ_n for the harmonic well k*x^2:
//
//	ψ_n(x) = (α/π)^(1/4) / sqrt(2^n n!) · H_n(sqrt(α)x) · exp(-αx²/2), α = sqrt(2mk)
//
// ψ_n has unit L2 norm on the real line.
type HermiteFunction struct {
	N     int
	Alpha float64
	C     complex128
}

func newHermite(p *Potential, mass, energy float64, n int, c1, c2 complex128) (*HermiteFunction, error) {
	k, ok := p.HarmonicConstant()
	if !ok {
		return nil, fmt.Errorf("%w: %s is not harmonic", ErrNoClosedForm, p)
	}
	if c2 != 0 {
		return nil, fmt.Errorf("%w: irregular solution (c2 = %v)", ErrNoClosedForm, c2)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: quantum number %d", ErrInvalidInput, n)
	}
	exact, _ := HarmonicEnergy(p, mass, n)
	if math.Abs(energy-exact) > hermiteEnergyTol*math.Max(1, math.Abs(exact)) {
		return nil, fmt.Errorf("%w: energy %g is not the harmonic level %g", ErrNoClosedForm, energy, exact)
	}
	return &HermiteFunction{N: n, Alpha: math.Sqrt(2 * mass * k), C: c1}, nil
}

// Eval uses the three-term recurrence of normalized Hermite functions,
// which stays finite where H_n and the Gaussian alone would overflow.
func (h *HermiteFunction) Eval(x float64) complex128 {
	xi := math.Sqrt(h.Alpha) * x
	prev := math.Pow(h.Alpha/math.Pi, 0.25) * math.Exp(-xi*xi/2)
	if h.N == 0 {
		return h.C * complex(prev, 0)
	}
	cur := math.Sqrt2 * xi * prev
	for k := 1; k < h.N; k++ {
		kf := float64(k)
		prev, cur = cur, math.Sqrt(2/(kf+1))*xi*cur-math.Sqrt(kf/(kf+1))*prev
	}
	return h.C * complex(cur, 0)
}

// ============================================================
// RK4 shooting
// ============================================================

// ShootingSolution is C1*y1 + C2*y2 where y1, y2 start from (ψ, ψ') = (1, 0)
// and (0, 1) at the well centre. Values between grid nodes use cubic
// Hermite interpolation on (ψ, ψ').
type ShootingSolution struct {
	x0, h  float64
	y1, d1 []float64
	y2, d2 []float64
	c1, c2 complex128
}

func newShooting(p *Potential, mass, energy float64, span TurningPoints, opts WaveOptions) (*ShootingSolution, error) {
	steps := opts.Steps
	if steps <= 0 {
		steps = defaultSteps
	}
	c := p.Center()
	lo, hi := math.Min(span.Left, c), math.Max(span.Right, c)
	if !(hi > lo) {
		return nil, fmt.Errorf("%w: empty interval [%g, %g]", ErrInvalidInput, span.Left, span.Right)
	}
	h := (hi - lo) / float64(steps)
	nl := int(math.Ceil((c - lo) / h))
	nr := int(math.Ceil((hi - c) / h))

	// ψ'' = 2m(V - E)ψ
	accel := func(x, psi float64) float64 { return 2 * mass * (p.At(x) - energy) * psi }

	s := &ShootingSolution{x0: c - float64(nl)*h, h: h, c1: opts.C1, c2: opts.C2}
	s.y1, s.d1 = march(accel, c, h, nl, nr, 1, 0)
	s.y2, s.d2 = march(accel, c, h, nl, nr, 0, 1)
	return s, nil
}

// march integrates from c to the left nl steps and to the right nr steps
// and returns ψ and ψ' on the grid c + (i - nl)h.
func march(accel func(x, psi float64) float64, c, h float64, nl, nr int, psi0, dpsi0 float64) ([]float64, []float64) {
	n := nl + nr + 1
	ys, ds := make([]float64, n), make([]float64, n)
	ys[nl], ds[nl] = psi0, dpsi0

	step := func(x, y, d, h float64) (float64, float64) {
		k1y, k1d := d, accel(x, y)
		k2y, k2d := d+h/2*k1d, accel(x+h/2, y+h/2*k1y)
		k3y, k3d := d+h/2*k2d, accel(x+h/2, y+h/2*k2y)
		k4y, k4d := d+h*k3d, accel(x+h, y+h*k3y)
		return y + h/6*(k1y+2*k2y+2*k3y+k4y), d + h/6*(k1d+2*k2d+2*k3d+k4d)
	}
	for i := nl; i < n-1; i++ {
		x := c + float64(i-nl)*h
		ys[i+1], ds[i+1] = step(x, ys[i], ds[i], h)
	}
	for i := nl; i > 0; i-- {
		x := c + float64(i-nl)*h
		ys[i-1], ds[i-1] = step(x, ys[i], ds[i], -h)
	}
	return ys, ds
}

// Eval returns NaN outside the integrated interval.
func (s *ShootingSolution) Eval(x float64) complex128 {
	last := len(s.y1) - 1
	u := (x - s.x0) / s.h
	const slack = 1e-9
	if u < -slack || u > float64(last)+slack {
		return cmplx.NaN()
	}
	i := int(math.Floor(u))
	if i < 0 {
		i = 0
	}
	if i >= last {
		i = last - 1
	}
	t := u - float64(i)
	v1 := hermiteInterp(s.y1[i], s.y1[i+1], s.d1[i], s.d1[i+1], s.h, t)
	v2 := hermiteInterp(s.y2[i], s.y2[i+1], s.d2[i], s.d2[i+1], s.h, t)
	return s.c1*complex(v1, 0) + s.c2*complex(v2, 0)
}

func hermiteInterp(y0, y1, d0, d1, h, t float64) float64 {
	t2, t3 := t*t, t*t*t
	return (2*t3-3*t2+1)*y0 + (t3-2*t2+t)*h*d0 + (-2*t3+3*t2)*y1 + (t3-t2)*h*d1
}
