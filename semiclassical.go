package wkb

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Relative mismatch allowed between the action at the requested energy and
// π(n + 1/2) before the WKB form is refused.
const wkbActionTol = 1e-6

// ============================================================
// Joints and Airy parts
// ============================================================

// Joint blends From into To across [Start, End]:
//
//	ψ = From + (To - From)·sin²(π/2·(x - Start)/(End - Start))
//
// End may lie left of Start.
type Joint struct {
	From, To   Wavefunction
	Start, End float64
}

func (j Joint) Eval(x float64) complex128 {
	s := math.Sin(math.Pi / 2 * (x - j.Start) / (j.End - j.Start))
	a, b := j.From.Eval(x), j.To.Eval(x)
	return a + (b-a)*complex(s*s, 0)
}

// AiryPart solves the equation with V linearised at the turning point t:
//
//	ψ(x) = Amp·Ai(α·s·(x - t)), α = cbrt(2m|V'(t)|), s = sign V'(t)
//
// Amp = sqrt(π/α) matches the unit-amplitude WKB form on either side.
type AiryPart struct {
	Point, Alpha, Dir float64
	Amp               complex128
}

func newAiry(p *Potential, mass, t float64) (AiryPart, error) {
	slope := p.Slope(t)
	if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return AiryPart{}, fmt.Errorf("%w: V'(%g) = %g at a turning point", ErrInvalidInput, t, slope)
	}
	alpha := math.Cbrt(2 * mass * math.Abs(slope))
	return AiryPart{
		Point: t,
		Alpha: alpha,
		Dir:   math.Copysign(1, slope),
		Amp:   complex(math.Sqrt(math.Pi/alpha), 0),
	}, nil
}

func (a AiryPart) Eval(x float64) complex128 {
	return a.Amp * mathext.AiryAi(complex(a.Alpha*a.Dir*(x-a.Point), 0))
}

// ============================================================
// WKB wavefunction
// ============================================================

// wkbPart is the semiclassical form with the phase S(x) = ∫_a^x p counted
// from the left turning point a. In the allowed region it is the standing
// wave of the two travelling solutions exp(±i(S - π/4))/sqrt(p):
//
//	a < x < b:  cos(S(x) - π/4)/sqrt(p)
//	x < a:      exp(-∫_x^a |p|)/(2 sqrt|p|)
//	x > b:      (-1)^n exp(-∫_b^x |p|)/(2 sqrt|p|)
//
// It diverges at a and b; WKBFunction hands those neighbourhoods to Airy
// parts.
type wkbPart struct {
	kin, decay func(float64) float64
	a, b, c    float64
	action     float64
	parity     float64
	nodes      int
}

func (w *wkbPart) Eval(x float64) complex128 {
	switch {
	case x < w.a:
		k := w.decay(x)
		return complex(math.Exp(-fromTurning(w.decay, w.a, x, w.c, w.nodes))/(2*math.Sqrt(k)), 0)
	case x > w.b:
		k := w.decay(x)
		return complex(w.parity*math.Exp(-fromTurning(w.decay, w.b, x, w.c, w.nodes))/(2*math.Sqrt(k)), 0)
	}
	var s float64
	if x <= (w.a+w.b)/2 {
		s = fromTurning(w.kin, w.a, x, w.c, w.nodes)
	} else {
		s = w.action - fromTurning(w.kin, w.b, x, w.c, w.nodes)
	}
	return complex(math.Cos(s-math.Pi/4)/math.Sqrt(w.kin(x)), 0)
}

// airyZone is the Airy part on [lo, hi] and the sin² joints of the given
// width that lead back to the WKB form on either side.
type airyZone struct {
	airy          AiryPart
	lo, hi, width float64
}

func (z airyZone) eval(x float64, outer Wavefunction) (complex128, bool) {
	switch {
	case x >= z.lo && x <= z.hi:
		return z.airy.Eval(x), true
	case x >= z.lo-z.width && x < z.lo:
		return Joint{From: outer, To: z.airy, Start: z.lo - z.width, End: z.lo}.Eval(x), true
	case x > z.hi && x <= z.hi+z.width:
		return Joint{From: z.airy, To: outer, Start: z.hi, End: z.hi + z.width}.Eval(x), true
	}
	return 0, false
}

func (z airyZone) edges() []float64 {
	return []float64{z.lo - z.width, z.lo, z.hi, z.hi + z.width}
}

// WKBFunction is C times the semiclassical bound state of level N: the WKB
// form away from the turning points, the Airy solution around each, joined
// by sin² blends.
type WKBFunction struct {
	N       int
	C       complex128
	Regions [2]TurningRegion
	inner   *wkbPart
	zones   [2]airyZone
}

// newWKB builds the level-n state. energy must carry the action π(n + 1/2),
// which is what makes the right Airy part continue the phase of the left
// one with sign (-1)^n.
func newWKB(p *Potential, mass, energy float64, n int, opts WaveOptions) (*WKBFunction, error) {
	if opts.C2 != 0 {
		return nil, fmt.Errorf("%w: WKB form has no irregular solution (c2 = %v)", ErrNoClosedForm, opts.C2)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: quantum number %d", ErrInvalidInput, n)
	}
	o := opts.Options.withDefaults()
	tp, err := FindTurningPoints(p, energy, o)
	if err != nil {
		return nil, err
	}
	action := actionBetween(p, mass, energy, tp, o.Nodes)
	if target := QuantizationTarget(n); math.Abs(action-target) > wkbActionTol*target {
		return nil, fmt.Errorf("%w: energy %g carries action %g, level %d needs %g", ErrInvalidInput, energy, action, n, target)
	}

	pad := tp.Width() / 2
	regions, err := GroupTurningRegions(p, mass, energy, TurningPoints{Left: tp.Left - pad, Right: tp.Right + pad}, o)
	if err != nil {
		return nil, err
	}
	c := p.Center()
	if !(c > tp.Left && c < tp.Right) {
		c = (tp.Left + tp.Right) / 2
	}
	parity := 1.0
	if n%2 == 1 {
		parity = -1
	}
	w := &WKBFunction{
		N: n,
		C: opts.C1,
		inner: &wkbPart{
			kin:    momentum(p, mass, energy),
			decay:  func(x float64) float64 { return math.Sqrt(math.Max(0, 2*mass*(p.At(x)-energy))) },
			a:      tp.Left,
			b:      tp.Right,
			c:      c,
			action: action,
			parity: parity,
			nodes:  o.Nodes,
		},
	}
	// Zones stay clear of each other and of the centre.
	limit := tp.Width() / 3
	for i, t := range []float64{tp.Left, tp.Right} {
		r, ok := regionAround(regions, t)
		if !ok {
			return nil, fmt.Errorf("%w: no turning region around %g", ErrNoRoot, t)
		}
		airy, err := newAiry(p, mass, t)
		if err != nil {
			return nil, err
		}
		if i == 1 {
			airy.Amp *= complex(parity, 0)
		}
		h := math.Min(math.Max(t-r.Lo, r.Hi-t), limit)
		w.Regions[i] = r
		w.zones[i] = airyZone{airy: airy, lo: t - h/2, hi: t + h/2, width: h}
	}
	return w, nil
}

func regionAround(regions []TurningRegion, t float64) (TurningRegion, bool) {
	for _, r := range regions {
		if r.Lo <= t && t <= r.Hi {
			return r, true
		}
	}
	return TurningRegion{}, false
}

func (w *WKBFunction) Eval(x float64) complex128 {
	for _, z := range w.zones {
		if v, ok := z.eval(x, w.inner); ok {
			return w.C * v
		}
	}
	return w.C * w.inner.Eval(x)
}

// Breakpoints are the joint edges and the well centre.
func (w *WKBFunction) Breakpoints() []float64 {
	out := []float64{w.inner.c}
	for _, z := range w.zones {
		out = append(out, z.edges()...)
	}
	return out
}
