package wkb

import (
	"context"
	"fmt"
)

// Component is one level of a superposition and its complex weight.
type Component struct {
	N     int
	Coeff complex128
}

// SuperpositionOptions drives SolveSuperposition.
type SuperpositionOptions struct {
	// Method solves each level. Auto uses Hermite functions for harmonic
	// wells and the WKB form otherwise.
	Method Method
	Steps  int
	// ViewFactor scales Span into the window the terms are evaluated on.
	// Zero means 1.
	ViewFactor float64
}

// Superposition is Σ Coeff_k·ψ_k over bound states of one well.
type Superposition struct {
	Levels  []Level
	Methods []Method
	Terms   []Scaled
	// Span covers the turning points of every level.
	Span   TurningPoints
	Window TurningPoints
}

// SolveSuperposition quantizes and solves every component. Shooting solves
// start odd levels from ψ' = 1 and even ones from ψ = 1 at the centre, the
// regular solutions of a symmetric well.
func SolveSuperposition(ctx context.Context, p *Potential, mass float64, comps []Component, opts Options, sopts SuperpositionOptions) (*Superposition, error) {
	if len(comps) == 0 {
		return nil, stageErr(StageSuperpose, 0, fmt.Errorf("%w: no components", ErrInvalidInput))
	}
	method := sopts.Method
	if method == "" || method == MethodAuto {
		method = MethodWKB
		if _, ok := p.HarmonicConstant(); ok {
			method = MethodHermite
		}
	}
	vf := sopts.ViewFactor
	if vf == 0 {
		vf = 1
	}

	s := &Superposition{}
	for i, c := range comps {
		if err := ctx.Err(); err != nil {
			return nil, stageErr(StageSuperpose, c.N, err)
		}
		e, err := QuantizedEnergy(p, mass, c.N, opts)
		if err != nil {
			return nil, err
		}
		tp, err := FindTurningPoints(p, e, opts)
		if err != nil {
			return nil, stageErr(StageTurning, c.N, err)
		}
		if i == 0 {
			s.Span = tp
		} else {
			s.Span = s.Span.Union(tp)
		}
		s.Levels = append(s.Levels, Level{N: c.N, Energy: e})
	}
	s.Window = s.Span.Scale(vf)
	solveSpan := s.Span.Union(s.Window)

	for i, c := range comps {
		wo := WaveOptions{C1: 1, Method: method, Steps: sopts.Steps, Options: opts}
		if method == MethodShooting && c.N%2 == 1 {
			wo.C1, wo.C2 = 0, 1
		}
		wf, used, err := SolveWavefunction(p, mass, s.Levels[i].Energy, c.N, solveSpan, wo)
		if err != nil {
			return nil, stageErr(StageWavefunc, c.N, err)
		}
		s.Methods = append(s.Methods, used)
		s.Terms = append(s.Terms, Scaled{Wavefunction: wf, Factor: c.Coeff})
	}
	return s, nil
}

func (s *Superposition) Eval(x float64) complex128 {
	var sum complex128
	for _, t := range s.Terms {
		sum += t.Eval(x)
	}
	return sum
}

func (s *Superposition) Breakpoints() []float64 {
	var out []float64
	for _, t := range s.Terms {
		out = append(out, t.Breakpoints()...)
	}
	return out
}
