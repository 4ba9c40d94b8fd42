package wkb

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Level is one quantized energy.
type Level struct {
	N      int
	Energy float64
}

// Spectrum is ordered by N.
type Spectrum []Level

// Energies returns the energies in order.
func (s Spectrum) Energies() []float64 {
	out := make([]float64, len(s))
	for i, l := range s {
		out[i] = l.Energy
	}
	return out
}

// Rows flattens the spectrum to (n, energy) tuples.
func (s Spectrum) Rows() [][]float64 {
	rows := make([][]float64, len(s))
	for i, l := range s {
		rows[i] = []float64{float64(l.N), l.Energy}
	}
	return rows
}

// SolveSpectrum quantizes every level from nMin to nMax inclusive. ctx is
// checked between levels.
func SolveSpectrum(ctx context.Context, p *Potential, mass float64, nMin, nMax int, opts Options) (Spectrum, error) {
	if nMin < 0 || nMax < nMin {
		return nil, stageErr(StageSpectrum, nMin, fmt.Errorf("%w: range [%d, %d]", ErrInvalidInput, nMin, nMax))
	}
	out := make(Spectrum, 0, nMax-nMin+1)
	for n := nMin; n <= nMax; n++ {
		if err := ctx.Err(); err != nil {
			return nil, stageErr(StageSpectrum, n, err)
		}
		e, err := QuantizedEnergy(p, mass, n, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, Level{N: n, Energy: e})
	}
	if err := out.CheckIncreasing(); err != nil {
		return nil, stageErr(StageSpectrum, nMin, err)
	}
	return out, nil
}

// CheckIncreasing verifies energies strictly grow with N.
func (s Spectrum) CheckIncreasing() error {
	if len(s) < 2 {
		return nil
	}
	e := s.Energies()
	gaps := make([]float64, len(e)-1)
	floats.SubTo(gaps, e[1:], e[:len(e)-1])
	if i := floats.MinIdx(gaps); gaps[i] <= 0 {
		return fmt.Errorf("%w: E(%d)=%g, E(%d)=%g", ErrNonMonotonic, s[i].N, e[i], s[i+1].N, e[i+1])
	}
	return nil
}
