package wkb_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wkb "github.com/njchilds90/gowkb"
)

func TestSolveSuperposition_HarmonicSum(t *testing.T) {
	p, err := wkb.Harmonic(1)
	require.NoError(t, err)
	comps := []wkb.Component{{N: 0, Coeff: 1}, {N: 1, Coeff: 1i}}
	sup, err := wkb.SolveSuperposition(context.Background(), p, 1, comps, wkb.DefaultOptions(), wkb.SuperpositionOptions{})
	require.NoError(t, err)

	assert.Equal(t, []wkb.Method{wkb.MethodHermite, wkb.MethodHermite}, sup.Methods)
	assert.InDelta(t, 0.5*math.Sqrt2, sup.Levels[0].Energy, 1e-9)
	assert.InDelta(t, 1.5*math.Sqrt2, sup.Levels[1].Energy, 1e-9)
	assert.InDelta(t, math.Sqrt(1.5*math.Sqrt2), sup.Span.Right, 1e-9)
	assert.Equal(t, sup.Span, sup.Window)

	psi0 := &wkb.HermiteFunction{N: 0, Alpha: math.Sqrt2, C: 1}
	psi1 := &wkb.HermiteFunction{N: 1, Alpha: math.Sqrt2, C: 1i}
	for _, x := range []float64{-1.2, 0, 0.3, 2} {
		want := psi0.Eval(x) + psi1.Eval(x)
		got := sup.Eval(x)
		assert.InDelta(t, real(want), real(got), 1e-14, "x=%g", x)
		assert.InDelta(t, imag(want), imag(got), 1e-14, "x=%g", x)
	}

	// Orthonormal terms: the norm on the whole line is the sum of |c|².
	norm := wkb.NormSquared(sup, wkb.TurningPoints{Left: -10, Right: 10}, wkb.DefaultOptions())
	assert.InDelta(t, 2, norm, 1e-10)
}

func TestSolveSuperposition_AutoUsesWKBOffHarmonic(t *testing.T) {
	p, err := wkb.PowerLaw(1, 4)
	require.NoError(t, err)
	comps := []wkb.Component{{N: 2, Coeff: 1}, {N: 5, Coeff: -1}}
	sup, err := wkb.SolveSuperposition(context.Background(), p, 1, comps, wkb.DefaultOptions(),
		wkb.SuperpositionOptions{ViewFactor: 1.2})
	require.NoError(t, err)
	assert.Equal(t, []wkb.Method{wkb.MethodWKB, wkb.MethodWKB}, sup.Methods)
	assert.Equal(t, sup.Span.Scale(1.2), sup.Window)

	// Joint edges of both terms plus their centres.
	assert.Len(t, sup.Breakpoints(), 2*9)

	// Levels of opposite parity: ψ(-x) = ψ2(x) + ψ5(x) when ψ(x) = ψ2(x) - ψ5(x).
	for _, x := range []float64{0.3, 1.1} {
		even := (sup.Eval(x) + sup.Eval(-x)) / 2
		assert.InDelta(t, real(sup.Terms[0].Eval(x)), real(even), 1e-6, "x=%g", x)
	}
}

func TestSolveSuperposition_ShootingParity(t *testing.T) {
	p, err := wkb.PowerLaw(1, 4)
	require.NoError(t, err)
	comps := []wkb.Component{{N: 0, Coeff: 1}, {N: 1, Coeff: 1}}
	sup, err := wkb.SolveSuperposition(context.Background(), p, 1, comps, wkb.DefaultOptions(),
		wkb.SuperpositionOptions{Method: wkb.MethodShooting})
	require.NoError(t, err)
	assert.Equal(t, []wkb.Method{wkb.MethodShooting, wkb.MethodShooting}, sup.Methods)

	// The odd level starts from ψ = 0 at the centre, the even one from ψ = 1.
	assert.InDelta(t, 0, real(sup.Terms[1].Eval(0)), 1e-12)
	assert.InDelta(t, 1, real(sup.Terms[0].Eval(0)), 1e-12)
}

func TestSolveSuperposition_Errors(t *testing.T) {
	p, err := wkb.Harmonic(1)
	require.NoError(t, err)

	_, err = wkb.SolveSuperposition(context.Background(), p, 1, nil, wkb.DefaultOptions(), wkb.SuperpositionOptions{})
	require.ErrorIs(t, err, wkb.ErrInvalidInput)
	var se *wkb.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wkb.StageSuperpose, se.Stage)

	_, err = wkb.SolveSuperposition(context.Background(), p, 1, []wkb.Component{{N: -2, Coeff: 1}},
		wkb.DefaultOptions(), wkb.SuperpositionOptions{})
	require.ErrorIs(t, err, wkb.ErrInvalidInput)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wkb.StageQuantize, se.Stage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = wkb.SolveSuperposition(ctx, p, 1, []wkb.Component{{N: 3, Coeff: 1}}, wkb.DefaultOptions(), wkb.SuperpositionOptions{})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.N)
}
