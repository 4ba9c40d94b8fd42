// Package pipeline wires the wkb stages into the batch runs: a single bound
// state sampled to a table, the energy spectrum, and a superposition of
// levels.
package pipeline

import (
	"context"
	"errors"
	"math/cmplx"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	wkb "github.com/njchilds90/gowkb"
	"github.com/njchilds90/gowkb/internal/config"
	"github.com/njchilds90/gowkb/internal/export"
)

// StateResult is everything the single-state run computes.
type StateResult struct {
	N           int
	Energy      float64
	Turning     wkb.TurningPoints
	Window      wkb.TurningPoints
	Method      wkb.Method
	Psi0        complex128
	NormSquared float64
	Scale       complex128
	Samples     wkb.SampleTable
}

// fail tags err with stage unless a deeper stage already did.
func fail(stage string, n int, err error) error {
	var se *wkb.StageError
	if errors.As(err, &se) {
		return err
	}
	return &wkb.StageError{Stage: stage, N: n, Err: err}
}

// SolveState runs quantization, turning points, the wavefunction solve,
// sampling and normalization for cfg.State.N.
func SolveState(ctx context.Context, cfg *config.Config, log *zap.Logger) (*StateResult, error) {
	n := cfg.State.N
	opts := cfg.Options()
	log = log.With(zap.Int("n", n))

	pot, err := cfg.BuildPotential()
	if err != nil {
		return nil, fail(wkb.StagePotential, n, err)
	}
	log.Debug("potential ready", zap.Stringer("V", pot), zap.Float64("mass", cfg.Mass))

	energy, err := wkb.QuantizedEnergy(pot, cfg.Mass, n, opts)
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{zap.Float64("energy", energy)}
	if exact, ok := wkb.HarmonicEnergy(pot, cfg.Mass, n); ok {
		fields = append(fields, zap.Float64("harmonic_exact", exact))
	}
	log.Info("energy quantized", fields...)
	if err := ctx.Err(); err != nil {
		return nil, fail(wkb.StageQuantize, n, err)
	}

	tp, err := wkb.FindTurningPoints(pot, energy, opts)
	if err != nil {
		return nil, fail(wkb.StageTurning, n, err)
	}
	window := tp.Scale(cfg.State.ViewFactor)
	log.Info("turning points located",
		zap.Float64("left", tp.Left), zap.Float64("right", tp.Right),
		zap.Float64("view_left", window.Left), zap.Float64("view_right", window.Right))

	wf, method, err := wkb.SolveWavefunction(pot, cfg.Mass, energy, n, tp.Union(window), cfg.WaveOptions())
	if err != nil {
		return nil, fail(wkb.StageWavefunc, n, err)
	}
	psi0 := wf.Eval(0)
	log.Debug("wavefunction solved", zap.String("method", string(method)),
		zap.Float64("psi0_re", real(psi0)), zap.Float64("psi0_im", imag(psi0)),
		zap.Bool("psi0_defined", !cmplx.IsNaN(psi0)))
	if err := ctx.Err(); err != nil {
		return nil, fail(wkb.StageWavefunc, n, err)
	}

	scaled, total, err := cfg.StateScaling().Apply(wf, tp, opts, pot.Center())
	if err != nil {
		return nil, fail(wkb.StageNormalize, n, err)
	}
	samples, err := wkb.SampleWavefunction(scaled, window, cfg.State.NumberOfPoints)
	if err != nil {
		return nil, fail(wkb.StageSample, n, err)
	}
	log.Info("wavefunction sampled",
		zap.String("method", string(method)),
		zap.Int("rows", len(samples)),
		zap.Float64("norm_squared", total),
		zap.Float64("scale", cmplx.Abs(scaled.Factor)),
		zap.Float64("peak_density", samples.PeakDensity()))

	return &StateResult{
		N:           n,
		Energy:      energy,
		Turning:     tp,
		Window:      window,
		Method:      method,
		Psi0:        psi0,
		NormSquared: total,
		Scale:       scaled.Factor,
		Samples:     samples,
	}, nil
}

// RunState solves the state and writes cfg.ExactPath().
func RunState(ctx context.Context, cfg *config.Config, log *zap.Logger) (*StateResult, error) {
	res, err := SolveState(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	path := cfg.ExactPath()
	size, err := export.WriteSamples(path, export.Format(cfg.Output.Format), res.Samples)
	if err != nil {
		return nil, fail(wkb.StageExport, res.N, err)
	}
	log.Info("samples written",
		zap.String("path", path),
		zap.String("rows", humanize.Comma(int64(len(res.Samples)))),
		zap.String("size", humanize.Bytes(uint64(size))))
	return res, nil
}

// SolveSpectrum quantizes every level in cfg.Spectrum.
func SolveSpectrum(ctx context.Context, cfg *config.Config, log *zap.Logger) (wkb.Spectrum, error) {
	pot, err := cfg.BuildPotential()
	if err != nil {
		return nil, fail(wkb.StagePotential, cfg.Spectrum.NMin, err)
	}
	spec, err := wkb.SolveSpectrum(ctx, pot, cfg.Mass, cfg.Spectrum.NMin, cfg.Spectrum.NMax, cfg.Options())
	if err != nil {
		return nil, err
	}
	log.Info("spectrum quantized",
		zap.Int("n_min", cfg.Spectrum.NMin),
		zap.Int("n_max", cfg.Spectrum.NMax),
		zap.Float64("ground", spec[0].Energy),
		zap.Float64("top", spec[len(spec)-1].Energy))
	return spec, nil
}

// RunSpectrum solves the spectrum and writes cfg.SpectrumPath().
func RunSpectrum(ctx context.Context, cfg *config.Config, log *zap.Logger) (wkb.Spectrum, error) {
	spec, err := SolveSpectrum(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	path := cfg.SpectrumPath()
	size, err := export.WriteSpectrum(path, export.Format(cfg.Output.Format), spec)
	if err != nil {
		return nil, fail(wkb.StageExport, cfg.Spectrum.NMin, err)
	}
	log.Info("spectrum written",
		zap.String("path", path),
		zap.String("rows", humanize.Comma(int64(len(spec)))),
		zap.String("size", humanize.Bytes(uint64(size))))
	return spec, nil
}

// SuperpositionResult is everything the superposition run computes.
type SuperpositionResult struct {
	Levels      []wkb.Level
	Methods     []wkb.Method
	Span        wkb.TurningPoints
	Window      wkb.TurningPoints
	NormSquared float64
	Scale       complex128
	Samples     wkb.SampleTable
}

// SolveSuperposition sums the configured levels, scales the sum over the
// span of their turning points and samples it.
func SolveSuperposition(ctx context.Context, cfg *config.Config, log *zap.Logger) (*SuperpositionResult, error) {
	comps := cfg.Components()
	first := 0
	if len(comps) > 0 {
		first = comps[0].N
	}
	pot, err := cfg.BuildPotential()
	if err != nil {
		return nil, fail(wkb.StagePotential, first, err)
	}
	opts := cfg.Options()
	sup, err := wkb.SolveSuperposition(ctx, pot, cfg.Mass, comps, opts, cfg.SuperpositionOptions())
	if err != nil {
		return nil, err
	}
	for i, l := range sup.Levels {
		log.Debug("component solved", zap.Int("n", l.N), zap.Float64("energy", l.Energy),
			zap.String("method", string(sup.Methods[i])))
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(wkb.StageSuperpose, first, err)
	}

	scaled, total, err := cfg.SuperpositionScaling().Apply(sup, sup.Span, opts, pot.Center())
	if err != nil {
		return nil, fail(wkb.StageNormalize, first, err)
	}
	samples, err := wkb.SampleWavefunction(scaled, sup.Window, cfg.Superposition.NumberOfPoints)
	if err != nil {
		return nil, fail(wkb.StageSample, first, err)
	}
	log.Info("superposition sampled",
		zap.Int("components", len(comps)),
		zap.Float64("view_left", sup.Window.Left), zap.Float64("view_right", sup.Window.Right),
		zap.Float64("norm_squared", total),
		zap.Float64("peak_density", samples.PeakDensity()))

	return &SuperpositionResult{
		Levels:      sup.Levels,
		Methods:     sup.Methods,
		Span:        sup.Span,
		Window:      sup.Window,
		NormSquared: total,
		Scale:       scaled.Factor,
		Samples:     samples,
	}, nil
}

// RunSuperposition solves the superposition and writes
// cfg.SuperpositionPath().
func RunSuperposition(ctx context.Context, cfg *config.Config, log *zap.Logger) (*SuperpositionResult, error) {
	res, err := SolveSuperposition(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	path := cfg.SuperpositionPath()
	size, err := export.WriteSamples(path, export.Format(cfg.Output.Format), res.Samples)
	if err != nil {
		return nil, fail(wkb.StageExport, res.Levels[0].N, err)
	}
	log.Info("superposition written",
		zap.String("path", path),
		zap.String("rows", humanize.Comma(int64(len(res.Samples)))),
		zap.String("size", humanize.Bytes(uint64(size))))
	return res, nil
}
