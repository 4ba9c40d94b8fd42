package config_test

import (
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wkb "github.com/njchilds90/gowkb"
	"github.com/njchilds90/gowkb/internal/config"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wkb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.0, cfg.Mass)
	assert.Equal(t, 5, cfg.State.N)
	assert.Equal(t, 0.5, cfg.State.ViewFactor)
	assert.Equal(t, 10000, cfg.State.NumberOfPoints)
	assert.Equal(t, complex128(1), cfg.State.C1.Value())
	assert.Equal(t, complex128(0), cfg.State.C2.Value())
	assert.Equal(t, 0, cfg.Spectrum.NMin)
	assert.Equal(t, 50, cfg.Spectrum.NMax)
	assert.Equal(t, filepath.Join("output", "exact.dat"), cfg.ExactPath())
	assert.Equal(t, filepath.Join("output", "energys_exact.dat"), cfg.SpectrumPath())
	assert.Equal(t, filepath.Join("output", "superposition.dat"), cfg.SuperpositionPath())

	comps := cfg.Components()
	require.Len(t, comps, 3)
	assert.Equal(t, []int{9, 12, 15}, []int{comps[0].N, comps[1].N, comps[2].N})
	for i, c := range comps {
		// Phases e^(ikπ/3) sit on the unit circle.
		assert.InDelta(t, 1, cmplx.Abs(c.Coeff), 1e-15)
		assert.InDelta(t, float64(i)*math.Pi/3, cmplx.Phase(c.Coeff), 1e-15)
	}
	assert.Equal(t, wkb.Scaling{Mode: wkb.ScaleRenormalize, Factor: 1, Norm: wkb.NormL2}, cfg.StateScaling())

	p, err := cfg.BuildPotential()
	require.NoError(t, err)
	assert.Equal(t, "x^2", p.String())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_Overlay(t *testing.T) {
	path := writeYAML(t, `
mass: 2
potential:
  coefficient: 0.5
  exponent: 4
state:
  n: 3
  c2: {re: 0, im: 1}
  method: shooting
spectrum:
  n_max: 10
output:
  format: parquet
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Mass)
	assert.Equal(t, 4.0, cfg.Potential.Exponent)
	assert.Equal(t, 3, cfg.State.N)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.5, cfg.State.ViewFactor)
	assert.Equal(t, 10000, cfg.State.NumberOfPoints)
	assert.Equal(t, "energys_exact.dat", cfg.Output.SpectrumFile)

	wave := cfg.WaveOptions()
	assert.Equal(t, complex128(1), wave.C1)
	assert.Equal(t, complex(0, 1), wave.C2)
	assert.Equal(t, wkb.MethodShooting, wave.Method)
	assert.Equal(t, 20000, wave.Steps)

	opts := cfg.Options()
	assert.Equal(t, 256, opts.Nodes)
	assert.Equal(t, 1e-12, opts.Tol)
	assert.Equal(t, opts, wave.Options)
}

func TestLoad_Superposition(t *testing.T) {
	path := writeYAML(t, `
state:
  method: wkb
  scaling: {mode: mul, factor: {re: 0, im: 2}}
superposition:
  components:
    - {n: 1, coeff: {re: 1}}
    - {n: 4, coeff: {re: 0, im: -1}}
  method: shooting
  view_factor: 1.5
  normalization: integral
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, wkb.MethodWKB, cfg.WaveOptions().Method)
	assert.Equal(t, wkb.Scaling{Mode: wkb.ScaleMul, Factor: complex(0, 2), Norm: wkb.NormL2}, cfg.StateScaling())

	// The list replaces the default levels rather than merging with them.
	assert.Equal(t, []wkb.Component{{N: 1, Coeff: 1}, {N: 4, Coeff: complex(0, -1)}}, cfg.Components())
	sopts := cfg.SuperpositionOptions()
	assert.Equal(t, wkb.MethodShooting, sopts.Method)
	assert.Equal(t, 1.5, sopts.ViewFactor)
	assert.Equal(t, 20000, sopts.Steps)
	scaling := cfg.SuperpositionScaling()
	assert.Equal(t, wkb.ScaleRenormalize, scaling.Mode)
	assert.Equal(t, wkb.NormIntegral, scaling.Norm)
}

func TestLoad_Missing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := config.Load(writeYAML(t, "mass: [1, 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := config.Load(writeYAML(t, "mass: -1\nstate:\n  n: -2\n"))
	require.ErrorIs(t, err, wkb.ErrInvalidInput)
	assert.Contains(t, err.Error(), "mass must be positive")
	assert.Contains(t, err.Error(), "state.n must be >= 0")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*config.Config){
		"coefficient":   func(c *config.Config) { c.Potential.Coefficient = 0 },
		"exponent":      func(c *config.Config) { c.Potential.Exponent = -2 },
		"view factor":   func(c *config.Config) { c.State.ViewFactor = 0 },
		"points":        func(c *config.Config) { c.State.NumberOfPoints = 0 },
		"method":        func(c *config.Config) { c.State.Method = "numerov" },
		"normalization": func(c *config.Config) { c.State.Normalization = "max" },
		"spectrum":      func(c *config.Config) { c.Spectrum.NMin, c.Spectrum.NMax = 4, 3 },
		"format":        func(c *config.Config) { c.Output.Format = "csv" },
		"scaling":       func(c *config.Config) { c.State.Scaling.Mode = "double" },
		"no components": func(c *config.Config) { c.Superposition.Components = nil },
		"component n":   func(c *config.Config) { c.Superposition.Components[1].N = -1 },
		"sup method":    func(c *config.Config) { c.Superposition.Method = "numerov" },
		"sup view":      func(c *config.Config) { c.Superposition.ViewFactor = 0 },
		"sup points":    func(c *config.Config) { c.Superposition.NumberOfPoints = 0 },
		"sup norm":      func(c *config.Config) { c.Superposition.Normalization = "max" },
		"sup scaling":   func(c *config.Config) { c.Superposition.Scaling.Mode = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), wkb.ErrInvalidInput)
		})
	}
}
