package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	wkb "github.com/njchilds90/gowkb"
)

// Config holds every constant of a run. Default() reproduces the values the
// tools were built around; a YAML file overrides any subset.
type Config struct {
	Mass          float64             `yaml:"mass"`
	Potential     PotentialConfig     `yaml:"potential"`
	State         StateConfig         `yaml:"state"`
	Spectrum      SpectrumConfig      `yaml:"spectrum"`
	Superposition SuperpositionConfig `yaml:"superposition"`
	Solver        SolverConfig        `yaml:"solver"`
	Output        OutputConfig        `yaml:"output"`
	Log           LogConfig           `yaml:"log"`
}

// PotentialConfig describes V(x) = coefficient * |x|^exponent.
type PotentialConfig struct {
	Coefficient float64 `yaml:"coefficient"`
	Exponent    float64 `yaml:"exponent"`
}

// StateConfig drives the single-state solver.
type StateConfig struct {
	N              int     `yaml:"n"`
	ViewFactor     float64 `yaml:"view_factor"`
	NumberOfPoints int     `yaml:"number_of_points"`
	C1             Complex `yaml:"c1"`
	C2             Complex `yaml:"c2"`
	Method         string        `yaml:"method"`
	Normalization  string        `yaml:"normalization"`
	Scaling        ScalingConfig `yaml:"scaling"`
}

// ScalingConfig picks none, mul or renormalize and the complex factor.
type ScalingConfig struct {
	Mode   string  `yaml:"mode"`
	Factor Complex `yaml:"factor"`
}

// SuperpositionConfig is a weighted sum of levels of the same well.
type SuperpositionConfig struct {
	Components     []ComponentConfig `yaml:"components"`
	Method         string            `yaml:"method"`
	ViewFactor     float64           `yaml:"view_factor"`
	NumberOfPoints int               `yaml:"number_of_points"`
	Normalization  string            `yaml:"normalization"`
	Scaling        ScalingConfig     `yaml:"scaling"`
}

type ComponentConfig struct {
	N     int     `yaml:"n"`
	Coeff Complex `yaml:"coeff"`
}

// SpectrumConfig is the inclusive range of quantum numbers to enumerate.
type SpectrumConfig struct {
	NMin int `yaml:"n_min"`
	NMax int `yaml:"n_max"`
}

type SolverConfig struct {
	Nodes         int     `yaml:"nodes"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxIter       int     `yaml:"max_iter"`
	ShootingSteps int     `yaml:"shooting_steps"`
}

type OutputConfig struct {
	Dir               string `yaml:"dir"`
	ExactFile         string `yaml:"exact_file"`
	SpectrumFile      string `yaml:"spectrum_file"`
	SuperpositionFile string `yaml:"superposition_file"`
	Format            string `yaml:"format"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Complex is a YAML-friendly complex coefficient.
type Complex struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

func (c Complex) Value() complex128 { return complex(c.Re, c.Im) }

// Default returns the stock configuration: m = 1, V = x², n = 5, view
// factor 0.5, 10000 points, spectrum n = 0..50, and levels 9, 12, 15 with
// phases 1, e^(iπ/3), e^(2iπ/3) for the superposition.
func Default() *Config {
	half := math.Sqrt(3) / 2
	return &Config{
		Mass:      1,
		Potential: PotentialConfig{Coefficient: 1, Exponent: 2},
		State: StateConfig{
			N:              5,
			ViewFactor:     0.5,
			NumberOfPoints: 10000,
			C1:             Complex{Re: 1},
			Method:         string(wkb.MethodAuto),
			Normalization:  string(wkb.NormL2),
			Scaling:        ScalingConfig{Mode: string(wkb.ScaleRenormalize), Factor: Complex{Re: 1}},
		},
		Spectrum: SpectrumConfig{NMin: 0, NMax: 50},
		Superposition: SuperpositionConfig{
			Components: []ComponentConfig{
				{N: 9, Coeff: Complex{Re: 1}},
				{N: 12, Coeff: Complex{Re: 0.5, Im: half}},
				{N: 15, Coeff: Complex{Re: -0.5, Im: half}},
			},
			Method:         string(wkb.MethodAuto),
			ViewFactor:     1,
			NumberOfPoints: 10000,
			Normalization:  string(wkb.NormL2),
			Scaling:        ScalingConfig{Mode: string(wkb.ScaleRenormalize), Factor: Complex{Re: 1}},
		},
		Solver: SolverConfig{
			Nodes:         256,
			Tolerance:     1e-12,
			MaxIter:       200,
			ShootingSteps: 20000,
		},
		Output: OutputConfig{
			Dir:          "output",
			ExactFile:         "exact.dat",
			SpectrumFile:      "energys_exact.dat",
			SuperpositionFile: "superposition.dat",
			Format:            "dat",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load overlays the YAML file at path onto Default. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no stage can work with.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Mass > 0) {
		errs = append(errs, fmt.Errorf("mass must be positive, got %g", c.Mass))
	}
	if !(c.Potential.Coefficient > 0) {
		errs = append(errs, fmt.Errorf("potential.coefficient must be positive, got %g", c.Potential.Coefficient))
	}
	if !(c.Potential.Exponent > 0) {
		errs = append(errs, fmt.Errorf("potential.exponent must be positive, got %g", c.Potential.Exponent))
	}
	if c.State.N < 0 {
		errs = append(errs, fmt.Errorf("state.n must be >= 0, got %d", c.State.N))
	}
	if !(c.State.ViewFactor > 0) {
		errs = append(errs, fmt.Errorf("state.view_factor must be positive, got %g", c.State.ViewFactor))
	}
	if c.State.NumberOfPoints < 1 {
		errs = append(errs, fmt.Errorf("state.number_of_points must be >= 1, got %d", c.State.NumberOfPoints))
	}
	if !knownMethod(c.State.Method) {
		errs = append(errs, fmt.Errorf("state.method %q is not one of auto, hermite, shooting, wkb", c.State.Method))
	}
	if !knownNormalization(c.State.Normalization) {
		errs = append(errs, fmt.Errorf("state.normalization %q is not one of l2, integral", c.State.Normalization))
	}
	if !knownScaling(c.State.Scaling.Mode) {
		errs = append(errs, fmt.Errorf("state.scaling.mode %q is not one of none, mul, renormalize", c.State.Scaling.Mode))
	}
	sp := c.Superposition
	if len(sp.Components) == 0 {
		errs = append(errs, errors.New("superposition.components is empty"))
	}
	for i, comp := range sp.Components {
		if comp.N < 0 {
			errs = append(errs, fmt.Errorf("superposition.components[%d].n must be >= 0, got %d", i, comp.N))
		}
	}
	if !knownMethod(sp.Method) {
		errs = append(errs, fmt.Errorf("superposition.method %q is not one of auto, hermite, shooting, wkb", sp.Method))
	}
	if !(sp.ViewFactor > 0) {
		errs = append(errs, fmt.Errorf("superposition.view_factor must be positive, got %g", sp.ViewFactor))
	}
	if sp.NumberOfPoints < 1 {
		errs = append(errs, fmt.Errorf("superposition.number_of_points must be >= 1, got %d", sp.NumberOfPoints))
	}
	if !knownNormalization(sp.Normalization) {
		errs = append(errs, fmt.Errorf("superposition.normalization %q is not one of l2, integral", sp.Normalization))
	}
	if !knownScaling(sp.Scaling.Mode) {
		errs = append(errs, fmt.Errorf("superposition.scaling.mode %q is not one of none, mul, renormalize", sp.Scaling.Mode))
	}
	if c.Spectrum.NMin < 0 || c.Spectrum.NMax < c.Spectrum.NMin {
		errs = append(errs, fmt.Errorf("spectrum range [%d, %d] is empty or negative", c.Spectrum.NMin, c.Spectrum.NMax))
	}
	switch c.Output.Format {
	case "dat", "parquet":
	default:
		errs = append(errs, fmt.Errorf("output.format %q is not one of dat, parquet", c.Output.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", wkb.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

func knownMethod(m string) bool {
	switch wkb.Method(m) {
	case wkb.MethodAuto, wkb.MethodHermite, wkb.MethodShooting, wkb.MethodWKB:
		return true
	}
	return false
}

func knownNormalization(n string) bool {
	switch wkb.Normalization(n) {
	case wkb.NormL2, wkb.NormIntegral:
		return true
	}
	return false
}

func knownScaling(m string) bool {
	switch wkb.ScalingMode(m) {
	case wkb.ScaleNone, wkb.ScaleMul, wkb.ScaleRenormalize:
		return true
	}
	return false
}

// BuildPotential builds the configured well.
func (c *Config) BuildPotential() (*wkb.Potential, error) {
	return wkb.PowerLaw(c.Potential.Coefficient, c.Potential.Exponent)
}

// Options maps the solver section onto the numeric kernels.
func (c *Config) Options() wkb.Options {
	return wkb.Options{Nodes: c.Solver.Nodes, Tol: c.Solver.Tolerance, MaxIter: c.Solver.MaxIter}
}

// WaveOptions maps the state section onto the wavefunction solver.
func (c *Config) WaveOptions() wkb.WaveOptions {
	return wkb.WaveOptions{
		C1:      c.State.C1.Value(),
		C2:      c.State.C2.Value(),
		Method:  wkb.Method(c.State.Method),
		Steps:   c.Solver.ShootingSteps,
		Options: c.Options(),
	}
}

// StateScaling is the scaling applied to the single state before sampling.
func (c *Config) StateScaling() wkb.Scaling {
	return wkb.Scaling{
		Mode:   wkb.ScalingMode(c.State.Scaling.Mode),
		Factor: c.State.Scaling.Factor.Value(),
		Norm:   wkb.Normalization(c.State.Normalization),
	}
}

// Components lists the superposition levels with their weights.
func (c *Config) Components() []wkb.Component {
	out := make([]wkb.Component, len(c.Superposition.Components))
	for i, comp := range c.Superposition.Components {
		out[i] = wkb.Component{N: comp.N, Coeff: comp.Coeff.Value()}
	}
	return out
}

// SuperpositionOptions maps the superposition section onto the solver.
func (c *Config) SuperpositionOptions() wkb.SuperpositionOptions {
	return wkb.SuperpositionOptions{
		Method:     wkb.Method(c.Superposition.Method),
		Steps:      c.Solver.ShootingSteps,
		ViewFactor: c.Superposition.ViewFactor,
	}
}

// SuperpositionScaling is the scaling applied to the summed state.
func (c *Config) SuperpositionScaling() wkb.Scaling {
	return wkb.Scaling{
		Mode:   wkb.ScalingMode(c.Superposition.Scaling.Mode),
		Factor: c.Superposition.Scaling.Factor.Value(),
		Norm:   wkb.Normalization(c.Superposition.Normalization),
	}
}

func (c *Config) ExactPath() string    { return filepath.Join(c.Output.Dir, c.Output.ExactFile) }
func (c *Config) SpectrumPath() string { return filepath.Join(c.Output.Dir, c.Output.SpectrumFile) }
func (c *Config) SuperpositionPath() string {
	return filepath.Join(c.Output.Dir, c.Output.SuperpositionFile)
}
