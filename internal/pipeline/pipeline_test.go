package pipeline_test

import (
	"context"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	wkb "github.com/njchilds90/gowkb"
	"github.com/njchilds90/gowkb/internal/config"
	"github.com/njchilds90/gowkb/internal/pipeline"
)

// PipelineSuite runs both batch jobs against a temporary output directory.
type PipelineSuite struct {
	suite.Suite
	ctx context.Context
	cfg *config.Config
	log *zap.Logger
}

func (s *PipelineSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = config.Default()
	s.cfg.Output.Dir = s.T().TempDir()
	s.log = zap.NewNop()
}

func readRows(t *testing.T, path string) [][]float64 {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows [][]float64
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			require.NoError(t, err)
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// TestRunState: default harmonic run, n = 5, 10001 rows over half the
// classical region.
func (s *PipelineSuite) TestRunState() {
	res, err := pipeline.RunState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)

	e := 5.5 * math.Sqrt2
	require.InDelta(s.T(), e, res.Energy, 1e-9)
	require.InDelta(s.T(), -math.Sqrt(e), res.Turning.Left, 1e-9)
	require.InDelta(s.T(), 0.5*math.Sqrt(e), res.Window.Right, 1e-9)
	require.Equal(s.T(), wkb.MethodHermite, res.Method)
	require.InDelta(s.T(), 1/math.Sqrt(res.NormSquared), real(res.Scale), 1e-15)
	require.Zero(s.T(), imag(res.Scale))

	rows := readRows(s.T(), s.cfg.ExactPath())
	require.Len(s.T(), rows, 10001)
	require.Len(s.T(), rows[0], 3)
	require.InDelta(s.T(), res.Window.Left, rows[0][0], 1e-12)
	require.InDelta(s.T(), res.Window.Right, rows[10000][0], 1e-9)

	// ψ_5 is odd and real.
	mid := rows[5000]
	require.InDelta(s.T(), 0, mid[0], 1e-12)
	require.InDelta(s.T(), 0, mid[1], 1e-12)
	for _, r := range rows {
		require.Zero(s.T(), r[2])
	}
	require.InDelta(s.T(), -rows[1234][1], rows[10000-1234][1], 1e-9)
}

// TestRunState_ShootingAgreesWithHermite: same level, both solvers, after
// normalization over the classical region.
func (s *PipelineSuite) TestRunState_ShootingAgreesWithHermite() {
	s.cfg.State.NumberOfPoints = 200
	hermite, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)

	s.cfg.State.Method = string(wkb.MethodShooting)
	s.cfg.State.C1 = config.Complex{}
	s.cfg.State.C2 = config.Complex{Re: 1}
	shot, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.Equal(s.T(), wkb.MethodShooting, shot.Method)

	sign := math.Copysign(1, shot.Samples[150].Re*hermite.Samples[150].Re)
	for i := range hermite.Samples {
		require.InDelta(s.T(), hermite.Samples[i].Re, sign*shot.Samples[i].Re, 1e-6, "i=%d", i)
	}
}

// TestRunState_IntegralNormalization divides by ∫|ψ|² rather than its root.
func (s *PipelineSuite) TestRunState_IntegralNormalization() {
	s.cfg.State.NumberOfPoints = 50
	s.cfg.State.Normalization = string(wkb.NormIntegral)
	res, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 1/res.NormSquared, real(res.Scale), 1e-15)
}

// TestRunState_MulScaling multiplies by the factor and skips the norm.
func (s *PipelineSuite) TestRunState_MulScaling() {
	s.cfg.State.NumberOfPoints = 40
	base, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)

	s.cfg.State.Scaling = config.ScalingConfig{Mode: string(wkb.ScaleMul), Factor: config.Complex{Im: 2}}
	res, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.Equal(s.T(), complex(0, 2), res.Scale)
	require.InDelta(s.T(), base.NormSquared, res.NormSquared, 1e-15)

	for i := range res.Samples {
		raw := base.Samples[i].Re / real(base.Scale)
		require.InDelta(s.T(), 0, res.Samples[i].Re, 1e-15)
		require.InDelta(s.T(), 2*raw, res.Samples[i].Im, 1e-12)
	}
}

// TestRunState_WKBMatchesHermite: the semiclassical state of the harmonic
// well overlaps the exact one almost completely.
func (s *PipelineSuite) TestRunState_WKBMatchesHermite() {
	s.cfg.State.NumberOfPoints = 400
	hermite, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)

	s.cfg.State.Method = string(wkb.MethodWKB)
	semi, err := pipeline.SolveState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.Equal(s.T(), wkb.MethodWKB, semi.Method)

	var ab, aa, bb float64
	for i := range hermite.Samples {
		a, b := hermite.Samples[i].Re, semi.Samples[i].Re
		ab, aa, bb = ab+a*b, aa+a*a, bb+b*b
		require.Zero(s.T(), semi.Samples[i].Im)
	}
	require.Greater(s.T(), math.Abs(ab)/math.Sqrt(aa*bb), 0.999)
}

// TestRunState_QuarticParquet exercises the shooting path and parquet output.
func (s *PipelineSuite) TestRunState_QuarticParquet() {
	s.cfg.Potential.Exponent = 4
	s.cfg.State.N = 2
	s.cfg.State.NumberOfPoints = 100
	s.cfg.Output.Format = "parquet"
	s.cfg.Output.ExactFile = "exact.parquet"

	res, err := pipeline.RunState(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.Equal(s.T(), wkb.MethodShooting, res.Method)
	require.Len(s.T(), res.Samples, 101)

	info, err := os.Stat(s.cfg.ExactPath())
	require.NoError(s.T(), err)
	require.Positive(s.T(), info.Size())
}

// TestRunState_HermiteRefusesIrregular: c2 != 0 has no closed form.
func (s *PipelineSuite) TestRunState_HermiteRefusesIrregular() {
	s.cfg.State.Method = string(wkb.MethodHermite)
	s.cfg.State.C2 = config.Complex{Re: 1}
	_, err := pipeline.RunState(s.ctx, s.cfg, s.log)
	require.ErrorIs(s.T(), err, wkb.ErrNoClosedForm)

	var se *wkb.StageError
	require.ErrorAs(s.T(), err, &se)
	require.Equal(s.T(), wkb.StageWavefunc, se.Stage)
	require.Equal(s.T(), 5, se.N)

	_, statErr := os.Stat(s.cfg.ExactPath())
	require.True(s.T(), os.IsNotExist(statErr))
}

// TestRunSpectrum: 51 rows, n column exact, energies strictly increasing.
func (s *PipelineSuite) TestRunSpectrum() {
	spec, err := pipeline.RunSpectrum(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.Len(s.T(), spec, 51)

	rows := readRows(s.T(), s.cfg.SpectrumPath())
	require.Len(s.T(), rows, 51)
	for i, r := range rows {
		require.Len(s.T(), r, 2)
		require.Equal(s.T(), float64(i), r[0])
		require.InEpsilon(s.T(), (float64(i)+0.5)*math.Sqrt2, r[1], 1e-9)
		if i > 0 {
			require.Greater(s.T(), r[1], rows[i-1][1])
		}
	}
}

// TestRunSpectrum_Cancelled stops before any level is written.
func (s *PipelineSuite) TestRunSpectrum_Cancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := pipeline.RunSpectrum(ctx, s.cfg, s.log)
	require.ErrorIs(s.T(), err, context.Canceled)

	_, statErr := os.Stat(s.cfg.SpectrumPath())
	require.True(s.T(), os.IsNotExist(statErr))
}

// TestRunSuperposition: default levels 9, 12, 15 of the harmonic well,
// sampled over the turning points of the highest one.
func (s *PipelineSuite) TestRunSuperposition() {
	res, err := pipeline.RunSuperposition(s.ctx, s.cfg, s.log)
	require.NoError(s.T(), err)
	require.Len(s.T(), res.Levels, 3)
	for i, n := range []int{9, 12, 15} {
		require.Equal(s.T(), n, res.Levels[i].N)
		require.InDelta(s.T(), (float64(n)+0.5)*math.Sqrt2, res.Levels[i].Energy, 1e-9)
		require.Equal(s.T(), wkb.MethodHermite, res.Methods[i])
	}
	top := math.Sqrt(15.5 * math.Sqrt2)
	require.InDelta(s.T(), top, res.Span.Right, 1e-9)
	require.Equal(s.T(), res.Span, res.Window)

	// Orthonormal terms: a little under 3 once the tails are cut off.
	require.Less(s.T(), res.NormSquared, 3.0)
	require.Greater(s.T(), res.NormSquared, 2.8)

	rows := readRows(s.T(), s.cfg.SuperpositionPath())
	require.Len(s.T(), rows, 10001)
	var area float64
	for i := 1; i < len(rows); i++ {
		d0 := rows[i-1][1]*rows[i-1][1] + rows[i-1][2]*rows[i-1][2]
		d1 := rows[i][1]*rows[i][1] + rows[i][2]*rows[i][2]
		area += (rows[i][0] - rows[i-1][0]) * (d0 + d1) / 2
	}
	require.InDelta(s.T(), 1, area, 1e-4)
}

// TestRunSuperposition_Cancelled writes nothing.
func (s *PipelineSuite) TestRunSuperposition_Cancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := pipeline.RunSuperposition(ctx, s.cfg, s.log)
	require.ErrorIs(s.T(), err, context.Canceled)

	var se *wkb.StageError
	require.ErrorAs(s.T(), err, &se)
	require.Equal(s.T(), wkb.StageSuperpose, se.Stage)
	require.Equal(s.T(), 9, se.N)

	_, statErr := os.Stat(s.cfg.SuperpositionPath())
	require.True(s.T(), os.IsNotExist(statErr))
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}
