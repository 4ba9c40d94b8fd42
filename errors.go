package wkb

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a quantum number, mass or range outside its
	// domain.
	ErrInvalidInput = errors.New("wkb: invalid input")

	// ErrNoRoot reports an equation without a real root in the searched
	// bracket.
	ErrNoRoot = errors.New("wkb: no real root")

	// ErrNotConfining reports a potential whose action never reaches the
	// quantization target, i.e. the well has no bound state at that level.
	ErrNotConfining = errors.New("wkb: potential is not confining")

	// ErrNoClosedForm reports a wavefunction request the Hermite or WKB
	// form cannot represent.
	ErrNoClosedForm = errors.New("wkb: no closed-form solution")

	// ErrNormalization reports a non-positive or non-finite norm.
	ErrNormalization = errors.New("wkb: wavefunction cannot be normalized")

	// ErrNonMonotonic reports a spectrum whose energies do not increase
	// with n.
	ErrNonMonotonic = errors.New("wkb: spectrum is not strictly increasing")

	// ErrFreeSymbol reports an expression that still holds a symbol other
	// than the one it is compiled in.
	ErrFreeSymbol = errors.New("wkb: free symbol in expression")

	// ErrUnsupported reports an expression node Compile has no numeric
	// form for.
	ErrUnsupported = errors.New("wkb: unsupported function")
)

// Stage names used in StageError.
const (
	StageQuantize    = "quantize"
	StageTurning     = "turning-points"
	StageWavefunc    = "wavefunction"
	StageSample      = "sample"
	StageNormalize   = "normalize"
	StageSpectrum    = "spectrum"
	StageSuperpose   = "superposition"
	StageExport      = "export"
	StagePotential   = "potential"
	StageConfigCheck = "config"
)

// StageError wraps a failure with the pipeline stage and quantum number it
// happened at.
type StageError struct {
	Stage string
	N     int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (n=%d): %v", e.Stage, e.N, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, n int, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, N: n, Err: err}
}
