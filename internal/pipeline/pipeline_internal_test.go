package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wkb "github.com/njchilds90/gowkb"
)

func TestFail_TagsPlainError(t *testing.T) {
	err := fail(wkb.StageExport, 3, errors.New("disk full"))
	var se *wkb.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wkb.StageExport, se.Stage)
	assert.Equal(t, 3, se.N)
}

func TestFail_KeepsWrappedStage(t *testing.T) {
	inner := &wkb.StageError{Stage: wkb.StageQuantize, N: 7, Err: wkb.ErrNoRoot}
	wrapped := fmt.Errorf("level 7: %w", inner)

	err := fail(wkb.StageExport, 0, wrapped)
	assert.Same(t, wrapped, err)

	var se *wkb.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, wkb.StageQuantize, se.Stage)
	assert.Equal(t, 7, se.N)
	assert.ErrorIs(t, err, wkb.ErrNoRoot)
}
