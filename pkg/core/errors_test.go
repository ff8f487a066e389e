package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/welli-app/retention-go/pkg/core"
)

func TestEngineError_Error(t *testing.T) {
	err := &core.EngineError{
		Op:  "MatchGoal",
		Err: core.ErrEmbeddingFailed,
	}

	assert.Equal(t, "welli: MatchGoal: embedding generation failed", err.Error())
}

func TestEngineError_Unwrap(t *testing.T) {
	err := core.NewEngineError("PredictChurn", core.ErrModelNotReady)

	assert.ErrorIs(t, err, core.ErrModelNotReady)

	var engineErr *core.EngineError
	assert.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "PredictChurn", engineErr.Op)
}

func TestNewEngineError_Nil(t *testing.T) {
	assert.Nil(t, core.NewEngineError("MatchGoal", nil))
}

func TestNewEngineError_WrapsChain(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := core.NewEngineError("SeedCatalog", inner)

	assert.ErrorIs(t, wrapped, inner)
	assert.Contains(t, wrapped.Error(), "welli: SeedCatalog:")
}
