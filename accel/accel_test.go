package accel

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(ErrBackendUnavailable))
	assert.True(t, IsUnavailable(errors.Wrap(ErrBackendUnavailable, "device probe")))
	assert.False(t, IsUnavailable(ErrExecutionFailed))
	assert.False(t, IsUnavailable(nil))
}

func TestKindsCoverAllBackends(t *testing.T) {
	assert.ElementsMatch(t, []Kind{KindCompute, KindMatrix, KindNeural, KindCrypto}, Kinds)
}
