package compute

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-accel/accel"
)

func TestExecute(t *testing.T) {
	backend := New()
	defer backend.Close()

	assert.Equal(t, accel.KindCompute, backend.Kind())

	elapsed, err := backend.Execute(context.Background(), accel.Workload{Name: "dense", Size: 32})

	require.NoError(t, err)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestExecuteAfterClose(t *testing.T) {
	backend := New()
	require.NoError(t, backend.Close())

	_, err := backend.Execute(context.Background(), accel.Workload{Size: 32})
	assert.ErrorIs(t, err, accel.ErrBackendUnavailable)
}

func TestExecuteCanceledContextReleasesMode(t *testing.T) {
	backend := New()
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Execute(ctx, accel.Workload{Size: 32})
	assert.ErrorIs(t, err, accel.ErrExecutionFailed)

	// The execution mode must have been released on the failure path.
	_, err = backend.Execute(context.Background(), accel.Workload{Size: 32})
	assert.NoError(t, err)
}
