package hwcrypto

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-accel/accel"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	if !Available() {
		t.Skip("no AES instruction support on this CPU")
	}
	backend, err := New(nil)
	require.NoError(t, err)
	return backend
}

func TestExecute(t *testing.T) {
	backend := newTestBackend(t)
	defer backend.Close()

	assert.Equal(t, accel.KindCrypto, backend.Kind())

	elapsed, err := backend.Execute(context.Background(), accel.Workload{
		Name:    "seal",
		Payload: []byte("the quick brown fox jumps over the lazy dog"),
	})

	require.NoError(t, err)
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestExecuteGeneratedPayload(t *testing.T) {
	backend := newTestBackend(t)
	defer backend.Close()

	_, err := backend.Execute(context.Background(), accel.Workload{Size: 4096})
	assert.NoError(t, err)
}

func TestExecuteAfterClose(t *testing.T) {
	backend := newTestBackend(t)
	require.NoError(t, backend.Close())

	_, err := backend.Execute(context.Background(), accel.Workload{Size: 64})
	assert.ErrorIs(t, err, accel.ErrBackendUnavailable)
}

func TestExecuteCanceledContextReleasesEngine(t *testing.T) {
	backend := newTestBackend(t)
	defer backend.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Execute(ctx, accel.Workload{Size: 64})
	assert.ErrorIs(t, err, accel.ErrExecutionFailed)

	_, err = backend.Execute(context.Background(), accel.Workload{Size: 64})
	assert.NoError(t, err)
}

func TestNewRejectsBadKey(t *testing.T) {
	if !Available() {
		t.Skip("no AES instruction support on this CPU")
	}

	_, err := New([]byte("short"))
	assert.ErrorIs(t, err, accel.ErrExecutionFailed)
}
