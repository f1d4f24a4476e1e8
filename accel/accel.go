// Package accel - Accelerator backend contract and shared types.
package accel

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Kind identifies a class of hardware accelerator.
type Kind string

const (
	// KindCompute is the GPU-style general compute backend.
	KindCompute Kind = "compute"
	// KindMatrix is the matrix-coprocessor backend.
	KindMatrix Kind = "matrix"
	// KindNeural is the neural-inference backend.
	KindNeural Kind = "neural"
	// KindCrypto is the hardware-backed cryptographic backend.
	KindCrypto Kind = "crypto"
)

// Kinds is a list of all supported accelerator kinds.
var Kinds = []Kind{KindCompute, KindMatrix, KindNeural, KindCrypto}

var (
	// ErrBackendUnavailable indicates the device or driver for a backend is
	// absent. Further calls to the same backend will not succeed.
	ErrBackendUnavailable = errors.New("accelerator backend unavailable")

	// ErrExecutionFailed indicates work was started on the device but errored.
	// The backend remains usable for subsequent attempts.
	ErrExecutionFailed = errors.New("accelerator execution failed")
)

// IsUnavailable reports whether err stems from a missing device or driver.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

// Workload describes one unit of work submitted to a backend.
type Workload struct {
	// Name labels the workload in scenarios and reports.
	Name string `json:"name"`
	// Size is the problem size in backend-specific units (matrix dimension,
	// payload bytes, tensor length).
	Size int `json:"size"`
	// Payload carries optional raw input data for data-driven backends.
	Payload []byte `json:"-"`
}

// Backend is the capability contract every accelerator driver implements.
//
// Execute runs one unit of work and returns the elapsed execution time, or
// fails with ErrBackendUnavailable or ErrExecutionFailed. Any hardware mode a
// backend toggles on entry must be released on every exit path. Backends are
// not assumed safe for concurrent Execute calls on the same instance; the
// orchestrator serializes them.
type Backend interface {
	Kind() Kind
	Execute(ctx context.Context, w Workload) (time.Duration, error)
	Close() error
}
