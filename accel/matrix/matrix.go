// Package matrix - Matrix-coprocessor backend over dense tensor kernels.
package matrix

import (
	"context"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-accel/accel"
)

const defaultSize = 256

// Backend multiplies two size×size float32 matrices per unit of work.
type Backend struct {
	mu      sync.Mutex
	engaged bool
	closed  bool
}

// New creates a matrix backend.
func New() *Backend {
	return &Backend{}
}

// Kind returns the accelerator kind tag.
func (b *Backend) Kind() accel.Kind {
	return accel.KindMatrix
}

func (b *Backend) engage() (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.Wrap(accel.ErrBackendUnavailable, "matrix backend closed")
	}
	if b.engaged {
		return nil, errors.Wrap(accel.ErrExecutionFailed, "matrix unit already engaged")
	}
	b.engaged = true

	return func() {
		b.mu.Lock()
		b.engaged = false
		b.mu.Unlock()
	}, nil
}

// Execute runs one matrix multiplication of the workload's size and returns
// the elapsed kernel time.
func (b *Backend) Execute(ctx context.Context, w accel.Workload) (time.Duration, error) {
	release, err := b.engage()
	if err != nil {
		return 0, err
	}
	defer release()

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}

	size := w.Size
	if size <= 0 {
		size = defaultSize
	}

	backingA := make([]float32, size*size)
	backingB := make([]float32, size*size)
	for i := range backingA {
		backingA[i] = math32.Sin(float32(i)) * 0.5
		backingB[i] = math32.Cos(float32(i)) * 0.5
	}

	lhs := tensor.New(tensor.WithShape(size, size), tensor.WithBacking(backingA))
	rhs := tensor.New(tensor.WithShape(size, size), tensor.WithBacking(backingB))

	start := time.Now()
	out, err := tensor.MatMul(lhs, rhs)
	if err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}
	elapsed := time.Since(start)

	if out == nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, "matmul produced no output")
	}

	return elapsed, nil
}

// Close releases the backend. Subsequent Execute calls report the backend
// unavailable.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
