// Package compute - GPU-style compute backend over a gorgonia expression
// graph executed on a tape machine.
package compute

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-accel/accel"
)

const defaultSize = 256

// Backend executes dense compute workloads of the form relu(A·x + b) on a
// freshly built expression graph per unit of work.
type Backend struct {
	mu      sync.Mutex
	engaged bool
	closed  bool
}

// New creates a compute backend.
func New() *Backend {
	return &Backend{}
}

// Kind returns the accelerator kind tag.
func (b *Backend) Kind() accel.Kind {
	return accel.KindCompute
}

// engage flips the backend's execution mode on. The returned release must run
// on every exit path of Execute; the mode is not reentrant.
func (b *Backend) engage() (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.Wrap(accel.ErrBackendUnavailable, "compute backend closed")
	}
	if b.engaged {
		return nil, errors.Wrap(accel.ErrExecutionFailed, "compute mode already engaged")
	}
	b.engaged = true

	return func() {
		b.mu.Lock()
		b.engaged = false
		b.mu.Unlock()
	}, nil
}

// Execute builds and runs one compute graph of the workload's size and
// returns the elapsed execution time of the tape machine.
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

	g := G.NewGraph()
	a := G.NewMatrix(g, tensor.Float32, G.WithShape(size, size), G.WithName("a"), G.WithInit(G.GlorotU(1)))
	x := G.NewVector(g, tensor.Float32, G.WithShape(size), G.WithName("x"), G.WithInit(G.RangedFrom(0)))
	bias := G.NewVector(g, tensor.Float32, G.WithShape(size), G.WithName("bias"), G.WithInit(G.Zeroes()))

	product := G.Must(G.Mul(a, x))
	summed := G.Must(G.Add(product, bias))
	activated := G.Must(G.Rectify(summed))

	vm := G.NewTapeMachine(g)
	defer vm.Close()

	start := time.Now()
	if err := vm.RunAll(); err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}
	elapsed := time.Since(start)

	if activated.Value() == nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, "graph produced no output value")
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
