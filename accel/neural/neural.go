// Package neural - Neural-inference backend over ONNX Runtime.
package neural

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-accel/accel"
)

// Config holds the model and runtime locations for the neural backend.
type Config struct {
	// ModelPath is the ONNX model file to benchmark.
	ModelPath string
	// LibraryPath is the native onnxruntime shared library. Empty means the
	// platform default search path.
	LibraryPath string
	// InputShape/OutputShape are the fixed tensor shapes of the model.
	InputShape  []int64
	OutputShape []int64
	InputName   string
	OutputName  string
}

// Backend runs one inference pass per unit of work on a preallocated ONNX
// Runtime session.
type Backend struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	engaged bool
	closed  bool
}

// New creates the neural backend. A missing native runtime or model file is
// reported as the backend being unavailable, not as an execution failure.
func New(cfg Config) (*Backend, error) {
	if cfg.LibraryPath != "" {
		if _, err := os.Stat(cfg.LibraryPath); err != nil {
			return nil, errors.Wrapf(accel.ErrBackendUnavailable, "onnxruntime library not found at %s", cfg.LibraryPath)
		}
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(accel.ErrBackendUnavailable, err.Error())
		}
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(accel.ErrBackendUnavailable, "model not found at %s", cfg.ModelPath)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		return nil, errors.Wrap(accel.ErrBackendUnavailable, err.Error())
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(accel.ErrBackendUnavailable, err.Error())
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(accel.ErrBackendUnavailable, err.Error())
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}, options)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(accel.ErrBackendUnavailable, err.Error())
	}

	return &Backend{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Kind returns the accelerator kind tag.
func (b *Backend) Kind() accel.Kind {
	return accel.KindNeural
}

func (b *Backend) engage() (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.Wrap(accel.ErrBackendUnavailable, "neural backend closed")
	}
	if b.engaged {
		return nil, errors.Wrap(accel.ErrExecutionFailed, "inference session already engaged")
	}
	b.engaged = true

	return func() {
		b.mu.Lock()
		b.engaged = false
		b.mu.Unlock()
	}, nil
}

// Execute fills the input tensor from the workload payload and runs one
// inference pass, returning the session's elapsed run time.
func (b *Backend) Execute(ctx context.Context, w accel.Workload) (time.Duration, error) {
	release, err := b.engage()
	if err != nil {
		return 0, err
	}
	defer release()

	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}

	data := b.input.GetData()
	for i := range data {
		if len(w.Payload) > 0 {
			data[i] = float32(w.Payload[i%len(w.Payload)]) / 255
		} else {
			data[i] = float32(i%255) / 255
		}
	}

	start := time.Now()
	if err := b.session.Run(); err != nil {
		return 0, errors.Wrap(accel.ErrExecutionFailed, err.Error())
	}
	return time.Since(start), nil
}

// Close destroys the session and its tensors. Subsequent Execute calls report
// the backend unavailable.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.input != nil {
		b.input.Destroy()
		b.input = nil
	}
	if b.output != nil {
		b.output.Destroy()
		b.output = nil
	}
	if b.session != nil {
		if err := b.session.Destroy(); err != nil {
			return errors.Wrap(err, "destroying inference session")
		}
		b.session = nil
	}

	return nil
}
