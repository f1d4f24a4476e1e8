package neural

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-accel/accel"
)

func TestNewMissingLibraryIsUnavailable(t *testing.T) {
	_, err := New(Config{
		ModelPath:   "testdata/model.onnx",
		LibraryPath: "/nonexistent/libonnxruntime.so",
		InputShape:  []int64{1, 3, 224, 224},
		OutputShape: []int64{1, 1000},
		InputName:   "input",
		OutputName:  "output",
	})

	assert.True(t, accel.IsUnavailable(err))
}

func TestNewMissingModelIsUnavailable(t *testing.T) {
	// Without a native runtime the environment fails first; with one, the
	// missing model file fails. Both are capability gaps, not execution
	// failures.
	_, err := New(Config{
		ModelPath:   "/nonexistent/model.onnx",
		InputShape:  []int64{1, 3, 224, 224},
		OutputShape: []int64{1, 1000},
		InputName:   "input",
		OutputName:  "output",
	})

	assert.True(t, accel.IsUnavailable(err))
}
