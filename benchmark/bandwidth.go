package benchmark

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// BandwidthResult is the output of the memory-bandwidth probe.
type BandwidthResult struct {
	BytesMoved uint64        `json:"bytes_moved"`
	Elapsed    time.Duration `json:"elapsed"`
}

// BytesPerSecond returns the measured bandwidth, or 0 for an empty result.
func (b BandwidthResult) BytesPerSecond() float64 {
	if b.Elapsed <= 0 {
		return 0
	}
	return float64(b.BytesMoved) / b.Elapsed.Seconds()
}

// MeasureBandwidth runs a fixed-size buffer copy loop and reports the bytes
// moved and the elapsed time. Cancellation is checked between passes; a
// canceled probe returns the partial result alongside the context error.
func MeasureBandwidth(ctx context.Context, bufSize, passes int) (BandwidthResult, error) {
	if bufSize <= 0 || passes <= 0 {
		return BandwidthResult{}, errors.Wrapf(ErrInvalidConfiguration,
			"bandwidth probe needs positive buffer size and passes, got %d/%d", bufSize, passes)
	}

	src := make([]byte, bufSize)
	dst := make([]byte, bufSize)
	for i := range src {
		src[i] = byte(i)
	}

	var moved uint64
	start := time.Now()
	for i := 0; i < passes; i++ {
		select {
		case <-ctx.Done():
			return BandwidthResult{BytesMoved: moved, Elapsed: time.Since(start)}, ctx.Err()
		default:
		}

		copy(dst, src)
		moved += uint64(len(src))
		// Alternate direction so both buffers stay hot.
		src, dst = dst, src
	}

	return BandwidthResult{BytesMoved: moved, Elapsed: time.Since(start)}, nil
}
