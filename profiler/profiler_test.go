package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-accel/accel"
)

func TestObserveOperation(t *testing.T) {
	p := New(Options{})

	p.ObserveOperation(accel.KindCompute, 2*time.Millisecond, true)
	p.ObserveOperation(accel.KindCompute, 4*time.Millisecond, true)
	p.ObserveOperation(accel.KindCompute, 6*time.Millisecond, false)

	stats := p.Stats()
	s, ok := stats[accel.KindCompute]
	require.True(t, ok)
	assert.Equal(t, int64(3), s.Count)
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, 4*time.Millisecond, s.Average)
	assert.Equal(t, 2*time.Millisecond, s.Min)
	assert.Equal(t, 6*time.Millisecond, s.Max)
}

func TestStatsEmpty(t *testing.T) {
	p := New(Options{})
	assert.Empty(t, p.Stats())
}

func TestStartStop(t *testing.T) {
	p := New(Options{SampleInterval: 5 * time.Millisecond, MaxSamples: 4})

	p.Start()
	// Start is idempotent.
	p.Start()
	time.Sleep(30 * time.Millisecond)
	p.Stop()
	// Stop is idempotent too.
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.NotEmpty(t, p.samples)
	assert.LessOrEqual(t, len(p.samples), 4)
}
