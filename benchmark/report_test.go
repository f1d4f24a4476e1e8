package benchmark

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-accel/accel"
)

func TestBuildReportMetrics(t *testing.T) {
	registry := NewRegistry()
	// 100 operations of exactly 1ms, 200uJ each.
	for i := 0; i < 100; i++ {
		registry.Record(OperationRecord{
			Kind:            accel.KindCrypto,
			Duration:        time.Millisecond,
			Energy:          200,
			EnergySupported: true,
			Success:         true,
		})
	}

	report := BuildReport(registry, BandwidthResult{})

	m, ok := report.PerBackend[accel.KindCrypto]
	require.True(t, ok)
	assert.InDelta(t, 1000, m.OpsPerSecond, 0.001)
	assert.Equal(t, time.Millisecond, m.AverageLatency)
	assert.True(t, m.PowerSupported)
	assert.InDelta(t, 200, m.PowerEfficiency, 0.001)
	assert.Equal(t, uint64(100), report.TotalOperations)
}

func TestBuildReportOmitsEmptyKinds(t *testing.T) {
	registry := NewRegistry()
	registry.Record(OperationRecord{Kind: accel.KindCompute, Duration: time.Millisecond, Success: true})

	report := BuildReport(registry, BandwidthResult{})

	assert.Len(t, report.PerBackend, 1)
	_, ok := report.PerBackend[accel.KindNeural]
	assert.False(t, ok)
}

func TestBuildReportUnsupportedPower(t *testing.T) {
	registry := NewRegistry()
	for i := 0; i < 10; i++ {
		registry.Record(OperationRecord{
			Kind:     accel.KindMatrix,
			Duration: time.Millisecond,
			Success:  true,
		})
	}

	report := BuildReport(registry, BandwidthResult{})

	m := report.PerBackend[accel.KindMatrix]
	assert.False(t, m.PowerSupported)
	assert.Zero(t, m.PowerEfficiency)
	assert.False(t, math.IsNaN(m.OpsPerSecond))
	assert.False(t, math.IsNaN(m.PowerEfficiency))
}

func TestBuildReportDoesNotMutateRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Record(OperationRecord{Kind: accel.KindCompute, Duration: time.Millisecond, Success: true})

	before := registry.Snapshot(accel.KindCompute)
	_ = BuildReport(registry, BandwidthResult{})
	_ = BuildReport(registry, BandwidthResult{})
	after := registry.Snapshot(accel.KindCompute)

	assert.Equal(t, before, after)
}

func TestBandwidthResultBytesPerSecond(t *testing.T) {
	result := BandwidthResult{BytesMoved: 1 << 30, Elapsed: time.Second}
	assert.InDelta(t, float64(1<<30), result.BytesPerSecond(), 0.001)

	assert.Zero(t, BandwidthResult{}.BytesPerSecond())
}

func TestMeasureBandwidth(t *testing.T) {
	result, err := MeasureBandwidth(context.Background(), 1<<16, 8)

	require.NoError(t, err)
	assert.Equal(t, uint64(8<<16), result.BytesMoved)
	assert.Greater(t, result.Elapsed, time.Duration(0))
	assert.Greater(t, result.BytesPerSecond(), 0.0)
}

func TestMeasureBandwidthRejectsBadInput(t *testing.T) {
	_, err := MeasureBandwidth(context.Background(), 0, 8)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = MeasureBandwidth(context.Background(), 1<<16, 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestMeasureBandwidthCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := MeasureBandwidth(ctx, 1<<16, 8)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.BytesMoved)
}

func TestSaveReport(t *testing.T) {
	registry := NewRegistry()
	registry.Record(OperationRecord{
		Kind:            accel.KindCompute,
		Duration:        time.Millisecond,
		Energy:          100,
		EnergySupported: true,
		Success:         true,
	})
	report := BuildReport(registry, BandwidthResult{BytesMoved: 1 << 20, Elapsed: time.Millisecond})

	dir := t.TempDir()
	resultsFile, err := SaveReport(dir, report)

	require.NoError(t, err)
	assert.FileExists(t, resultsFile)
}
