package benchmark

import (
	"time"

	"github.com/nvr-ai/go-accel/accel"
)

// BackendMetrics are derived performance numbers for one accelerator kind.
type BackendMetrics struct {
	Operations     uint64        `json:"operations"`
	Failures       uint64        `json:"failures"`
	OpsPerSecond   float64       `json:"ops_per_second"`
	AverageLatency time.Duration `json:"average_latency"`
	// PowerEfficiency is energy per operation in microjoules. It carries no
	// meaning unless PowerSupported is true.
	PowerEfficiency float64 `json:"power_efficiency_uj_per_op"`
	PowerSupported  bool    `json:"power_supported"`
}

// Report is a derived, read-only snapshot of all counters as consumer-facing
// metrics. Building a report never mutates the registry, so callers may
// request as many reports as they like.
type Report struct {
	Timestamp  time.Time                     `json:"timestamp"`
	PerBackend map[accel.Kind]BackendMetrics `json:"per_backend"`
	// AggregateMemoryBandwidth is bytes per second from the dedicated
	// bandwidth probe. It is a property of the memory subsystem, not of the
	// accelerator counters.
	AggregateMemoryBandwidth float64 `json:"aggregate_memory_bandwidth_bps"`
	TotalOperations          uint64  `json:"total_operations"`
}

// BuildReport derives a report from the registry's counters at the moment of
// the call. Kinds with zero recorded operations are omitted rather than
// reported as zero rows, and power efficiency is only computed when every
// record for the kind carried a usable energy delta.
func BuildReport(registry *Registry, bandwidth BandwidthResult) Report {
	report := Report{
		Timestamp:                time.Now(),
		PerBackend:               make(map[accel.Kind]BackendMetrics),
		AggregateMemoryBandwidth: bandwidth.BytesPerSecond(),
	}

	for _, kind := range registry.Kinds() {
		cs := registry.Snapshot(kind)
		if cs.Operations == 0 {
			continue
		}

		m := BackendMetrics{
			Operations:     cs.Operations,
			Failures:       cs.Failures,
			AverageLatency: cs.TotalDuration / time.Duration(cs.Operations),
		}
		if cs.TotalDuration > 0 {
			m.OpsPerSecond = float64(cs.Operations) / cs.TotalDuration.Seconds()
		}
		if cs.EnergySupported {
			m.PowerSupported = true
			m.PowerEfficiency = float64(cs.TotalEnergy.MicroJoules()) / float64(cs.Operations)
		}

		report.PerBackend[kind] = m
		report.TotalOperations += cs.Operations
	}

	return report
}
