// Package benchmark - Accelerator benchmarking harness: operation counters,
// orchestration, and derived metrics.
package benchmark

import (
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-accel/accel"
	"github.com/nvr-ai/go-accel/power"
)

// OperationRecord is one completed timed backend invocation. Records are
// consumed into the registry's running aggregates and discarded; they are
// never mutated after creation.
type OperationRecord struct {
	Kind            accel.Kind
	Duration        time.Duration
	Energy          power.Energy
	EnergySupported bool
	Success         bool
}

// CounterSet aggregates statistics for one accelerator kind. All fields are
// non-negative and non-decreasing for the lifetime of the registry, and
// Operations == Successes() + Failures after every recorded operation.
type CounterSet struct {
	Operations    uint64        `json:"operations"`
	Failures      uint64        `json:"failures"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalEnergy   power.Energy  `json:"total_energy_uj"`
	// EnergySupported is true only when every recorded operation carried a
	// usable energy delta.
	EnergySupported bool `json:"energy_supported"`
}

// Successes returns the number of operations that completed without error.
func (c CounterSet) Successes() uint64 {
	return c.Operations - c.Failures
}

// Registry holds per-kind operation counters, safe for concurrent use.
//
// There is no reset: a fresh benchmarking run takes a fresh registry. The
// registry retains only aggregates, never individual records.
type Registry struct {
	mu       sync.Mutex
	counters map[accel.Kind]*CounterSet
}

// NewRegistry creates an empty counter registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[accel.Kind]*CounterSet)}
}

// Record folds one operation record into the counters for its kind. All
// fields of the kind's CounterSet are updated under a single critical
// section, so concurrent readers never observe a partial update.
func (r *Registry) Record(rec OperationRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.counters[rec.Kind]
	if !ok {
		cs = &CounterSet{EnergySupported: true}
		r.counters[rec.Kind] = cs
	}

	cs.Operations++
	cs.TotalDuration += rec.Duration
	if !rec.Success {
		cs.Failures++
	}
	if rec.EnergySupported {
		cs.TotalEnergy += rec.Energy
	} else {
		cs.EnergySupported = false
	}
}

// Snapshot returns a consistent point-in-time copy of the counters for kind.
// Kinds with no recorded operations yield a zero CounterSet.
func (r *Registry) Snapshot(kind accel.Kind) CounterSet {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.counters[kind]; ok {
		return *cs
	}
	return CounterSet{}
}

// Kinds returns the kinds with at least one recorded operation, in stable
// order.
func (r *Registry) Kinds() []accel.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]accel.Kind, 0, len(r.counters))
	for kind := range r.counters {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// TotalOperations returns the number of operations recorded across all kinds.
func (r *Registry) TotalOperations() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total uint64
	for _, cs := range r.counters {
		total += cs.Operations
	}
	return total
}
