// Package power - Platform energy counter sampling.
package power

import (
	"fmt"
	"time"
)

// Energy is a cumulative energy amount in microjoules.
type Energy uint64

// MicroJoules returns the energy value in microjoules.
func (e Energy) MicroJoules() uint64 {
	return uint64(e)
}

// Joules returns the energy value in joules.
func (e Energy) Joules() float64 {
	return float64(e) / 1e6
}

func (e Energy) String() string {
	return fmt.Sprintf("%.6fJ", e.Joules())
}

// Reading is one sample of the platform energy counter.
//
// CumulativeEnergy is monotonically non-decreasing across readings from the
// same sampler within a process lifetime; the delta between two readings is
// the energy consumed in that interval.
type Reading struct {
	Timestamp        time.Time `json:"timestamp"`
	CumulativeEnergy Energy    `json:"cumulative_energy_uj"`
	// Supported reports whether the platform exposes an energy counter.
	// When false, CumulativeEnergy carries no meaning and derived power
	// metrics must report unsupported rather than a fabricated number.
	Supported bool `json:"supported"`
}

// Sampler produces cumulative energy readings.
type Sampler interface {
	Sample() (Reading, error)
}

// Delta returns the energy consumed between two readings. ok is false when
// either reading lacks counter support, in which case the delta must not be
// used in derived metrics.
func Delta(pre, post Reading) (delta Energy, ok bool) {
	if !pre.Supported || !post.Supported {
		return 0, false
	}
	if post.CumulativeEnergy < pre.CumulativeEnergy {
		return 0, false
	}
	return post.CumulativeEnergy - pre.CumulativeEnergy, true
}

// Unsupported returns a Sampler for platforms without an energy counter.
// Every reading it produces carries the explicit unsupported marker.
func Unsupported() Sampler {
	return unsupportedSampler{}
}

type unsupportedSampler struct{}

func (unsupportedSampler) Sample() (Reading, error) {
	return Reading{Timestamp: time.Now(), Supported: false}, nil
}
