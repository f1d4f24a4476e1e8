package power

import (
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Package-level RAPL zone of the powercap interface. The raw counter wraps at
// the zone's max range value.
const (
	raplEnergyPath = "/sys/class/powercap/intel-rapl:0/energy_uj"
	raplRangePath  = "/sys/class/powercap/intel-rapl:0/max_energy_range_uj"
)

// NewSampler returns the platform energy sampler. On hosts exposing the RAPL
// powercap interface it reads the package energy counter; everywhere else it
// falls back to the unsupported sampler.
func NewSampler() Sampler {
	s, err := newRAPLSampler(raplEnergyPath, raplRangePath)
	if err != nil {
		return Unsupported()
	}
	return s
}

// raplSampler folds wraparounds of the raw counter into a monotonically
// non-decreasing cumulative value.
type raplSampler struct {
	mu          sync.Mutex
	energyPath  string
	maxRange    uint64
	lastRaw     uint64
	accumulated uint64
}

func newRAPLSampler(energyPath, rangePath string) (*raplSampler, error) {
	raw, err := readCounter(energyPath)
	if err != nil {
		return nil, errors.Wrap(err, "reading rapl energy counter")
	}

	maxRange, err := readCounter(rangePath)
	if err != nil || maxRange == 0 {
		maxRange = math.MaxUint64
	}

	return &raplSampler{
		energyPath: energyPath,
		maxRange:   maxRange,
		lastRaw:    raw,
	}, nil
}

func (s *raplSampler) Sample() (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := readCounter(s.energyPath)
	if err != nil {
		return Reading{}, errors.Wrap(err, "reading rapl energy counter")
	}

	if raw >= s.lastRaw {
		s.accumulated += raw - s.lastRaw
	} else {
		// Raw counter wrapped since the previous sample.
		s.accumulated += (s.maxRange - s.lastRaw) + raw
	}
	s.lastRaw = raw

	return Reading{
		Timestamp:        time.Now(),
		CumulativeEnergy: Energy(s.accumulated),
		Supported:        true,
	}, nil
}

func readCounter(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}
