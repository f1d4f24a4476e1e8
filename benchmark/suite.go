package benchmark

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-accel/accel"
	"github.com/nvr-ai/go-accel/power"
)

// ErrInvalidConfiguration indicates a run request was rejected before any
// backend call was made.
var ErrInvalidConfiguration = errors.New("invalid benchmark configuration")

// Observer receives a callback for every recorded operation. Implementations
// must be safe for concurrent use.
type Observer interface {
	ObserveOperation(kind accel.Kind, d time.Duration, success bool)
}

// Suite drives timed backend invocations, feeding the registry and sampling
// the power counter around every attempt.
//
// Multiple Run calls may execute concurrently from separate goroutines. Calls
// to the same backend instance are serialized through a per-instance lock
// because the hardware-enable toggling inside Execute is not assumed
// reentrant; distinct instances run fully in parallel.
type Suite struct {
	registry *Registry
	sampler  power.Sampler
	observer Observer

	mu    sync.Mutex
	locks map[accel.Backend]*sync.Mutex
}

// NewSuite creates a benchmark suite around a registry and a power sampler.
// A nil sampler degrades to the unsupported sampler.
func NewSuite(registry *Registry, sampler power.Sampler) *Suite {
	if registry == nil {
		registry = NewRegistry()
	}
	if sampler == nil {
		sampler = power.Unsupported()
	}
	return &Suite{
		registry: registry,
		sampler:  sampler,
		locks:    make(map[accel.Backend]*sync.Mutex),
	}
}

// Registry returns the suite's counter registry.
func (s *Suite) Registry() *Registry {
	return s.registry
}

// SetObserver registers an observer notified after every recorded operation.
func (s *Suite) SetObserver(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// RunOutcome summarizes one Run call.
type RunOutcome struct {
	Kind      accel.Kind `json:"kind"`
	Requested int        `json:"requested"`
	// Completed is the number of operation records produced, failed attempts
	// included.
	Completed int `json:"completed"`
	Failures  int `json:"failures"`
	// Unavailable flags early termination: the backend reported its device
	// absent and the remaining repetitions were skipped.
	Unavailable bool `json:"unavailable"`
	// Canceled flags that the context was canceled between repetitions.
	Canceled      bool          `json:"canceled"`
	TotalDuration time.Duration `json:"total_duration"`
}

// Run invokes the backend repetitions times, recording every attempt into the
// registry whether it succeeded or not.
//
// repetitions == 0 performs no backend calls and is not an error; a negative
// value is rejected with ErrInvalidConfiguration before any backend call.
// A BackendUnavailable failure stops the remaining repetitions of this call
// and is surfaced to the caller; runs for other backends are unaffected.
// Cancellation is checked between repetitions only: an in-flight Execute
// always finishes on its own and its record is kept.
func (s *Suite) Run(ctx context.Context, backend accel.Backend, w accel.Workload, repetitions int) (RunOutcome, error) {
	outcome := RunOutcome{Kind: backend.Kind(), Requested: repetitions}

	if repetitions < 0 {
		return outcome, errors.Wrapf(ErrInvalidConfiguration, "repetitions must be >= 0, got %d", repetitions)
	}

	lock := s.instanceLock(backend)

	for i := 0; i < repetitions; i++ {
		select {
		case <-ctx.Done():
			outcome.Canceled = true
			return outcome, nil
		default:
		}

		rec, err := s.attempt(ctx, lock, backend, w)
		s.registry.Record(rec)
		s.notify(rec)

		outcome.Completed++
		outcome.TotalDuration += rec.Duration
		if !rec.Success {
			outcome.Failures++
		}

		if accel.IsUnavailable(err) {
			outcome.Unavailable = true
			return outcome, err
		}
	}

	return outcome, nil
}

// Warmup executes the workload without touching the registry. Failed warmup
// attempts are skipped; an unavailable backend ends the warmup early.
func (s *Suite) Warmup(ctx context.Context, backend accel.Backend, w accel.Workload, runs int) {
	lock := s.instanceLock(backend)
	for i := 0; i < runs; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lock.Lock()
		_, err := backend.Execute(ctx, w)
		lock.Unlock()
		if accel.IsUnavailable(err) {
			return
		}
	}
}

// RunScenario performs the scenario's warmup runs followed by its measured
// repetitions.
func (s *Suite) RunScenario(ctx context.Context, backend accel.Backend, sc Scenario) (RunOutcome, error) {
	s.Warmup(ctx, backend, sc.Workload, sc.WarmupRuns)
	return s.Run(ctx, backend, sc.Workload, sc.Repetitions)
}

// attempt executes one repetition: power sample, backend call, power sample,
// record. The record is produced regardless of the call's outcome.
func (s *Suite) attempt(ctx context.Context, lock *sync.Mutex, backend accel.Backend, w accel.Workload) (OperationRecord, error) {
	lock.Lock()
	pre := s.sample()
	elapsed, err := backend.Execute(ctx, w)
	post := s.sample()
	lock.Unlock()

	rec := OperationRecord{
		Kind:     backend.Kind(),
		Duration: elapsed,
		Success:  err == nil,
	}
	if delta, ok := power.Delta(pre, post); ok {
		rec.Energy = delta
		rec.EnergySupported = true
	}
	return rec, err
}

// sample reads the power counter, degrading read errors to an unsupported
// reading rather than failing the repetition.
func (s *Suite) sample() power.Reading {
	reading, err := s.sampler.Sample()
	if err != nil {
		return power.Reading{Timestamp: time.Now()}
	}
	return reading
}

func (s *Suite) notify(rec OperationRecord) {
	s.mu.Lock()
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer.ObserveOperation(rec.Kind, rec.Duration, rec.Success)
	}
}

func (s *Suite) instanceLock(backend accel.Backend) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[backend]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[backend] = lock
	}
	return lock
}
