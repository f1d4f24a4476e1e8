// Package profiler - Runtime monitoring for long benchmarking sessions.
package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/nvr-ai/go-accel/accel"
	"github.com/nvr-ai/go-accel/power"
)

// SessionProfiler samples process runtime stats and the platform power
// counter during a benchmarking session, and tracks per-backend operation
// timings via the harness observer hook.
//
// It satisfies the benchmark package's Observer interface.
type SessionProfiler struct {
	sampleInterval time.Duration
	maxSamples     int
	sampler        power.Sampler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	startTime time.Time
	running   bool

	memStats    runtime.MemStats
	samples     []runtimeSample
	lastReading power.Reading

	operations map[accel.Kind]*opTracker
}

// runtimeSample is one periodic snapshot of process-level counters.
type runtimeSample struct {
	timestamp  time.Time
	goroutines int
	heapAlloc  uint64
	watts      float64
}

// opTracker accumulates timing statistics for one accelerator kind.
type opTracker struct {
	total    time.Duration
	min      time.Duration
	max      time.Duration
	count    int64
	failures int64
}

// Options configures the session profiler.
type Options struct {
	// SampleInterval specifies how often to collect runtime samples (default: 250ms).
	SampleInterval time.Duration
	// MaxSamples specifies the maximum number of samples to keep (default: 960).
	MaxSamples int
	// Sampler supplies power readings for the watts series; nil disables it.
	Sampler power.Sampler
}

// New creates a session profiler with the given options.
func New(opts Options) *SessionProfiler {
	if opts.SampleInterval == 0 {
		opts.SampleInterval = 250 * time.Millisecond
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 960
	}
	if opts.Sampler == nil {
		opts.Sampler = power.Unsupported()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SessionProfiler{
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		sampler:        opts.Sampler,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
		samples:        make([]runtimeSample, 0, opts.MaxSamples),
		operations:     make(map[accel.Kind]*opTracker),
	}
}

// Start begins background sampling. Safe to call more than once.
func (p *SessionProfiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.startTime = time.Now()

	p.wg.Add(1)
	go p.sampleLoop()
}

// Stop halts sampling and waits for the sampling goroutine to finish.
func (p *SessionProfiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// ObserveOperation records one completed backend operation. Called by the
// benchmark suite after every recorded repetition.
func (p *SessionProfiler) ObserveOperation(kind accel.Kind, d time.Duration, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, ok := p.operations[kind]
	if !ok {
		tracker = &opTracker{min: d, max: d}
		p.operations[kind] = tracker
	}

	tracker.total += d
	tracker.count++
	if !success {
		tracker.failures++
	}
	if d < tracker.min {
		tracker.min = d
	}
	if d > tracker.max {
		tracker.max = d
	}
}

func (p *SessionProfiler) sampleLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.collectSample()
		}
	}
}

func (p *SessionProfiler) collectSample() {
	reading, err := p.sampler.Sample()
	if err != nil {
		reading = power.Reading{Timestamp: time.Now()}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	runtime.ReadMemStats(&p.memStats)

	sample := runtimeSample{
		timestamp:  time.Now(),
		goroutines: runtime.NumGoroutine(),
		heapAlloc:  p.memStats.HeapAlloc,
	}

	// Average watts over the interval since the previous supported reading.
	if delta, ok := power.Delta(p.lastReading, reading); ok {
		interval := reading.Timestamp.Sub(p.lastReading.Timestamp).Seconds()
		if interval > 0 {
			sample.watts = delta.Joules() / interval
		}
	}
	p.lastReading = reading

	p.samples = append(p.samples, sample)
	if len(p.samples) > p.maxSamples {
		p.samples = p.samples[1:]
	}
}

// OperationStats is a snapshot of timing statistics for one kind.
type OperationStats struct {
	Count    int64
	Failures int64
	Average  time.Duration
	Min      time.Duration
	Max      time.Duration
}

// Stats returns a snapshot of per-kind operation statistics.
func (p *SessionProfiler) Stats() map[accel.Kind]OperationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[accel.Kind]OperationStats, len(p.operations))
	for kind, tracker := range p.operations {
		s := OperationStats{
			Count:    tracker.count,
			Failures: tracker.failures,
			Min:      tracker.min,
			Max:      tracker.max,
		}
		if tracker.count > 0 {
			s.Average = tracker.total / time.Duration(tracker.count)
		}
		stats[kind] = s
	}
	return stats
}

// PrintSummary writes a human-readable session summary to stdout.
func (p *SessionProfiler) PrintSummary() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("SESSION PROFILE - uptime %v\n", time.Since(p.startTime).Truncate(time.Millisecond))
	fmt.Printf("  Goroutines: %d  Heap: %s\n", runtime.NumGoroutine(), formatBytes(p.memStats.HeapAlloc))

	if watts := p.averageWattsLocked(); watts > 0 {
		fmt.Printf("  Avg package power: %.2fW\n", watts)
	}

	for kind, tracker := range p.operations {
		if tracker.count == 0 {
			continue
		}
		avg := tracker.total / time.Duration(tracker.count)
		fmt.Printf("  %s: count=%d failures=%d avg=%v min=%v max=%v\n",
			kind, tracker.count, tracker.failures,
			avg.Truncate(time.Microsecond),
			tracker.min.Truncate(time.Microsecond),
			tracker.max.Truncate(time.Microsecond))
	}
}

func (p *SessionProfiler) averageWattsLocked() float64 {
	var sum float64
	var n int
	for _, s := range p.samples {
		if s.watts > 0 {
			sum += s.watts
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
