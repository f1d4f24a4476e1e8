package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-accel/accel"
	"github.com/nvr-ai/go-accel/accel/compute"
	"github.com/nvr-ai/go-accel/accel/hwcrypto"
	"github.com/nvr-ai/go-accel/accel/matrix"
	"github.com/nvr-ai/go-accel/accel/neural"
	"github.com/nvr-ai/go-accel/benchmark"
	"github.com/nvr-ai/go-accel/power"
	"github.com/nvr-ai/go-accel/profiler"
	"github.com/nvr-ai/go-accel/util"
)

func main() {
	var (
		configFile    = flag.String("config", "", "Path to harness configuration file")
		scenarioFile  = flag.String("scenarios", "", "Path to scenario configuration file")
		outputDir     = flag.String("output", "./benchmark_results", "Output directory for results")
		payloadDir    = flag.String("payloads", "", "Directory of raw payload files for the crypto backend")
		modelPath     = flag.String("model", "", "Path to ONNX model for the neural backend")
		ortLibrary    = flag.String("ortlib", "", "Path to the onnxruntime shared library")
		quick         = flag.Bool("quick", false, "Run quick benchmark scenarios")
		comprehensive = flag.Bool("comprehensive", false, "Run comprehensive benchmark scenarios")
		parallel      = flag.Bool("parallel", false, "Run distinct accelerator kinds in parallel")
		profile       = flag.Bool("profile", false, "Collect runtime profile during the session")
		timeout       = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	config := benchmark.DefaultConfig()
	if *configFile != "" {
		loaded, err := benchmark.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		config = loaded
	}
	if *outputDir != "" {
		config.OutputDir = *outputDir
	}
	if *payloadDir != "" {
		config.PayloadDir = *payloadDir
	}
	if *modelPath != "" {
		config.ModelPath = *modelPath
	}
	if *ortLibrary != "" {
		config.ORTLibraryPath = *ortLibrary
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var corpus []util.PayloadFile
	if config.PayloadDir != "" {
		var err error
		corpus, err = util.LoadDirectoryPayloads(config.PayloadDir)
		if err != nil {
			log.Fatalf("Failed to load payload corpus: %v", err)
		}
		fmt.Printf("Loaded %d payload files from %s\n", len(corpus), config.PayloadDir)
	}

	backends := buildBackends(config)
	if len(backends) == 0 {
		log.Fatal("No accelerator backends available on this host")
	}
	defer func() {
		for _, backend := range backends {
			if err := backend.Close(); err != nil {
				log.Printf("Failed to close %s backend: %v", backend.Kind(), err)
			}
		}
	}()

	kinds := availableKinds(backends)
	fmt.Printf("Available backends: %v\n", kinds)

	scenarios, err := selectScenarios(*scenarioFile, *quick, *comprehensive, kinds)
	if err != nil {
		log.Fatalf("Failed to select scenarios: %v", err)
	}
	attachPayloads(scenarios, corpus)
	fmt.Printf("Running %d scenarios\n", len(scenarios))

	sampler := power.NewSampler()
	registry := benchmark.NewRegistry()
	suite := benchmark.NewSuite(registry, sampler)

	var prof *profiler.SessionProfiler
	if *profile {
		prof = profiler.New(profiler.Options{Sampler: sampler})
		suite.SetObserver(prof)
		prof.Start()
		defer func() {
			prof.Stop()
			prof.PrintSummary()
		}()
	}

	start := time.Now()
	bar := progressbar.Default(int64(len(scenarios)), "benchmarking")

	if err := runScenarios(ctx, suite, backends, scenarios, *parallel, bar); err != nil {
		log.Fatalf("Benchmark run failed: %v", err)
	}

	bandwidth, err := benchmark.MeasureBandwidth(ctx, config.BandwidthBufferBytes, config.BandwidthPasses)
	if err != nil {
		log.Printf("Bandwidth probe incomplete: %v", err)
	}

	report := benchmark.BuildReport(registry, bandwidth)
	printReport(report)
	fmt.Printf("Total benchmark time: %v\n", time.Since(start).Truncate(time.Millisecond))

	resultsFile, err := benchmark.SaveReport(config.OutputDir, report)
	if err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}
	fmt.Printf("Report saved to: %s\n", resultsFile)
}

// buildBackends constructs every backend the host supports. Unavailable
// backends are logged and skipped rather than failing the run.
func buildBackends(config *benchmark.Config) map[accel.Kind]accel.Backend {
	backends := map[accel.Kind]accel.Backend{
		accel.KindCompute: compute.New(),
		accel.KindMatrix:  matrix.New(),
	}

	if crypto, err := hwcrypto.New(nil); err != nil {
		log.Printf("Crypto backend unavailable: %v", err)
	} else {
		backends[accel.KindCrypto] = crypto
	}

	if config.ModelPath == "" {
		log.Printf("Neural backend disabled: no model path configured")
	} else {
		neuralBackend, err := neural.New(neural.Config{
			ModelPath:   config.ModelPath,
			LibraryPath: config.ORTLibraryPath,
			InputShape:  []int64{1, 3, 224, 224},
			OutputShape: []int64{1, 1000},
			InputName:   "input",
			OutputName:  "output",
		})
		if err != nil {
			log.Printf("Neural backend unavailable: %v", err)
		} else {
			backends[accel.KindNeural] = neuralBackend
		}
	}

	return backends
}

func availableKinds(backends map[accel.Kind]accel.Backend) []accel.Kind {
	kinds := make([]accel.Kind, 0, len(backends))
	for kind := range backends {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func selectScenarios(scenarioFile string, quick, comprehensive bool, kinds []accel.Kind) ([]benchmark.Scenario, error) {
	if scenarioFile != "" {
		scenarioSet, err := benchmark.LoadScenarioSet(scenarioFile)
		if err != nil {
			return nil, err
		}
		return scenarioSet.Scenarios, nil
	}

	predefined := &benchmark.PredefinedScenarios{}
	if comprehensive {
		return predefined.GetComprehensiveScenarios(kinds).Scenarios, nil
	}
	if quick {
		return predefined.GetQuickScenarios(kinds).Scenarios, nil
	}
	// Default to quick when nothing was requested.
	return predefined.GetQuickScenarios(kinds).Scenarios, nil
}

// attachPayloads feeds corpus data to data-driven scenarios, cycling through
// the loaded files.
func attachPayloads(scenarios []benchmark.Scenario, corpus []util.PayloadFile) {
	if len(corpus) == 0 {
		return
	}
	i := 0
	for idx := range scenarios {
		if scenarios[idx].Kind != accel.KindCrypto && scenarios[idx].Kind != accel.KindNeural {
			continue
		}
		scenarios[idx].Workload.Payload = corpus[i%len(corpus)].Data
		i++
	}
}

// runScenarios executes all scenarios, optionally fanning out across kinds.
// Distinct backend instances may run fully in parallel; scenarios for the
// same kind stay sequential.
func runScenarios(ctx context.Context, suite *benchmark.Suite, backends map[accel.Kind]accel.Backend, scenarios []benchmark.Scenario, parallel bool, bar *progressbar.ProgressBar) error {
	byKind := make(map[accel.Kind][]benchmark.Scenario)
	for _, sc := range scenarios {
		byKind[sc.Kind] = append(byKind[sc.Kind], sc)
	}

	runKind := func(kind accel.Kind, kindScenarios []benchmark.Scenario) error {
		backend, ok := backends[kind]
		if !ok {
			log.Printf("Skipping %d scenarios: no %s backend", len(kindScenarios), kind)
			return nil
		}

		for _, sc := range kindScenarios {
			outcome, err := suite.RunScenario(ctx, backend, sc)
			_ = bar.Add(1)

			if accel.IsUnavailable(err) {
				log.Printf("Scenario %s ended early: %v", sc.Name, err)
				return nil
			}
			if err != nil {
				return err
			}
			if outcome.Canceled {
				return nil
			}
		}
		return nil
	}

	if !parallel {
		for kind, kindScenarios := range byKind {
			if err := runKind(kind, kindScenarios); err != nil {
				return err
			}
		}
		return nil
	}

	group, _ := errgroup.WithContext(ctx)
	for kind, kindScenarios := range byKind {
		kind, kindScenarios := kind, kindScenarios
		group.Go(func() error {
			return runKind(kind, kindScenarios)
		})
	}
	return group.Wait()
}

func printReport(report benchmark.Report) {
	fmt.Printf("\nACCELERATOR BENCHMARK REPORT - %s\n", report.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Total operations: %d\n", report.TotalOperations)
	fmt.Printf("Aggregate memory bandwidth: %.2f GB/s\n", report.AggregateMemoryBandwidth/1e9)

	kinds := make([]accel.Kind, 0, len(report.PerBackend))
	for kind := range report.PerBackend {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		m := report.PerBackend[kind]
		efficiency := "unsupported"
		if m.PowerSupported {
			efficiency = fmt.Sprintf("%.2f uJ/op", m.PowerEfficiency)
		}
		fmt.Printf("  %-8s ops=%d failures=%d throughput=%.2f ops/s latency=%v power=%s\n",
			kind, m.Operations, m.Failures, m.OpsPerSecond,
			m.AverageLatency.Truncate(time.Microsecond), efficiency)
	}
}
