package benchmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvr-ai/go-accel/accel"
)

// Scenario defines one benchmark configuration.
type Scenario struct {
	Name        string         `json:"name"`
	Kind        accel.Kind     `json:"kind"`
	Workload    accel.Workload `json:"workload"`
	Repetitions int            `json:"repetitions"`
	WarmupRuns  int            `json:"warmup_runs"`
}

// CommonSizes are the problem sizes used by the predefined scenario sets.
var CommonSizes = []int{64, 128, 256, 512, 1024}

// ScenarioBuilder helps build scenarios with a fluent API.
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:        name,
			Repetitions: 100,
			WarmupRuns:  10,
		},
	}
}

// WithKind sets the accelerator kind.
func (sb *ScenarioBuilder) WithKind(kind accel.Kind) *ScenarioBuilder {
	sb.scenario.Kind = kind
	return sb
}

// WithWorkload sets the workload name and problem size.
func (sb *ScenarioBuilder) WithWorkload(name string, size int) *ScenarioBuilder {
	sb.scenario.Workload.Name = name
	sb.scenario.Workload.Size = size
	return sb
}

// WithPayload attaches raw input data for data-driven backends.
func (sb *ScenarioBuilder) WithPayload(payload []byte) *ScenarioBuilder {
	sb.scenario.Workload.Payload = payload
	return sb
}

// WithRepetitions sets the number of measured repetitions.
func (sb *ScenarioBuilder) WithRepetitions(repetitions int) *ScenarioBuilder {
	sb.scenario.Repetitions = repetitions
	return sb
}

// WithWarmupRuns sets the number of unmeasured warmup runs.
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// Build returns the configured scenario.
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related scenarios.
type ScenarioSet struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Scenarios   []Scenario `json:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets.
type PredefinedScenarios struct{}

// GetQuickScenarios returns a small scenario set for the given kinds.
func (ps *PredefinedScenarios) GetQuickScenarios(kinds []accel.Kind) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, kind := range kinds {
		for _, size := range []int{128, 512} {
			scenario := NewScenarioBuilder(fmt.Sprintf("quick_%s_%d", kind, size)).
				WithKind(kind).
				WithWorkload(fmt.Sprintf("%s-%d", kind, size), size).
				WithRepetitions(50).
				WithWarmupRuns(5).
				Build()

			scenarios = append(scenarios, scenario)
		}
	}

	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Quick test with common problem sizes",
		Scenarios:   scenarios,
	}
}

// GetComprehensiveScenarios returns every kind/size combination.
func (ps *PredefinedScenarios) GetComprehensiveScenarios(kinds []accel.Kind) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, kind := range kinds {
		for _, size := range CommonSizes {
			scenario := NewScenarioBuilder(fmt.Sprintf("%s_%d", kind, size)).
				WithKind(kind).
				WithWorkload(fmt.Sprintf("%s-%d", kind, size), size).
				WithRepetitions(100).
				WithWarmupRuns(10).
				Build()

			scenarios = append(scenarios, scenario)
		}
	}

	return &ScenarioSet{
		Name:        "Comprehensive Performance Test",
		Description: "Tests all combinations of accelerator kinds and problem sizes",
		Scenarios:   scenarios,
	}
}

// GetSizeSweepScenarios sweeps problem sizes for one kind.
func (ps *PredefinedScenarios) GetSizeSweepScenarios(kind accel.Kind, sizes []int) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, size := range sizes {
		scenario := NewScenarioBuilder(fmt.Sprintf("sweep_%s_%d", kind, size)).
			WithKind(kind).
			WithWorkload(fmt.Sprintf("%s-%d", kind, size), size).
			WithRepetitions(100).
			WithWarmupRuns(10).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Size Sweep - %s", kind),
		Description: fmt.Sprintf("Compares problem sizes on the %s backend", kind),
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a JSON file.
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenario set: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON file.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario set: %w", err)
	}

	return &scenarioSet, nil
}

// Config represents the overall harness configuration.
type Config struct {
	OutputDir            string `json:"output_dir"`
	PayloadDir           string `json:"payload_dir"`
	ModelPath            string `json:"model_path"`
	ORTLibraryPath       string `json:"ort_library_path"`
	BandwidthBufferBytes int    `json:"bandwidth_buffer_bytes"`
	BandwidthPasses      int    `json:"bandwidth_passes"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:            "./benchmark_results",
		BandwidthBufferBytes: 64 << 20,
		BandwidthPasses:      32,
		TimeoutSeconds:       3600,
	}
}

// SaveConfig saves the configuration to a JSON file.
func (c *Config) SaveConfig(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadConfig loads harness configuration from a JSON file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
