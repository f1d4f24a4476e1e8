package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nvr-ai/go-accel/accel"
)

// SaveReport persists a report as timestamped JSON plus a CSV summary in
// outputDir, returning the path of the JSON file.
func SaveReport(outputDir string, report Report) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(outputDir, fmt.Sprintf("accel_report_%s.json", timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	summaryFile := filepath.Join(outputDir, fmt.Sprintf("accel_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, report); err != nil {
		return "", fmt.Errorf("failed to save summary CSV: %w", err)
	}

	return resultsFile, nil
}

func saveSummaryCSV(filename string, report Report) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	header := "Kind,Operations,Failures,OpsPerSecond,AvgLatency_ms,PowerEfficiency_uJ,PowerSupported\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	kinds := make([]accel.Kind, 0, len(report.PerBackend))
	for kind := range report.PerBackend {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		m := report.PerBackend[kind]
		efficiency := "unsupported"
		if m.PowerSupported {
			efficiency = fmt.Sprintf("%.2f", m.PowerEfficiency)
		}
		line := fmt.Sprintf("%s,%d,%d,%.2f,%.3f,%s,%t\n",
			kind,
			m.Operations,
			m.Failures,
			m.OpsPerSecond,
			float64(m.AverageLatency.Nanoseconds())/1e6,
			efficiency,
			m.PowerSupported,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}
