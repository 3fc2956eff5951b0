package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ReportConfig records the settings of a run
type ReportConfig struct {
	Paths       []string `yaml:"paths"`
	OutputDir   string   `yaml:"outputdir"`
	Format      string   `yaml:"format"`
	Concurrency int      `yaml:"concurrency"`
	Timestamp   string   `yaml:"timestamp"`
}

// Report is the YAML document saved after a run
type Report struct {
	Config  ReportConfig `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Results []Result     `yaml:"results"`
}

// NewReport builds the report for results, stamped with now
func NewReport(results *Results, now time.Time) Report {
	return Report{
		Config: ReportConfig{
			Paths:       results.Options.Paths,
			OutputDir:   results.Options.OutputDir,
			Format:      string(results.Options.Format),
			Concurrency: results.Options.Concurrency,
			Timestamp:   now.Format("2006-01-02_15-04-05"),
		},
		Summary: results.Summary,
		Results: results.Results,
	}
}

// SaveReport writes the run report into dir and returns its path
func SaveReport(results *Results, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	report := NewReport(results, time.Now())

	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("report-%s.yaml", report.Config.Timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	return absPath, nil
}
