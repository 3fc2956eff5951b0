// Package convert runs batch conversions of catalog record files into manifests.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
	"github.com/lehigh-university-libraries/marc2iiif/internal/manifest"
	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
	"github.com/lehigh-university-libraries/marc2iiif/internal/scan"
)

// Options configures a conversion run
type Options struct {
	Paths       []string
	OutputDir   string
	Format      manifest.Format
	Concurrency int
	// Limit caps the records read from each source file; zero or negative reads all
	Limit int
}

// Result is the outcome for one record
type Result struct {
	Source     string `yaml:"source" json:"source"`
	Index      int    `yaml:"index" json:"index"`
	Identifier string `yaml:"identifier,omitempty" json:"identifier,omitempty"`
	Label      string `yaml:"label,omitempty" json:"label,omitempty"`
	Output     string `yaml:"output,omitempty" json:"output,omitempty"`
	// Superseded is set when a later record with the same identifier
	// replaced this one; nothing was written for it
	Superseded bool   `yaml:"superseded,omitempty" json:"superseded,omitempty"`
	Error      string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Summary aggregates a run. Every record counted in TotalRecords is exactly
// one of Written, Failed or Superseded once the run completes. Source files
// that could not be read are counted in FailedSources only, since their
// records are unknown.
type Summary struct {
	TotalRecords      int `yaml:"totalrecords" json:"total_records"`
	Written           int `yaml:"written" json:"written"`
	Failed            int `yaml:"failed" json:"failed"`
	Superseded        int `yaml:"superseded" json:"superseded"`
	MissingIdentifier int `yaml:"missingidentifier" json:"missing_identifier"`
	FailedSources     int `yaml:"failedsources" json:"failed_sources"`
}

// Results holds every per-record result of a run
type Results struct {
	Options Options
	Results []Result
	Summary Summary
}

type job struct {
	source string
	index  int
	record *marc.Record
}

// Runner converts records with a shared extractor and writer
type Runner struct {
	extractor *iiif.Extractor
	writer    *manifest.Writer
}

// NewRunner creates a runner; a nil extractor uses the default lookup table
func NewRunner(extractor *iiif.Extractor, writer *manifest.Writer) *Runner {
	if extractor == nil {
		extractor = iiif.NewExtractor(nil)
	}
	return &Runner{extractor: extractor, writer: writer}
}

// Run converts every record found under opts.Paths
func Run(ctx context.Context, opts Options) (*Results, error) {
	return NewRunner(nil, manifest.NewWriter(opts.OutputDir, opts.Format)).Run(ctx, opts)
}

// Run converts every record found under opts.Paths. Records that fail are
// reported in the results. An error is returned when a path cannot be scanned
// or when ctx is canceled, in which case the partial results are returned too.
func (r *Runner) Run(ctx context.Context, opts Options) (*Results, error) {
	slog.Info("Starting conversion run", "paths", opts.Paths, "output", opts.OutputDir, "format", opts.Format)

	limit := opts.Limit
	if limit == 0 {
		limit = -1
	}

	results := &Results{Options: opts}

	var jobs []job
	for _, root := range opts.Paths {
		sources, err := scan.Sources(root)
		if err != nil {
			return nil, err
		}

		for _, src := range sources {
			records, err := marc.NewLoader(src.Path).LoadSample(limit)
			if err != nil {
				slog.Error("Failed to load records", "source", src.Path, "err", err)
				results.Results = append(results.Results, Result{Source: src.Path, Error: err.Error()})
				continue
			}
			slog.Debug("Loaded records", "source", src.Path, "records", len(records))
			jobs = append(jobs, newJobs(src.Path, records)...)
		}
	}

	err := r.execute(ctx, jobs, opts.Concurrency, results)
	return results, err
}

// ConvertRecords converts records already in memory, e.g. fetched from a
// catalog. source names them in the results and in fallback file names.
func (r *Runner) ConvertRecords(ctx context.Context, source string, records []*marc.Record, concurrency int) (*Results, error) {
	results := &Results{Options: Options{Paths: []string{source}, OutputDir: r.writer.Dir, Format: r.writer.Format, Concurrency: concurrency}}
	err := r.execute(ctx, newJobs(source, records), concurrency, results)
	return results, err
}

func newJobs(source string, records []*marc.Record) []job {
	jobs := make([]job, 0, len(records))
	for i, record := range records {
		jobs = append(jobs, job{source: source, index: i + 1, record: record})
	}
	return jobs
}

// pending tracks one job through extraction, naming and writing
type pending struct {
	result Result
	record *iiif.DescriptiveRecord
	name   string
	done   bool
}

// execute extracts every job, assigns output names in job order, then writes.
// Names are fixed before the first write, so the files produced never depend
// on scheduling.
func (r *Runner) execute(ctx context.Context, jobs []job, concurrency int, results *Results) error {
	if concurrency < 1 {
		concurrency = 1
	}

	slog.Info("Processing records", "records", len(jobs), "concurrency", concurrency)

	items := make([]pending, len(jobs))

	parallel(ctx, len(jobs), concurrency, func(i int) {
		j := jobs[i]
		item := &items[i]
		item.result = Result{Source: j.source, Index: j.index}

		slog.Debug("Processing record", "source", j.source, "index", j.index, "progress", fmt.Sprintf("%d/%d", i+1, len(jobs)))

		record, err := r.extractor.Extract(j.record)
		if err != nil {
			item.result.Error = fmt.Sprintf("failed to extract record: %v", err)
			item.done = true
			return
		}
		item.record = record
		item.result.Identifier = record.Identifier()
		item.result.Label = record.Label()
	})

	assignNames(jobs, items)

	parallel(ctx, len(jobs), concurrency, func(i int) {
		item := &items[i]
		if item.record == nil || item.done {
			return
		}

		path, err := r.writer.Write(item.record, item.name)
		if err != nil {
			item.result.Error = fmt.Sprintf("failed to write manifest: %v", err)
		} else {
			item.result.Output = path
		}
		item.done = true
	})

	for _, item := range items {
		if item.done {
			results.Results = append(results.Results, item.result)
		}
	}

	sort.SliceStable(results.Results, func(i, j int) bool {
		a, b := results.Results[i], results.Results[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Index < b.Index
	})

	results.Summary = calculateSummary(results.Results)
	return ctx.Err()
}

// parallel calls fn for 0..n-1 with at most concurrency calls in flight and
// returns once all of them have finished. Scheduling stops when ctx is done.
func parallel(ctx context.Context, n, concurrency int, fn func(i int)) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

schedule:
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			slog.Warn("Conversion interrupted", "scheduled", i, "records", n)
			break
		}
		select {
		case <-ctx.Done():
			slog.Warn("Conversion interrupted", "scheduled", i, "records", n)
			break schedule
		case semaphore <- struct{}{}: // Acquire
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }() // Release
			fn(i)
		}(i)
	}

	wg.Wait()
}

// assignNames picks each extracted record's output name in job order. A record
// repeating an earlier identifier takes over that record's file and the
// earlier one is marked superseded. Any other clash on a file name gets a
// numeric suffix: maps-1, maps-1-2, maps-1-3.
func assignNames(jobs []job, items []pending) {
	taken := make(map[string]bool)
	byIdentifier := make(map[string]int)

	for i := range items {
		item := &items[i]
		if item.record == nil {
			continue
		}

		id := item.record.Identifier()
		if prev, seen := byIdentifier[id]; id != "" && seen {
			items[prev].result.Superseded = true
			items[prev].done = true
			item.name = items[prev].name
			byIdentifier[id] = i
			slog.Warn("Duplicate identifier, earlier record replaced",
				"identifier", id,
				"replaced", fmt.Sprintf("%s#%d", jobs[prev].source, jobs[prev].index),
				"by", fmt.Sprintf("%s#%d", jobs[i].source, jobs[i].index))
			continue
		}

		base := id
		if base == "" {
			base = fallbackName(jobs[i].source, jobs[i].index)
		}
		base = manifest.FileName(base)

		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		if name != base {
			slog.Warn("Manifest name already in use, adding suffix", "name", base, "using", name, "source", jobs[i].source, "index", jobs[i].index)
		}

		taken[name] = true
		item.name = name
		if id != "" {
			byIdentifier[id] = i
		}
	}
}

// fallbackName names manifests for records without an identifier after their
// source file and position, e.g. "maps-3"
func fallbackName(source string, index int) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s-%d", base, index)
}

func calculateSummary(results []Result) Summary {
	var summary Summary
	for _, result := range results {
		if result.Index == 0 {
			summary.FailedSources++
			continue
		}
		summary.TotalRecords++
		switch {
		case result.Error != "":
			summary.Failed++
		case result.Superseded:
			summary.Superseded++
		default:
			summary.Written++
			if result.Identifier == "" {
				summary.MissingIdentifier++
			}
		}
	}
	return summary
}

// PrintSummary writes a human-readable summary to stdout
func PrintSummary(summary Summary) {
	fmt.Println("\n========================================")
	fmt.Println("Conversion Summary")
	fmt.Println("========================================")
	fmt.Printf("Total Records:       %d\n", summary.TotalRecords)
	fmt.Printf("Manifests Written:   %d\n", summary.Written)
	fmt.Printf("Failed:              %d\n", summary.Failed)
	fmt.Printf("Superseded:          %d\n", summary.Superseded)
	fmt.Printf("Missing Identifier:  %d\n", summary.MissingIdentifier)
	fmt.Printf("Unreadable Sources:  %d\n", summary.FailedSources)
	fmt.Println("========================================")
}
