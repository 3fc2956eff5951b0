package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
	"github.com/lehigh-university-libraries/marc2iiif/internal/manifest"
	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
)

func dataField(tag string, subfields ...string) marc.Field {
	f := marc.Field{Tag: tag, Ind1: " ", Ind2: " "}
	for i := 0; i+1 < len(subfields); i += 2 {
		f.Subfields = append(f.Subfields, marc.Subfield{Code: subfields[i], Value: subfields[i+1]})
	}
	return f
}

func mapRecord(id, title string) *marc.Record {
	fields := []marc.Field{
		{Tag: "001", Data: id},
		dataField("245", "a", title+" /", "c", "Rand McNally"),
		dataField("300", "a", "1 map :", "b", "col."),
		dataField("651", "a", "Chicago (Ill.)", "v", "Maps."),
	}
	if id != "" {
		fields = append(fields, dataField("856", "u", "http://pi.lib.uchicago.edu/1001/"+id))
	}
	return &marc.Record{Leader: "00000nem a2200000 a 4500", Fields: fields}
}

func writeJSONFixture(t *testing.T, path string, records ...*marc.Record) {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writeBinaryFixture(t *testing.T, path string, records ...*marc.Record) {
	t.Helper()
	var out []byte
	for _, r := range records {
		raw, err := r.MarshalBinary()
		require.NoError(t, err)
		out = append(out, raw...)
	}
	require.NoError(t, os.WriteFile(path, out, 0644))
}

func TestRunConvertsDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "manifests")

	writeJSONFixture(t, filepath.Join(in, "maps.json"),
		mapRecord("maps/chisoc/G4104-C6-1890", "Chicago and vicinity"),
		mapRecord("", "Untitled sheet"),
	)
	writeBinaryFixture(t, filepath.Join(in, "export.mrc"), mapRecord("b42", "Lake Michigan"))

	results, err := Run(context.Background(), Options{
		Paths:       []string{in},
		OutputDir:   out,
		Format:      manifest.FormatJSON,
		Concurrency: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{TotalRecords: 3, Written: 3, MissingIdentifier: 1}, results.Summary)
	require.Len(t, results.Results, 3)

	// sorted by source then index
	assert.Equal(t, filepath.Join(in, "export.mrc"), results.Results[0].Source)
	assert.Equal(t, "b42", results.Results[0].Identifier)
	assert.Equal(t, "Lake Michigan", results.Results[0].Label)
	assert.Equal(t, 1, results.Results[1].Index)
	assert.Equal(t, 2, results.Results[2].Index)

	assert.FileExists(t, filepath.Join(out, "b42.json"))
	assert.FileExists(t, filepath.Join(out, "maps_chisoc_G4104-C6-1890.json"))
	assert.FileExists(t, filepath.Join(out, "maps-2.json"))

	data, err := os.ReadFile(filepath.Join(out, "maps_chisoc_G4104-C6-1890.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Chicago and vicinity", doc["label"])
	assert.Equal(t, "1 map : col.", doc["description"])
	assert.Equal(t, iiif.ManifestBaseURI+"maps/chisoc/G4104-C6-1890", doc["@id"])
}

func TestRunReportsLoadErrors(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.json"), []byte(`{"fields": [{"245": 7}]}`), 0644))
	writeJSONFixture(t, filepath.Join(in, "good.json"), mapRecord("b1", "Good"))

	results, err := Run(context.Background(), Options{
		Paths:     []string{in},
		OutputDir: t.TempDir(),
		Format:    manifest.FormatYAML,
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{TotalRecords: 1, Written: 1, FailedSources: 1}, results.Summary)
	require.Len(t, results.Results, 2)
	assert.Equal(t, 0, results.Results[0].Index)
	assert.NotEmpty(t, results.Results[0].Error)
	assert.Empty(t, results.Results[1].Error)
	assert.Equal(t, ".yaml", filepath.Ext(results.Results[1].Output))
}

func TestRunLimit(t *testing.T) {
	in := t.TempDir()
	writeJSONFixture(t, filepath.Join(in, "maps.json"),
		mapRecord("b1", "One"), mapRecord("b2", "Two"), mapRecord("b3", "Three"))

	results, err := Run(context.Background(), Options{
		Paths:     []string{in},
		OutputDir: t.TempDir(),
		Limit:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, results.Summary.TotalRecords)
}

func TestRunMissingPath(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Paths:     []string{filepath.Join(t.TempDir(), "missing")},
		OutputDir: t.TempDir(),
	})
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	in := t.TempDir()
	writeJSONFixture(t, filepath.Join(in, "maps.json"), mapRecord("b1", "One"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, Options{Paths: []string{in}, OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, results)
	assert.Equal(t, 0, results.Summary.Written)
}

func TestConvertRecordsRejectsMissingFieldSequence(t *testing.T) {
	out := t.TempDir()
	runner := NewRunner(nil, manifest.NewWriter(out, manifest.FormatJSON))

	results, err := runner.ConvertRecords(context.Background(), "vufind", []*marc.Record{
		mapRecord("b7", "Fetched"),
		{Leader: "00000nam a2200000 a 4500"},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, Summary{TotalRecords: 2, Written: 1, Failed: 1}, results.Summary)
	assert.Contains(t, results.Results[1].Error, "no field sequence")
	assert.FileExists(t, filepath.Join(out, "b7.json"))
}

func TestConvertRecordsDuplicateIdentifierKeepsLast(t *testing.T) {
	const n = 40

	records := make([]*marc.Record, n)
	for i := range records {
		records[i] = mapRecord("b123", fmt.Sprintf("Sheet %d", i+1))
	}

	for attempt := 0; attempt < 5; attempt++ {
		out := t.TempDir()
		runner := NewRunner(nil, manifest.NewWriter(out, manifest.FormatJSON))

		results, err := runner.ConvertRecords(context.Background(), "vufind", records, 8)
		require.NoError(t, err)

		assert.Equal(t, Summary{TotalRecords: n, Written: 1, Superseded: n - 1}, results.Summary)
		require.Len(t, results.Results, n)
		for i, result := range results.Results[:n-1] {
			assert.True(t, result.Superseded, "record %d", i+1)
			assert.Empty(t, result.Output)
		}
		assert.False(t, results.Results[n-1].Superseded)
		assert.Equal(t, filepath.Join(out, "b123.json"), results.Results[n-1].Output)

		entries, err := os.ReadDir(out)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		data, err := os.ReadFile(filepath.Join(out, "b123.json"))
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, fmt.Sprintf("Sheet %d", n), doc["label"])
	}
}

func TestRunSuffixesClashingFallbackNames(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(in, "a"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(in, "b"), 0755))
	writeJSONFixture(t, filepath.Join(in, "a", "maps.json"), mapRecord("", "North sheet"))
	writeJSONFixture(t, filepath.Join(in, "b", "maps.json"), mapRecord("", "South sheet"))

	results, err := Run(context.Background(), Options{
		Paths:       []string{in},
		OutputDir:   out,
		Format:      manifest.FormatJSON,
		Concurrency: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{TotalRecords: 2, Written: 2, MissingIdentifier: 2}, results.Summary)
	require.Len(t, results.Results, 2)
	assert.Equal(t, filepath.Join(out, "maps-1.json"), results.Results[0].Output)
	assert.Equal(t, filepath.Join(out, "maps-1-2.json"), results.Results[1].Output)

	for path, label := range map[string]string{"maps-1.json": "North sheet", "maps-1-2.json": "South sheet"} {
		data, err := os.ReadFile(filepath.Join(out, path))
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, label, doc["label"], path)
	}
}

func TestCalculateSummary(t *testing.T) {
	summary := calculateSummary([]Result{
		{Source: "broken.json", Error: "failed to parse"},
		{Source: "maps.json", Index: 1, Identifier: "b1", Superseded: true},
		{Source: "maps.json", Index: 2, Identifier: "b1", Output: "b1.json"},
		{Source: "maps.json", Index: 3, Output: "maps-3.json"},
		{Source: "maps.json", Index: 4, Error: "failed to extract record"},
	})
	assert.Equal(t, Summary{TotalRecords: 4, Written: 2, Failed: 1, Superseded: 1, MissingIdentifier: 1, FailedSources: 1}, summary)
	assert.Equal(t, summary.TotalRecords, summary.Written+summary.Failed+summary.Superseded)
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	results := &Results{
		Options: Options{Paths: []string{"in"}, OutputDir: "out", Format: manifest.FormatJSON, Concurrency: 4},
		Results: []Result{{Source: "in/maps.json", Index: 1, Identifier: "b1", Output: "out/b1.json"}},
		Summary: Summary{TotalRecords: 1, Written: 1},
	}

	path, err := SaveReport(results, dir)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var report Report
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, "json", report.Config.Format)
	assert.Equal(t, 4, report.Config.Concurrency)
	assert.Equal(t, results.Summary, report.Summary)
	assert.Equal(t, results.Results, report.Results)
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "maps-3", fallbackName("/data/maps.mrc", 3))
	assert.Equal(t, "vufind-1", fallbackName("vufind", 1))
}
