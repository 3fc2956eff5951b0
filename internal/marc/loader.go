package marc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ParquetRecord is the row layout for record batches stored as Parquet.
// Each row holds one record with its fields as a nested list.
type ParquetRecord struct {
	ID     string         `parquet:"id"`
	Leader string         `parquet:"leader"`
	Fields []ParquetField `parquet:"fields,list"`
}

// ParquetField is one field in a ParquetRecord
type ParquetField struct {
	Tag       string            `parquet:"tag"`
	Ind1      string            `parquet:"ind1"`
	Ind2      string            `parquet:"ind2"`
	Data      string            `parquet:"data"`
	Subfields []ParquetSubfield `parquet:"subfields,list"`
}

// ParquetSubfield is one subfield in a ParquetField
type ParquetSubfield struct {
	Code  string `parquet:"code"`
	Value string `parquet:"value"`
}

// Record converts the row into a Record
func (p ParquetRecord) Record() *Record {
	record := &Record{
		Leader: p.Leader,
		Fields: make([]Field, 0, len(p.Fields)),
	}
	for _, pf := range p.Fields {
		f := Field{Tag: pf.Tag, Ind1: pf.Ind1, Ind2: pf.Ind2, Data: pf.Data}
		for _, ps := range pf.Subfields {
			f.Subfields = append(f.Subfields, Subfield{Code: ps.Code, Value: ps.Value})
		}
		record.Fields = append(record.Fields, f)
	}
	return record
}

// NewParquetRecord converts a Record into its Parquet row layout
func NewParquetRecord(id string, r *Record) ParquetRecord {
	row := ParquetRecord{
		ID:     id,
		Leader: r.Leader,
		Fields: make([]ParquetField, 0, len(r.Fields)),
	}
	for _, f := range r.Fields {
		pf := ParquetField{Tag: f.Tag, Ind1: f.Ind1, Ind2: f.Ind2, Data: f.Data}
		for _, sf := range f.Subfields {
			pf.Subfields = append(pf.Subfields, ParquetSubfield{Code: sf.Code, Value: sf.Value})
		}
		row.Fields = append(row.Fields, pf)
	}
	return row
}

// SupportedExtensions lists the file extensions Loader understands
var SupportedExtensions = []string{".mrc", ".marc", ".json", ".jsonl", ".parquet"}

// IsSupported reports whether path has an extension Loader can read
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Loader handles loading of catalog records from a single file
type Loader struct {
	path string
}

// NewLoader creates a new record loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load loads every record from the file (ISO 2709, JSON, JSONL or Parquet)
func (l *Loader) Load() ([]*Record, error) {
	return l.LoadSample(-1)
}

// LoadSample loads at most limit records; a negative limit loads all of them
func (l *Loader) LoadSample(limit int) ([]*Record, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".mrc", ".marc":
		return l.loadISO2709(limit)
	case ".json":
		return l.loadJSON(limit)
	case ".jsonl":
		return l.loadJSONL(limit)
	case ".parquet":
		return l.loadParquet(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
	}
}

func (l *Loader) loadISO2709(limit int) ([]*Record, error) {
	slog.Debug("Opening MARC file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MARC file: %w", err)
	}
	defer file.Close()

	reader := NewReader(file)
	var records []*Record
	for limit < 0 || len(records) < limit {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
		}
		records = append(records, record)
	}

	slog.Debug("Finished reading MARC file", "path", l.path, "total_records", len(records))

	return records, nil
}

func (l *Loader) loadJSON(limit int) ([]*Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %w", err)
	}

	records, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.path, err)
	}

	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// loadJSONL loads records from a JSONL file, one record per line
func (l *Loader) loadJSONL(limit int) ([]*Record, error) {
	slog.Debug("Opening JSONL file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL file: %w", err)
	}
	defer file.Close()

	var records []*Record
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large records
	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() && (limit < 0 || len(records) < limit) {
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, malformed(err))
		}

		records = append(records, &record)

		if lineNum%1000 == 0 {
			slog.Debug("Reading JSONL", "lines_read", lineNum)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", l.path, err)
	}

	slog.Debug("Finished reading JSONL file", "total_records", len(records), "total_lines", lineNum)

	return records, nil
}

// loadParquet loads records from a Parquet file
func (l *Loader) loadParquet(limit int) ([]*Record, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ParquetRecord](pf)
	defer reader.Close()

	var records []*Record
	rows := make([]ParquetRecord, 128) // Read in batches

	batchNum := 0
	for limit < 0 || len(records) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			batchNum++
			if limit >= 0 && n > limit-len(records) {
				n = limit - len(records)
			}
			for _, row := range rows[:n] {
				records = append(records, row.Record())
			}
			slog.Debug("Read batch from Parquet", "batch", batchNum, "rows_in_batch", n, "total_rows_read", len(records))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "total_records", len(records), "total_batches", batchNum)

	return records, nil
}

// WriteParquet writes records to path as Parquet, keyed by their control number
func WriteParquet(path string, records []*Record) error {
	rows := make([]ParquetRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, NewParquetRecord(r.ControlNumber(), r))
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}
