// Package manifest turns descriptive records into complete presentation
// manifests and writes them to disk.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
	"gopkg.in/yaml.v3"
)

// Document is a full manifest: the descriptive keys plus the structural
// sections a viewer needs to open it.
type Document struct {
	iiif.Manifest `yaml:",inline"`
	Type          string     `json:"@type" yaml:"@type"`
	Sequences     []Sequence `json:"sequences" yaml:"sequences"`
}

// Sequence is an ordered list of canvases
type Sequence struct {
	ID       string   `json:"@id" yaml:"@id"`
	Type     string   `json:"@type" yaml:"@type"`
	Label    string   `json:"label" yaml:"label"`
	Canvases []Canvas `json:"canvases" yaml:"canvases"`
}

// Canvas is a single view of the object
type Canvas struct {
	ID     string `json:"@id" yaml:"@id"`
	Type   string `json:"@type" yaml:"@type"`
	Label  string `json:"label" yaml:"label"`
	Height int    `json:"height" yaml:"height"`
	Width  int    `json:"width" yaml:"width"`
}

// NewDocument wraps the descriptive manifest with a placeholder sequence
// holding one 1x1 canvas; image services are attached downstream.
func NewDocument(m iiif.Manifest) Document {
	base := strings.TrimSuffix(m.ID, "/")
	return Document{
		Manifest: m,
		Type:     "sc:Manifest",
		Sequences: []Sequence{{
			ID:    base + "/sequence/normal",
			Type:  "sc:Sequence",
			Label: "First sequence",
			Canvases: []Canvas{{
				ID:     base + "/canvas/c1",
				Type:   "sc:Canvas",
				Label:  "First canvas",
				Height: 1,
				Width:  1,
			}},
		}},
	}
}

// Format selects the on-disk encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported manifest format: %s (supported: json, yaml)", s)
	}
}

// Encode renders the document in the given format
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(&doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", format)
	}
}

// Writer writes manifests into a directory
type Writer struct {
	Dir    string
	Format Format
}

// NewWriter creates a writer for dir
func NewWriter(dir string, format Format) *Writer {
	return &Writer{Dir: dir, Format: format}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName derives a filesystem-safe base name from an identifier
func FileName(name string) string {
	name = unsafeName.ReplaceAllString(strings.Trim(name, "/ "), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "manifest"
	}
	return name
}

// Write encodes record and stores it as <FileName(name)>.<format>, returning
// the written path. Callers choose name; the manifest @id always follows the
// record identifier.
func (w *Writer) Write(record *iiif.DescriptiveRecord, name string) (string, error) {
	format := w.Format
	if format == "" {
		format = FormatJSON
	}

	data, err := Encode(NewDocument(record.ToManifest()), format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.Dir, FileName(name)+"."+string(format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}
