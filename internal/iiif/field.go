package iiif

import "fmt"

// MetadataField is a single label/value pair of descriptive metadata
type MetadataField struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// NewMetadataField creates a metadata field
func NewMetadataField(label, value string) MetadataField {
	return MetadataField{Label: label, Value: value}
}

func (f MetadataField) String() string {
	return fmt.Sprintf("%s: %s", f.Label, f.Value)
}
