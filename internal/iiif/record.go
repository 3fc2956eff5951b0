package iiif

import "fmt"

const (
	// DefaultLabel is used when no title field resolves the label
	DefaultLabel = "An untitled Cultural Heritage Object"

	// DefaultDescription is used when no description field resolves the description
	DefaultDescription = "This Cultural Heritage Object does not have a description"

	// ContextURI is the JSON-LD context of the presentation API in use
	ContextURI = "http://iiif.io/api/presentation/2/context.json"

	// ManifestBaseURI is prefixed to the record identifier to form the manifest @id
	ManifestBaseURI = "https://iiif-manifest.lib.uchicago.edu/"
)

// DescriptiveRecord is the descriptive portion of a presentation manifest
// resolved from one catalog record.
type DescriptiveRecord struct {
	label       string
	description string
	identifier  string
	fields      *MetadataCollection
}

// NewDescriptiveRecord creates a record. An empty label or description is
// replaced by its default; an empty identifier is kept.
func NewDescriptiveRecord(label, description, identifier string, fields *MetadataCollection) *DescriptiveRecord {
	if label == "" {
		label = DefaultLabel
	}
	if description == "" {
		description = DefaultDescription
	}
	if fields == nil {
		fields = NewMetadataCollection()
	}
	return &DescriptiveRecord{
		label:       label,
		description: description,
		identifier:  identifier,
		fields:      fields,
	}
}

func (r *DescriptiveRecord) Label() string       { return r.label }
func (r *DescriptiveRecord) Description() string { return r.description }
func (r *DescriptiveRecord) Identifier() string  { return r.identifier }

// Metadata returns the underlying collection
func (r *DescriptiveRecord) Metadata() *MetadataCollection { return r.fields }

// SetLabel replaces the label. Unlike construction, an empty value is kept.
func (r *DescriptiveRecord) SetLabel(value string) {
	r.label = value
}

// SetDescription replaces the description. Unlike construction, an empty value is kept.
func (r *DescriptiveRecord) SetDescription(value string) {
	r.description = value
}

// AddMetadata appends a new metadata field
func (r *DescriptiveRecord) AddMetadata(label, value string) {
	r.fields.Add(NewMetadataField(label, value))
}

// ModifyMetadata sets the value of the single field matching label and
// oldValue. Zero or multiple matches leave the record untouched.
func (r *DescriptiveRecord) ModifyMetadata(label, oldValue, newValue string) error {
	pos, err := r.single(label, oldValue)
	if err != nil {
		return err
	}
	return r.fields.ReplaceValue(pos, newValue)
}

// RemoveMetadata deletes the single field matching label and value.
// Zero or multiple matches leave the record untouched.
func (r *DescriptiveRecord) RemoveMetadata(label, value string) error {
	pos, err := r.single(label, value)
	if err != nil {
		return err
	}
	return r.fields.Remove(pos)
}

func (r *DescriptiveRecord) single(label, value string) (int, error) {
	positions := r.fields.Index(label, value)
	if len(positions) != 1 {
		return 0, &AmbiguousMatchError{Label: label, Value: value, Matches: len(positions)}
	}
	return positions[0], nil
}

func (r *DescriptiveRecord) String() string {
	return fmt.Sprintf("%s with %d metadata fields", r.label, r.fields.Len())
}

// Manifest holds the descriptive keys of a presentation manifest.
// Structural sections (sequences, canvases) are added by the writer.
type Manifest struct {
	Context     string          `json:"@context" yaml:"@context"`
	ID          string          `json:"@id" yaml:"@id"`
	Label       string          `json:"label" yaml:"label"`
	Description string          `json:"description" yaml:"description"`
	Metadata    []MetadataField `json:"metadata" yaml:"metadata"`
}

// ToManifest renders the record. An empty identifier yields the bare base URI as @id.
func (r *DescriptiveRecord) ToManifest() Manifest {
	return Manifest{
		Context:     ContextURI,
		ID:          ManifestBaseURI + r.identifier,
		Label:       r.label,
		Description: r.description,
		Metadata:    r.fields.Fields(),
	}
}
