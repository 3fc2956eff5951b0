package iiif

import (
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
)

// PersistentIdentifierPrefixes are the URI prefixes stripped from an
// Electronic Location and Access value to obtain the record identifier.
var PersistentIdentifierPrefixes = []string{
	"http://pi.lib.uchicago.edu/1001/",
	"https://pi.lib.uchicago.edu/1001/",
}

// titleTrailers are the ISBD punctuation marks that may end a title subfield
const titleTrailers = ":/=. "

// Extractor resolves descriptive records from decoded catalog records
type Extractor struct {
	lookup *LookupTable
}

// NewExtractor creates an extractor using lookup, or DefaultLookup when nil
func NewExtractor(lookup *LookupTable) *Extractor {
	if lookup == nil {
		lookup = DefaultLookup
	}
	return &Extractor{lookup: lookup}
}

var defaultExtractor = NewExtractor(nil)

// FromDecodedRecord extracts a descriptive record using the default lookup table
func FromDecodedRecord(record *marc.Record) (*DescriptiveRecord, error) {
	return defaultExtractor.Extract(record)
}

// Extract resolves the label, description, identifier and metadata of record.
//
// Fields are visited in record order. The first title field that carries a
// subfield $a supplies the label and the first description field supplies the
// description; later fields never overwrite them. Every field with a generic
// label contributes one metadata entry, repeats included.
func (e *Extractor) Extract(record *marc.Record) (*DescriptiveRecord, error) {
	if record == nil {
		return nil, &ConstructionError{Reason: "record is nil"}
	}
	if record.Fields == nil {
		return nil, &ConstructionError{Reason: "record has no field sequence"}
	}

	var label, description string
	var labelFound, descriptionFound bool
	metadata := make([]MetadataField, 0, len(record.Fields))

	for _, field := range record.Fields {
		switch {
		case e.lookup.IsTitleTag(field.Tag):
			if labelFound {
				continue
			}
			if title, ok := field.FirstSubfield("a"); ok {
				label = cleanTitle(title)
				labelFound = true
			}
		case e.lookup.IsDescriptionTag(field.Tag):
			if descriptionFound {
				continue
			}
			description = joinSubfields(field)
			descriptionFound = true
		default:
			if name, ok := e.lookup.LabelFor(field.Tag); ok {
				metadata = append(metadata, NewMetadataField(name, joinSubfields(field)))
			}
		}
	}

	fields := NewMetadataCollection(metadata...)
	return NewDescriptiveRecord(label, description, resolveIdentifier(fields), fields), nil
}

// cleanTitle drops a single trailing ISBD mark and surrounding whitespace
func cleanTitle(title string) string {
	if n := len(title); n > 0 && strings.IndexByte(titleTrailers, title[n-1]) >= 0 {
		title = title[:n-1]
	}
	return strings.TrimSpace(title)
}

func joinSubfields(field marc.Field) string {
	return strings.TrimSpace(strings.Join(field.SubfieldValues(), " "))
}

func resolveIdentifier(fields *MetadataCollection) string {
	location, ok := fields.FirstByLabel(ElectronicLocationLabel)
	if !ok {
		return ""
	}

	for _, prefix := range PersistentIdentifierPrefixes {
		if id, found := strings.CutPrefix(location.Value, prefix); found {
			return id
		}
	}

	slog.Debug("Electronic location is not a persistent identifier", "value", location.Value)
	return ""
}
