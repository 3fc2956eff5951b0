// Package iiif maps decoded MARC records onto the descriptive portion of a
// IIIF Presentation 2 manifest.
//
// An Extractor walks a record's fields in order and classifies each tag with a
// LookupTable: title tags resolve the manifest label, description tags the
// description, and every other known tag becomes a labeled MetadataField. The
// result is a DescriptiveRecord, which supports controlled edits of its
// metadata and renders a Manifest.
//
// Extraction is a pure in-memory transformation. The lookup table is read-only
// and may be shared by concurrent extractions; a DescriptiveRecord is not safe
// for concurrent mutation.
package iiif
