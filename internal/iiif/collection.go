package iiif

import (
	"fmt"
	"iter"
)

// MetadataCollection is an ordered sequence of metadata fields.
// Insertion order is preserved and repeated label/value pairs are allowed.
// A field's identity within the collection is its position.
type MetadataCollection struct {
	fields []MetadataField
}

// NewMetadataCollection creates a collection holding a copy of fields
func NewMetadataCollection(fields ...MetadataField) *MetadataCollection {
	c := &MetadataCollection{fields: make([]MetadataField, 0, len(fields))}
	c.fields = append(c.fields, fields...)
	return c
}

// Len returns the number of fields
func (c *MetadataCollection) Len() int {
	return len(c.fields)
}

// At returns the field at position i
func (c *MetadataCollection) At(i int) (MetadataField, bool) {
	if i < 0 || i >= len(c.fields) {
		return MetadataField{}, false
	}
	return c.fields[i], true
}

// Fields returns a copy of the fields in insertion order
func (c *MetadataCollection) Fields() []MetadataField {
	out := make([]MetadataField, len(c.fields))
	copy(out, c.fields)
	return out
}

// All iterates positions and fields in insertion order
func (c *MetadataCollection) All() iter.Seq2[int, MetadataField] {
	return func(yield func(int, MetadataField) bool) {
		for i, f := range c.fields {
			if !yield(i, f) {
				return
			}
		}
	}
}

// Add appends a field
func (c *MetadataCollection) Add(field MetadataField) {
	c.fields = append(c.fields, field)
}

// Find returns every field whose label and value both equal the query
func (c *MetadataCollection) Find(label, value string) []MetadataField {
	var out []MetadataField
	for _, i := range c.Index(label, value) {
		out = append(out, c.fields[i])
	}
	return out
}

// Index returns the positions of every field matching label and value
func (c *MetadataCollection) Index(label, value string) []int {
	var positions []int
	for i, f := range c.fields {
		if f.Label == label && f.Value == value {
			positions = append(positions, i)
		}
	}
	return positions
}

// FirstByLabel returns the first field carrying label
func (c *MetadataCollection) FirstByLabel(label string) (MetadataField, bool) {
	for _, f := range c.fields {
		if f.Label == label {
			return f, true
		}
	}
	return MetadataField{}, false
}

// ReplaceValue sets the value of the field at position i, keeping its label and position
func (c *MetadataCollection) ReplaceValue(i int, value string) error {
	if i < 0 || i >= len(c.fields) {
		return fmt.Errorf("%w: position %d of %d", ErrFieldNotFound, i, len(c.fields))
	}
	c.fields[i].Value = value
	return nil
}

// Remove deletes the field at position i
func (c *MetadataCollection) Remove(i int) error {
	if i < 0 || i >= len(c.fields) {
		return fmt.Errorf("%w: position %d of %d", ErrFieldNotFound, i, len(c.fields))
	}
	c.fields = append(c.fields[:i], c.fields[i+1:]...)
	return nil
}
