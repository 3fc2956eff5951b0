package marc

import (
	"errors"
	"strings"
)

// ErrMalformedRecord is returned when input cannot be decoded into a Record
var ErrMalformedRecord = errors.New("malformed MARC record")

// Record is a decoded catalog record: a leader plus an ordered sequence of fields.
// Field order is significant.
type Record struct {
	Leader string
	Fields []Field
}

// Field is a single tagged MARC field.
// Control fields (00X) carry Data and no indicators or subfields.
type Field struct {
	Tag       string
	Ind1      string
	Ind2      string
	Subfields []Subfield
	Data      string
}

// Subfield is one coded text fragment within a data field
type Subfield struct {
	Code  string
	Value string
}

// IsControlTag reports whether tag names a control field (001-009)
func IsControlTag(tag string) bool {
	return strings.HasPrefix(tag, "00")
}

// IsControl reports whether the field is a control field
func (f Field) IsControl() bool {
	return IsControlTag(f.Tag)
}

// FirstSubfield returns the value of the first subfield with the given code
func (f Field) FirstSubfield(code string) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

// SubfieldValues returns all subfield values in subfield order
func (f Field) SubfieldValues() []string {
	values := make([]string, 0, len(f.Subfields))
	for _, sf := range f.Subfields {
		values = append(values, sf.Value)
	}
	return values
}

// FieldsByTag returns every field carrying tag, in record order
func (r *Record) FieldsByTag(tag string) []Field {
	var out []Field
	for _, f := range r.Fields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// ControlNumber returns the 001 value, if any
func (r *Record) ControlNumber() string {
	for _, f := range r.Fields {
		if f.Tag == "001" {
			return strings.TrimSpace(f.Data)
		}
	}
	return ""
}
