package marc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// jsonRecord mirrors the dictionary layout produced by pymarc's Record.as_dict:
//
//	{"leader": "...", "fields": [{"001": "..."}, {"245": {"ind1": "0", "ind2": "0", "subfields": [{"a": "..."}]}}]}
type jsonRecord struct {
	Leader string            `json:"leader"`
	Fields []json.RawMessage `json:"fields"`
}

type jsonDataField struct {
	Ind1      string              `json:"ind1"`
	Ind2      string              `json:"ind2"`
	Subfields []map[string]string `json:"subfields"`
}

// UnmarshalJSON decodes a record in the as_dict layout.
// A document without a "fields" key leaves Fields nil.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	r.Leader = raw.Leader
	r.Fields = nil
	if raw.Fields == nil {
		return nil
	}

	r.Fields = make([]Field, 0, len(raw.Fields))
	for i, entry := range raw.Fields {
		field, err := decodeJSONField(entry)
		if err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		r.Fields = append(r.Fields, field)
	}
	return nil
}

func decodeJSONField(entry json.RawMessage) (Field, error) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(entry, &keyed); err != nil {
		return Field{}, fmt.Errorf("%w: field entry is not an object: %v", ErrMalformedRecord, err)
	}
	if len(keyed) != 1 {
		return Field{}, fmt.Errorf("%w: field entry must have exactly one tag, got %d", ErrMalformedRecord, len(keyed))
	}

	var field Field
	for tag, body := range keyed {
		field.Tag = tag
		body = bytes.TrimSpace(body)

		if len(body) > 0 && body[0] == '"' {
			if err := json.Unmarshal(body, &field.Data); err != nil {
				return Field{}, fmt.Errorf("%w: tag %s: %v", ErrMalformedRecord, tag, err)
			}
			return field, nil
		}

		var df jsonDataField
		if err := json.Unmarshal(body, &df); err != nil {
			return Field{}, fmt.Errorf("%w: tag %s: %v", ErrMalformedRecord, tag, err)
		}
		field.Ind1 = df.Ind1
		field.Ind2 = df.Ind2
		field.Subfields = make([]Subfield, 0, len(df.Subfields))
		for _, sf := range df.Subfields {
			if len(sf) != 1 {
				return Field{}, fmt.Errorf("%w: tag %s: subfield must have exactly one code, got %d", ErrMalformedRecord, tag, len(sf))
			}
			for code, value := range sf {
				field.Subfields = append(field.Subfields, Subfield{Code: code, Value: value})
			}
		}
	}
	return field, nil
}

// MarshalJSON encodes the record in the as_dict layout
func (r Record) MarshalJSON() ([]byte, error) {
	fields := make([]map[string]any, 0, len(r.Fields))
	for _, f := range r.Fields {
		if f.IsControl() {
			fields = append(fields, map[string]any{f.Tag: f.Data})
			continue
		}
		subfields := make([]map[string]string, 0, len(f.Subfields))
		for _, sf := range f.Subfields {
			subfields = append(subfields, map[string]string{sf.Code: sf.Value})
		}
		fields = append(fields, map[string]any{f.Tag: jsonDataField{
			Ind1:      f.Ind1,
			Ind2:      f.Ind2,
			Subfields: subfields,
		}})
	}

	return json.Marshal(struct {
		Leader string           `json:"leader"`
		Fields []map[string]any `json:"fields"`
	}{
		Leader: r.Leader,
		Fields: fields,
	})
}

// ParseJSON decodes a single record, or an array of records, from JSON
func ParseJSON(data []byte) ([]*Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedRecord)
	}

	if data[0] == '[' {
		var records []*Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, malformed(err)
		}
		return records, nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, malformed(err)
	}
	return []*Record{&record}, nil
}

func malformed(err error) error {
	if errors.Is(err, ErrMalformedRecord) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
}
