package marc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	leaderLen         = 24
	directoryEntryLen = 12

	subfieldDelimiter = 0x1F
	fieldTerminator   = 0x1E
	recordTerminator  = 0x1D

	defaultLeader = "00000nam a2200000 a 4500"
)

// Reader streams records from ISO 2709 (binary MARC 21) input
type Reader struct {
	r     *bufio.Reader
	count int
}

// NewReader returns a Reader consuming r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next record, or io.EOF when the input is exhausted
func (r *Reader) Next() (*Record, error) {
	// Tolerate stray whitespace between records (common in hand-edited files)
	for {
		b, err := r.r.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		if b[0] != '\n' && b[0] != '\r' && b[0] != ' ' {
			break
		}
		if _, err := r.r.ReadByte(); err != nil {
			return nil, err
		}
	}

	lengthBuf := make([]byte, 5)
	if _, err := io.ReadFull(r.r, lengthBuf); err != nil {
		return nil, fmt.Errorf("%w: record %d: truncated record length: %v", ErrMalformedRecord, r.count+1, err)
	}

	length, ok := parseDigits(lengthBuf)
	if !ok || length <= leaderLen {
		return nil, fmt.Errorf("%w: record %d: invalid record length %q", ErrMalformedRecord, r.count+1, lengthBuf)
	}

	raw := make([]byte, length)
	copy(raw, lengthBuf)
	if _, err := io.ReadFull(r.r, raw[5:]); err != nil {
		return nil, fmt.Errorf("%w: record %d: truncated record: %v", ErrMalformedRecord, r.count+1, err)
	}

	r.count++
	record, err := ParseISO2709(raw)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", r.count, err)
	}
	return record, nil
}

// ReadAll consumes every remaining record
func (r *Reader) ReadAll() ([]*Record, error) {
	var records []*Record
	for {
		record, err := r.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// ParseISO2709 decodes a single ISO 2709 record
func ParseISO2709(raw []byte) (*Record, error) {
	if len(raw) < leaderLen+1 {
		return nil, fmt.Errorf("%w: record shorter than leader", ErrMalformedRecord)
	}

	base, ok := parseDigits(raw[12:17])
	if !ok || base <= leaderLen || base > len(raw) {
		return nil, fmt.Errorf("%w: invalid base address %q", ErrMalformedRecord, raw[12:17])
	}

	record := &Record{Leader: string(raw[:leaderLen])}
	record.Fields = make([]Field, 0, (base-leaderLen)/directoryEntryLen)

	directory := raw[leaderLen : base-1]
	for i := 0; i+directoryEntryLen <= len(directory); i += directoryEntryLen {
		entry := directory[i : i+directoryEntryLen]
		tag := string(entry[:3])

		fieldLen, ok := parseDigits(entry[3:7])
		if !ok {
			return nil, fmt.Errorf("%w: tag %s: invalid field length %q", ErrMalformedRecord, tag, entry[3:7])
		}
		start, ok := parseDigits(entry[7:12])
		if !ok {
			return nil, fmt.Errorf("%w: tag %s: invalid field offset %q", ErrMalformedRecord, tag, entry[7:12])
		}

		begin := base + start
		end := begin + fieldLen
		if end > len(raw) {
			return nil, fmt.Errorf("%w: tag %s: field data out of range", ErrMalformedRecord, tag)
		}

		data := bytes.TrimRight(raw[begin:end], string([]byte{fieldTerminator, recordTerminator}))
		record.Fields = append(record.Fields, parseFieldData(tag, data))
	}

	return record, nil
}

func parseFieldData(tag string, data []byte) Field {
	field := Field{Tag: tag}
	if IsControlTag(tag) {
		field.Data = string(data)
		return field
	}

	field.Ind1, field.Ind2 = " ", " "
	if len(data) > 0 && data[0] != subfieldDelimiter {
		field.Ind1 = string(data[0])
	}
	if len(data) > 1 && data[1] != subfieldDelimiter {
		field.Ind2 = string(data[1])
	}

	idx := bytes.IndexByte(data, subfieldDelimiter)
	if idx < 0 {
		return field
	}

	for _, part := range bytes.Split(data[idx+1:], []byte{subfieldDelimiter}) {
		if len(part) == 0 {
			continue
		}
		field.Subfields = append(field.Subfields, Subfield{
			Code:  string(part[0]),
			Value: string(part[1:]),
		})
	}
	return field
}

// MarshalBinary encodes the record as ISO 2709.
// Record length and base address in the leader are recomputed.
func (r *Record) MarshalBinary() ([]byte, error) {
	var directory, data bytes.Buffer

	for _, f := range r.Fields {
		if len(f.Tag) != 3 {
			return nil, fmt.Errorf("%w: tag %q must be three characters", ErrMalformedRecord, f.Tag)
		}

		var body bytes.Buffer
		if f.IsControl() {
			body.WriteString(f.Data)
		} else {
			body.WriteString(indicator(f.Ind1))
			body.WriteString(indicator(f.Ind2))
			for _, sf := range f.Subfields {
				if len(sf.Code) != 1 {
					return nil, fmt.Errorf("%w: tag %s: subfield code %q must be one character", ErrMalformedRecord, f.Tag, sf.Code)
				}
				body.WriteByte(subfieldDelimiter)
				body.WriteString(sf.Code)
				body.WriteString(sf.Value)
			}
		}
		body.WriteByte(fieldTerminator)

		fmt.Fprintf(&directory, "%s%04d%05d", f.Tag, body.Len(), data.Len())
		data.Write(body.Bytes())
	}
	directory.WriteByte(fieldTerminator)

	base := leaderLen + directory.Len()
	total := base + data.Len() + 1
	if total > 99999 {
		return nil, fmt.Errorf("%w: record length %d exceeds ISO 2709 limit", ErrMalformedRecord, total)
	}

	leader := r.Leader
	if len(leader) != leaderLen {
		leader = defaultLeader
	}
	leader = fmt.Sprintf("%05d", total) + leader[5:12] + fmt.Sprintf("%05d", base) + leader[17:]

	out := make([]byte, 0, total)
	out = append(out, leader...)
	out = append(out, directory.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, recordTerminator)
	return out, nil
}

// parseDigits reads an unsigned decimal number. Unlike strconv.Atoi it
// rejects signs, so lengths and offsets are never negative.
func parseDigits(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func indicator(ind string) string {
	ind = strings.TrimSpace(ind)
	if ind == "" {
		return " "
	}
	return ind[:1]
}
