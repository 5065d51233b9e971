package jsonformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

var unavailableJSON = []byte(`"` + observation.Unavailable + `"`)

// Scalar is the `value` of a Value record. It accepts a JSON string, number
// or boolean and always serializes as a string.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch value := v.(type) {
	case string:
		*s = Scalar(value)
	case json.Number:
		*s = Scalar(value.String())
	case bool:
		*s = Scalar(strconv.FormatBool(value))
	case nil:
		*s = observation.Unavailable
	default:
		return fmt.Errorf("%w: value must be a string or number, got %T", observation.ErrMalformedValue, value)
	}
	return nil
}

// DataSetValue is the `value` of a DataSet record: an object of key to number,
// string or null when present, the bare string "UNAVAILABLE" otherwise.
type DataSetValue struct {
	Pairs []observation.KeyValue
}

// IsUnavailable reports whether the value serializes as the sentinel.
func (v DataSetValue) IsUnavailable() bool { return len(v.Pairs) == 0 }

func (v DataSetValue) MarshalJSON() ([]byte, error) {
	if v.IsUnavailable() {
		return unavailableJSON, nil
	}
	var buf bytes.Buffer
	if err := writePairs(&buf, v.Pairs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v *DataSetValue) UnmarshalJSON(b []byte) error {
	dec := newDecoder(b)
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		if t != '{' {
			return fmt.Errorf("%w: data set must be an object, got %v", observation.ErrMalformedValue, t)
		}
		pairs, err := readPairs(dec)
		if err != nil {
			return err
		}
		v.Pairs = pairs
	case string, nil:
		v.Pairs = nil
	default:
		return fmt.Errorf("%w: data set must be an object, got %T", observation.ErrMalformedValue, t)
	}
	return nil
}

// TableValue is the `value` of a Table record: an object of entry key to an
// object of cells (or null for a removed entry), or "UNAVAILABLE".
type TableValue struct {
	Rows []observation.TableRow
}

func (v TableValue) IsUnavailable() bool { return len(v.Rows) == 0 }

func (v TableValue) MarshalJSON() ([]byte, error) {
	if v.IsUnavailable() {
		return unavailableJSON, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range v.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(row.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if row.Removed {
			buf.WriteString("null")
			continue
		}
		if err := writePairs(&buf, row.Cells); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v *TableValue) UnmarshalJSON(b []byte) error {
	dec := newDecoder(b)
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		if t != '{' {
			return fmt.Errorf("%w: table must be an object, got %v", observation.ErrMalformedValue, t)
		}
	case string, nil:
		v.Rows = nil
		return nil
	default:
		return fmt.Errorf("%w: table must be an object, got %T", observation.ErrMalformedValue, t)
	}

	var rows []observation.TableRow
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case nil:
			rows = append(rows, observation.TableRow{Key: key, Removed: true})
		case json.Delim:
			if t != '{' {
				return fmt.Errorf("%w: table entry %q must be an object", observation.ErrMalformedValue, key)
			}
			cells, err := readPairs(dec)
			if err != nil {
				return fmt.Errorf("table entry %q: %w", key, err)
			}
			rows = append(rows, observation.TableRow{Key: key, Cells: cells})
		default:
			return fmt.Errorf("%w: table entry %q must be an object, got %T", observation.ErrMalformedValue, key, t)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	v.Rows = rows
	return nil
}

// TimeSeriesValue is the `value` of a TimeSeries record: an array of numbers
// or "UNAVAILABLE".
type TimeSeriesValue struct {
	Samples []float64
}

func (v TimeSeriesValue) IsUnavailable() bool { return len(v.Samples) == 0 }

func (v TimeSeriesValue) MarshalJSON() ([]byte, error) {
	if v.IsUnavailable() {
		return unavailableJSON, nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, s := range v.Samples {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(observation.FormatNumber(s))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (v *TimeSeriesValue) UnmarshalJSON(b []byte) error {
	dec := newDecoder(b)
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		if t != '[' {
			return fmt.Errorf("%w: time series must be an array, got %v", observation.ErrMalformedValue, t)
		}
	case string, nil:
		v.Samples = nil
		return nil
	default:
		return fmt.Errorf("%w: time series must be an array, got %T", observation.ErrMalformedValue, t)
	}

	var samples []float64
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var text string
		switch t := tok.(type) {
		case json.Number:
			text = t.String()
		case string:
			text = t
		default:
			return fmt.Errorf("%w: time series sample must be a number, got %T", observation.ErrMalformedValue, t)
		}
		f, ok := observation.ParseNumber(text)
		if !ok {
			return fmt.Errorf("%w: time series sample %q is not a number", observation.ErrMalformedValue, text)
		}
		samples = append(samples, f)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	v.Samples = samples
	return nil
}

func newDecoder(b []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key, got %v", observation.ErrMalformedValue, tok)
	}
	return key, nil
}

// readPairs reads the members of an object whose opening brace has already
// been consumed. Member order and duplicates are kept; the entry builders
// resolve duplicates.
func readPairs(dec *json.Decoder) ([]observation.KeyValue, error) {
	var pairs []observation.KeyValue
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case json.Delim:
			return nil, fmt.Errorf("%w: value of %q must be a number, string or null", observation.ErrMalformedValue, key)
		case json.Number, string, bool, nil:
			pairs = append(pairs, observation.KeyValue{Key: key, Value: t})
		}
	}
	// closing brace
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return pairs, nil
}

func writePairs(buf *bytes.Buffer, pairs []observation.KeyValue) error {
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		switch value := p.Value.(type) {
		case nil:
			buf.WriteString("null")
		case float64:
			buf.WriteString(observation.FormatNumber(value))
		default:
			encoded, err := json.Marshal(value)
			if err != nil {
				return err
			}
			buf.Write(encoded)
		}
	}
	buf.WriteByte('}')
	return nil
}
