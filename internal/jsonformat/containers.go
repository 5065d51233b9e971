package jsonformat

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/observation"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

type record interface {
	ToObservation(typ string) *observation.Observation
}

// Bucket is one named property of a Samples or Events container: all
// observations of one type reported in one representation.
type Bucket struct {
	Name    string
	Records []json.RawMessage
}

// buckets is an insertion ordered set of buckets serialized as one object.
type buckets []Bucket

func (bs buckets) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range bs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(b.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		items, err := json.Marshal(b.Records)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", b.Name, err)
		}
		buf.Write(items)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalBuckets(data []byte) (buckets, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: container must be an object", observation.ErrMalformedValue)
	}

	var out buckets
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("%w: %s must be an array", observation.ErrMalformedValue, name)
		}
		out = append(out, Bucket{Name: name, Records: records})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeRecords[R record](b Bucket, typ string) ([]*observation.Observation, error) {
	out := make([]*observation.Observation, 0, len(b.Records))
	for i, raw := range b.Records {
		var r R
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode %s[%d]: %w", b.Name, i, err)
		}
		out = append(out, r.ToObservation(typ))
	}
	return out, nil
}

func marshalRecords[R any](observations []*observation.Observation, build func(*observation.Observation) R) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(observations))
	for _, obs := range observations {
		data, err := json.Marshal(build(obs))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal observation %s: %w", obs.DataItemID, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// Samples is the container of SAMPLE observations of one component.
type Samples struct {
	Buckets []Bucket
}

// NewSamples buckets sample observations. It returns nil when there is
// nothing to report so the container is omitted.
func NewSamples(cat *catalog.Catalog, observations []*observation.Observation, opts Options) (*Samples, error) {
	var bs []Bucket
	for _, g := range streams.GroupObservations(observations, cat.Index) {
		var (
			records []json.RawMessage
			err     error
		)
		switch g.Representation {
		case observation.RepresentationDataSet:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) SampleDataSet {
				return NewSampleDataSet(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		case observation.RepresentationTable:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) SampleTable {
				return NewSampleTable(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		case observation.RepresentationTimeSeries:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) SampleTimeSeries {
				return NewSampleTimeSeries(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		default:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) SampleValue {
				return NewSampleValue(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		}
		if err != nil {
			return nil, err
		}
		bs = append(bs, Bucket{Name: cat.ElementName(g.Type, g.Representation), Records: records})
	}
	if len(bs) == 0 {
		return nil, nil
	}
	return &Samples{Buckets: bs}, nil
}

func (s Samples) MarshalJSON() ([]byte, error) {
	return buckets(s.Buckets).marshal()
}

func (s *Samples) UnmarshalJSON(data []byte) error {
	bs, err := unmarshalBuckets(data)
	if err != nil {
		return err
	}
	s.Buckets = bs
	return nil
}

// Observations flattens the buckets back into one list in document order.
func (s *Samples) Observations(cat *catalog.Catalog) ([]*observation.Observation, error) {
	if s == nil {
		return nil, nil
	}
	var out []*observation.Observation
	for _, b := range s.Buckets {
		typ, rep, _ := cat.Resolve(b.Name)
		var (
			decoded []*observation.Observation
			err     error
		)
		switch rep {
		case observation.RepresentationDataSet:
			decoded, err = decodeRecords[SampleDataSet](b, typ)
		case observation.RepresentationTable:
			decoded, err = decodeRecords[SampleTable](b, typ)
		case observation.RepresentationTimeSeries:
			decoded, err = decodeRecords[SampleTimeSeries](b, typ)
		default:
			decoded, err = decodeRecords[SampleValue](b, typ)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// Events is the container of EVENT observations of one component. Events
// have no TIME_SERIES representation.
type Events struct {
	Buckets []Bucket
}

func NewEvents(cat *catalog.Catalog, observations []*observation.Observation, opts Options) (*Events, error) {
	var bs []Bucket
	for _, g := range streams.GroupObservations(observations, cat.Index) {
		var (
			records []json.RawMessage
			err     error
		)
		switch g.Representation {
		case observation.RepresentationDataSet:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) EventDataSet {
				return NewEventDataSet(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		case observation.RepresentationTable:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) EventTable {
				return NewEventTable(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		case observation.RepresentationTimeSeries:
			continue
		default:
			records, err = marshalRecords(g.Observations, func(o *observation.Observation) EventValue {
				return NewEventValue(o, opts.CategoryOutput, opts.InstanceIDOutput)
			})
		}
		if err != nil {
			return nil, err
		}
		bs = append(bs, Bucket{Name: cat.ElementName(g.Type, g.Representation), Records: records})
	}
	if len(bs) == 0 {
		return nil, nil
	}
	return &Events{Buckets: bs}, nil
}

func (e Events) MarshalJSON() ([]byte, error) {
	return buckets(e.Buckets).marshal()
}

func (e *Events) UnmarshalJSON(data []byte) error {
	bs, err := unmarshalBuckets(data)
	if err != nil {
		return err
	}
	e.Buckets = bs
	return nil
}

func (e *Events) Observations(cat *catalog.Catalog) ([]*observation.Observation, error) {
	if e == nil {
		return nil, nil
	}
	var out []*observation.Observation
	for _, b := range e.Buckets {
		typ, rep, _ := cat.Resolve(b.Name)
		var (
			decoded []*observation.Observation
			err     error
		)
		switch rep {
		case observation.RepresentationDataSet:
			decoded, err = decodeRecords[EventDataSet](b, typ)
		case observation.RepresentationTable:
			decoded, err = decodeRecords[EventTable](b, typ)
		case observation.RepresentationTimeSeries:
			// not an event shape; the suffix is part of the type name
			decoded, err = decodeRecords[EventValue](b, catalog.ElementToType(b.Name))
		default:
			decoded, err = decodeRecords[EventValue](b, typ)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// Conditions is the container of CONDITION observations, bucketed by level.
type Conditions struct {
	Fault       []Condition `json:"Fault,omitempty"`
	Warning     []Condition `json:"Warning,omitempty"`
	Normal      []Condition `json:"Normal,omitempty"`
	Unavailable []Condition `json:"Unavailable,omitempty"`
}

// NewConditions partitions condition observations by level. It returns nil
// when there are none.
func NewConditions(observations []*observation.Observation, opts Options) *Conditions {
	if len(observations) == 0 {
		return nil
	}
	c := &Conditions{}
	for _, obs := range observations {
		rec := NewCondition(obs, opts.CategoryOutput, opts.InstanceIDOutput)
		switch obs.Level {
		case observation.LevelFault:
			c.Fault = append(c.Fault, rec)
		case observation.LevelWarning:
			c.Warning = append(c.Warning, rec)
		case observation.LevelNormal:
			c.Normal = append(c.Normal, rec)
		default:
			c.Unavailable = append(c.Unavailable, rec)
		}
	}
	return c
}

// Observations flattens all four buckets, stamping each with its level.
func (c *Conditions) Observations() []*observation.Observation {
	if c == nil {
		return nil
	}
	var out []*observation.Observation
	for _, b := range []struct {
		level   observation.ConditionLevel
		records []Condition
	}{
		{observation.LevelFault, c.Fault},
		{observation.LevelWarning, c.Warning},
		{observation.LevelNormal, c.Normal},
		{observation.LevelUnavailable, c.Unavailable},
	} {
		for _, rec := range b.records {
			out = append(out, rec.withLevel(b.level))
		}
	}
	return out
}
