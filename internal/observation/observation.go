package observation

import (
	"errors"
	"time"
)

// Unavailable is the reserved MTConnect marker for "no current value".
const Unavailable = "UNAVAILABLE"

// ErrMalformedValue is returned when a wire token cannot be read as the
// structure or sentinel expected at its position.
var ErrMalformedValue = errors.New("malformed observation value")

// Observation is one reported value of one DataItem at one point in time.
//
// Sample and event observations carry exactly one Payload. Condition
// observations carry a Level instead and leave Payload nil.
type Observation struct {
	DeviceUUID     string
	DataItemID     string
	Name           string
	Type           string
	SubType        string
	Category       Category
	Representation Representation
	CompositionID  string

	Timestamp  time.Time
	Sequence   uint64
	InstanceID uint64

	Payload Payload

	ResetTriggered string
	NativeCode     string
	AssetType      string
	SampleRate     *float64
	Statistic      string
	Duration       *float64

	Level          ConditionLevel
	NativeSeverity string
	Qualifier      string
	ConditionID    string
	Message        string
}

// Payload is one of Value, DataSet, Table or TimeSeries.
type Payload interface {
	Representation() Representation
	IsUnavailable() bool
}

// Value is a scalar payload.
type Value struct {
	Result string
}

func (Value) Representation() Representation { return RepresentationValue }

func (v Value) IsUnavailable() bool { return v.Result == Unavailable }

// DataSet is a set of key-value pairs reported as one observation.
type DataSet struct {
	Entries     []DataSetEntry
	Unavailable bool
}

func (DataSet) Representation() Representation { return RepresentationDataSet }

func (d DataSet) IsUnavailable() bool { return d.Unavailable }

// DataSetEntry is one key of a DataSet. Removed entries are tombstones and
// carry no value.
type DataSetEntry struct {
	Key     string
	Value   string
	Removed bool
}

// Table is a two level DataSet. Entries are replaced as a unit on update.
type Table struct {
	Entries     []TableEntry
	Unavailable bool
}

func (Table) Representation() Representation { return RepresentationTable }

func (t Table) IsUnavailable() bool { return t.Unavailable }

// TableEntry is one row of a Table.
type TableEntry struct {
	Key     string
	Removed bool
	Cells   []TableCell
}

// TableCell is one keyed value of a table row.
type TableCell struct {
	Key     string
	Value   string
	Removed bool
}

// TimeSeries is a fixed order sequence of numeric samples. SampleCount may be
// larger than len(Samples) when trailing samples are implicitly absent.
type TimeSeries struct {
	Samples     []float64
	SampleCount int
	Unavailable bool
}

func (TimeSeries) Representation() Representation { return RepresentationTimeSeries }

func (t TimeSeries) IsUnavailable() bool { return t.Unavailable }

// UnavailablePayload returns the sentinel payload for a representation.
func UnavailablePayload(rep Representation) Payload {
	switch rep {
	case RepresentationDataSet:
		return DataSet{Unavailable: true}
	case RepresentationTable:
		return Table{Unavailable: true}
	case RepresentationTimeSeries:
		return TimeSeries{Unavailable: true}
	default:
		return Value{Result: Unavailable}
	}
}

// Result returns the scalar value of the observation. Shaped payloads that are
// unavailable report the sentinel; available shaped payloads report "".
func (o *Observation) Result() string {
	switch p := o.Payload.(type) {
	case Value:
		return p.Result
	case nil:
		return ""
	default:
		if p.IsUnavailable() {
			return Unavailable
		}
		return ""
	}
}

// IsUnavailable reports whether the observation carries no current value.
func (o *Observation) IsUnavailable() bool {
	if o.Category == CategoryCondition {
		return o.Level == LevelUnavailable
	}
	return o.Payload == nil || o.Payload.IsUnavailable()
}

// DataSetEntries returns the entries of a DataSet payload, or nil.
func (o *Observation) DataSetEntries() []DataSetEntry {
	if d, ok := o.Payload.(DataSet); ok {
		return d.Entries
	}
	return nil
}

// TableEntries returns the entries of a Table payload, or nil.
func (o *Observation) TableEntries() []TableEntry {
	if t, ok := o.Payload.(Table); ok {
		return t.Entries
	}
	return nil
}

// TimeSeriesSamples returns the samples of a TimeSeries payload, or nil.
func (o *Observation) TimeSeriesSamples() []float64 {
	if t, ok := o.Payload.(TimeSeries); ok {
		return t.Samples
	}
	return nil
}
