package jsonformat

import (
	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// TableRecord is a TABLE observation on the wire.
type TableRecord struct {
	Envelope
	Value TableValue `json:"value"`
	Count int        `json:"count,omitempty"`
}

func newTableRecord(out observation.ObservationOutput, category observation.Category, categoryOutput, instanceIDOutput bool) TableRecord {
	obs := out.Observation()
	rows := observation.TablePairs(obs.TableEntries())
	return TableRecord{
		Envelope: newEnvelope(obs, category, categoryOutput, instanceIDOutput),
		Value:    TableValue{Rows: rows},
		Count:    len(rows),
	}
}

func (r TableRecord) toObservation(typ string, category observation.Category) *observation.Observation {
	obs := r.Envelope.toObservation(typ, category, observation.RepresentationTable)
	if entries := observation.BuildTableEntries(r.Value.Rows); len(entries) > 0 {
		obs.Payload = observation.Table{Entries: entries}
	} else {
		obs.Payload = observation.Table{Unavailable: true}
	}
	return obs
}

type SampleTable struct {
	TableRecord
}

func NewSampleTable(obs *observation.Observation, categoryOutput, instanceIDOutput bool) SampleTable {
	return NewSampleTableFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewSampleTableFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) SampleTable {
	return SampleTable{newTableRecord(out, observation.CategorySample, categoryOutput, instanceIDOutput)}
}

func (r SampleTable) ToObservation(typ string) *observation.Observation {
	return r.toObservation(typ, observation.CategorySample)
}

type EventTable struct {
	TableRecord
}

func NewEventTable(obs *observation.Observation, categoryOutput, instanceIDOutput bool) EventTable {
	return NewEventTableFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewEventTableFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) EventTable {
	return EventTable{newTableRecord(out, observation.CategoryEvent, categoryOutput, instanceIDOutput)}
}

func (r EventTable) ToObservation(typ string) *observation.Observation {
	return r.toObservation(typ, observation.CategoryEvent)
}
