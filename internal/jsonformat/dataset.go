package jsonformat

import (
	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// DataSetRecord is a DATA_SET observation on the wire.
type DataSetRecord struct {
	Envelope
	Value DataSetValue `json:"value"`
	Count int          `json:"count,omitempty"`
}

func newDataSetRecord(out observation.ObservationOutput, category observation.Category, categoryOutput, instanceIDOutput bool) DataSetRecord {
	obs := out.Observation()
	pairs := observation.DataSetPairs(obs.DataSetEntries())
	return DataSetRecord{
		Envelope: newEnvelope(obs, category, categoryOutput, instanceIDOutput),
		Value:    DataSetValue{Pairs: pairs},
		Count:    len(pairs),
	}
}

func (r DataSetRecord) toObservation(typ string, category observation.Category) *observation.Observation {
	obs := r.Envelope.toObservation(typ, category, observation.RepresentationDataSet)
	if entries := observation.BuildDataSetEntries(r.Value.Pairs); len(entries) > 0 {
		obs.Payload = observation.DataSet{Entries: entries}
	} else {
		obs.Payload = observation.DataSet{Unavailable: true}
	}
	return obs
}

type SampleDataSet struct {
	DataSetRecord
}

func NewSampleDataSet(obs *observation.Observation, categoryOutput, instanceIDOutput bool) SampleDataSet {
	return NewSampleDataSetFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewSampleDataSetFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) SampleDataSet {
	return SampleDataSet{newDataSetRecord(out, observation.CategorySample, categoryOutput, instanceIDOutput)}
}

func (r SampleDataSet) ToObservation(typ string) *observation.Observation {
	return r.toObservation(typ, observation.CategorySample)
}

type EventDataSet struct {
	DataSetRecord
}

func NewEventDataSet(obs *observation.Observation, categoryOutput, instanceIDOutput bool) EventDataSet {
	return NewEventDataSetFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewEventDataSetFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) EventDataSet {
	return EventDataSet{newDataSetRecord(out, observation.CategoryEvent, categoryOutput, instanceIDOutput)}
}

func (r EventDataSet) ToObservation(typ string) *observation.Observation {
	return r.toObservation(typ, observation.CategoryEvent)
}
