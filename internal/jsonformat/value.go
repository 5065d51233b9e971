package jsonformat

import (
	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// ValueRecord is a scalar observation on the wire.
type ValueRecord struct {
	Envelope
	Value *Scalar `json:"value"`
}

func newValueRecord(out observation.ObservationOutput, category observation.Category, categoryOutput, instanceIDOutput bool) ValueRecord {
	obs := out.Observation()
	result := Scalar(obs.Result())
	return ValueRecord{
		Envelope: newEnvelope(obs, category, categoryOutput, instanceIDOutput),
		Value:    &result,
	}
}

func (r ValueRecord) toObservation(typ string, category observation.Category) *observation.Observation {
	obs := r.Envelope.toObservation(typ, category, observation.RepresentationValue)
	if r.Value == nil {
		obs.Payload = observation.Value{Result: observation.Unavailable}
	} else {
		obs.Payload = observation.Value{Result: string(*r.Value)}
	}
	return obs
}

// SampleValue is a SAMPLE observation with a scalar value.
type SampleValue struct {
	ValueRecord
}

func NewSampleValue(obs *observation.Observation, categoryOutput, instanceIDOutput bool) SampleValue {
	return NewSampleValueFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewSampleValueFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) SampleValue {
	return SampleValue{newValueRecord(out, observation.CategorySample, categoryOutput, instanceIDOutput)}
}

func (r SampleValue) ToObservation(typ string) *observation.Observation {
	return r.toObservation(typ, observation.CategorySample)
}

// EventValue is an EVENT observation with a scalar value.
type EventValue struct {
	ValueRecord
}

func NewEventValue(obs *observation.Observation, categoryOutput, instanceIDOutput bool) EventValue {
	return NewEventValueFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewEventValueFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) EventValue {
	return EventValue{newValueRecord(out, observation.CategoryEvent, categoryOutput, instanceIDOutput)}
}

func (r EventValue) ToObservation(typ string) *observation.Observation {
	return r.toObservation(typ, observation.CategoryEvent)
}
