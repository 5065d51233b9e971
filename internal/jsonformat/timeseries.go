package jsonformat

import (
	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// SampleTimeSeries is a TIME_SERIES sample on the wire. Count is the
// reported sample count and may exceed the number of samples present.
type SampleTimeSeries struct {
	Envelope
	Value TimeSeriesValue `json:"value"`
	Count int             `json:"count,omitempty"`
}

func NewSampleTimeSeries(obs *observation.Observation, categoryOutput, instanceIDOutput bool) SampleTimeSeries {
	return NewSampleTimeSeriesFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewSampleTimeSeriesFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) SampleTimeSeries {
	obs := out.Observation()
	rec := SampleTimeSeries{
		Envelope: newEnvelope(obs, observation.CategorySample, categoryOutput, instanceIDOutput),
	}
	if ts, ok := obs.Payload.(observation.TimeSeries); ok && !ts.Unavailable {
		rec.Value = TimeSeriesValue{Samples: ts.Samples}
		rec.Count = ts.SampleCount
	}
	return rec
}

func (r SampleTimeSeries) ToObservation(typ string) *observation.Observation {
	obs := r.Envelope.toObservation(typ, observation.CategorySample, observation.RepresentationTimeSeries)
	if r.Value.IsUnavailable() {
		obs.Payload = observation.TimeSeries{Unavailable: true}
		return obs
	}
	count := r.Count
	if count == 0 {
		count = len(r.Value.Samples)
	}
	samples := make([]float64, len(r.Value.Samples))
	copy(samples, r.Value.Samples)
	obs.Payload = observation.TimeSeries{Samples: samples, SampleCount: count}
	return obs
}
