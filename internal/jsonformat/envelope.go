package jsonformat

import (
	"time"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// Envelope holds the identity and timing fields shared by every observation
// record. Field order is the wire order.
type Envelope struct {
	DataItemID     string    `json:"dataItemId"`
	Name           string    `json:"name,omitempty"`
	Category       string    `json:"category,omitempty"`
	SubType        string    `json:"subType,omitempty"`
	CompositionID  string    `json:"compositionId,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Sequence       uint64    `json:"sequence"`
	InstanceID     *uint64   `json:"instanceId,omitempty"`
	ResetTriggered string    `json:"resetTriggered,omitempty"`
	NativeCode     string    `json:"nativeCode,omitempty"`
	AssetType      string    `json:"assetType,omitempty"`
	SampleRate     *float64  `json:"sampleRate,omitempty"`
	Statistic      string    `json:"statistic,omitempty"`
	Duration       *float64  `json:"duration,omitempty"`
}

func newEnvelope(obs *observation.Observation, category observation.Category, categoryOutput, instanceIDOutput bool) Envelope {
	env := Envelope{
		DataItemID:     obs.DataItemID,
		Name:           obs.Name,
		SubType:        obs.SubType,
		CompositionID:  obs.CompositionID,
		Timestamp:      obs.Timestamp,
		Sequence:       obs.Sequence,
		ResetTriggered: obs.ResetTriggered,
		NativeCode:     obs.NativeCode,
		AssetType:      obs.AssetType,
		SampleRate:     obs.SampleRate,
		Statistic:      obs.Statistic,
		Duration:       obs.Duration,
	}
	if categoryOutput {
		env.Category = string(category)
	}
	if instanceIDOutput {
		id := obs.InstanceID
		env.InstanceID = &id
	}
	return env
}

// toObservation rebuilds the shared fields. The record's own category wins over
// the one implied by its container.
func (e Envelope) toObservation(typ string, category observation.Category, rep observation.Representation) *observation.Observation {
	obs := &observation.Observation{
		DataItemID:     e.DataItemID,
		Name:           e.Name,
		Type:           typ,
		SubType:        e.SubType,
		Category:       category,
		Representation: rep,
		CompositionID:  e.CompositionID,
		Timestamp:      e.Timestamp,
		Sequence:       e.Sequence,
		ResetTriggered: e.ResetTriggered,
		NativeCode:     e.NativeCode,
		AssetType:      e.AssetType,
		SampleRate:     e.SampleRate,
		Statistic:      e.Statistic,
		Duration:       e.Duration,
	}
	if c := observation.ParseCategory(e.Category); c != observation.CategoryUnset {
		obs.Category = c
	}
	if e.InstanceID != nil {
		obs.InstanceID = *e.InstanceID
	}
	return obs
}
