package jsonformat

import (
	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// Condition is one entry of a condition bucket. The level is implied by the
// bucket and the message travels in `value`.
type Condition struct {
	Envelope
	Type           string `json:"type"`
	NativeSeverity string `json:"nativeSeverity,omitempty"`
	Qualifier      string `json:"qualifier,omitempty"`
	ConditionID    string `json:"conditionId,omitempty"`
	Message        string `json:"value,omitempty"`
}

// NewCondition encodes obs as a condition whatever category it carries.
func NewCondition(obs *observation.Observation, categoryOutput, instanceIDOutput bool) Condition {
	if obs.Category != observation.CategoryCondition {
		c := *obs
		c.Category = observation.CategoryCondition
		obs = &c
	}
	return NewConditionFromOutput(obs.Output(), categoryOutput, instanceIDOutput)
}

func NewConditionFromOutput(out observation.ObservationOutput, categoryOutput, instanceIDOutput bool) Condition {
	obs := out.Observation()
	return Condition{
		Envelope:       newEnvelope(obs, observation.CategoryCondition, categoryOutput, instanceIDOutput),
		Type:           obs.Type,
		NativeSeverity: obs.NativeSeverity,
		Qualifier:      obs.Qualifier,
		ConditionID:    obs.ConditionID,
		Message:        obs.Message,
	}
}

// ToObservation rebuilds the condition. typ is used only when the record
// carries no type of its own.
func (c Condition) ToObservation(typ string) *observation.Observation {
	if c.Type != "" {
		typ = c.Type
	}
	obs := c.Envelope.toObservation(typ, observation.CategoryCondition, "")
	obs.Category = observation.CategoryCondition
	obs.NativeSeverity = c.NativeSeverity
	obs.Qualifier = c.Qualifier
	obs.ConditionID = c.ConditionID
	obs.Message = c.Message
	return obs
}

// withLevel stamps the severity implied by the bucket.
func (c Condition) withLevel(level observation.ConditionLevel) *observation.Observation {
	obs := c.ToObservation("")
	obs.Level = level
	return obs
}
