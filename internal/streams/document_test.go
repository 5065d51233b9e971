package streams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

func resolveFixed(typ string) observation.Category {
	switch typ {
	case "SYSTEM":
		return observation.CategoryCondition
	case "TEMPERATURE":
		return observation.CategorySample
	case "EXECUTION":
		return observation.CategoryEvent
	}
	return observation.CategoryUnset
}

func TestPartition_ResolvesMissingCategory(t *testing.T) {
	fault := &observation.Observation{DataItemID: "sys", Type: "SYSTEM", Level: observation.LevelFault, Message: "spindle overload"}
	temp := &observation.Observation{DataItemID: "t", Type: "TEMPERATURE", Payload: observation.Value{Result: "20"}}
	exec := &observation.Observation{DataItemID: "e", Type: "EXECUTION", Category: observation.CategoryEvent, Payload: observation.Value{Result: "ACTIVE"}}
	unknown := &observation.Observation{DataItemID: "f", Type: "FLUX_CAPACITOR", Payload: observation.Value{Result: "on"}}

	samples, events, conditions := Partition([]*observation.Observation{fault, temp, exec, unknown}, resolveFixed)

	require.Len(t, conditions, 1)
	assert.Equal(t, observation.CategoryCondition, conditions[0].Category)
	assert.Equal(t, "spindle overload", conditions[0].Message)

	require.Len(t, samples, 1)
	assert.Equal(t, observation.CategorySample, samples[0].Category)

	require.Len(t, events, 2)
	assert.Same(t, exec, events[0])
	assert.Same(t, unknown, events[1])
	assert.Equal(t, observation.CategoryUnset, events[1].Category)

	// the caller's observations stay untouched
	assert.Equal(t, observation.CategoryUnset, fault.Category)
	assert.Equal(t, observation.CategoryUnset, temp.Category)
}

func TestEventTimeSeries(t *testing.T) {
	observations := []*observation.Observation{
		{DataItemID: "e", Type: "EXECUTION", Payload: observation.TimeSeries{Samples: []float64{1}, SampleCount: 1}},
		{DataItemID: "t", Type: "TEMPERATURE", Payload: observation.TimeSeries{Samples: []float64{1}, SampleCount: 1}},
		{DataItemID: "x", Type: "EXECUTION", Payload: observation.Value{Result: "READY"}},
	}

	dropped := EventTimeSeries(observations, resolveFixed)
	require.Len(t, dropped, 1)
	assert.Equal(t, "e", dropped[0].DataItemID)
}
