package observation_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

var ts = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestOutput_RoundTrip(t *testing.T) {
	rate := 100.0
	tests := []struct {
		name string
		obs  *observation.Observation
	}{
		{
			name: "value",
			obs: &observation.Observation{
				DataItemID: "x1", Type: "TEMPERATURE", Category: observation.CategorySample,
				Representation: observation.RepresentationValue,
				Timestamp:      ts, Sequence: 10,
				Payload: observation.Value{Result: "23.5"},
			},
		},
		{
			name: "data set with tombstone",
			obs: &observation.Observation{
				DataItemID: "vars", Type: "VARIABLE", Category: observation.CategoryEvent,
				Representation: observation.RepresentationDataSet,
				Timestamp:      ts, Sequence: 11, ResetTriggered: "DAY",
				Payload: observation.DataSet{Entries: []observation.DataSetEntry{
					{Key: "A", Value: "1"},
					{Key: "B", Removed: true},
				}},
			},
		},
		{
			name: "table",
			obs: &observation.Observation{
				DataItemID: "tools", Type: "TOOL_OFFSET", Category: observation.CategorySample,
				Representation: observation.RepresentationTable,
				Timestamp:      ts, Sequence: 12,
				Payload: observation.Table{Entries: []observation.TableEntry{
					{Key: "T1", Cells: []observation.TableCell{{Key: "L", Value: "12"}, {Key: "D", Value: "3"}}},
					{Key: "T2", Removed: true},
				}},
			},
		},
		{
			name: "time series",
			obs: &observation.Observation{
				DataItemID: "ts", Type: "POSITION", Category: observation.CategorySample,
				Representation: observation.RepresentationTimeSeries,
				Timestamp:      ts, Sequence: 13, SampleRate: &rate,
				Payload: observation.TimeSeries{Samples: []float64{1, 2.5, 3}, SampleCount: 3},
			},
		},
		{
			name: "condition",
			obs: &observation.Observation{
				DataItemID: "c1", Type: "TEMPERATURE", Category: observation.CategoryCondition,
				Timestamp: ts, Sequence: 14,
				Level: observation.LevelFault, NativeCode: "OVERTEMP", Message: "too hot",
			},
		},
		{
			name: "unavailable data set",
			obs: &observation.Observation{
				DataItemID: "vars", Type: "VARIABLE", Category: observation.CategoryEvent,
				Representation: observation.RepresentationDataSet,
				Timestamp:      ts, Sequence: 15,
				Payload: observation.DataSet{Unavailable: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.obs.Output().Observation()
			if diff := cmp.Diff(tt.obs, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutput_ValueKeys(t *testing.T) {
	obs := &observation.Observation{
		DataItemID: "tools", Type: "TOOL_OFFSET", Category: observation.CategorySample,
		Payload: observation.Table{Entries: []observation.TableEntry{
			{Key: "T1", Cells: []observation.TableCell{{Key: "L", Value: "12"}}},
			{Key: "T2", Removed: true},
		}},
	}

	out := obs.Output()
	require.Len(t, out.Values, 2)
	assert.Equal(t, "Table[T1][L]", out.Values[0].Key)
	assert.Equal(t, "12", out.Values[0].Value)
	assert.Equal(t, "Table[T2]", out.Values[1].Key)
	assert.True(t, out.Values[1].Removed)
	assert.Equal(t, observation.RepresentationTable, out.Representation)
}

func TestObservation_ReplaySortsSamples(t *testing.T) {
	out := observation.ObservationOutput{
		DataItemID:     "ts",
		Type:           "POSITION",
		Category:       observation.CategorySample,
		Representation: observation.RepresentationTimeSeries,
		Values: []observation.ObservationValue{
			{Key: observation.TimeSeriesKey(2), Value: "3"},
			{Key: observation.TimeSeriesKey(0), Value: "1"},
			{Key: observation.TimeSeriesKey(1), Value: "2"},
		},
	}

	obs := out.Observation()
	assert.Equal(t, []float64{1, 2, 3}, obs.TimeSeriesSamples())
	assert.Equal(t, 3, obs.Payload.(observation.TimeSeries).SampleCount)
}

func TestObservation_MissingResultIsUnavailable(t *testing.T) {
	out := observation.ObservationOutput{DataItemID: "x", Type: "AVAILABILITY", Category: observation.CategoryEvent}

	obs := out.Observation()
	assert.True(t, obs.IsUnavailable())
	assert.Equal(t, observation.Unavailable, obs.Result())
}

func TestObservation_DuplicateDataSetKeys(t *testing.T) {
	out := observation.ObservationOutput{
		Representation: observation.RepresentationDataSet,
		Values: []observation.ObservationValue{
			{Key: observation.DataSetKey("A"), Value: "1"},
			{Key: observation.DataSetKey("A"), Value: "2"},
		},
	}

	assert.Equal(t, []observation.DataSetEntry{{Key: "A", Value: "1"}}, out.Observation().DataSetEntries())
}
