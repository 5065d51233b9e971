package xmlformat

import (
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/observation"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

var testTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestElement_Value(t *testing.T) {
	obs := &observation.Observation{
		DataItemID: "temp1", Type: "TEMPERATURE", Category: observation.CategorySample,
		Timestamp: testTime, Sequence: 100,
		Payload: observation.Value{Result: "23.5"},
	}

	data, err := xml.Marshal(NewElement("Temperature", obs))
	require.NoError(t, err)
	assert.Equal(t,
		`<Temperature dataItemId="temp1" timestamp="2024-01-01T00:00:00Z" sequence="100">23.5</Temperature>`,
		string(data))

	var el Element
	require.NoError(t, xml.Unmarshal(data, &el))
	back, err := el.ToObservation("TEMPERATURE", observation.CategorySample, observation.RepresentationValue)
	require.NoError(t, err)
	assert.Equal(t, "23.5", back.Result())
}

func TestElement_EmptyValueIsUnavailable(t *testing.T) {
	obs := &observation.Observation{
		DataItemID: "prog", Type: "PROGRAM", Category: observation.CategoryEvent,
		Timestamp: testTime, Sequence: 4,
		Payload: observation.Value{Result: ""},
	}

	data, err := xml.Marshal(NewElement("Program", obs))
	require.NoError(t, err)
	assert.Equal(t,
		`<Program dataItemId="prog" timestamp="2024-01-01T00:00:00Z" sequence="4">UNAVAILABLE</Program>`,
		string(data))
}

func TestElement_DataSet(t *testing.T) {
	obs := &observation.Observation{
		DataItemID: "vars", Type: "VARIABLE", Category: observation.CategoryEvent,
		Timestamp: testTime, Sequence: 7,
		Payload: observation.DataSet{Entries: []observation.DataSetEntry{
			{Key: "A", Value: "1"},
			{Key: "B", Value: "two"},
			{Key: "C", Removed: true},
		}},
	}

	data, err := xml.Marshal(NewElement("VariableDataSet", obs))
	require.NoError(t, err)
	assert.Contains(t, string(data), `count="3"`)
	assert.Contains(t, string(data), `<Entry key="A">1</Entry><Entry key="B">two</Entry><Entry key="C" removed="true"></Entry>`)

	var el Element
	require.NoError(t, xml.Unmarshal(data, &el))
	back, err := el.ToObservation("VARIABLE", observation.CategoryEvent, observation.RepresentationDataSet)
	require.NoError(t, err)
	assert.Equal(t, obs.DataSetEntries(), back.DataSetEntries())
}

func TestElement_DuplicateEntriesKeepFirst(t *testing.T) {
	input := `<VariableDataSet dataItemId="v" timestamp="2024-01-01T00:00:00Z" sequence="1">` +
		`<Entry key="A">1</Entry><Entry key="A">2</Entry></VariableDataSet>`

	var el Element
	require.NoError(t, xml.Unmarshal([]byte(input), &el))
	obs, err := el.ToObservation("VARIABLE", observation.CategoryEvent, observation.RepresentationDataSet)
	require.NoError(t, err)
	assert.Equal(t, []observation.DataSetEntry{{Key: "A", Value: "1"}}, obs.DataSetEntries())
}

func TestElement_EmptyShapesAreUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		payload observation.Payload
		rep     observation.Representation
	}{
		{name: "table", payload: observation.Table{}, rep: observation.RepresentationTable},
		{name: "data set", payload: observation.DataSet{Unavailable: true}, rep: observation.RepresentationDataSet},
		{name: "time series", payload: observation.TimeSeries{}, rep: observation.RepresentationTimeSeries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &observation.Observation{
				DataItemID: "x", Type: "X", Category: observation.CategorySample,
				Timestamp: testTime, Payload: tt.payload,
			}
			el := NewElement("X", obs)
			assert.Equal(t, observation.Unavailable, el.Text)
			assert.Empty(t, el.Entries)

			back, err := el.ToObservation("X", observation.CategorySample, tt.rep)
			require.NoError(t, err)
			assert.True(t, back.IsUnavailable())
			assert.Equal(t, observation.Unavailable, NewElement("X", back).Text)
		})
	}
}

func TestElement_Malformed(t *testing.T) {
	el := Element{XMLName: xml.Name{Local: "PositionTimeSeries"}, Text: "1 2 three"}
	_, err := el.ToObservation("POSITION", observation.CategorySample, observation.RepresentationTimeSeries)
	assert.True(t, errors.Is(err, observation.ErrMalformedValue))

	el = Element{XMLName: xml.Name{Local: "Temperature"}, Entries: []Entry{{Key: "a"}}}
	_, err = el.ToObservation("TEMPERATURE", observation.CategorySample, observation.RepresentationValue)
	assert.True(t, errors.Is(err, observation.ErrMalformedValue))
}

func TestFormatter_RoundTrip(t *testing.T) {
	rate := 10.0
	observations := []*observation.Observation{
		{
			DataItemID: "temp1", Type: "TEMPERATURE", Category: observation.CategorySample,
			Representation: observation.RepresentationValue,
			Timestamp:      testTime, Sequence: 1, Payload: observation.Value{Result: "23.5"},
		},
		{
			DataItemID: "pos", Type: "POSITION", Category: observation.CategorySample,
			Representation: observation.RepresentationTimeSeries,
			Timestamp:      testTime, Sequence: 2, SampleRate: &rate,
			Payload: observation.TimeSeries{Samples: []float64{1, 2, 3.5}, SampleCount: 3},
		},
		{
			DataItemID: "wo", Type: "WORK_OFFSET", Category: observation.CategoryEvent,
			Representation: observation.RepresentationTable,
			Timestamp:      testTime, Sequence: 3,
			Payload: observation.Table{Entries: []observation.TableEntry{
				{Key: "G54", Cells: []observation.TableCell{{Key: "X", Value: "1.5"}, {Key: "Y", Value: "007"}}},
				{Key: "G55", Removed: true},
			}},
		},
		{
			DataItemID: "sys", Type: "SYSTEM", Category: observation.CategoryCondition,
			Timestamp: testTime, Sequence: 4,
			Level: observation.LevelFault, NativeCode: "E1", Qualifier: "LOW", Message: "overload",
		},
	}
	for _, obs := range observations {
		obs.DeviceUUID = "m1"
	}

	doc := streams.Document{
		Header: streams.Header{CreationTime: testTime, Sender: "agent", InstanceID: 5, NextSequence: 5},
		Devices: []streams.DeviceStream{{
			Name: "mill", UUID: "m1",
			Components: []streams.ComponentStream{{Component: "Controller", ComponentID: "c1", Observations: observations}},
		}},
	}

	for _, indent := range []bool{false, true} {
		f := NewFormatter(catalog.Default(), indent, zap.NewNop())
		data, err := f.Format(doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), "<MTConnectStreams>")
		assert.Contains(t, string(data), `<Fault dataItemId="sys"`)

		back, err := f.Parse(data)
		require.NoError(t, err)
		require.Len(t, back.Devices, 1)
		require.Len(t, back.Devices[0].Components, 1)

		// samples in catalog order, then events, then conditions
		want := []*observation.Observation{observations[1], observations[0], observations[2], observations[3]}
		if diff := cmp.Diff(want, back.Devices[0].Components[0].Observations); diff != "" {
			t.Errorf("indent=%v round trip mismatch (-want +got):\n%s", indent, diff)
		}
	}
}

func TestFormatter_ParseMalformed(t *testing.T) {
	input := `<MTConnectStreams><Header creationTime="2024-01-01T00:00:00Z" instanceId="1" firstSequence="1" lastSequence="1" nextSequence="2"/>
<Streams><DeviceStream name="m" uuid="m1"><ComponentStream component="Controller" componentId="c1">
<Samples><PositionTimeSeries dataItemId="p" timestamp="2024-01-01T00:00:00Z" sequence="1" sampleCount="2">1 x</PositionTimeSeries></Samples>
</ComponentStream></DeviceStream></Streams></MTConnectStreams>`

	f := NewFormatter(nil, false, zap.NewNop())
	_, err := f.Parse([]byte(input))
	require.Error(t, err)
	assert.True(t, errors.Is(err, observation.ErrMalformedValue))
}

func TestFormatter_ConditionCategoryFromCatalog(t *testing.T) {
	fault := &observation.Observation{
		DataItemID: "sys", Type: "SYSTEM", Timestamp: testTime, Sequence: 9, DeviceUUID: "m1",
		Level: observation.LevelFault, NativeCode: "E42", Qualifier: "HIGH", Message: "spindle overload",
	}
	doc := streams.Document{
		Header: streams.Header{CreationTime: testTime, InstanceID: 1, NextSequence: 10},
		Devices: []streams.DeviceStream{{
			Name: "mill", UUID: "m1",
			Components: []streams.ComponentStream{{Component: "Controller", ComponentID: "c1", Observations: []*observation.Observation{fault}}},
		}},
	}

	f := NewFormatter(catalog.Default(), false, zap.NewNop())
	data, err := f.Format(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `type="SYSTEM"`)
	assert.Contains(t, string(data), `qualifier="HIGH"`)
	assert.Contains(t, string(data), `>spindle overload</Fault>`)
	assert.Equal(t, observation.CategoryUnset, fault.Category)

	back, err := f.Parse(data)
	require.NoError(t, err)
	got := back.Observations()
	require.Len(t, got, 1)
	assert.Equal(t, observation.CategoryCondition, got[0].Category)
	assert.Equal(t, observation.LevelFault, got[0].Level)
	assert.Equal(t, "SYSTEM", got[0].Type)
	assert.Equal(t, "E42", got[0].NativeCode)
	assert.Equal(t, "HIGH", got[0].Qualifier)
	assert.Equal(t, "spindle overload", got[0].Message)
}

func TestFormatter_LogsDroppedEventTimeSeries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := NewFormatter(catalog.Default(), false, zap.New(core))

	doc := streams.Document{
		Header: streams.Header{CreationTime: testTime},
		Devices: []streams.DeviceStream{{
			Name: "mill", UUID: "m1",
			Components: []streams.ComponentStream{{Component: "Controller", ComponentID: "c1", Observations: []*observation.Observation{{
				DataItemID: "exec", Type: "EXECUTION", Category: observation.CategoryEvent,
				Timestamp: testTime, Sequence: 1,
				Payload: observation.TimeSeries{Samples: []float64{1, 2}, SampleCount: 2},
			}}}},
		}},
	}

	data, err := f.Format(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ExecutionTimeSeries")

	dropped := logs.FilterMessage("Dropped EVENT time series").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "exec", dropped[0].ContextMap()["data_item_id"])
}
