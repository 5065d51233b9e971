package observation

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Value keys of the generic values list.
const (
	KeyResult         = "Result"
	KeyLevel          = "Level"
	KeyNativeCode     = "NativeCode"
	KeyNativeSeverity = "NativeSeverity"
	KeyQualifier      = "Qualifier"
	KeyConditionID    = "ConditionId"
	KeyMessage        = "Message"
	KeyResetTriggered = "ResetTriggered"
	KeyAssetType      = "AssetType"
	KeySampleRate     = "SampleRate"
	KeyStatistic      = "Statistic"
	KeyDuration       = "Duration"
	KeySampleCount    = "SampleCount"

	dataSetPrefix    = "DataSet["
	tablePrefix      = "Table["
	timeSeriesPrefix = "TimeSeries["
)

// DataSetKey returns the value key of a DataSet entry.
func DataSetKey(key string) string { return dataSetPrefix + key + "]" }

// TableKey returns the value key of a whole Table entry.
func TableKey(key string) string { return tablePrefix + key + "]" }

// TableCellKey returns the value key of one Table cell.
func TableCellKey(key, cell string) string { return tablePrefix + key + "][" + cell + "]" }

// TimeSeriesKey returns the value key of the i-th sample.
func TimeSeriesKey(i int) string { return timeSeriesPrefix + strconv.Itoa(i) + "]" }

// ObservationValue is one keyed entry of a flattened observation.
type ObservationValue struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// ObservationOutput is a materialized snapshot of an observation: identity and
// timing plus an ordered generic values list.
type ObservationOutput struct {
	DeviceUUID     string             `json:"deviceUuid,omitempty"`
	DataItemID     string             `json:"dataItemId"`
	Name           string             `json:"name,omitempty"`
	Type           string             `json:"type"`
	SubType        string             `json:"subType,omitempty"`
	Category       Category           `json:"category,omitempty"`
	Representation Representation     `json:"representation,omitempty"`
	CompositionID  string             `json:"compositionId,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Sequence       uint64             `json:"sequence"`
	InstanceID     uint64             `json:"instanceId,omitempty"`
	Values         []ObservationValue `json:"values"`
}

// GetValue returns the first value stored under key.
func (out ObservationOutput) GetValue(key string) (string, bool) {
	for _, v := range out.Values {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Output flattens the observation into its generic values form.
func (o *Observation) Output() ObservationOutput {
	out := ObservationOutput{
		DeviceUUID:     o.DeviceUUID,
		DataItemID:     o.DataItemID,
		Name:           o.Name,
		Type:           o.Type,
		SubType:        o.SubType,
		Category:       o.Category,
		Representation: o.Representation,
		CompositionID:  o.CompositionID,
		Timestamp:      o.Timestamp,
		Sequence:       o.Sequence,
		InstanceID:     o.InstanceID,
	}
	if out.Representation == "" && o.Payload != nil {
		out.Representation = o.Payload.Representation()
	}

	add := func(key, value string) {
		if value != "" {
			out.Values = append(out.Values, ObservationValue{Key: key, Value: value})
		}
	}

	if o.Category == CategoryCondition {
		add(KeyLevel, string(o.Level))
		add(KeyNativeCode, o.NativeCode)
		add(KeyNativeSeverity, o.NativeSeverity)
		add(KeyQualifier, o.Qualifier)
		add(KeyConditionID, o.ConditionID)
		add(KeyMessage, o.Message)
		add(KeyStatistic, o.Statistic)
		return out
	}

	switch p := o.Payload.(type) {
	case Value:
		out.Values = append(out.Values, ObservationValue{Key: KeyResult, Value: p.Result})
	case DataSet:
		if p.Unavailable || len(p.Entries) == 0 {
			add(KeyResult, Unavailable)
			break
		}
		for _, e := range p.Entries {
			out.Values = append(out.Values, ObservationValue{Key: DataSetKey(e.Key), Value: e.Value, Removed: e.Removed})
		}
	case Table:
		if p.Unavailable || len(p.Entries) == 0 {
			add(KeyResult, Unavailable)
			break
		}
		for _, e := range p.Entries {
			if e.Removed || len(e.Cells) == 0 {
				out.Values = append(out.Values, ObservationValue{Key: TableKey(e.Key), Removed: e.Removed})
				continue
			}
			for _, c := range e.Cells {
				out.Values = append(out.Values, ObservationValue{Key: TableCellKey(e.Key, c.Key), Value: c.Value, Removed: c.Removed})
			}
		}
	case TimeSeries:
		if p.Unavailable || len(p.Samples) == 0 {
			add(KeyResult, Unavailable)
			break
		}
		count := p.SampleCount
		if count == 0 {
			count = len(p.Samples)
		}
		add(KeySampleCount, strconv.Itoa(count))
		for i, s := range p.Samples {
			out.Values = append(out.Values, ObservationValue{Key: TimeSeriesKey(i), Value: FormatNumber(s)})
		}
	case nil:
		add(KeyResult, Unavailable)
	}

	add(KeyResetTriggered, o.ResetTriggered)
	add(KeyNativeCode, o.NativeCode)
	add(KeyAssetType, o.AssetType)
	if o.SampleRate != nil {
		add(KeySampleRate, FormatNumber(*o.SampleRate))
	}
	add(KeyStatistic, o.Statistic)
	if o.Duration != nil {
		add(KeyDuration, FormatNumber(*o.Duration))
	}
	return out
}

// Observation rebuilds an observation by replaying the values list through
// the same entry builders the wire decoders use.
func (out ObservationOutput) Observation() *Observation {
	obs := &Observation{
		DeviceUUID:     out.DeviceUUID,
		DataItemID:     out.DataItemID,
		Name:           out.Name,
		Type:           out.Type,
		SubType:        out.SubType,
		Category:       out.Category,
		Representation: out.Representation,
		CompositionID:  out.CompositionID,
		Timestamp:      out.Timestamp,
		Sequence:       out.Sequence,
		InstanceID:     out.InstanceID,
	}

	var (
		result    *string
		dataSet   []KeyValue
		rows      []TableRow
		rowIndex  = map[string]int{}
		samples   []indexedSample
		sampleCnt int
	)

	for _, v := range out.Values {
		switch {
		case v.Key == KeyResult:
			if result == nil {
				value := v.Value
				result = &value
			}
		case v.Key == KeyLevel:
			obs.Level = ParseConditionLevel(v.Value)
		case v.Key == KeyNativeCode:
			obs.NativeCode = v.Value
		case v.Key == KeyNativeSeverity:
			obs.NativeSeverity = v.Value
		case v.Key == KeyQualifier:
			obs.Qualifier = v.Value
		case v.Key == KeyConditionID:
			obs.ConditionID = v.Value
		case v.Key == KeyMessage:
			obs.Message = v.Value
		case v.Key == KeyResetTriggered:
			obs.ResetTriggered = v.Value
		case v.Key == KeyAssetType:
			obs.AssetType = v.Value
		case v.Key == KeyStatistic:
			obs.Statistic = v.Value
		case v.Key == KeySampleRate:
			if f, ok := ParseNumber(v.Value); ok {
				obs.SampleRate = &f
			}
		case v.Key == KeyDuration:
			if f, ok := ParseNumber(v.Value); ok {
				obs.Duration = &f
			}
		case v.Key == KeySampleCount:
			sampleCnt, _ = strconv.Atoi(v.Value)
		case strings.HasPrefix(v.Key, dataSetPrefix) && strings.HasSuffix(v.Key, "]"):
			key := v.Key[len(dataSetPrefix) : len(v.Key)-1]
			dataSet = append(dataSet, KeyValue{Key: key, Value: pairValue(v)})
		case strings.HasPrefix(v.Key, tablePrefix) && strings.HasSuffix(v.Key, "]"):
			key, cell, isCell := splitTableKey(v.Key)
			idx, ok := rowIndex[key]
			if !ok {
				idx = len(rows)
				rowIndex[key] = idx
				rows = append(rows, TableRow{Key: key})
			}
			if !isCell {
				rows[idx].Removed = rows[idx].Removed || v.Removed
				continue
			}
			rows[idx].Cells = append(rows[idx].Cells, KeyValue{Key: cell, Value: pairValue(v)})
		case strings.HasPrefix(v.Key, timeSeriesPrefix) && strings.HasSuffix(v.Key, "]"):
			i, err := strconv.Atoi(v.Key[len(timeSeriesPrefix) : len(v.Key)-1])
			if err != nil {
				continue
			}
			if f, ok := ParseNumber(v.Value); ok {
				samples = append(samples, indexedSample{index: i, value: f})
			}
		}
	}

	if obs.Category == CategoryCondition {
		if obs.Level == "" {
			obs.Level = LevelUnavailable
		}
		return obs
	}

	rep := obs.Representation
	if rep == "" {
		rep = RepresentationValue
	}
	switch rep {
	case RepresentationDataSet:
		if entries := BuildDataSetEntries(dataSet); len(entries) > 0 {
			obs.Payload = DataSet{Entries: entries}
		} else {
			obs.Payload = DataSet{Unavailable: true}
		}
	case RepresentationTable:
		if entries := BuildTableEntries(rows); len(entries) > 0 {
			obs.Payload = Table{Entries: entries}
		} else {
			obs.Payload = Table{Unavailable: true}
		}
	case RepresentationTimeSeries:
		if len(samples) == 0 {
			obs.Payload = TimeSeries{Unavailable: true}
			break
		}
		sort.SliceStable(samples, func(i, j int) bool { return samples[i].index < samples[j].index })
		values := make([]float64, len(samples))
		for i, s := range samples {
			values[i] = s.value
		}
		if sampleCnt == 0 {
			sampleCnt = len(values)
		}
		obs.Payload = TimeSeries{Samples: values, SampleCount: sampleCnt}
	default:
		if result == nil {
			obs.Payload = Value{Result: Unavailable}
		} else {
			obs.Payload = Value{Result: *result}
		}
	}
	return obs
}

type indexedSample struct {
	index int
	value float64
}

func pairValue(v ObservationValue) any {
	if v.Removed {
		return nil
	}
	return v.Value
}

// splitTableKey splits "Table[k]" or "Table[k][c]".
func splitTableKey(key string) (string, string, bool) {
	inner := key[len(tablePrefix) : len(key)-1]
	if i := strings.Index(inner, "]["); i >= 0 {
		return inner[:i], inner[i+2:], true
	}
	return inner, "", false
}
