package xmlformat

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// Element is one observation element. The element name carries the type and
// representation; the shape of the content depends on the representation.
type Element struct {
	XMLName        xml.Name
	DataItemID     string    `xml:"dataItemId,attr"`
	Timestamp      time.Time `xml:"timestamp,attr"`
	Sequence       uint64    `xml:"sequence,attr"`
	Name           string    `xml:"name,attr,omitempty"`
	SubType        string    `xml:"subType,attr,omitempty"`
	CompositionID  string    `xml:"compositionId,attr,omitempty"`
	Type           string    `xml:"type,attr,omitempty"`
	ResetTriggered string    `xml:"resetTriggered,attr,omitempty"`
	NativeCode     string    `xml:"nativeCode,attr,omitempty"`
	NativeSeverity string    `xml:"nativeSeverity,attr,omitempty"`
	Qualifier      string    `xml:"qualifier,attr,omitempty"`
	ConditionID    string    `xml:"conditionId,attr,omitempty"`
	AssetType      string    `xml:"assetType,attr,omitempty"`
	SampleRate     string    `xml:"sampleRate,attr,omitempty"`
	SampleCount    string    `xml:"sampleCount,attr,omitempty"`
	Statistic      string    `xml:"statistic,attr,omitempty"`
	Duration       string    `xml:"duration,attr,omitempty"`
	Count          string    `xml:"count,attr,omitempty"`
	Entries        []Entry   `xml:"Entry"`
	Text           string    `xml:",chardata"`
}

// Entry is a DataSet entry or a Table row.
type Entry struct {
	Key     string `xml:"key,attr"`
	Removed bool   `xml:"removed,attr,omitempty"`
	Cells   []Cell `xml:"Cell"`
	Text    string `xml:",chardata"`
}

// Cell is one cell of a Table row.
type Cell struct {
	Key     string `xml:"key,attr"`
	Removed bool   `xml:"removed,attr,omitempty"`
	Text    string `xml:",chardata"`
}

// NewElement renders an observation as an element called name.
func NewElement(name string, obs *observation.Observation) Element {
	return NewElementFromOutput(name, obs.Output())
}

// NewElementFromOutput renders a materialized observation. It is the only
// encode path; NewElement delegates here.
func NewElementFromOutput(name string, out observation.ObservationOutput) Element {
	obs := out.Observation()
	el := Element{
		XMLName:        xml.Name{Local: name},
		DataItemID:     obs.DataItemID,
		Timestamp:      obs.Timestamp.UTC(),
		Sequence:       obs.Sequence,
		Name:           obs.Name,
		SubType:        obs.SubType,
		CompositionID:  obs.CompositionID,
		ResetTriggered: obs.ResetTriggered,
		NativeCode:     obs.NativeCode,
		AssetType:      obs.AssetType,
		Statistic:      obs.Statistic,
	}
	if obs.SampleRate != nil {
		el.SampleRate = observation.FormatNumber(*obs.SampleRate)
	}
	if obs.Duration != nil {
		el.Duration = observation.FormatNumber(*obs.Duration)
	}

	if obs.Category == observation.CategoryCondition {
		el.Type = obs.Type
		el.NativeSeverity = obs.NativeSeverity
		el.Qualifier = obs.Qualifier
		el.ConditionID = obs.ConditionID
		el.Text = obs.Message
		return el
	}

	switch p := obs.Payload.(type) {
	case observation.Value:
		el.Text = p.Result
		if el.Text == "" {
			el.Text = observation.Unavailable
		}
		return el
	case observation.DataSet:
		el.Entries = dataSetEntries(p.Entries)
	case observation.Table:
		el.Entries = tableEntries(p.Entries)
	case observation.TimeSeries:
		if len(p.Samples) > 0 {
			text := make([]string, len(p.Samples))
			for i, s := range p.Samples {
				text[i] = observation.FormatNumber(s)
			}
			el.Text = strings.Join(text, " ")
			el.SampleCount = strconv.Itoa(p.SampleCount)
		}
	}

	if len(el.Entries) > 0 {
		el.Count = strconv.Itoa(len(el.Entries))
	} else if el.Text == "" {
		el.Text = observation.Unavailable
	}
	return el
}

func dataSetEntries(entries []observation.DataSetEntry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{Key: e.Key, Removed: e.Removed, Text: e.Value})
	}
	return out
}

// tableEntries drops rows without cells unless they are removals.
func tableEntries(entries []observation.TableEntry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Removed {
			out = append(out, Entry{Key: e.Key, Removed: true})
			continue
		}
		if len(e.Cells) == 0 {
			continue
		}
		row := Entry{Key: e.Key}
		for _, c := range e.Cells {
			row.Cells = append(row.Cells, Cell{Key: c.Key, Removed: c.Removed, Text: c.Value})
		}
		out = append(out, row)
	}
	return out
}

// ToObservation rebuilds the observation of element typ. Conditions take
// their type from the element's type attribute.
func (el Element) ToObservation(typ string, category observation.Category, rep observation.Representation) (*observation.Observation, error) {
	obs := &observation.Observation{
		DataItemID:     el.DataItemID,
		Name:           el.Name,
		Type:           typ,
		SubType:        el.SubType,
		Category:       category,
		CompositionID:  el.CompositionID,
		Timestamp:      el.Timestamp,
		Sequence:       el.Sequence,
		ResetTriggered: el.ResetTriggered,
		NativeCode:     el.NativeCode,
		AssetType:      el.AssetType,
		Statistic:      el.Statistic,
	}
	if el.SampleRate != "" {
		f, ok := observation.ParseNumber(el.SampleRate)
		if !ok {
			return nil, fmt.Errorf("%w: sampleRate %q", observation.ErrMalformedValue, el.SampleRate)
		}
		obs.SampleRate = &f
	}
	if el.Duration != "" {
		f, ok := observation.ParseNumber(el.Duration)
		if !ok {
			return nil, fmt.Errorf("%w: duration %q", observation.ErrMalformedValue, el.Duration)
		}
		obs.Duration = &f
	}

	if category == observation.CategoryCondition {
		if el.Type != "" {
			obs.Type = el.Type
		}
		obs.Level = observation.ParseConditionLevel(el.XMLName.Local)
		obs.NativeSeverity = el.NativeSeverity
		obs.Qualifier = el.Qualifier
		obs.ConditionID = el.ConditionID
		obs.Message = strings.TrimSpace(el.Text)
		return obs, nil
	}

	obs.Representation = rep
	text := strings.TrimSpace(el.Text)
	switch rep {
	case observation.RepresentationDataSet:
		pairs := make([]observation.KeyValue, 0, len(el.Entries))
		for _, e := range el.Entries {
			if len(e.Cells) > 0 {
				return nil, fmt.Errorf("%w: data set entry %q has cells", observation.ErrMalformedValue, e.Key)
			}
			pairs = append(pairs, entryPair(e.Key, e.Removed, e.Text))
		}
		if entries := observation.BuildDataSetEntries(pairs); len(entries) > 0 {
			obs.Payload = observation.DataSet{Entries: entries}
		} else {
			obs.Payload = observation.DataSet{Unavailable: true}
		}
	case observation.RepresentationTable:
		rows := make([]observation.TableRow, 0, len(el.Entries))
		for _, e := range el.Entries {
			if !e.Removed && len(e.Cells) == 0 && strings.TrimSpace(e.Text) != "" {
				return nil, fmt.Errorf("%w: table entry %q must contain cells", observation.ErrMalformedValue, e.Key)
			}
			row := observation.TableRow{Key: e.Key, Removed: e.Removed}
			for _, c := range e.Cells {
				row.Cells = append(row.Cells, entryPair(c.Key, c.Removed, c.Text))
			}
			rows = append(rows, row)
		}
		if entries := observation.BuildTableEntries(rows); len(entries) > 0 {
			obs.Payload = observation.Table{Entries: entries}
		} else {
			obs.Payload = observation.Table{Unavailable: true}
		}
	case observation.RepresentationTimeSeries:
		if text == "" || text == observation.Unavailable {
			obs.Payload = observation.TimeSeries{Unavailable: true}
			break
		}
		fields := strings.Fields(text)
		samples := make([]float64, 0, len(fields))
		for _, field := range fields {
			f, ok := observation.ParseNumber(field)
			if !ok {
				return nil, fmt.Errorf("%w: time series sample %q is not a number", observation.ErrMalformedValue, field)
			}
			samples = append(samples, f)
		}
		count := len(samples)
		if el.SampleCount != "" {
			n, err := strconv.Atoi(el.SampleCount)
			if err != nil {
				return nil, fmt.Errorf("%w: sampleCount %q", observation.ErrMalformedValue, el.SampleCount)
			}
			if n > 0 {
				count = n
			}
		}
		obs.Payload = observation.TimeSeries{Samples: samples, SampleCount: count}
	default:
		if len(el.Entries) > 0 {
			return nil, fmt.Errorf("%w: value element %s has entries", observation.ErrMalformedValue, el.XMLName.Local)
		}
		if text == "" {
			text = observation.Unavailable
		}
		obs.Payload = observation.Value{Result: text}
	}
	return obs, nil
}

func entryPair(key string, removed bool, text string) observation.KeyValue {
	if removed {
		return observation.KeyValue{Key: key}
	}
	return observation.KeyValue{Key: key, Value: strings.TrimSpace(text)}
}
