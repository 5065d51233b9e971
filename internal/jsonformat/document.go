package jsonformat

import (
	"fmt"
	"time"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

type Header struct {
	CreationTime  time.Time `json:"creationTime"`
	Sender        string    `json:"sender,omitempty"`
	InstanceID    uint64    `json:"instanceId"`
	Version       string    `json:"version,omitempty"`
	BufferSize    uint64    `json:"bufferSize,omitempty"`
	FirstSequence uint64    `json:"firstSequence"`
	LastSequence  uint64    `json:"lastSequence"`
	NextSequence  uint64    `json:"nextSequence"`
	TestIndicator bool      `json:"testIndicator,omitempty"`
}

type ComponentStream struct {
	Component   string      `json:"component"`
	ComponentID string      `json:"componentId"`
	Name        string      `json:"name,omitempty"`
	Samples     *Samples    `json:"Samples,omitempty"`
	Events      *Events     `json:"Events,omitempty"`
	Condition   *Conditions `json:"Condition,omitempty"`
}

type DeviceStream struct {
	Name             string            `json:"name"`
	UUID             string            `json:"uuid"`
	ComponentStreams []ComponentStream `json:"ComponentStreams,omitempty"`
}

// StreamsDocument is the top level JSON streams document.
type StreamsDocument struct {
	Header  Header         `json:"header"`
	Streams []DeviceStream `json:"streams"`
}

// NewStreamsDocument assembles the wire document. Components without any
// reportable observation are omitted.
func NewStreamsDocument(cat *catalog.Catalog, doc streams.Document, opts Options) (*StreamsDocument, error) {
	h := doc.Header
	out := &StreamsDocument{
		Header: Header{
			CreationTime:  h.CreationTime.UTC(),
			Sender:        h.Sender,
			InstanceID:    h.InstanceID,
			Version:       h.Version,
			BufferSize:    h.BufferSize,
			FirstSequence: h.FirstSequence,
			LastSequence:  h.LastSequence,
			NextSequence:  h.NextSequence,
			TestIndicator: h.TestIndicator,
		},
		Streams: make([]DeviceStream, 0, len(doc.Devices)),
	}

	for _, dev := range doc.Devices {
		ds := DeviceStream{Name: dev.Name, UUID: dev.UUID}
		for _, comp := range dev.Components {
			cs, err := newComponentStream(cat, comp, opts)
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", comp.ComponentID, err)
			}
			if cs != nil {
				ds.ComponentStreams = append(ds.ComponentStreams, *cs)
			}
		}
		out.Streams = append(out.Streams, ds)
	}
	return out, nil
}

func newComponentStream(cat *catalog.Catalog, comp streams.ComponentStream, opts Options) (*ComponentStream, error) {
	samples, events, conditions := streams.Partition(comp.Observations, cat.CategoryOf)

	s, err := NewSamples(cat, samples, opts)
	if err != nil {
		return nil, err
	}
	e, err := NewEvents(cat, events, opts)
	if err != nil {
		return nil, err
	}
	c := NewConditions(conditions, opts)

	if s == nil && e == nil && c == nil {
		return nil, nil
	}
	return &ComponentStream{
		Component:   comp.Component,
		ComponentID: comp.ComponentID,
		Name:        comp.Name,
		Samples:     s,
		Events:      e,
		Condition:   c,
	}, nil
}

// ToDocument flattens the wire document back into the neutral model.
func (d *StreamsDocument) ToDocument(cat *catalog.Catalog) (streams.Document, error) {
	h := d.Header
	doc := streams.Document{
		Header: streams.Header{
			CreationTime:  h.CreationTime,
			Sender:        h.Sender,
			InstanceID:    h.InstanceID,
			Version:       h.Version,
			BufferSize:    h.BufferSize,
			FirstSequence: h.FirstSequence,
			LastSequence:  h.LastSequence,
			NextSequence:  h.NextSequence,
			TestIndicator: h.TestIndicator,
		},
	}

	for _, ds := range d.Streams {
		dev := streams.DeviceStream{Name: ds.Name, UUID: ds.UUID}
		for _, cs := range ds.ComponentStreams {
			comp := streams.ComponentStream{
				Component:   cs.Component,
				ComponentID: cs.ComponentID,
				Name:        cs.Name,
			}
			samples, err := cs.Samples.Observations(cat)
			if err != nil {
				return streams.Document{}, fmt.Errorf("component %s samples: %w", cs.ComponentID, err)
			}
			events, err := cs.Events.Observations(cat)
			if err != nil {
				return streams.Document{}, fmt.Errorf("component %s events: %w", cs.ComponentID, err)
			}
			comp.Observations = append(comp.Observations, samples...)
			comp.Observations = append(comp.Observations, events...)
			comp.Observations = append(comp.Observations, cs.Condition.Observations()...)
			for _, obs := range comp.Observations {
				obs.DeviceUUID = ds.UUID
			}
			dev.Components = append(dev.Components, comp)
		}
		doc.Devices = append(doc.Devices, dev)
	}
	return doc, nil
}
