package xmlformat

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/observation"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

type Header struct {
	CreationTime  time.Time `xml:"creationTime,attr"`
	Sender        string    `xml:"sender,attr,omitempty"`
	InstanceID    uint64    `xml:"instanceId,attr"`
	Version       string    `xml:"version,attr,omitempty"`
	BufferSize    uint64    `xml:"bufferSize,attr,omitempty"`
	FirstSequence uint64    `xml:"firstSequence,attr"`
	LastSequence  uint64    `xml:"lastSequence,attr"`
	NextSequence  uint64    `xml:"nextSequence,attr"`
	TestIndicator bool      `xml:"testIndicator,attr,omitempty"`
}

// Samples holds sample elements in document order.
type Samples struct {
	Elements []Element `xml:",any"`
}

// Events holds event elements in document order.
type Events struct {
	Elements []Element `xml:",any"`
}

// Conditions holds condition elements named after their level.
type Conditions struct {
	Elements []Element `xml:",any"`
}

type ComponentStream struct {
	Component   string      `xml:"component,attr"`
	ComponentID string      `xml:"componentId,attr"`
	Name        string      `xml:"name,attr,omitempty"`
	Samples     *Samples    `xml:"Samples"`
	Events      *Events     `xml:"Events"`
	Condition   *Conditions `xml:"Condition"`
}

type DeviceStream struct {
	Name             string            `xml:"name,attr"`
	UUID             string            `xml:"uuid,attr"`
	ComponentStreams []ComponentStream `xml:"ComponentStream"`
}

// StreamsDocument is the MTConnectStreams root element.
type StreamsDocument struct {
	XMLName xml.Name       `xml:"MTConnectStreams"`
	Header  Header         `xml:"Header"`
	Streams []DeviceStream `xml:"Streams>DeviceStream"`
}

func elements(cat *catalog.Catalog, observations []*observation.Observation, skipTimeSeries bool) []Element {
	var out []Element
	for _, g := range streams.GroupObservations(observations, cat.Index) {
		if skipTimeSeries && g.Representation == observation.RepresentationTimeSeries {
			continue
		}
		name := cat.ElementName(g.Type, g.Representation)
		for _, obs := range g.Observations {
			out = append(out, NewElement(name, obs))
		}
	}
	return out
}

// NewStreamsDocument assembles the XML document. Components without any
// reportable observation are omitted.
func NewStreamsDocument(cat *catalog.Catalog, doc streams.Document) *StreamsDocument {
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
	}

	for _, dev := range doc.Devices {
		ds := DeviceStream{Name: dev.Name, UUID: dev.UUID}
		for _, comp := range dev.Components {
			samples, events, conditions := streams.Partition(comp.Observations, cat.CategoryOf)
			cs := ComponentStream{
				Component:   comp.Component,
				ComponentID: comp.ComponentID,
				Name:        comp.Name,
			}
			if els := elements(cat, samples, false); len(els) > 0 {
				cs.Samples = &Samples{Elements: els}
			}
			if els := elements(cat, events, true); len(els) > 0 {
				cs.Events = &Events{Elements: els}
			}
			if len(conditions) > 0 {
				c := &Conditions{}
				for _, obs := range conditions {
					level := obs.Level
					if level == "" {
						level = observation.LevelUnavailable
					}
					c.Elements = append(c.Elements, NewElement(level.ElementName(), obs))
				}
				cs.Condition = c
			}
			if cs.Samples == nil && cs.Events == nil && cs.Condition == nil {
				continue
			}
			ds.ComponentStreams = append(ds.ComponentStreams, cs)
		}
		out.Streams = append(out.Streams, ds)
	}
	return out
}

func decodeElements(cat *catalog.Catalog, els []Element, category observation.Category) ([]*observation.Observation, error) {
	out := make([]*observation.Observation, 0, len(els))
	for _, el := range els {
		name := el.XMLName.Local
		typ, rep, _ := cat.Resolve(name)
		if category == observation.CategoryEvent && rep == observation.RepresentationTimeSeries {
			typ, rep = catalog.ElementToType(name), observation.RepresentationValue
		}
		obs, err := el.ToObservation(typ, category, rep)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s %s: %w", name, el.DataItemID, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

// ToDocument flattens the XML document back into the neutral model.
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
			if cs.Samples != nil {
				obs, err := decodeElements(cat, cs.Samples.Elements, observation.CategorySample)
				if err != nil {
					return streams.Document{}, fmt.Errorf("component %s samples: %w", cs.ComponentID, err)
				}
				comp.Observations = append(comp.Observations, obs...)
			}
			if cs.Events != nil {
				obs, err := decodeElements(cat, cs.Events.Elements, observation.CategoryEvent)
				if err != nil {
					return streams.Document{}, fmt.Errorf("component %s events: %w", cs.ComponentID, err)
				}
				comp.Observations = append(comp.Observations, obs...)
			}
			if cs.Condition != nil {
				obs, err := decodeElements(cat, cs.Condition.Elements, observation.CategoryCondition)
				if err != nil {
					return streams.Document{}, fmt.Errorf("component %s condition: %w", cs.ComponentID, err)
				}
				comp.Observations = append(comp.Observations, obs...)
			}
			for _, obs := range comp.Observations {
				obs.DeviceUUID = ds.UUID
			}
			dev.Components = append(dev.Components, comp)
		}
		doc.Devices = append(doc.Devices, dev)
	}
	return doc, nil
}
