// Package streams holds the format neutral model of an MTConnect streams
// document: a header plus observations grouped by device and component.
package streams

import (
	"time"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// Header is the response header of a streams document.
type Header struct {
	CreationTime  time.Time
	Sender        string
	InstanceID    uint64
	Version       string
	BufferSize    uint64
	FirstSequence uint64
	LastSequence  uint64
	NextSequence  uint64
	TestIndicator bool
}

type ComponentStream struct {
	Component    string
	ComponentID  string
	Name         string
	Observations []*observation.Observation
}

type DeviceStream struct {
	Name       string
	UUID       string
	Components []ComponentStream
}

type Document struct {
	Header  Header
	Devices []DeviceStream
}

// Observations returns every observation of the document in document order.
func (d *Document) Observations() []*observation.Observation {
	var out []*observation.Observation
	for _, dev := range d.Devices {
		for _, comp := range dev.Components {
			out = append(out, comp.Observations...)
		}
	}
	return out
}

// Len returns the number of observations in the document.
func (d *Document) Len() int {
	n := 0
	for _, dev := range d.Devices {
		for _, comp := range dev.Components {
			n += len(comp.Observations)
		}
	}
	return n
}

// Partition splits observations by category. Observations without a category
// take the one the resolver reports for their type and are returned as copies
// carrying it; anything still unset is treated as an event. The input is not
// modified.
func Partition(observations []*observation.Observation, resolve func(typ string) observation.Category) (samples, events, conditions []*observation.Observation) {
	for _, obs := range observations {
		category := obs.Category
		if category == observation.CategoryUnset && resolve != nil {
			category = resolve(obs.Type)
			if category != observation.CategoryUnset {
				resolved := *obs
				resolved.Category = category
				obs = &resolved
			}
		}
		switch category {
		case observation.CategorySample:
			samples = append(samples, obs)
		case observation.CategoryCondition:
			conditions = append(conditions, obs)
		default:
			events = append(events, obs)
		}
	}
	return samples, events, conditions
}

// EventTimeSeries returns the EVENT observations reported as TIME_SERIES.
// Events have no TIME_SERIES representation, so encoders leave them out.
func EventTimeSeries(observations []*observation.Observation, resolve func(typ string) observation.Category) []*observation.Observation {
	_, events, _ := Partition(observations, resolve)
	var out []*observation.Observation
	for _, obs := range events {
		if RepresentationOf(obs) == observation.RepresentationTimeSeries {
			out = append(out, obs)
		}
	}
	return out
}

// FromOutputs builds a document from materialized current
// values, grouping them by device UUID in first-seen order.
func FromOutputs(header Header, outputs []observation.ObservationOutput) Document {
	doc := Document{Header: header}
	index := map[string]int{}
	for _, out := range outputs {
		i, ok := index[out.DeviceUUID]
		if !ok {
			i = len(doc.Devices)
			index[out.DeviceUUID] = i
			doc.Devices = append(doc.Devices, DeviceStream{
				UUID:       out.DeviceUUID,
				Components: []ComponentStream{{Component: "Device", ComponentID: out.DeviceUUID}},
			})
		}
		comp := &doc.Devices[i].Components[0]
		comp.Observations = append(comp.Observations, out.Observation())
	}
	return doc
}
