package streams

import (
	"sort"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// Group is the set of observations reported under one element or bucket
// name: one type in one representation.
type Group struct {
	Type           string
	Representation observation.Representation
	Observations   []*observation.Observation
}

// GroupObservations buckets observations by type and representation. order
// returns the catalog position of a type or a negative number when unknown;
// known types come first in catalog order, unknown ones follow in first-seen
// order. Input order is kept within a group.
func GroupObservations(observations []*observation.Observation, order func(typ string) int) []Group {
	var groups []Group
	index := map[string]int{}
	for _, obs := range observations {
		rep := RepresentationOf(obs)
		key := obs.Type + "/" + string(rep)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Type: obs.Type, Representation: rep})
		}
		groups[i].Observations = append(groups[i].Observations, obs)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := order(groups[i].Type), order(groups[j].Type)
		switch {
		case a >= 0 && b >= 0:
			if a != b {
				return a < b
			}
			return repOrder(groups[i].Representation) < repOrder(groups[j].Representation)
		case a >= 0:
			return true
		default:
			return false
		}
	})
	return groups
}

// RepresentationOf returns the declared representation of an observation,
// falling back to the shape of its payload.
func RepresentationOf(obs *observation.Observation) observation.Representation {
	if obs.Representation != "" {
		return obs.Representation
	}
	if obs.Payload != nil {
		return obs.Payload.Representation()
	}
	return observation.RepresentationValue
}

func repOrder(rep observation.Representation) int {
	switch rep {
	case observation.RepresentationDataSet:
		return 1
	case observation.RepresentationTable:
		return 2
	case observation.RepresentationTimeSeries:
		return 3
	default:
		return 0
	}
}
