package observation

import "strings"

// Category is the MTConnect category of a DataItem.
type Category string

const (
	CategoryUnset     Category = ""
	CategorySample    Category = "SAMPLE"
	CategoryEvent     Category = "EVENT"
	CategoryCondition Category = "CONDITION"
)

// ParseCategory maps a wire string to a Category. Unknown strings yield CategoryUnset.
func ParseCategory(s string) Category {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategorySample:
		return CategorySample
	case CategoryEvent:
		return CategoryEvent
	case CategoryCondition:
		return CategoryCondition
	default:
		return CategoryUnset
	}
}

// Representation is the payload shape of an observation.
type Representation string

const (
	RepresentationValue      Representation = "VALUE"
	RepresentationDataSet    Representation = "DATA_SET"
	RepresentationTable      Representation = "TABLE"
	RepresentationTimeSeries Representation = "TIME_SERIES"
)

// Suffix returns the element/bucket name suffix used by both wire flavors.
func (r Representation) Suffix() string {
	switch r {
	case RepresentationDataSet:
		return "DataSet"
	case RepresentationTable:
		return "Table"
	case RepresentationTimeSeries:
		return "TimeSeries"
	default:
		return ""
	}
}

// SplitSuffix separates a bucket or element name into its base name and the
// representation implied by its suffix.
func SplitSuffix(name string) (string, Representation) {
	for _, rep := range []Representation{RepresentationTimeSeries, RepresentationDataSet, RepresentationTable} {
		suffix := rep.Suffix()
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), rep
		}
	}
	return name, RepresentationValue
}

// ConditionLevel is the severity bucket of a condition observation.
type ConditionLevel string

const (
	LevelUnavailable ConditionLevel = "UNAVAILABLE"
	LevelNormal      ConditionLevel = "NORMAL"
	LevelWarning     ConditionLevel = "WARNING"
	LevelFault       ConditionLevel = "FAULT"
)

// ParseConditionLevel maps a wire string (any case) to a level. Unknown
// strings map to LevelUnavailable.
func ParseConditionLevel(s string) ConditionLevel {
	switch ConditionLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelNormal:
		return LevelNormal
	case LevelWarning:
		return LevelWarning
	case LevelFault:
		return LevelFault
	default:
		return LevelUnavailable
	}
}

// ElementName returns the Pascal-cased element name of a level ("Fault").
func (l ConditionLevel) ElementName() string {
	switch l {
	case LevelNormal:
		return "Normal"
	case LevelWarning:
		return "Warning"
	case LevelFault:
		return "Fault"
	default:
		return "Unavailable"
	}
}
