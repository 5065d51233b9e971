package catalog

import (
	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// SubType is one sub type code allowed for a DataItem type.
type SubType struct {
	Code        string `yaml:"code" json:"code"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DataItemType is one row of the catalog.
type DataItemType struct {
	Type            string                       `yaml:"type" json:"type"`
	Element         string                       `yaml:"element,omitempty" json:"element,omitempty"`
	Category        observation.Category         `yaml:"category" json:"category"`
	Units           string                       `yaml:"units,omitempty" json:"units,omitempty"`
	Minimum         string                       `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum         string                       `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	Representations []observation.Representation `yaml:"representations,omitempty" json:"representations,omitempty"`
	Description     string                       `yaml:"description,omitempty" json:"description,omitempty"`
	SubTypes        []SubType                    `yaml:"subTypes,omitempty" json:"subTypes,omitempty"`
}

// ElementName returns the PascalCase element name of the type.
func (t DataItemType) ElementName() string {
	if t.Element != "" {
		return t.Element
	}
	return TypeToElement(t.Type)
}

// Supports reports whether the type may be reported in representation rep.
// Types without an explicit list support VALUE only.
func (t DataItemType) Supports(rep observation.Representation) bool {
	if len(t.Representations) == 0 {
		return rep == observation.RepresentationValue || rep == ""
	}
	for _, r := range t.Representations {
		if r == rep {
			return true
		}
	}
	return false
}

type catalogFile struct {
	Version    string                          `yaml:"version"`
	Categories map[observation.Category]string `yaml:"categories"`
	SubTypes   map[string]string               `yaml:"subTypes"`
	Types      []DataItemType                  `yaml:"types"`
}

// Catalog is the immutable type table. It is safe for concurrent use once
// built.
type Catalog struct {
	version    string
	types      []DataItemType
	byType     map[string]int
	byElement  map[string]int
	categories map[observation.Category]string
	subTypes   map[string]string
}

func newCatalog(files ...catalogFile) *Catalog {
	c := &Catalog{
		byType:     make(map[string]int),
		byElement:  make(map[string]int),
		categories: make(map[observation.Category]string),
		subTypes:   make(map[string]string),
	}
	for _, f := range files {
		if c.version == "" {
			c.version = f.Version
		}
		for k, v := range f.Categories {
			c.categories[k] = v
		}
		for k, v := range f.SubTypes {
			c.subTypes[k] = v
		}
		for _, t := range f.Types {
			if i, ok := c.byType[t.Type]; ok {
				// later files override earlier rows but keep their position
				delete(c.byElement, c.types[i].ElementName())
				c.types[i] = t
				c.byElement[t.ElementName()] = i
				continue
			}
			c.byType[t.Type] = len(c.types)
			c.byElement[t.ElementName()] = len(c.types)
			c.types = append(c.types, t)
		}
	}
	return c
}

// Version returns the standard version of the base catalog.
func (c *Catalog) Version() string { return c.version }

// Len returns the number of known types.
func (c *Catalog) Len() int { return len(c.types) }

// Types returns all rows in catalog order.
func (c *Catalog) Types() []DataItemType {
	out := make([]DataItemType, len(c.types))
	copy(out, c.types)
	return out
}

// Lookup returns the row of a type string.
func (c *Catalog) Lookup(typ string) (DataItemType, bool) {
	i, ok := c.byType[typ]
	if !ok {
		return DataItemType{}, false
	}
	return c.types[i], true
}

// Index returns the catalog position of a type, or -1 when unknown.
func (c *Catalog) Index(typ string) int {
	if i, ok := c.byType[typ]; ok {
		return i
	}
	return -1
}

// CategoryOf returns the category of a known type and CategoryUnset otherwise.
func (c *Catalog) CategoryOf(typ string) observation.Category {
	if t, ok := c.Lookup(typ); ok {
		return t.Category
	}
	return observation.CategoryUnset
}

// ElementName returns the bucket/element name for a type reported in the
// given representation, e.g. "VariableDataSet". Unknown types fall back to
// the naming convention.
func (c *Catalog) ElementName(typ string, rep observation.Representation) string {
	base := TypeToElement(typ)
	if t, ok := c.Lookup(typ); ok {
		base = t.ElementName()
	}
	return base + rep.Suffix()
}

// Resolve maps an element or bucket name back to its type string and
// representation. known is false when the type is not in the catalog; the
// type string is then derived from the name alone.
func (c *Catalog) Resolve(element string) (typ string, rep observation.Representation, known bool) {
	if i, ok := c.byElement[element]; ok {
		return c.types[i].Type, observation.RepresentationValue, true
	}
	base, rep := observation.SplitSuffix(element)
	if i, ok := c.byElement[base]; ok {
		return c.types[i].Type, rep, true
	}
	return ElementToType(base), rep, false
}

// CategoryDescription returns the standard description of a category.
func (c *Catalog) CategoryDescription(cat observation.Category) string {
	return c.categories[cat]
}

// SubTypeDescription returns the description of a sub type code, preferring a
// type specific description over the shared one.
func (c *Catalog) SubTypeDescription(typ, code string) (string, bool) {
	if t, ok := c.Lookup(typ); ok {
		for _, st := range t.SubTypes {
			if st.Code == code && st.Description != "" {
				return st.Description, true
			}
		}
	}
	d, ok := c.subTypes[code]
	return d, ok
}
