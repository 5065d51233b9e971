// Package jsonformat encodes and decodes MTConnect streams documents in the
// JSON flavor: one property per DataItem type and representation, with
// DataSet, Table and TimeSeries values collapsing to "UNAVAILABLE" when empty.
package jsonformat

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

// Options control the optional envelope fields of every record.
type Options struct {
	CategoryOutput   bool `mapstructure:"category_output"`
	InstanceIDOutput bool `mapstructure:"instance_id_output"`
	Indent           bool `mapstructure:"indent"`
}

type Formatter struct {
	catalog *catalog.Catalog
	opts    Options
	logger  *zap.Logger
}

func NewFormatter(cat *catalog.Catalog, opts Options, logger *zap.Logger) *Formatter {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Formatter{catalog: cat, opts: opts, logger: logger}
}

// Format encodes a streams document.
func (f *Formatter) Format(doc streams.Document) ([]byte, error) {
	f.logUnknownTypes(doc)
	f.logDroppedEvents(doc)

	wire, err := NewStreamsDocument(f.catalog, doc, f.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble document: %w", err)
	}

	if f.opts.Indent {
		return json.MarshalIndent(wire, "", "  ")
	}
	return json.Marshal(wire)
}

// Parse decodes a streams document. A malformed observation aborts the whole
// document.
func (f *Formatter) Parse(data []byte) (streams.Document, error) {
	var wire StreamsDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return streams.Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	doc, err := wire.ToDocument(f.catalog)
	if err != nil {
		return streams.Document{}, err
	}
	f.logUnknownTypes(doc)
	return doc, nil
}

func (f *Formatter) logUnknownTypes(doc streams.Document) {
	if ce := f.logger.Check(zap.DebugLevel, "Unknown DataItem type"); ce == nil {
		return
	}
	seen := map[string]bool{}
	for _, obs := range doc.Observations() {
		if seen[obs.Type] {
			continue
		}
		seen[obs.Type] = true
		if _, ok := f.catalog.Lookup(obs.Type); !ok {
			f.logger.Debug("Unknown DataItem type",
				zap.String("type", obs.Type),
				zap.String("data_item_id", obs.DataItemID))
		}
	}
}

func (f *Formatter) logDroppedEvents(doc streams.Document) {
	if ce := f.logger.Check(zap.DebugLevel, "Dropped EVENT time series"); ce == nil {
		return
	}
	for _, obs := range streams.EventTimeSeries(doc.Observations(), f.catalog.CategoryOf) {
		f.logger.Debug("Dropped EVENT time series",
			zap.String("type", obs.Type),
			zap.String("data_item_id", obs.DataItemID))
	}
}
