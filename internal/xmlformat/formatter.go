// Package xmlformat encodes and decodes MTConnect streams documents as XML.
// Namespaces and schema locations are not emitted.
package xmlformat

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

type Formatter struct {
	catalog *catalog.Catalog
	indent  bool
	logger  *zap.Logger
}

func NewFormatter(cat *catalog.Catalog, indent bool, logger *zap.Logger) *Formatter {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Formatter{catalog: cat, indent: indent, logger: logger}
}

func (f *Formatter) Format(doc streams.Document) ([]byte, error) {
	for _, obs := range streams.EventTimeSeries(doc.Observations(), f.catalog.CategoryOf) {
		f.logger.Debug("Dropped EVENT time series",
			zap.String("type", obs.Type),
			zap.String("data_item_id", obs.DataItemID))
	}

	wire := NewStreamsDocument(f.catalog, doc)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if f.indent {
		enc.Indent("", "  ")
	}
	if err := enc.Encode(wire); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	f.logger.Debug("Formatted XML document",
		zap.Int("devices", len(wire.Streams)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Parse decodes a document. A malformed observation aborts the whole document.
func (f *Formatter) Parse(data []byte) (streams.Document, error) {
	var wire StreamsDocument
	if err := xml.Unmarshal(data, &wire); err != nil {
		return streams.Document{}, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return wire.ToDocument(f.catalog)
}
