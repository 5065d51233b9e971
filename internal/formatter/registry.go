// Package formatter selects a streams document encoding by id.
package formatter

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/catalog"
	"github.com/KevinKickass/mtconnect-core/internal/jsonformat"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
	"github.com/KevinKickass/mtconnect-core/internal/xmlformat"
)

const (
	JSON         = "JSON"
	JSONCppAgent = "JSON-cppagent"
	XML          = "XML"
)

var ErrUnknownFormat = errors.New("unknown format")

// Formatter encodes and decodes streams documents in one wire flavor.
type Formatter interface {
	ID() string
	ContentType() string
	Format(doc streams.Document) ([]byte, error)
	Parse(data []byte) (streams.Document, error)
}

type codec interface {
	Format(doc streams.Document) ([]byte, error)
	Parse(data []byte) (streams.Document, error)
}

type namedFormatter struct {
	codec
	id          string
	contentType string
}

func (f namedFormatter) ID() string          { return f.id }
func (f namedFormatter) ContentType() string { return f.contentType }

// Options configure the built-in formatters.
type Options struct {
	CategoryOutput   bool `mapstructure:"category_output"`
	InstanceIDOutput bool `mapstructure:"instance_id_output"`
	Indent           bool `mapstructure:"indent"`
}

type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	logger     *zap.Logger
}

// NewRegistry registers the JSON, JSON-cppagent and XML formatters. The
// cppagent flavor always carries category and instanceId.
func NewRegistry(cat *catalog.Catalog, opts Options, logger *zap.Logger) *Registry {
	r := &Registry{
		formatters: make(map[string]Formatter),
		logger:     logger,
	}

	r.Register(namedFormatter{
		codec: jsonformat.NewFormatter(cat, jsonformat.Options{
			CategoryOutput:   opts.CategoryOutput,
			InstanceIDOutput: opts.InstanceIDOutput,
			Indent:           opts.Indent,
		}, logger.Named("json")),
		id:          JSON,
		contentType: "application/json",
	})
	r.Register(namedFormatter{
		codec: jsonformat.NewFormatter(cat, jsonformat.Options{
			CategoryOutput:   true,
			InstanceIDOutput: true,
			Indent:           opts.Indent,
		}, logger.Named("json-cppagent")),
		id:          JSONCppAgent,
		contentType: "application/mtconnect+json",
	})
	r.Register(namedFormatter{
		codec:       xmlformat.NewFormatter(cat, opts.Indent, logger.Named("xml")),
		id:          XML,
		contentType: "application/xml",
	})

	return r
}

func (r *Registry) Register(f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.formatters[strings.ToUpper(f.ID())] = f
	r.logger.Debug("Formatter registered",
		zap.String("id", f.ID()),
		zap.String("content_type", f.ContentType()))
}

// Get returns the formatter with the given id, ignoring case.
func (r *Registry) Get(id string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[strings.ToUpper(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, id)
	}
	return f, nil
}

// ForContentType returns the formatter serving a media type. Parameters such
// as charset are ignored.
func (r *Registry) ForContentType(contentType string) (Formatter, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, contentType)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.sortedIDs() {
		f := r.formatters[id]
		if f.ContentType() == mediaType {
			return f, nil
		}
	}
	if mediaType == "text/xml" {
		if f, ok := r.formatters[XML]; ok {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, contentType)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.formatters))
	for _, id := range r.sortedIDs() {
		ids = append(ids, r.formatters[id].ID())
	}
	return ids
}

func (r *Registry) sortedIDs() []string {
	keys := make([]string, 0, len(r.formatters))
	for k := range r.formatters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Convert decodes data in one format and re-encodes it in another.
func (r *Registry) Convert(from, to string, data []byte) ([]byte, error) {
	src, err := r.Get(from)
	if err != nil {
		return nil, err
	}
	dst, err := r.Get(to)
	if err != nil {
		return nil, err
	}

	doc, err := src.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.ID(), err)
	}
	out, err := dst.Format(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", dst.ID(), err)
	}
	return out, nil
}
