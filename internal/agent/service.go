// Package agent ingests streams documents into the current-value store and
// renders the store back as a streams document in any registered format.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KevinKickass/mtconnect-core/internal/config"
	"github.com/KevinKickass/mtconnect-core/internal/formatter"
	"github.com/KevinKickass/mtconnect-core/internal/metrics"
	"github.com/KevinKickass/mtconnect-core/internal/observation"
	"github.com/KevinKickass/mtconnect-core/internal/storage"
	"github.com/KevinKickass/mtconnect-core/internal/streams"
)

// Publisher receives every ingested document after it has been stored.
type Publisher interface {
	BroadcastDocument(doc streams.Document)
}

// IngestResult summarizes one ingested document.
type IngestResult struct {
	Observations  int    `json:"observations"`
	FirstSequence uint64 `json:"firstSequence,omitempty"`
	LastSequence  uint64 `json:"lastSequence,omitempty"`
}

type Service struct {
	registry  *formatter.Registry
	store     storage.Store
	metrics   *metrics.Metrics
	publisher Publisher
	header    config.HeaderConfig
	logger    *zap.Logger

	id         uuid.UUID
	instanceID uint64

	// mu serializes ingestion so merges and sequence numbers stay ordered.
	mu            sync.Mutex
	firstSequence uint64
	nextSequence  uint64
	deviceNames   map[string]string
}

func NewService(registry *formatter.Registry, store storage.Store, m *metrics.Metrics, header config.HeaderConfig, logger *zap.Logger) *Service {
	id := uuid.New()
	return &Service{
		registry:      registry,
		store:         store,
		metrics:       m,
		header:        header,
		logger:        logger.With(zap.String("agent_id", id.String())),
		id:            id,
		instanceID:    uint64(time.Now().Unix()),
		firstSequence: 1,
		nextSequence:  1,
		deviceNames:   make(map[string]string),
	}
}

func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) InstanceID() uint64 {
	return s.instanceID
}

func (s *Service) Registry() *formatter.Registry {
	return s.registry
}

// Start resumes sequence numbering after the highest stored sequence.
func (s *Service) Start(ctx context.Context) error {
	outputs, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current values: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, out := range outputs {
		if out.Sequence >= s.nextSequence {
			s.nextSequence = out.Sequence + 1
		}
	}
	if s.metrics != nil {
		s.metrics.SetCurrent(len(outputs))
	}

	s.logger.Info("Agent started",
		zap.Uint64("instance_id", s.instanceID),
		zap.Int("current_values", len(outputs)),
		zap.Uint64("next_sequence", s.nextSequence))
	return nil
}

// Parse decodes data in format.
func (s *Service) Parse(format string, data []byte) (streams.Document, error) {
	f, err := s.registry.Get(format)
	if err != nil {
		return streams.Document{}, err
	}

	start := time.Now()
	doc, err := f.Parse(data)
	s.observe(f.ID(), metrics.OpParse, start, err)
	return doc, err
}

// Format encodes doc in format.
func (s *Service) Format(format string, doc streams.Document) ([]byte, string, error) {
	f, err := s.registry.Get(format)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	data, err := f.Format(doc)
	s.observe(f.ID(), metrics.OpFormat, start, err)
	return data, f.ContentType(), err
}

// Convert re-encodes a document from one format to another.
func (s *Service) Convert(from, to string, data []byte) ([]byte, string, error) {
	doc, err := s.Parse(from, data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", from, err)
	}
	out, contentType, err := s.Format(to, doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to format %s: %w", to, err)
	}
	return out, contentType, nil
}

// Ingest parses a document, merges each observation into its DataItem's
// current value and publishes the ingested document with agent sequence
// numbers. A malformed document stores nothing.
func (s *Service) Ingest(ctx context.Context, format string, data []byte) (IngestResult, error) {
	doc, err := s.Parse(format, data)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to parse %s: %w", format, err)
	}
	return s.IngestDocument(ctx, doc)
}

func (s *Service) IngestDocument(ctx context.Context, doc streams.Document) (IngestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result IngestResult
	for di := range doc.Devices {
		dev := &doc.Devices[di]
		if dev.Name != "" {
			s.deviceNames[dev.UUID] = dev.Name
		}
		for ci := range dev.Components {
			for _, obs := range dev.Components[ci].Observations {
				if obs.DataItemID == "" {
					s.logger.Warn("Skipping observation without dataItemId",
						zap.String("device_uuid", dev.UUID),
						zap.String("type", obs.Type))
					continue
				}
				obs.DeviceUUID = dev.UUID
				obs.Sequence = s.nextSequence
				obs.InstanceID = s.instanceID

				if err := s.merge(ctx, obs); err != nil {
					return result, err
				}

				if result.Observations == 0 {
					result.FirstSequence = obs.Sequence
				}
				result.LastSequence = obs.Sequence
				result.Observations++
				s.nextSequence++
			}
		}
	}

	if s.metrics != nil {
		s.metrics.AddObservations(result.Observations)
		if n, err := s.store.Count(ctx); err == nil {
			s.metrics.SetCurrent(n)
		}
	}

	s.logger.Info("Document ingested",
		zap.Int("observations", result.Observations),
		zap.Uint64("last_sequence", result.LastSequence))

	if s.publisher != nil && result.Observations > 0 {
		doc.Header = s.headerLocked()
		s.publisher.BroadcastDocument(doc)
	}
	return result, nil
}

func (s *Service) merge(ctx context.Context, obs *observation.Observation) error {
	var current *observation.Observation
	out, err := s.store.Get(ctx, obs.DeviceUUID, obs.DataItemID)
	switch {
	case err == nil:
		current = out.Observation()
	case errors.Is(err, storage.ErrNotFound):
	default:
		return fmt.Errorf("failed to load current value of %s: %w", obs.DataItemID, err)
	}

	merged := observation.MergeObservation(current, obs)
	if err := s.store.Put(ctx, merged.Output()); err != nil {
		return fmt.Errorf("failed to store %s: %w", obs.DataItemID, err)
	}
	return nil
}

// CurrentDocument returns the current value of every DataItem.
func (s *Service) CurrentDocument(ctx context.Context) (streams.Document, error) {
	outputs, err := s.store.List(ctx)
	if err != nil {
		return streams.Document{}, fmt.Errorf("failed to list current values: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := streams.FromOutputs(s.headerLocked(), outputs)
	for i := range doc.Devices {
		doc.Devices[i].Name = s.deviceNames[doc.Devices[i].UUID]
	}
	return doc, nil
}

// Current renders the current document in format.
func (s *Service) Current(ctx context.Context, format string) ([]byte, string, error) {
	doc, err := s.CurrentDocument(ctx)
	if err != nil {
		return nil, "", err
	}
	return s.Format(format, doc)
}

// CurrentValue returns the stored output of one DataItem.
func (s *Service) CurrentValue(ctx context.Context, deviceUUID, dataItemID string) (observation.ObservationOutput, error) {
	return s.store.Get(ctx, deviceUUID, dataItemID)
}

func (s *Service) Header() streams.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headerLocked()
}

func (s *Service) headerLocked() streams.Header {
	last := s.nextSequence - 1
	if last < s.firstSequence {
		last = 0
	}
	return streams.Header{
		CreationTime:  time.Now().UTC().Truncate(time.Second),
		Sender:        s.header.Sender,
		InstanceID:    s.instanceID,
		Version:       s.header.Version,
		BufferSize:    s.header.BufferSize,
		FirstSequence: s.firstSequence,
		LastSequence:  last,
		NextSequence:  s.nextSequence,
	}
}

func (s *Service) observe(format, op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveDocument(format, op, time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("Document rejected",
			zap.String("format", format),
			zap.String("op", op),
			zap.Error(err))
	}
}
