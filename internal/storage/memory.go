package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

// MemoryStore is the Store used when no database is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[key]observation.ObservationOutput
	order  []key
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[key]observation.ObservationOutput)}
}

func (s *MemoryStore) Put(_ context.Context, out observation.ObservationOutput) error {
	if out.DataItemID == "" {
		return fmt.Errorf("failed to store observation: empty dataItemId")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{deviceUUID: out.DeviceUUID, dataItemID: out.DataItemID}
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = copyOutput(out)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, deviceUUID, dataItemID string) (observation.ObservationOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.values[key{deviceUUID: deviceUUID, dataItemID: dataItemID}]
	if !ok {
		return observation.ObservationOutput{}, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceUUID, dataItemID)
	}
	return copyOutput(out), nil
}

func (s *MemoryStore) List(_ context.Context) ([]observation.ObservationOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outputs := make([]observation.ObservationOutput, 0, len(s.order))
	for _, k := range s.order {
		outputs = append(outputs, copyOutput(s.values[k]))
	}
	return outputs, nil
}

func (s *MemoryStore) Delete(_ context.Context, deviceUUID, dataItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{deviceUUID: deviceUUID, dataItemID: dataItemID}
	if _, ok := s.values[k]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, deviceUUID, dataItemID)
	}
	delete(s.values, k)
	for i, o := range s.order {
		if o == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values), nil
}

func copyOutput(out observation.ObservationOutput) observation.ObservationOutput {
	values := make([]observation.ObservationValue, len(out.Values))
	copy(values, out.Values)
	out.Values = values
	return out
}
