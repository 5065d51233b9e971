package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

func output(device, id, result string, seq uint64) observation.ObservationOutput {
	obs := &observation.Observation{
		DeviceUUID: device, DataItemID: id, Type: "TEMPERATURE",
		Category: observation.CategorySample, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Sequence: seq, Payload: observation.Value{Result: result},
	}
	return obs.Output()
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, output("m1", "t1", "20", 1)))
	require.NoError(t, s.Put(ctx, output("m1", "t2", "21", 2)))
	require.NoError(t, s.Put(ctx, output("m2", "t1", "22", 3)))
	require.NoError(t, s.Put(ctx, output("m1", "t1", "25", 4)))

	got, err := s.Get(ctx, "m1", "t1")
	require.NoError(t, err)
	result, _ := got.GetValue(observation.KeyResult)
	assert.Equal(t, "25", result)
	assert.Equal(t, uint64(4), got.Sequence)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "t1", list[0].DataItemID)
	assert.Equal(t, "m1", list[0].DeviceUUID)
	assert.Equal(t, "t2", list[1].DataItemID)
	assert.Equal(t, "m2", list[2].DeviceUUID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "m1", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Delete(ctx, "m1", "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, s.Put(ctx, observation.ObservationOutput{}))
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, output("m1", "a", "1", 1)))
	require.NoError(t, s.Put(ctx, output("m1", "b", "2", 2)))
	require.NoError(t, s.Delete(ctx, "m1", "a"))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].DataItemID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, output("m1", "a", "1", 1)))

	got, err := s.Get(ctx, "m1", "a")
	require.NoError(t, err)
	got.Values[0].Value = "mutated"

	again, err := s.Get(ctx, "m1", "a")
	require.NoError(t, err)
	result, _ := again.GetValue(observation.KeyResult)
	assert.Equal(t, "1", result)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Put(ctx, output("m1", "a", "x", uint64(i*50+j)))
				_, _ = s.List(ctx)
			}
		}(i)
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
