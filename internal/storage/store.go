// Package storage keeps the current value of every DataItem, keyed by device
// UUID and DataItem id.
package storage

import (
	"context"
	"errors"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
)

var ErrNotFound = errors.New("observation not found")

// Store holds materialized observations. List returns them in first-insert
// order; Put on an existing key keeps its position.
type Store interface {
	Put(ctx context.Context, out observation.ObservationOutput) error
	Get(ctx context.Context, deviceUUID, dataItemID string) (observation.ObservationOutput, error)
	List(ctx context.Context) ([]observation.ObservationOutput, error)
	Delete(ctx context.Context, deviceUUID, dataItemID string) error
	Count(ctx context.Context) (int, error)
}

type key struct {
	deviceUUID string
	dataItemID string
}
