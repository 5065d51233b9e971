package interfaces

import (
	"context"

	"github.com/KevinKickass/mtconnect-core/internal/config"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string   `json:"state"`
	InstanceID       uint64   `json:"instance_id"`
	NextSequence     uint64   `json:"next_sequence"`
	CurrentValues    int      `json:"current_values"`
	ConnectedClients int      `json:"connected_clients"`
	Formats          []string `json:"formats"`
	CatalogVersion   string   `json:"catalog_version"`
	Storage          string   `json:"storage"`
}

type LifecycleManager interface {
	Config() *config.Config
	GetCurrentStatus(ctx context.Context) SystemStatus
	Shutdown(ctx context.Context) error
}
