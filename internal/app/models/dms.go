package models

import (
	"time"

	"github.com/google/uuid"
)

// DMSProvider names a dealer management system integration.
type DMSProvider string

const (
	DMSDealerSocket DMSProvider = "dealersocket"
	DMSCDK          DMSProvider = "cdk"
	DMSReynolds     DMSProvider = "reynolds"
	DMSAutomate     DMSProvider = "automate"
	DMSDealertrack  DMSProvider = "dealertrack"
)

// DMSConnectionStatus tracks connection health.
type DMSConnectionStatus string

const (
	DMSConnected    DMSConnectionStatus = "connected"
	DMSDisconnected DMSConnectionStatus = "disconnected"
	DMSError        DMSConnectionStatus = "error"
)

// DMSConnection is the per dealership DMS link.
type DMSConnection struct {
	ID           uuid.UUID           `json:"id" db:"id"`
	DealershipID uuid.UUID           `json:"dealership_id" db:"dealership_id"`
	Provider     DMSProvider         `json:"provider" db:"provider"`
	Status       DMSConnectionStatus `json:"status" db:"status"`
	LastSyncAt   *time.Time          `json:"last_sync_at,omitempty" db:"last_sync_at"`
	VehicleCount int                 `json:"vehicle_count" db:"vehicle_count"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// DMSSyncResult reports one inventory pull.
type DMSSyncResult struct {
	Provider     DMSProvider `json:"provider"`
	VehiclesSeen int         `json:"vehicles_seen"`
	Created      int         `json:"created"`
	Updated      int         `json:"updated"`
	Errors       []string    `json:"errors,omitempty"`
	SyncedAt     time.Time   `json:"synced_at"`
}

// ConnectDMSRequest links a dealership to a provider.
type ConnectDMSRequest struct {
	Provider DMSProvider `json:"provider" binding:"required"`
}
