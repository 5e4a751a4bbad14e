package domain

import "time"

// Channel is a distribution path for selling resources: the direct website
// or an OTA. Inbound webhooks authenticate with a per-channel key stored
// bcrypt-hashed.
type Channel struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code" validate:"required"`
	Name           string    `json:"name" validate:"required"`
	Active         bool      `json:"active"`
	WebhookKeyHash string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChannelAllocation is the slice of a resource's sellable inventory a
// channel may currently sell. The sum across channels must never exceed the
// resource's total inventory.
type ChannelAllocation struct {
	ID             int64      `json:"id"`
	ResourceID     int64      `json:"resource_id"`
	ChannelID      int64      `json:"channel_id"`
	AllocatedCount int        `json:"allocated_count"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type SyncOperation string

const (
	SyncOpBook     SyncOperation = "book"
	SyncOpCancel   SyncOperation = "cancel"
	SyncOpAllocate SyncOperation = "allocate"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSent    SyncStatus = "sent"
	SyncFailed  SyncStatus = "failed"
)

// SyncEvent is one queued outbound notification to a channel about an
// availability change. Idempotent per (resource, interval, operation id,
// target channel); delivery is best-effort with exponential backoff, the
// availability index stays the source of truth.
type SyncEvent struct {
	ID            int64         `json:"id"`
	ResourceID    int64         `json:"resource_id"`
	ChannelID     int64         `json:"channel_id"`
	OperationID   string        `json:"operation_id"`
	Operation     SyncOperation `json:"operation"`
	StartAt       time.Time     `json:"start_at"`
	EndAt         time.Time     `json:"end_at"`
	Status        SyncStatus    `json:"status"`
	Attempts      int           `json:"attempts"`
	NextAttemptAt time.Time     `json:"next_attempt_at"`
	LastError     string        `json:"last_error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
