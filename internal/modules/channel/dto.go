package channel

import "time"

type ConnectChannelRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	WebhookKey string `json:"webhook_key" binding:"required"`
}

type SetAllocationRequest struct {
	ResourceID int64 `json:"resource_id" binding:"required"`
	ChannelID  int64 `json:"channel_id" binding:"required"`
	Count      int   `json:"count"`
}

type AllocateRequest struct {
	ResourceID int64 `json:"resource_id" binding:"required"`
	ChannelID  int64 `json:"channel_id" binding:"required"`
	Delta      int   `json:"delta" binding:"required"`
}

// ChannelBookingRequest is the inbound webhook body for a booking sold on
// an external channel. OperationID is the channel's own event id and keys
// idempotent redelivery.
type ChannelBookingRequest struct {
	ResourceID  int64     `json:"resource_id" binding:"required"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	Adults      int       `json:"adults" binding:"required"`
	Children    int       `json:"children"`
	OperationID string    `json:"operation_id" binding:"required"`
}

type ChannelCancellationRequest struct {
	BookingReference string `json:"booking_reference" binding:"required"`
	Reason           string `json:"reason"`
}

// SyncPayload is what the worker publishes to a channel queue.
type SyncPayload struct {
	EventID     int64     `json:"event_id"`
	ResourceID  int64     `json:"resource_id"`
	Operation   string    `json:"operation"`
	OperationID string    `json:"operation_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
}
