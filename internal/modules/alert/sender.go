package alert

import "time"

// Sender pushes operational alerts to connected back-office operators.
// Implementations must be safe for concurrent use; a nil Sender in a
// consumer means alerts are silently dropped.
type Sender interface {
	OverbookingDetected(ev OverbookingEvent)
	ChannelCancellationBlocked(ev CancellationBlockedEvent)
	SyncDeliveryFailed(ev SyncFailedEvent)
}

// OverbookingEvent is raised when a channel-sourced booking lands on an
// interval that is already taken. The conflicting reservation is kept,
// flagged, and an operator has to resolve it by hand.
type OverbookingEvent struct {
	ResourceID     int64     `json:"resource_id"`
	ReservationID  int64     `json:"reservation_id"`
	BlockingIDs    []int64   `json:"blocking_reservation_ids"`
	ChannelID      int64     `json:"channel_id"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
}

// CancellationBlockedEvent is raised when a channel cancels a stay that
// is already checked in. The reservation stays as-is.
type CancellationBlockedEvent struct {
	ReservationID int64  `json:"reservation_id"`
	ChannelID     int64  `json:"channel_id"`
	Reference     string `json:"booking_reference"`
}

// SyncFailedEvent is raised when an outbox event exhausts its retries.
type SyncFailedEvent struct {
	EventID   int64  `json:"event_id"`
	ChannelID int64  `json:"channel_id"`
	Operation string `json:"operation"`
	LastError string `json:"last_error"`
}
