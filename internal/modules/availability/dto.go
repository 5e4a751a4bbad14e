package availability

import "time"

// TryReserveRequest describes one atomic reservation attempt. OperationID
// makes retries idempotent; callers that do not care pass "" and get a
// generated one.
type TryReserveRequest struct {
	ResourceID      int64      `json:"resource_id" binding:"required"`
	StartAt         time.Time  `json:"start_at" binding:"required"`
	EndAt           time.Time  `json:"end_at" binding:"required"`
	Adults          int        `json:"adults" binding:"required"`
	Children        int        `json:"children"`
	OperationID     string     `json:"operation_id"`
	ChannelID       *int64     `json:"channel_id,omitempty"`
	TotalAmount     float64    `json:"total_amount"`
	Currency        string     `json:"currency"`
	SpecialRequests string     `json:"special_requests,omitempty"`
}

type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CalendarResponse renders a resource's occupancy for admin calendars:
// the blocked intervals plus the free gaps between them.
type CalendarResponse struct {
	ResourceID int64      `json:"resource_id"`
	From       time.Time  `json:"from"`
	To         time.Time  `json:"to"`
	Busy       []Interval `json:"busy"`
	Free       []Interval `json:"free"`
}
