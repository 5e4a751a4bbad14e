package booking

import "time"

type CreateBookingRequest struct {
	ResourceID      int64     `json:"resource_id" binding:"required"`
	StartAt         time.Time `json:"start_at" binding:"required"`
	EndAt           time.Time `json:"end_at" binding:"required"`
	Adults          int       `json:"adults" binding:"required"`
	Children        int       `json:"children"`
	OperationID     string    `json:"operation_id"`
	SpecialRequests string    `json:"special_requests"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}
