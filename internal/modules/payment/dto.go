package payment

type RecordPaymentRequest struct {
	ReservationID     int64   `json:"reservation_id" binding:"required"`
	Amount            float64 `json:"amount" binding:"required"`
	Currency          string  `json:"currency"`
	Method            string  `json:"method"`
	ProviderReference string  `json:"provider_reference" binding:"required"`
	Status            string  `json:"status" binding:"required"`
}

type RecordRefundRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
}
