package payment

import "errors"

var (
	ErrValidation           = errors.New("validation error")
	ErrRefundExceedsPayment = errors.New("refund exceeds remaining payment amount")
	ErrRefundNotAllowed     = errors.New("refund not allowed in current state")
	ErrProviderUnavailable  = errors.New("payment provider unavailable")
)
