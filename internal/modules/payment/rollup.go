package payment

import "github.com/Jovan-creator/armaflex-sub001/internal/domain"

// centEpsilon absorbs float accumulation noise; amounts are currency
// values rounded to two decimals everywhere else.
const centEpsilon = 0.005

// computeRollup derives the single authoritative payment state of a
// reservation from its payment and refund history:
//
//	paid      net >= total
//	partial   0 < net < total
//	refunded  net <= 0 with at least one refund
//	pending   otherwise
//
// where net = sum of counting payments minus sum of refunds.
func computeRollup(payments []domain.Payment, refundTotal, reservationTotal float64) domain.PaymentRollup {
	paid := 0.0
	for _, p := range payments {
		if p.Status.Counts() {
			paid += p.Amount
		}
	}
	net := paid - refundTotal

	switch {
	case paid > 0 && net >= reservationTotal-centEpsilon:
		return domain.RollupPaid
	case net > centEpsilon:
		return domain.RollupPartial
	case refundTotal > 0:
		return domain.RollupRefunded
	default:
		return domain.RollupPending
	}
}

func refundSum(refunds []domain.Refund) float64 {
	total := 0.0
	for _, r := range refunds {
		total += r.Amount
	}
	return total
}
