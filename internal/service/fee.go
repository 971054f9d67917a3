package service

import "math"

// ComputeFee returns the platform's cut of a subtotal in minor currency
// units. Rounding is half-up (2.5 cents rounds to 3): the platform never
// loses the half cent, and the rule is pinned by tests so fee drift between
// what we record and what the processor transfers cannot creep in.
func ComputeFee(subtotal int64, commissionRatePercent float64) int64 {
	if subtotal <= 0 || commissionRatePercent <= 0 {
		return 0
	}

	fee := int64(math.Floor(float64(subtotal)*commissionRatePercent/100 + 0.5))
	if fee > subtotal {
		return subtotal
	}

	return fee
}
