package fees

import (
	"math"

	errors "github.com/frahmantamala/giving-api/internal"
)

// Processor fee defaults. Card fees gross the charge up so the church nets the
// intended amount after the processor takes its cut; ACH fees are percentage
// only with a hard cap.
const (
	DefaultCardFixedFee   = 0.30
	DefaultCardPercentFee = 0.029
	DefaultACHPercentFee  = 0.008
	DefaultACHMaxFee      = 5.00
)

const (
	KindCard = "card"
	KindACH  = "ach"
)

// Overrides replace individual defaults when set; a nil field keeps the
// default, so tenants can override just the fixed fee or just the percentage.
type Overrides struct {
	FixedFee   *float64
	PercentFee *float64
	MaxFee     *float64
}

// Estimate computes the processor fee for a gross amount in major currency
// units. It performs no I/O; tenant overrides are resolved by the caller.
func Estimate(kind string, grossAmount float64, o Overrides) (float64, error) {
	switch kind {
	case KindCard:
		return EstimateCard(grossAmount, o), nil
	case KindACH:
		return EstimateACH(grossAmount, o), nil
	default:
		return 0, errors.NewValidationError("fee type must be card or ach", errors.ErrCodeValidationFailed)
	}
}

func EstimateCard(grossAmount float64, o Overrides) float64 {
	fixed := DefaultCardFixedFee
	percent := DefaultCardPercentFee
	if o.FixedFee != nil {
		fixed = *o.FixedFee
	}
	if o.PercentFee != nil {
		percent = *o.PercentFee
	}
	return round2((grossAmount+fixed)/(1-percent) - grossAmount)
}

func EstimateACH(grossAmount float64, o Overrides) float64 {
	percent := DefaultACHPercentFee
	max := DefaultACHMaxFee
	if o.PercentFee != nil {
		percent = *o.PercentFee
	}
	if o.MaxFee != nil {
		max = *o.MaxFee
	}
	fee := round2(grossAmount/(1-percent) - grossAmount)
	if fee > max {
		return max
	}
	return fee
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
