// Package pricing turns a listing's base price and a guest count into the
// amounts charged at booking time. All amounts are integer major units.
package pricing

import "fmt"

// DefaultAdvancePercentage is the share of the total collected up front
const DefaultAdvancePercentage = 30

// guestBaseline is the party size the base price is quoted for
const guestBaseline = 100

// Breakdown is the priced result for one booking
type Breakdown struct {
	BasePrice         int64 `json:"basePrice"`
	GuestCount        int   `json:"guestCount"`
	TotalAmount       int64 `json:"totalAmount"`
	AdvanceAmount     int64 `json:"advanceAmount"`
	RemainingAmount   int64 `json:"remainingAmount"`
	AdvancePercentage int   `json:"advancePercentage"`
}

// ComputeBreakdown prices a booking. A slot price override replaces the base
// price. Parties above the baseline scale the price linearly; smaller parties
// pay the full base price.
//
// guestCount <= 0, a negative price or a percentage outside [0,100] mean the
// caller skipped validation, so these panic.
func ComputeBreakdown(basePrice int64, guestCount int, slotPriceOverride *int64, advancePercentage int) Breakdown {
	if guestCount <= 0 {
		panic(fmt.Sprintf("pricing: guest count must be positive, got %d", guestCount))
	}

	effectiveBase := basePrice
	if slotPriceOverride != nil {
		effectiveBase = *slotPriceOverride
	}
	if effectiveBase < 0 {
		panic(fmt.Sprintf("pricing: negative price %d", effectiveBase))
	}

	total := effectiveBase
	if guestCount > guestBaseline {
		total = roundDiv(effectiveBase*int64(guestCount), guestBaseline)
	}

	advance, remaining := Split(total, advancePercentage)

	return Breakdown{
		BasePrice:         effectiveBase,
		GuestCount:        guestCount,
		TotalAmount:       total,
		AdvanceAmount:     advance,
		RemainingAmount:   remaining,
		AdvancePercentage: advancePercentage,
	}
}

// Split divides total into the rounded advance share and the remainder.
// advance + remaining == total always holds.
func Split(total int64, percentage int) (advance, remaining int64) {
	if percentage < 0 || percentage > 100 {
		panic(fmt.Sprintf("pricing: percentage %d outside [0,100]", percentage))
	}
	advance = roundDiv(total*int64(percentage), 100)
	return advance, total - advance
}

// Percent returns round(amount * pct / 100)
func Percent(amount int64, percentage int) int64 {
	advance, _ := Split(amount, percentage)
	return advance
}

// roundDiv is n/d rounded half away from zero, for n >= 0 and d > 0
func roundDiv(n, d int64) int64 {
	return (n + d/2) / d
}
