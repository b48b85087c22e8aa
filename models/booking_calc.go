package models

import (
	"math"
	"time"

	"makeeasy/lifecycle"

	"github.com/shopspring/decimal"
)

const billingMonth = 30 * 24 * time.Hour

// CalculateTotalRentalAmount is the full-tenure cost of a rental:
// rent and monthly add-ons for every month, one-time add-ons and delivery once.
func (b *Booking) CalculateTotalRentalAmount() float64 {
	if !b.IsRental() {
		return 0
	}
	tenure := decimal.NewFromInt(int64(b.SelectedTenure))
	total := decimal.NewFromFloat(b.MonthlyRent).Mul(tenure)
	for _, a := range b.SelectedAddOns {
		total = total.
			Add(decimal.NewFromFloat(a.MonthlyCharge).Mul(tenure)).
			Add(decimal.NewFromFloat(a.OneTimeCharge))
	}
	return total.Add(decimal.NewFromFloat(b.DeliveryCharge)).InexactFloat64()
}

// RemainingMonths counts 30-day blocks, rounded up, until the rental ends.
// Unstarted or finished rentals have none left.
func (b *Booking) RemainingMonths(now time.Time) int {
	if !b.IsRental() || b.RentalStartDate == nil {
		return 0
	}
	end := b.CurrentEndDate()
	if !now.Before(end) {
		return 0
	}
	return int(math.Ceil(float64(end.Sub(now)) / float64(billingMonth)))
}

// CanRequestEarlyClosure holds for an active rental with no prior request
// once a full calendar month has passed since it started.
func (b *Booking) CanRequestEarlyClosure(now time.Time) bool {
	if b.RentalStatus != lifecycle.RentalActive || b.EarlyClosureRequested || b.RentalStartDate == nil {
		return false
	}
	return !now.Before(AddMonths(*b.RentalStartDate, 1))
}
