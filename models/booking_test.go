package models

import (
	"strings"
	"testing"
	"time"

	"makeeasy/apperr"
	"makeeasy/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validBooking() *Booking {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Booking{
		User:          primitive.NewObjectID(),
		StartDate:     now,
		EndDate:       now.Add(24 * time.Hour),
		CustomerName:  "Asha",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "9999999999",
	}
}

func ptrID() *primitive.ObjectID {
	id := primitive.NewObjectID()
	return &id
}

func TestBookingValidateProductServiceExclusive(t *testing.T) {
	t.Run("neither", func(t *testing.T) {
		b := validBooking()
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Either product or service must be provided")
		assert.Equal(t, BookingType(""), b.BookingType)
	})

	t.Run("both", func(t *testing.T) {
		b := validBooking()
		b.Product, b.Service = ptrID(), ptrID()
		err := b.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot book both product and service together")
	})

	t.Run("service only", func(t *testing.T) {
		b := validBooking()
		b.Service = ptrID()
		b.BookingType = BookingRental
		require.NoError(t, b.Validate())
		assert.Equal(t, BookingService, b.BookingType, "type is derived, not trusted")
	})

	t.Run("product only", func(t *testing.T) {
		b := validBooking()
		b.Product = ptrID()
		b.SelectedTenure = 3
		b.BookingType = BookingService
		require.NoError(t, b.Validate())
		assert.Equal(t, BookingRental, b.BookingType)
	})
}

func TestBookingValidateFields(t *testing.T) {
	b := &Booking{Service: ptrID(), CustomerEmail: "not-an-email", Notes: strings.Repeat("x", 501)}
	err := b.Validate()
	require.Error(t, err)

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"Please add a start date",
		"Please add an end date",
		"Please add customer name",
		"Please add a valid email",
		"Please add customer phone number",
		"Notes cannot be more than 500 characters",
	}, ve.Fields)

	r := validBooking()
	r.Product = ptrID()
	r.RentalStatus = "lost"
	err = r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tenure must be at least 1 month")
	assert.Contains(t, err.Error(), "Invalid rental status")
}

func TestCalculateTotalRentalAmount(t *testing.T) {
	b := validBooking()
	b.Product = ptrID()
	b.DeriveType()
	b.SelectedTenure = 6
	b.MonthlyRent = 1000
	b.DeliveryCharge = 100
	b.SelectedAddOns = []SelectedAddOn{{Name: "Protect", MonthlyCharge: 50, OneTimeCharge: 20}}

	// 1000*6 + (50*6 + 20) + 100
	assert.Equal(t, 6420.0, b.CalculateTotalRentalAmount())

	svc := validBooking()
	svc.Service = ptrID()
	svc.DeriveType()
	svc.MonthlyRent = 1000
	assert.Equal(t, 0.0, svc.CalculateTotalRentalAmount())
}

func TestRemainingMonths(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	started := now.AddDate(0, -2, 0)

	b := validBooking()
	b.Product = ptrID()
	b.DeriveType()
	b.RentalStartDate = &started
	b.EndDate = now.Add(45 * 24 * time.Hour)
	planned := b.EndDate
	b.PlannedEndDate = &planned
	assert.Equal(t, 2, b.RemainingMonths(now))

	exact := now.Add(60 * 24 * time.Hour)
	b.PlannedEndDate = &exact
	assert.Equal(t, 2, b.RemainingMonths(now))

	past := now.Add(-time.Hour)
	b.PlannedEndDate = &past
	assert.Equal(t, 0, b.RemainingMonths(now))

	b.PlannedEndDate = &planned
	b.RentalStartDate = nil
	assert.Equal(t, 0, b.RemainingMonths(now), "never started")

	svc := validBooking()
	svc.Service = ptrID()
	svc.DeriveType()
	svc.RentalStartDate = &started
	svc.EndDate = planned
	assert.Equal(t, 0, svc.RemainingMonths(now))
}

func TestCanRequestEarlyClosure(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	b := validBooking()
	b.Product = ptrID()
	b.DeriveType()
	b.RentalStatus = lifecycle.RentalActive
	b.RentalStartDate = &start

	assert.False(t, b.CanRequestEarlyClosure(start.Add(20*24*time.Hour)))
	assert.True(t, b.CanRequestEarlyClosure(start.Add(31*24*time.Hour)))
	assert.True(t, b.CanRequestEarlyClosure(AddMonths(start, 1)))

	b.EarlyClosureRequested = true
	assert.False(t, b.CanRequestEarlyClosure(start.Add(40*24*time.Hour)))

	b.EarlyClosureRequested = false
	b.RentalStatus = lifecycle.RentalPaused
	assert.False(t, b.CanRequestEarlyClosure(start.Add(40*24*time.Hour)))

	b.RentalStatus = lifecycle.RentalActive
	b.RentalStartDate = nil
	assert.False(t, b.CanRequestEarlyClosure(start.Add(40*24*time.Hour)))
}

func TestAddMonthsIsCalendarArithmetic(t *testing.T) {
	jan31 := time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC), AddMonths(jan31, 1))

	mar15 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), AddMonths(mar15, 12))
}

func TestCurrentEndDate(t *testing.T) {
	b := validBooking()
	assert.Equal(t, b.EndDate, b.CurrentEndDate())

	planned := b.EndDate.AddDate(0, 1, 0)
	b.PlannedEndDate = &planned
	assert.Equal(t, planned, b.CurrentEndDate())
}
