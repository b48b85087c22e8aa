// Package billing raises monthly bills for running rentals, settles them and
// renders invoices. A cron job flags unpaid bills once they fall due.
package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"makeeasy/apperr"
	"makeeasy/lifecycle"
	"makeeasy/models"
	"makeeasy/pricing"
	"makeeasy/repo"
	"makeeasy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BillStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.MonthlyBilling, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	Insert(ctx context.Context, b *models.MonthlyBilling) error
	Replace(ctx context.Context, id primitive.ObjectID, b *models.MonthlyBilling) error
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.MonthlyBilling, int64, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

type BookingStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
}

type Service struct {
	bills    BillStore
	bookings BookingStore
	DueDays  int

	Now func() time.Time
}

func NewService(bills BillStore, bookings BookingStore, dueDays int) *Service {
	if dueDays <= 0 {
		dueDays = 7
	}
	return &Service{bills: bills, bookings: bookings, DueDays: dueDays, Now: time.Now}
}

type GenerateInput struct {
	BookingID string  `json:"bookingId"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	LateFee   float64 `json:"lateFee"`
	Notes     string  `json:"notes"`
}

// Generate raises the bill for one month of a started rental. Prices come
// from the rental's frozen rent and add-on snapshots.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*models.MonthlyBilling, error) {
	if in.Month < 1 || in.Month > 12 {
		return nil, apperr.BadRequest("Please provide a valid billing month")
	}
	if in.Year < 2000 {
		return nil, apperr.BadRequest("Please provide a valid billing year")
	}
	if in.LateFee < 0 {
		return nil, apperr.BadRequest("Late fee cannot be negative")
	}
	id, err := utils.ParseObjectID(in.BookingID)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !b.IsRental()) {
		return nil, apperr.New(http.StatusNotFound, "Rental not found")
	}
	if err != nil {
		return nil, err
	}
	if b.RentalStartDate == nil {
		return nil, apperr.BadRequest("Rental has not started yet")
	}
	if b.RentalStatus == lifecycle.RentalClosed {
		return nil, apperr.BadRequest("Cannot bill a closed rental")
	}

	n, err := s.bills.Count(ctx, bson.M{
		"booking":             b.ID,
		"billingPeriod.month": in.Month,
		"billingPeriod.year":  in.Year,
	})
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperr.Conflict("Bill already generated for %02d/%d", in.Month, in.Year)
	}

	day := b.BillingCycleStart
	if day < 1 || day > 28 {
		day = 1
	}
	periodStart := time.Date(in.Year, time.Month(in.Month), day, 0, 0, 0, 0, time.UTC)
	amounts := pricing.BillMonth(b, in.LateFee)
	now := s.Now()
	bill := &models.MonthlyBilling{
		ID:            primitive.NewObjectID(),
		User:          b.User,
		Booking:       b.ID,
		Product:       b.Product,
		BillingPeriod: models.BillingPeriod{Month: in.Month, Year: in.Year},
		RentalAmount:  amounts.RentalAmount,
		AddOns:        amounts.AddOns,
		AddOnTotal:    amounts.AddOnTotal,
		GST:           amounts.GST,
		LateFee:       amounts.LateFee,
		TotalAmount:   amounts.Total,
		DueDate:       periodStart.AddDate(0, 0, s.DueDays),
		PaymentStatus: models.BillPending,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.bills.Insert(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// Filter narrows a bill listing.
type Filter struct {
	Status  string
	User    string
	Booking string
	Page    int
	Limit   int
}

func (f Filter) query() (bson.M, error) {
	q := bson.M{}
	if f.Status != "" {
		q["paymentStatus"] = f.Status
	}
	if f.Booking != "" {
		id, err := utils.ParseObjectID(f.Booking)
		if err != nil {
			return nil, err
		}
		q["booking"] = id
	}
	if f.User != "" {
		id, err := utils.ParseObjectID(f.User)
		if err != nil {
			return nil, err
		}
		q["user"] = id
	}
	return q, nil
}

var billOrder = bson.D{
	{Key: "billingPeriod.year", Value: -1},
	{Key: "billingPeriod.month", Value: -1},
	{Key: "createdAt", Value: -1},
}

// ListMine lists the caller's bills, newest period first.
func (s *Service) ListMine(ctx context.Context, caller utils.Caller, f Filter) ([]models.MonthlyBilling, int64, error) {
	f.User = ""
	q, err := f.query()
	if err != nil {
		return nil, 0, err
	}
	q["user"] = caller.ID
	return s.bills.Find(ctx, q, repo.ListOptions{Page: f.Page, Limit: f.Limit, Sort: billOrder})
}

func (s *Service) ListAll(ctx context.Context, f Filter) ([]models.MonthlyBilling, int64, error) {
	q, err := f.query()
	if err != nil {
		return nil, 0, err
	}
	return s.bills.Find(ctx, q, repo.ListOptions{Page: f.Page, Limit: f.Limit, Sort: billOrder})
}

// Get returns a bill to its owner or an admin.
func (s *Service) Get(ctx context.Context, caller utils.Caller, id string) (*models.MonthlyBilling, error) {
	bill, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.User != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Forbidden("Not authorized to access this bill")
	}
	return bill, nil
}

type Payment struct {
	PaymentMethod string `json:"paymentMethod"`
	TransactionID string `json:"transactionId"`
}

// MarkPaid settles a pending or overdue bill.
func (s *Service) MarkPaid(ctx context.Context, id string, p Payment) (*models.MonthlyBilling, error) {
	if !models.ValidBillPaymentMethod(p.PaymentMethod) {
		return nil, apperr.BadRequest("Invalid payment method")
	}
	bill, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := settleable(bill); err != nil {
		return nil, err
	}
	now := s.Now()
	bill.PaymentStatus = models.BillPaid
	bill.PaidDate = &now
	bill.PaymentMethod = p.PaymentMethod
	bill.TransactionID = p.TransactionID
	if err := s.save(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// Waive writes a bill off without payment.
func (s *Service) Waive(ctx context.Context, id, notes string) (*models.MonthlyBilling, error) {
	bill, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := settleable(bill); err != nil {
		return nil, err
	}
	bill.PaymentStatus = models.BillWaived
	if notes != "" {
		bill.Notes = notes
	}
	if err := s.save(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

func settleable(bill *models.MonthlyBilling) error {
	switch bill.PaymentStatus {
	case models.BillPaid, models.BillWaived:
		return apperr.New(http.StatusBadRequest, fmt.Sprintf("Bill is already %s", bill.PaymentStatus))
	}
	return nil
}

// SweepOverdue flags every pending bill past its due date.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	return s.bills.MarkOverdue(ctx, s.Now())
}

// Invoice renders the bill as a PDF for its owner or an admin.
func (s *Service) Invoice(ctx context.Context, caller utils.Caller, id string) (*models.MonthlyBilling, []byte, error) {
	bill, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	var rental *models.Booking
	if b, err := s.bookings.Get(ctx, bill.Booking); err == nil {
		rental = b
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, nil, err
	}
	pdf, err := RenderInvoice(bill, rental, s.Now())
	if err != nil {
		return nil, nil, err
	}
	return bill, pdf, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.MonthlyBilling, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	bill, err := s.bills.Get(ctx, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.New(http.StatusNotFound, "Bill not found")
	}
	return bill, err
}

func (s *Service) save(ctx context.Context, bill *models.MonthlyBilling) error {
	bill.UpdatedAt = s.Now()
	return s.bills.Replace(ctx, bill.ID, bill)
}
