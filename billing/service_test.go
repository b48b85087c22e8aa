package billing

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"makeeasy/apperr"
	"makeeasy/globals"
	"makeeasy/lifecycle"
	"makeeasy/models"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	globals.JwtSecret = []byte("test-secret")
}

type memBills struct {
	docs        map[primitive.ObjectID]models.MonthlyBilling
	lastFind    bson.M
	overdueAt   time.Time
	overdueHits int64
}

func newMemBills() *memBills {
	return &memBills{docs: map[primitive.ObjectID]models.MonthlyBilling{}}
}

func (m *memBills) Get(_ context.Context, id primitive.ObjectID) (*models.MonthlyBilling, error) {
	b, ok := m.docs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &b, nil
}

func (m *memBills) Count(_ context.Context, filter bson.M) (int64, error) {
	var n int64
	for _, b := range m.docs {
		if b.Booking == filter["booking"] &&
			b.BillingPeriod.Month == filter["billingPeriod.month"] &&
			b.BillingPeriod.Year == filter["billingPeriod.year"] {
			n++
		}
	}
	return n, nil
}

func (m *memBills) Insert(_ context.Context, b *models.MonthlyBilling) error {
	m.docs[b.ID] = *b
	return nil
}

func (m *memBills) Replace(_ context.Context, id primitive.ObjectID, b *models.MonthlyBilling) error {
	if _, ok := m.docs[id]; !ok {
		return repo.ErrNotFound
	}
	m.docs[id] = *b
	return nil
}

func (m *memBills) Find(_ context.Context, filter bson.M, _ repo.ListOptions) ([]models.MonthlyBilling, int64, error) {
	m.lastFind = filter
	out := []models.MonthlyBilling{}
	for _, b := range m.docs {
		if user, ok := filter["user"]; ok && b.User != user {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (m *memBills) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	m.overdueAt = now
	return m.overdueHits, nil
}

type MockBookings struct{ mock.Mock }

func (m *MockBookings) Get(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

var clock = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func newService() (*Service, *memBills, *MockBookings) {
	bills := newMemBills()
	bookings := new(MockBookings)
	svc := NewService(bills, bookings, 7)
	svc.Now = func() time.Time { return clock }
	return svc, bills, bookings
}

func startedRental() *models.Booking {
	start := clock.AddDate(0, -1, 0)
	return &models.Booking{
		ID:                primitive.NewObjectID(),
		User:              primitive.NewObjectID(),
		BookingType:       models.BookingRental,
		MonthlyRent:       1000,
		RentalStatus:      lifecycle.RentalActive,
		RentalStartDate:   &start,
		BillingCycleStart: 5,
		CustomerName:      "Asha",
		CustomerEmail:     "asha@example.com",
		SelectedAddOns: []models.SelectedAddOn{
			{AddOn: primitive.NewObjectID(), Name: "Damage protection", MonthlyCharge: 200},
			{AddOn: primitive.NewObjectID(), Name: "Installation", OneTimeCharge: 500},
		},
	}
}

func requireStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, msg, appErr.Message)
}

func TestGenerateBill(t *testing.T) {
	svc, bills, bookings := newService()
	rental := startedRental()
	bookings.On("Get", mock.Anything, rental.ID).Return(rental, nil)

	bill, err := svc.Generate(context.Background(), GenerateInput{BookingID: rental.ID.Hex(), Month: 4, Year: 2025, LateFee: 50})
	require.NoError(t, err)

	assert.Equal(t, rental.User, bill.User)
	assert.Equal(t, 1000.0, bill.RentalAmount)
	assert.Len(t, bill.AddOns, 1)
	assert.Equal(t, 200.0, bill.AddOnTotal)
	assert.Equal(t, 216.0, bill.GST)
	assert.Equal(t, 1466.0, bill.TotalAmount)
	assert.Equal(t, models.BillPending, bill.PaymentStatus)
	assert.Equal(t, time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC), bill.DueDate)
	assert.Contains(t, bills.docs, bill.ID)
	assert.Nil(t, rental.NextBillingDate)

	_, err = svc.Generate(context.Background(), GenerateInput{BookingID: rental.ID.Hex(), Month: 4, Year: 2025})
	requireStatus(t, err, http.StatusConflict, "Bill already generated for 04/2025")
}

func TestGenerateBillRejects(t *testing.T) {
	svc, _, bookings := newService()
	ctx := context.Background()

	_, err := svc.Generate(ctx, GenerateInput{BookingID: primitive.NewObjectID().Hex(), Month: 13, Year: 2025})
	requireStatus(t, err, http.StatusBadRequest, "Please provide a valid billing month")

	notStarted := startedRental()
	notStarted.RentalStartDate = nil
	bookings.On("Get", mock.Anything, notStarted.ID).Return(notStarted, nil)
	_, err = svc.Generate(ctx, GenerateInput{BookingID: notStarted.ID.Hex(), Month: 4, Year: 2025})
	requireStatus(t, err, http.StatusBadRequest, "Rental has not started yet")

	service := &models.Booking{ID: primitive.NewObjectID(), BookingType: models.BookingService}
	bookings.On("Get", mock.Anything, service.ID).Return(service, nil)
	_, err = svc.Generate(ctx, GenerateInput{BookingID: service.ID.Hex(), Month: 4, Year: 2025})
	requireStatus(t, err, http.StatusNotFound, "Rental not found")

	closed := startedRental()
	closed.RentalStatus = lifecycle.RentalClosed
	bookings.On("Get", mock.Anything, closed.ID).Return(closed, nil)
	_, err = svc.Generate(ctx, GenerateInput{BookingID: closed.ID.Hex(), Month: 4, Year: 2025})
	requireStatus(t, err, http.StatusBadRequest, "Cannot bill a closed rental")

	missing := primitive.NewObjectID()
	bookings.On("Get", mock.Anything, missing).Return(nil, repo.ErrNotFound)
	_, err = svc.Generate(ctx, GenerateInput{BookingID: missing.Hex(), Month: 4, Year: 2025})
	requireStatus(t, err, http.StatusNotFound, "Rental not found")
}

func seedBill(bills *memBills, user primitive.ObjectID, status models.BillStatus) *models.MonthlyBilling {
	b := &models.MonthlyBilling{
		ID:            primitive.NewObjectID(),
		User:          user,
		Booking:       primitive.NewObjectID(),
		BillingPeriod: models.BillingPeriod{Month: 3, Year: 2025},
		RentalAmount:  1000,
		GST:           180,
		TotalAmount:   1180,
		DueDate:       clock.AddDate(0, 0, -3),
		PaymentStatus: status,
	}
	bills.docs[b.ID] = *b
	return b
}

func TestGetBillOwnership(t *testing.T) {
	svc, bills, _ := newService()
	owner := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}
	bill := seedBill(bills, owner.ID, models.BillPending)
	ctx := context.Background()

	got, err := svc.Get(ctx, owner, bill.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, bill.ID, got.ID)

	_, err = svc.Get(ctx, utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}, bill.ID.Hex())
	requireStatus(t, err, http.StatusForbidden, "Not authorized to access this bill")

	_, err = svc.Get(ctx, utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleAdmin}, bill.ID.Hex())
	assert.NoError(t, err)

	_, err = svc.Get(ctx, owner, primitive.NewObjectID().Hex())
	requireStatus(t, err, http.StatusNotFound, "Bill not found")
}

func TestListMineScopesToCaller(t *testing.T) {
	svc, bills, _ := newService()
	me := utils.Caller{ID: primitive.NewObjectID()}
	seedBill(bills, me.ID, models.BillPending)
	seedBill(bills, primitive.NewObjectID(), models.BillPending)

	list, total, err := svc.ListMine(context.Background(), me, Filter{User: primitive.NewObjectID().Hex(), Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, me.ID, bills.lastFind["user"])
	assert.Equal(t, "pending", bills.lastFind["paymentStatus"])
}

func TestMarkPaid(t *testing.T) {
	svc, bills, _ := newService()
	bill := seedBill(bills, primitive.NewObjectID(), models.BillOverdue)
	ctx := context.Background()

	_, err := svc.MarkPaid(ctx, bill.ID.Hex(), Payment{PaymentMethod: "cash"})
	requireStatus(t, err, http.StatusBadRequest, "Invalid payment method")

	got, err := svc.MarkPaid(ctx, bill.ID.Hex(), Payment{PaymentMethod: "upi", TransactionID: "txn_1"})
	require.NoError(t, err)
	assert.Equal(t, models.BillPaid, got.PaymentStatus)
	require.NotNil(t, got.PaidDate)
	assert.Equal(t, clock, *got.PaidDate)
	assert.Equal(t, "txn_1", bills.docs[bill.ID].TransactionID)

	_, err = svc.MarkPaid(ctx, bill.ID.Hex(), Payment{PaymentMethod: "upi"})
	requireStatus(t, err, http.StatusBadRequest, "Bill is already paid")

	_, err = svc.Waive(ctx, bill.ID.Hex(), "goodwill")
	requireStatus(t, err, http.StatusBadRequest, "Bill is already paid")
}

func TestWaive(t *testing.T) {
	svc, bills, _ := newService()
	bill := seedBill(bills, primitive.NewObjectID(), models.BillPending)

	got, err := svc.Waive(context.Background(), bill.ID.Hex(), "goodwill")
	require.NoError(t, err)
	assert.Equal(t, models.BillWaived, got.PaymentStatus)
	assert.Equal(t, "goodwill", got.Notes)
}

func TestSweepOverdueUsesClock(t *testing.T) {
	svc, bills, _ := newService()
	bills.overdueHits = 3

	n, err := svc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, clock, bills.overdueAt)
}

func TestInvoiceRendersPDF(t *testing.T) {
	svc, bills, bookings := newService()
	rental := startedRental()
	owner := utils.Caller{ID: rental.User}
	bill := seedBill(bills, owner.ID, models.BillPending)
	bill.Booking = rental.ID
	bills.docs[bill.ID] = *bill
	bookings.On("Get", mock.Anything, rental.ID).Return(rental, nil)

	got, pdf, err := svc.Invoice(context.Background(), owner, bill.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, bill.ID, got.ID)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestInvoiceWithoutBooking(t *testing.T) {
	bill := &models.MonthlyBilling{ID: primitive.NewObjectID(), BillingPeriod: models.BillingPeriod{Month: 1, Year: 2025}, TotalAmount: 1180}
	pdf, err := RenderInvoice(bill, nil, clock)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestInvoiceRefIsSigned(t *testing.T) {
	bill := &models.MonthlyBilling{ID: primitive.NewObjectID(), BillingPeriod: models.BillingPeriod{Month: 3, Year: 2025}, TotalAmount: 1180}
	ref := InvoiceRef(bill)

	parts := strings.Split(ref, "|")
	require.Len(t, parts, 4)
	assert.Equal(t, bill.ID.Hex(), parts[0])
	assert.Equal(t, "03-2025", parts[1])
	assert.Equal(t, "1180.00", parts[2])
	assert.Equal(t, ref, InvoiceRef(bill))

	bill.TotalAmount = 1181
	assert.NotEqual(t, parts[3], strings.Split(InvoiceRef(bill), "|")[3])
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	svc, _, _ := newService()
	_, err := NewScheduler(svc, "every now and then")
	assert.Error(t, err)

	s, err := NewScheduler(svc, "@hourly")
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
