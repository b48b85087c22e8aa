// Package bookings is the generic booking CRUD shared by rental and service
// bookings, plus the websocket feed that relays rental events to clients.
package bookings

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/lifecycle"
	"makeeasy/models"
	"makeeasy/pricing"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	Insert(ctx context.Context, b *models.Booking) error
	Replace(ctx context.Context, id primitive.ObjectID, b *models.Booking) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.Booking, int64, error)
	Populate(ctx context.Context, bookings []models.Booking) error
}

type ProductStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type ServiceStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
}

type UserStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Service struct {
	bookings Store
	products ProductStore
	services ServiceStore
	users    UserStore

	Now func() time.Time
}

func NewService(bookings Store, products ProductStore, services ServiceStore, users UserStore) *Service {
	return &Service{bookings: bookings, products: products, services: services, users: users, Now: time.Now}
}

// List returns the caller's bookings, or every booking for an admin.
func (s *Service) List(ctx context.Context, caller utils.Caller) ([]models.Booking, error) {
	filter := bson.M{}
	if !caller.IsAdmin() {
		filter["user"] = caller.ID
	}
	list, _, err := s.bookings.Find(ctx, filter, repo.ListOptions{Sort: repo.NewestFirst})
	if err != nil {
		return nil, err
	}
	s.populateAll(ctx, list)
	return list, nil
}

func (s *Service) Get(ctx context.Context, caller utils.Caller, id string) (*models.Booking, error) {
	b, err := s.authorized(ctx, caller, id, "Not authorized to access this booking")
	if err != nil {
		return nil, err
	}
	s.populate(ctx, b)
	return b, nil
}

type CreateInput struct {
	Product       string  `json:"product"`
	Service       string  `json:"service"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	TotalAmount   float64 `json:"totalAmount"`
	CustomerName  string  `json:"customerName"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerPhone string  `json:"customerPhone"`
	Notes         string  `json:"notes"`

	// product bookings only
	SelectedCity   string `json:"selectedCity"`
	SelectedTenure int    `json:"selectedTenure"`
}

// Create books a product or a service. Exactly one must be referenced and it
// must be available; missing customer details are filled from the profile.
func (s *Service) Create(ctx context.Context, caller utils.Caller, in CreateInput) (*models.Booking, error) {
	now := s.Now()
	b := &models.Booking{
		ID:            primitive.NewObjectID(),
		User:          caller.ID,
		TotalAmount:   in.TotalAmount,
		PaymentStatus: models.PaymentPending,
		BookingStatus: models.BookingPending,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if d := utils.ParseDate(in.StartDate); d != nil {
		b.StartDate = *d
	}
	if d := utils.ParseDate(in.EndDate); d != nil {
		b.EndDate = *d
	}

	switch {
	case in.Product != "" && in.Service != "":
		return nil, apperr.BadRequest("Cannot book both product and service together")
	case in.Product != "":
		id, err := utils.ParseObjectID(in.Product)
		if err != nil {
			return nil, err
		}
		product, err := s.products.Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "Product not found")
		}
		if !product.Available {
			return nil, apperr.BadRequest("Product is not available for booking")
		}
		b.Product = &product.ID
		if err := applyRentalTerms(b, product, in); err != nil {
			return nil, err
		}
	case in.Service != "":
		id, err := utils.ParseObjectID(in.Service)
		if err != nil {
			return nil, err
		}
		service, err := s.services.Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "Service not found")
		}
		if !service.Available {
			return nil, apperr.BadRequest("Service is not available for booking")
		}
		b.Service = &service.ID
	default:
		return nil, apperr.BadRequest("Please provide either a product or service ID")
	}

	if b.CustomerName == "" || b.CustomerEmail == "" || b.CustomerPhone == "" {
		if user, err := s.users.Get(ctx, caller.ID); err == nil {
			fillCustomer(b, user)
		} else if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookings.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// applyRentalTerms fills the rental fields of a product booking. Without an
// explicit tenure the booked span is counted in 30-day months, at least one.
// A city, when given, must be priced for the product and freezes its rent,
// deposit and delivery charge.
func applyRentalTerms(b *models.Booking, product *models.Product, in CreateInput) error {
	tenure := in.SelectedTenure
	if tenure < 0 {
		return apperr.BadRequest("Tenure must be at least 1 month")
	}
	if tenure == 0 {
		tenure = spanMonths(b.StartDate, b.EndDate)
	}
	b.SelectedTenure = tenure
	b.RentalStatus = lifecycle.RentalPendingDelivery
	b.DeliveryStatus = lifecycle.DeliveryPending
	b.DepositStatus = models.DepositPending
	if !b.EndDate.IsZero() {
		end := b.EndDate
		b.PlannedEndDate = &end
	}

	city := strings.TrimSpace(in.SelectedCity)
	if city == "" {
		return nil
	}
	cp, err := pricing.ResolveCityPricing(product, city)
	if err != nil {
		return err
	}
	if err := pricing.CheckStock(cp); err != nil {
		return err
	}
	t, err := pricing.ResolveTenure(cp.Tenures, tenure)
	if err != nil {
		return err
	}
	b.SelectedCity = cp.City
	b.MonthlyRent = t.MonthlyRent
	b.DepositAmount = cp.Deposit
	b.DeliveryCharge = cp.DeliveryCharge
	return nil
}

func spanMonths(start, end time.Time) int {
	if start.IsZero() || !end.After(start) {
		return 1
	}
	days := end.Sub(start).Hours() / 24
	months := int(days / 30)
	if float64(months*30) < days {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

func fillCustomer(b *models.Booking, u *models.User) {
	if b.CustomerName == "" {
		b.CustomerName = u.Name
	}
	if b.CustomerEmail == "" {
		b.CustomerEmail = u.Email
	}
	if b.CustomerPhone == "" {
		b.CustomerPhone = u.Phone
	}
}

// UpdateInput is a partial update. Users may only change Notes; admins may
// change any field.
type UpdateInput struct {
	Notes         *string               `json:"notes"`
	StartDate     *string               `json:"startDate"`
	EndDate       *string               `json:"endDate"`
	TotalAmount   *float64              `json:"totalAmount"`
	PaymentStatus *models.PaymentStatus `json:"paymentStatus"`
	BookingStatus *models.BookingStatus `json:"bookingStatus"`
	CustomerName  *string               `json:"customerName"`
	CustomerEmail *string               `json:"customerEmail"`
	CustomerPhone *string               `json:"customerPhone"`
}

func (s *Service) Update(ctx context.Context, caller utils.Caller, id string, in UpdateInput) (*models.Booking, error) {
	b, err := s.authorized(ctx, caller, id, "Not authorized to update this booking")
	if err != nil {
		return nil, err
	}

	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if caller.IsAdmin() {
		applyAdmin(b, in)
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func applyAdmin(b *models.Booking, in UpdateInput) {
	if in.StartDate != nil {
		if d := utils.ParseDate(*in.StartDate); d != nil {
			b.StartDate = *d
		}
	}
	if in.EndDate != nil {
		if d := utils.ParseDate(*in.EndDate); d != nil {
			b.EndDate = *d
		}
	}
	if in.TotalAmount != nil {
		b.TotalAmount = *in.TotalAmount
	}
	if in.PaymentStatus != nil {
		b.PaymentStatus = *in.PaymentStatus
	}
	if in.BookingStatus != nil {
		b.BookingStatus = *in.BookingStatus
	}
	if in.CustomerName != nil {
		b.CustomerName = *in.CustomerName
	}
	if in.CustomerEmail != nil {
		b.CustomerEmail = *in.CustomerEmail
	}
	if in.CustomerPhone != nil {
		b.CustomerPhone = *in.CustomerPhone
	}
}

func (s *Service) Delete(ctx context.Context, caller utils.Caller, id string) error {
	b, err := s.authorized(ctx, caller, id, "Not authorized to delete this booking")
	if err != nil {
		return err
	}
	return s.bookings.Delete(ctx, b.ID)
}

// UpdatePaymentStatus sets the payment status. Admin only.
func (s *Service) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*models.Booking, error) {
	if status == "" {
		return nil, apperr.BadRequest("Please provide payment status")
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	b.PaymentStatus = status
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBookingStatus sets the booking status. Admin only.
func (s *Service) UpdateBookingStatus(ctx context.Context, id string, status models.BookingStatus) (*models.Booking, error) {
	if status == "" {
		return nil, apperr.BadRequest("Please provide booking status")
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	b.BookingStatus = status
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.Get(ctx, oid)
	if err != nil {
		return nil, notFound(err, "Booking not found")
	}
	return b, nil
}

func (s *Service) authorized(ctx context.Context, caller utils.Caller, id, denied string) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(caller.ID) && !caller.IsAdmin() {
		return nil, apperr.New(http.StatusForbidden, denied)
	}
	return b, nil
}

func (s *Service) save(ctx context.Context, b *models.Booking) error {
	b.UpdatedAt = s.Now()
	if err := b.Validate(); err != nil {
		return err
	}
	return s.bookings.Replace(ctx, b.ID, b)
}

func (s *Service) populate(ctx context.Context, b *models.Booking) {
	list := []models.Booking{*b}
	s.populateAll(ctx, list)
	*b = list[0]
}

func (s *Service) populateAll(ctx context.Context, list []models.Booking) {
	if err := s.bookings.Populate(ctx, list); err != nil {
		logrus.WithError(err).Warn("populate bookings failed")
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(http.StatusNotFound, msg)
	}
	return err
}
