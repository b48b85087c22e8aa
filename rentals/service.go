// Package rentals runs the rental lifecycle: creation with city and tenure
// pricing, user pause/resume/extension/early-closure requests, and the admin
// delivery, pickup and extension-approval operations.
package rentals

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/globals"
	"makeeasy/lifecycle"
	"makeeasy/models"
	"makeeasy/pricing"
	"makeeasy/rdx"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	Insert(ctx context.Context, b *models.Booking) error
	Replace(ctx context.Context, id primitive.ObjectID, b *models.Booking) error
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.Booking, int64, error)
	Populate(ctx context.Context, bookings []models.Booking) error
}

type ProductStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type AddOnStore interface {
	ActiveByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.AddOn, error)
}

type UserStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, ev rdx.Event)
}

type Service struct {
	bookings BookingStore
	products ProductStore
	addOns   AddOnStore
	users    UserStore
	events   Publisher

	Now func() time.Time
}

func NewService(bookings BookingStore, products ProductStore, addOns AddOnStore, users UserStore, events Publisher) *Service {
	return &Service{
		bookings: bookings,
		products: products,
		addOns:   addOns,
		users:    users,
		events:   events,
		Now:      time.Now,
	}
}

type AddOnRef struct {
	AddOnID string `json:"addOnId"`
}

type CreateInput struct {
	ProductID        string          `json:"productId"`
	SelectedCity     string          `json:"selectedCity"`
	SelectedTenure   int             `json:"selectedTenure"`
	SelectedAddOns   []AddOnRef      `json:"selectedAddOns"`
	DeliveryAddress  *models.Address `json:"deliveryAddress"`
	DeliveryDate     string          `json:"deliveryDate"`
	DeliveryTimeSlot string          `json:"deliveryTimeSlot"`
}

// Create books a product for a tenure in a city. Pricing is resolved and
// frozen onto the booking; the caller must have verified KYC.
func (s *Service) Create(ctx context.Context, caller utils.Caller, in CreateInput) (*models.Booking, *pricing.Summary, error) {
	productID, err := utils.ParseObjectID(in.ProductID)
	if err != nil {
		return nil, nil, err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, nil, notFound(err, "Product not found")
	}

	cityPricing, err := pricing.ResolveCityPricing(product, in.SelectedCity)
	if err != nil {
		return nil, nil, err
	}
	if err := pricing.CheckStock(cityPricing); err != nil {
		return nil, nil, err
	}
	tenure, err := pricing.ResolveTenure(cityPricing.Tenures, in.SelectedTenure)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.Get(ctx, caller.ID)
	if err != nil {
		return nil, nil, notFound(err, "User not found")
	}
	if user.KYCStatus != models.KYCVerified {
		status := user.KYCStatus
		if status == "" {
			status = models.KYCNotSubmitted
		}
		return nil, nil, apperr.Forbidden("KYC verification required before renting").
			With("redirect", globals.KYCRedirect).
			With("kycStatus", status)
	}

	if in.DeliveryTimeSlot != "" && !globals.ValidTimeSlot(in.DeliveryTimeSlot) {
		return nil, nil, apperr.BadRequest("Invalid delivery time slot")
	}

	var addOns []models.SelectedAddOn
	if ids := addOnIDs(in.SelectedAddOns); len(ids) > 0 {
		found, err := s.addOns.ActiveByIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		addOns = pricing.Snapshot(found)
	}

	summary := pricing.QuoteRental(cityPricing, tenure, addOns)

	now := s.Now()
	plannedEnd := models.AddMonths(now, in.SelectedTenure)
	b := &models.Booking{
		ID:               primitive.NewObjectID(),
		User:             caller.ID,
		Product:          &product.ID,
		SelectedCity:     in.SelectedCity,
		SelectedTenure:   in.SelectedTenure,
		MonthlyRent:      tenure.MonthlyRent,
		DepositAmount:    cityPricing.Deposit,
		DepositStatus:    models.DepositPending,
		DeliveryCharge:   cityPricing.DeliveryCharge,
		DeliveryAddress:  in.DeliveryAddress,
		DeliveryDate:     utils.ParseDate(in.DeliveryDate),
		DeliveryTimeSlot: in.DeliveryTimeSlot,
		DeliveryStatus:   lifecycle.DeliveryPending,
		RentalStatus:     lifecycle.RentalPendingDelivery,
		SelectedAddOns:   addOns,
		StartDate:        now,
		EndDate:          plannedEnd,
		PlannedEndDate:   &plannedEnd,
		TotalAmount:      summary.Total,
		PaymentStatus:    models.PaymentPending,
		BookingStatus:    models.BookingPending,
		CustomerName:     user.Name,
		CustomerEmail:    user.Email,
		CustomerPhone:    user.Phone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.bookings.Insert(ctx, b); err != nil {
		return nil, nil, err
	}

	s.populate(ctx, b)
	s.publish(ctx, b, rdx.KindRental, "create", string(b.RentalStatus))
	return b, &summary, nil
}

func addOnIDs(refs []AddOnRef) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(refs))
	for _, ref := range refs {
		if id, err := primitive.ObjectIDFromHex(strings.TrimSpace(ref.AddOnID)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// ListMine returns the caller's rentals, newest first, optionally by status.
func (s *Service) ListMine(ctx context.Context, caller utils.Caller, status string) ([]models.Booking, error) {
	filter := bson.M{"user": caller.ID, "bookingType": models.BookingRental}
	if status != "" {
		filter["rentalStatus"] = status
	}
	list, _, err := s.bookings.Find(ctx, filter, repo.ListOptions{Sort: repo.NewestFirst})
	if err != nil {
		return nil, err
	}
	s.populateAll(ctx, list)
	return list, nil
}

// Get returns a rental visible to the caller with its remaining months.
func (s *Service) Get(ctx context.Context, caller utils.Caller, id string) (*models.Booking, int, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if !b.OwnedBy(caller.ID) && !caller.IsAdmin() {
		return nil, 0, apperr.Forbidden("Not authorized to access this rental")
	}
	s.populate(ctx, b)
	return b, b.RemainingMonths(s.Now()), nil
}

func (s *Service) Pause(ctx context.Context, caller utils.Caller, id string) (*models.Booking, error) {
	return s.userTransition(ctx, caller, id, lifecycle.RentalPause)
}

func (s *Service) Resume(ctx context.Context, caller utils.Caller, id string) (*models.Booking, error) {
	return s.userTransition(ctx, caller, id, lifecycle.RentalResume)
}

func (s *Service) userTransition(ctx context.Context, caller utils.Caller, id string, action lifecycle.Action) (*models.Booking, error) {
	b, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	next, err := b.RentalStatus.Transition(action)
	if err != nil {
		return nil, rejected(err)
	}
	b.RentalStatus = next
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b, rdx.KindRental, string(action), string(next))
	return b, nil
}

// RequestExtension appends a pending extension request. It is accepted in
// any status and leaves the rental's dates untouched until approval.
func (s *Service) RequestExtension(ctx context.Context, caller utils.Caller, id string, additionalMonths int) (*models.Booking, error) {
	if additionalMonths < 1 {
		return nil, apperr.BadRequest("Please specify valid number of months (minimum 1)")
	}
	b, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	b.ExtensionRequests = append(b.ExtensionRequests, models.ExtensionRequest{
		RequestedMonths: additionalMonths,
		RequestedAt:     now,
		Status:          models.ExtensionPending,
		NewEndDate:      models.AddMonths(b.CurrentEndDate(), additionalMonths),
	})
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b, rdx.KindRental, "request extension", string(b.RentalStatus))
	return b, nil
}

// Charges is the early-closure cost breakdown returned to the user.
type Charges struct {
	EarlyClosureCharge float64 `json:"earlyClosureCharge"`
	RemainingMonths    int     `json:"remainingMonths"`
	Note               string  `json:"note"`
}

func (s *Service) RequestEarlyClosure(ctx context.Context, caller utils.Caller, id string) (*models.Booking, *Charges, error) {
	b, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	if !b.CanRequestEarlyClosure(now) {
		return nil, nil, apperr.BadRequest("Early closure not allowed yet. Minimum tenure must be completed.")
	}
	next, err := b.RentalStatus.Transition(lifecycle.RentalEarlyClosure)
	if err != nil {
		return nil, nil, rejected(err)
	}

	var product *models.Product
	if b.Product != nil {
		if product, err = s.products.Get(ctx, *b.Product); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, nil, err
		}
	}

	charges := &Charges{
		EarlyClosureCharge: pricing.EarlyClosureCharge(product, b.MonthlyRent),
		RemainingMonths:    b.RemainingMonths(now),
		Note:               "Pickup will be scheduled within 2-3 business days",
	}
	b.EarlyClosureRequested = true
	b.EarlyClosureRequestDate = &now
	b.EarlyClosureCharge = charges.EarlyClosureCharge
	b.RentalStatus = next
	if err := s.save(ctx, b); err != nil {
		return nil, nil, err
	}
	s.publish(ctx, b, rdx.KindRental, string(lifecycle.RentalEarlyClosure), string(next))
	return b, charges, nil
}

type AdminFilter struct {
	Status string
	City   string
	Page   int
	Limit  int
}

// ListAll pages over every rental for administrators.
func (s *Service) ListAll(ctx context.Context, f AdminFilter) ([]models.Booking, int64, error) {
	filter := bson.M{"bookingType": models.BookingRental}
	if f.Status != "" {
		filter["rentalStatus"] = f.Status
	}
	if f.City != "" {
		filter["selectedCity"] = f.City
	}
	list, total, err := s.bookings.Find(ctx, filter, repo.ListOptions{Page: f.Page, Limit: f.Limit, Sort: repo.NewestFirst})
	if err != nil {
		return nil, 0, err
	}
	s.populateAll(ctx, list)
	return list, total, nil
}

type StatusUpdate struct {
	RentalStatus   lifecycle.RentalStatus   `json:"rentalStatus"`
	DeliveryStatus lifecycle.DeliveryStatus `json:"deliveryStatus"`
	Notes          string                   `json:"notes"`
}

// UpdateStatus sets the rental and delivery status directly. The first move
// to active stamps the rental start and billing anchor.
func (s *Service) UpdateStatus(ctx context.Context, id string, in StatusUpdate) (*models.Booking, error) {
	if in.RentalStatus != "" && !in.RentalStatus.Valid() {
		return nil, apperr.BadRequest("Invalid rental status: %s", in.RentalStatus)
	}
	if in.DeliveryStatus != "" && !in.DeliveryStatus.Valid() {
		return nil, apperr.BadRequest("Invalid delivery status: %s", in.DeliveryStatus)
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.RentalStatus != "" {
		b.RentalStatus = in.RentalStatus
		if in.RentalStatus == lifecycle.RentalActive && b.RentalStartDate == nil {
			now := s.Now()
			next := models.AddMonths(now, 1)
			b.RentalStartDate = &now
			b.BillingCycleStart = now.Day()
			b.NextBillingDate = &next
		}
	}
	if in.DeliveryStatus != "" {
		b.DeliveryStatus = in.DeliveryStatus
	}
	if in.Notes != "" {
		b.Notes = in.Notes
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b, rdx.KindRental, "update status", string(b.RentalStatus))
	return b, nil
}

type Schedule struct {
	Date     string
	TimeSlot string
}

func (sc Schedule) parse() (*time.Time, error) {
	date := utils.ParseDate(sc.Date)
	if date == nil || sc.TimeSlot == "" {
		return nil, apperr.BadRequest("Please provide both date and time slot")
	}
	if !globals.ValidTimeSlot(sc.TimeSlot) {
		return nil, apperr.BadRequest("Invalid time slot: %s", sc.TimeSlot)
	}
	return date, nil
}

// ScheduleDelivery books the delivery window and confirms the booking.
func (s *Service) ScheduleDelivery(ctx context.Context, id string, sc Schedule) (*models.Booking, error) {
	date, err := sc.parse()
	if err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	current := b.DeliveryStatus
	if current == "" {
		current = lifecycle.DeliveryPending
	}
	next, err := current.Transition(lifecycle.DeliverySchedule)
	if err != nil {
		return nil, rejected(err)
	}

	b.DeliveryDate = date
	b.DeliveryTimeSlot = sc.TimeSlot
	b.DeliveryStatus = next
	b.BookingStatus = models.BookingConfirmed
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b, rdx.KindDelivery, string(lifecycle.DeliverySchedule), string(next))
	return b, nil
}

// SchedulePickup books the pickup window and moves the rental to pending pickup.
func (s *Service) SchedulePickup(ctx context.Context, id string, sc Schedule) (*models.Booking, error) {
	date, err := sc.parse()
	if err != nil {
		return nil, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := b.RentalStatus.Transition(lifecycle.RentalSchedulePick)
	if err != nil {
		return nil, rejected(err)
	}

	b.PickupScheduledDate = date
	b.PickupTimeSlot = sc.TimeSlot
	b.RentalStatus = next
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b, rdx.KindRental, string(lifecycle.RentalSchedulePick), string(next))
	return b, nil
}

// ApproveExtension approves the extension request at index, moving the end
// dates to the request's new end date and growing the tenure.
func (s *Service) ApproveExtension(ctx context.Context, id string, index int) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(b.ExtensionRequests) {
		return nil, apperr.NotFound("Extension request not found")
	}
	req := &b.ExtensionRequests[index]
	if req.Status != models.ExtensionPending {
		return nil, apperr.BadRequest("Extension request already %s", req.Status)
	}
	next, err := b.RentalStatus.Transition(lifecycle.RentalExtend)
	if err != nil {
		return nil, rejected(err)
	}

	now := s.Now()
	newEnd := req.NewEndDate
	req.Status = models.ExtensionApproved
	req.ApprovedAt = &now
	b.PlannedEndDate = &newEnd
	b.EndDate = newEnd
	b.SelectedTenure += req.RequestedMonths
	b.RentalStatus = next
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	s.publish(ctx, b, rdx.KindRental, "approve extension", string(next))
	return b, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.Get(ctx, oid)
	if err != nil {
		return nil, notFound(err, "Rental not found")
	}
	if !b.IsRental() {
		return nil, apperr.NotFound("Rental not found")
	}
	return b, nil
}

func (s *Service) loadOwned(ctx context.Context, caller utils.Caller, id string) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(caller.ID) {
		return nil, apperr.Forbidden("Not authorized")
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
		logrus.WithError(err).Warn("populate rentals failed")
	}
}

func (s *Service) publish(ctx context.Context, b *models.Booking, kind, action, status string) {
	if s.events == nil {
		return
	}
	s.events.PublishEvent(ctx, rdx.Event{
		Booking: b.ID.Hex(),
		Kind:    kind,
		Action:  action,
		Status:  status,
		At:      s.Now(),
	})
}

func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(http.StatusNotFound, msg)
	}
	return err
}

func rejected(err error) error {
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		return apperr.New(http.StatusBadRequest, te.Error())
	}
	return err
}
