// Package servicerequests handles maintenance, repair and relocation tickets
// raised against live rentals, from the renter's side and the admin's.
package servicerequests

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
	"makeeasy/rdx"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error)
	Insert(ctx context.Context, sr *models.ServiceRequest) error
	Replace(ctx context.Context, id primitive.ObjectID, sr *models.ServiceRequest) error
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.ServiceRequest, int64, error)
	Populate(ctx context.Context, list []models.ServiceRequest) error
	Stats(ctx context.Context) (*repo.RequestStats, error)
}

type BookingStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	AttachServiceRequest(ctx context.Context, bookingID, requestID primitive.ObjectID) error
}

type UserStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, ev rdx.Event)
}

type Service struct {
	requests RequestStore
	bookings BookingStore
	users    UserStore
	events   Publisher

	Now func() time.Time
}

func NewService(requests RequestStore, bookings BookingStore, users UserStore, events Publisher) *Service {
	return &Service{
		requests: requests,
		bookings: bookings,
		users:    users,
		events:   events,
		Now:      time.Now,
	}
}

type CreateInput struct {
	BookingID   string   `json:"bookingId"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Images      []string `json:"-"`
}

// Create opens a request against one of the caller's live rentals and links
// it back onto the booking.
func (s *Service) Create(ctx context.Context, caller utils.Caller, in CreateInput) (*models.ServiceRequest, error) {
	bookingID, err := utils.ParseObjectID(in.BookingID)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, "Booking not found")
	}
	if !b.OwnedBy(caller.ID) {
		return nil, apperr.Forbidden("Not authorized to create service request for this booking")
	}
	if !b.RentalStatus.AllowsServiceRequests() {
		return nil, apperr.BadRequest("Service requests can only be created for active rentals")
	}

	priority := in.Priority
	if priority == "" {
		priority = "medium"
	}
	now := s.Now()
	sr := &models.ServiceRequest{
		ID:          primitive.NewObjectID(),
		User:        caller.ID,
		Booking:     b.ID,
		Product:     b.Product,
		Type:        in.Type,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Images:      in.Images,
		Priority:    priority,
		Status:      lifecycle.RequestOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := sr.Validate(); err != nil {
		return nil, err
	}
	if err := s.requests.Insert(ctx, sr); err != nil {
		return nil, err
	}
	if err := s.bookings.AttachServiceRequest(ctx, b.ID, sr.ID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"booking": b.ID.Hex(),
			"request": sr.ID.Hex(),
		}).Error("attach service request to booking failed")
		return nil, err
	}

	s.populate(ctx, sr)
	s.publish(ctx, sr, "create")
	return sr, nil
}

type Filter struct {
	Status   string
	Type     string
	Priority string
	Page     int
	Limit    int
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	return q
}

// ListMine returns the caller's requests, newest first.
func (s *Service) ListMine(ctx context.Context, caller utils.Caller, f Filter) ([]models.ServiceRequest, error) {
	q := f.query()
	delete(q, "priority")
	q["user"] = caller.ID
	list, _, err := s.requests.Find(ctx, q, repo.ListOptions{Sort: repo.NewestFirst})
	if err != nil {
		return nil, err
	}
	s.populateAll(ctx, list)
	return list, nil
}

func (s *Service) Get(ctx context.Context, caller utils.Caller, id string) (*models.ServiceRequest, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sr.OwnedBy(caller.ID) && !caller.IsAdmin() {
		return nil, apperr.Forbidden("Not authorized to access this service request")
	}
	s.populate(ctx, sr)
	return sr, nil
}

type UpdateInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Images      []string `json:"-"`
}

// Update edits an open request; new images are appended.
func (s *Service) Update(ctx context.Context, caller utils.Caller, id string, in UpdateInput) (*models.ServiceRequest, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sr.OwnedBy(caller.ID) {
		return nil, apperr.Forbidden("Not authorized to update this service request")
	}
	if sr.Status != lifecycle.RequestOpen {
		return nil, apperr.BadRequest("Can only update open service requests")
	}

	if in.Title != "" {
		sr.Title = strings.TrimSpace(in.Title)
	}
	if in.Description != "" {
		sr.Description = strings.TrimSpace(in.Description)
	}
	if in.Priority != "" {
		sr.Priority = in.Priority
	}
	sr.Images = append(sr.Images, in.Images...)
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

func (s *Service) Cancel(ctx context.Context, caller utils.Caller, id string) (*models.ServiceRequest, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sr.OwnedBy(caller.ID) {
		return nil, apperr.Forbidden("Not authorized to cancel this service request")
	}
	if err := s.transition(sr, lifecycle.RequestCancel); err != nil {
		return nil, err
	}
	now := s.Now()
	sr.ClosedAt = &now
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	s.publish(ctx, sr, string(lifecycle.RequestCancel))
	return sr, nil
}

type Rating struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Rate records the owner's feedback on a resolved request.
func (s *Service) Rate(ctx context.Context, caller utils.Caller, id string, in Rating) (*models.ServiceRequest, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.BadRequest("Please provide a valid rating (1-5)")
	}
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sr.OwnedBy(caller.ID) {
		return nil, apperr.Forbidden("Not authorized")
	}
	if err := s.transition(sr, lifecycle.RequestRate); err != nil {
		return nil, err
	}
	sr.Rating = in.Rating
	sr.Feedback = strings.TrimSpace(in.Feedback)
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}

// ListAll pages over every request for administrators.
func (s *Service) ListAll(ctx context.Context, f Filter) ([]models.ServiceRequest, int64, error) {
	list, total, err := s.requests.Find(ctx, f.query(), repo.ListOptions{Page: f.Page, Limit: f.Limit, Sort: repo.NewestFirst})
	if err != nil {
		return nil, 0, err
	}
	s.populateAll(ctx, list)
	return list, total, nil
}

func (s *Service) Stats(ctx context.Context) (*repo.RequestStats, error) {
	return s.requests.Stats(ctx)
}

// Assign hands the request to an existing user.
func (s *Service) Assign(ctx context.Context, id, assignee string) (*models.ServiceRequest, error) {
	if strings.TrimSpace(assignee) == "" {
		return nil, apperr.BadRequest("Please provide user ID to assign")
	}
	assigneeID, err := utils.ParseObjectID(assignee)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Get(ctx, assigneeID); err != nil {
		return nil, notFound(err, "Assignee not found")
	}
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(sr, lifecycle.RequestAssign); err != nil {
		return nil, err
	}
	now := s.Now()
	sr.AssignedTo = &assigneeID
	sr.AssignedAt = &now
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	s.populate(ctx, sr)
	s.publish(ctx, sr, string(lifecycle.RequestAssign))
	return sr, nil
}

type Visit struct {
	ScheduledDate     string `json:"scheduledDate"`
	ScheduledTimeSlot string `json:"scheduledTimeSlot"`
}

// ScheduleVisit books a technician window and moves the request in progress.
func (s *Service) ScheduleVisit(ctx context.Context, id string, v Visit) (*models.ServiceRequest, error) {
	date := utils.ParseDate(v.ScheduledDate)
	if date == nil || v.ScheduledTimeSlot == "" {
		return nil, apperr.BadRequest("Please provide both date and time slot")
	}
	if !globals.ValidTimeSlot(v.ScheduledTimeSlot) {
		return nil, apperr.BadRequest("Invalid time slot: %s", v.ScheduledTimeSlot)
	}
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(sr, lifecycle.RequestScheduleVisit); err != nil {
		return nil, err
	}
	sr.ScheduledDate = date
	sr.ScheduledTimeSlot = v.ScheduledTimeSlot
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	s.publish(ctx, sr, "schedule visit")
	return sr, nil
}

func (s *Service) MarkInProgress(ctx context.Context, id string) (*models.ServiceRequest, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(sr, lifecycle.RequestStart); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	s.publish(ctx, sr, string(lifecycle.RequestStart))
	return sr, nil
}

func (s *Service) Resolve(ctx context.Context, id, resolution string) (*models.ServiceRequest, error) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, apperr.BadRequest("Please provide resolution details")
	}
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(sr, lifecycle.RequestResolve); err != nil {
		return nil, err
	}
	now := s.Now()
	sr.Resolution = resolution
	sr.ResolvedAt = &now
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	s.populate(ctx, sr)
	s.publish(ctx, sr, string(lifecycle.RequestResolve))
	return sr, nil
}

func (s *Service) Close(ctx context.Context, id string) (*models.ServiceRequest, error) {
	sr, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(sr, lifecycle.RequestClose); err != nil {
		return nil, err
	}
	now := s.Now()
	sr.ClosedAt = &now
	if err := s.save(ctx, sr); err != nil {
		return nil, err
	}
	s.publish(ctx, sr, string(lifecycle.RequestClose))
	return sr, nil
}

func (s *Service) transition(sr *models.ServiceRequest, action lifecycle.Action) error {
	next, err := sr.Status.Transition(action)
	if err != nil {
		var te *lifecycle.TransitionError
		if errors.As(err, &te) {
			return apperr.New(http.StatusBadRequest, te.Error())
		}
		return err
	}
	sr.Status = next
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*models.ServiceRequest, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	sr, err := s.requests.Get(ctx, oid)
	if err != nil {
		return nil, notFound(err, "Service request not found")
	}
	return sr, nil
}

func (s *Service) save(ctx context.Context, sr *models.ServiceRequest) error {
	sr.UpdatedAt = s.Now()
	if err := sr.Validate(); err != nil {
		return err
	}
	return s.requests.Replace(ctx, sr.ID, sr)
}

func (s *Service) populate(ctx context.Context, sr *models.ServiceRequest) {
	list := []models.ServiceRequest{*sr}
	s.populateAll(ctx, list)
	*sr = list[0]
}

func (s *Service) populateAll(ctx context.Context, list []models.ServiceRequest) {
	if err := s.requests.Populate(ctx, list); err != nil {
		logrus.WithError(err).Warn("populate service requests failed")
	}
}

func (s *Service) publish(ctx context.Context, sr *models.ServiceRequest, action string) {
	if s.events == nil {
		return
	}
	s.events.PublishEvent(ctx, rdx.Event{
		Booking: sr.Booking.Hex(),
		Kind:    rdx.KindServiceRequest,
		Action:  action,
		Status:  string(sr.Status),
		Request: sr.ID.Hex(),
		At:      s.Now(),
	})
}

func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(http.StatusNotFound, msg)
	}
	return err
}
