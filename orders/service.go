// Package orders checks out carts into orders, opens the matching gateway
// order and confirms payment from the gateway's signed callback.
package orders

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/models"
	"makeeasy/pay"
	"makeeasy/pricing"
	"makeeasy/rdx"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Insert(ctx context.Context, o *models.Order) error
	Replace(ctx context.Context, id primitive.ObjectID, o *models.Order) error
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.Order, int64, error)
	Populate(ctx context.Context, orders []models.Order) error
}

type BookingStore interface {
	Insert(ctx context.Context, b *models.Booking) error
	MarkOrderPaid(ctx context.Context, orderID primitive.ObjectID) (int64, error)
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

type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string)
}

type Publisher interface {
	PublishEvent(ctx context.Context, ev rdx.Event)
}

type Config struct {
	KeySecret string
	Currency  string
}

type Service struct {
	orders   OrderStore
	bookings BookingStore
	products ProductStore
	services ServiceStore
	users    UserStore
	gateway  pay.Gateway
	locks    Locker
	events   Publisher
	cfg      Config

	Now func() time.Time
}

func NewService(orders OrderStore, bookings BookingStore, products ProductStore, services ServiceStore, users UserStore,
	gateway pay.Gateway, locks Locker, events Publisher, cfg Config) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Service{
		orders:   orders,
		bookings: bookings,
		products: products,
		services: services,
		users:    users,
		gateway:  gateway,
		locks:    locks,
		events:   events,
		cfg:      cfg,
		Now:      time.Now,
	}
}

type ItemInput struct {
	ProductID string `json:"productId"`
	ServiceID string `json:"serviceId"`
	Quantity  int    `json:"quantity"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// CreateInput is the checkout request. A client-sent total is accepted and
// ignored; the total is always recomputed from catalog prices.
type CreateInput struct {
	Items           []ItemInput             `json:"items"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
	TotalAmount     float64                 `json:"totalAmount"`
}

// Created is the checkout result. GatewayOrder is nil for cash on delivery
// and when the gateway could not be reached.
type Created struct {
	Order        *models.Order
	GatewayOrder map[string]interface{}
}

// Create prices every line from the catalog, stores the order, books each
// service line and opens a gateway order for online payment.
func (s *Service) Create(ctx context.Context, caller utils.Caller, in CreateInput) (*Created, error) {
	if len(in.Items) == 0 {
		return nil, apperr.BadRequest("No items in order")
	}
	method := models.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod)))
	if method == "" {
		method = models.PayCard
	}
	if !method.Valid() {
		return nil, apperr.BadRequest("Invalid payment method: %s", in.PaymentMethod)
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for _, it := range in.Items {
		line, err := s.priceLine(ctx, it)
		if err != nil {
			return nil, err
		}
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, line)
	}

	now := s.Now()
	order := &models.Order{
		ID:              primitive.NewObjectID(),
		User:            caller.ID,
		Items:           items,
		TotalAmount:     total.InexactFloat64(),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentPending,
		OrderStatus:     models.OrderProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	bookings, err := s.serviceBookings(ctx, caller, order)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, err
	}
	for i := range bookings {
		if err := s.bookings.Insert(ctx, &bookings[i]); err != nil {
			return nil, err
		}
	}

	out := &Created{Order: order}
	if method != models.PayCOD && s.gateway != nil {
		gw, err := s.gateway.CreateOrder(ctx, pay.OrderRequest{
			Amount:   pricing.GatewayAmount(order.TotalAmount),
			Currency: s.cfg.Currency,
			Receipt:  order.ID.Hex(),
		})
		if err != nil {
			logrus.WithError(err).WithField("order", order.ID.Hex()).Error("gateway order creation failed")
		} else {
			out.GatewayOrder = gw
			if id, ok := gw["id"].(string); ok {
				order.GatewayOrderID = id
				if err := s.orders.Replace(ctx, order.ID, order); err != nil {
					logrus.WithError(err).WithField("order", order.ID.Hex()).Warn("recording gateway order id failed")
				}
			}
		}
	}
	return out, nil
}

func (s *Service) priceLine(ctx context.Context, it ItemInput) (models.OrderItem, error) {
	qty := it.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 1 {
		return models.OrderItem{}, apperr.BadRequest("Quantity must be at least 1")
	}
	line := models.OrderItem{
		Quantity:  qty,
		StartDate: utils.ParseDate(it.StartDate),
		EndDate:   utils.ParseDate(it.EndDate),
	}

	switch {
	case it.ProductID != "":
		id, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return line, apperr.NotFound("Product not found: %s", it.ProductID)
		}
		p, err := s.products.Get(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return line, apperr.NotFound("Product not found: %s", it.ProductID)
		}
		if err != nil {
			return line, err
		}
		line.Product, line.Price = &p.ID, p.Price
	case it.ServiceID != "":
		id, err := primitive.ObjectIDFromHex(it.ServiceID)
		if err != nil {
			return line, apperr.NotFound("Service not found: %s", it.ServiceID)
		}
		sv, err := s.services.Get(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return line, apperr.NotFound("Service not found: %s", it.ServiceID)
		}
		if err != nil {
			return line, err
		}
		line.Service, line.Price = &sv.ID, sv.Price
	default:
		return line, apperr.BadRequest("Each item needs a productId or serviceId")
	}
	return line, nil
}

// serviceBookings builds one pending booking per service line and links it
// back onto the line.
func (s *Service) serviceBookings(ctx context.Context, caller utils.Caller, order *models.Order) ([]models.Booking, error) {
	var user *models.User
	var out []models.Booking
	for i := range order.Items {
		line := &order.Items[i]
		if line.Service == nil {
			continue
		}
		if user == nil {
			u, err := s.users.Get(ctx, caller.ID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return nil, apperr.NotFound("User not found")
				}
				return nil, err
			}
			user = u
		}

		start := order.CreatedAt
		if line.StartDate != nil {
			start = *line.StartDate
		}
		end := order.CreatedAt.Add(24 * time.Hour)
		if line.EndDate != nil {
			end = *line.EndDate
		}
		phone := user.Phone
		if phone == "" {
			phone = "N/A"
		}
		amount := decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity)))

		b := models.Booking{
			ID:            primitive.NewObjectID(),
			User:          caller.ID,
			Order:         &order.ID,
			Service:       line.Service,
			StartDate:     start,
			EndDate:       end,
			TotalAmount:   amount.InexactFloat64(),
			PaymentStatus: models.PaymentPending,
			BookingStatus: models.BookingPending,
			CustomerName:  user.Name,
			CustomerEmail: user.Email,
			CustomerPhone: phone,
			CreatedAt:     order.CreatedAt,
			UpdatedAt:     order.CreatedAt,
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		line.BookingRef = &b.ID
		out = append(out, b)
	}
	return out, nil
}

// Verification is the gateway's checkout callback payload.
type Verification struct {
	GatewayOrderID string `json:"razorpay_order_id"`
	PaymentID      string `json:"razorpay_payment_id"`
	Signature      string `json:"razorpay_signature"`
	OrderID        string `json:"orderId"`
}

// VerifyPayment checks the gateway signature and, only when it matches,
// completes the order and every booking created from it.
func (s *Service) VerifyPayment(ctx context.Context, caller utils.Caller, v Verification) (*models.Order, error) {
	if !pay.VerifySignature(s.cfg.KeySecret, v.GatewayOrderID, v.PaymentID, v.Signature) {
		return nil, apperr.BadRequest("Invalid signature")
	}

	lockKey := "payment:" + v.OrderID
	if s.locks != nil {
		ok, err := s.locks.Lock(ctx, lockKey, 10*time.Second)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Conflict("Payment verification already in progress")
		}
		defer s.locks.Unlock(context.WithoutCancel(ctx), lockKey)
	}

	order, err := s.load(ctx, v.OrderID)
	if err != nil {
		return nil, err
	}
	if order.User != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Unauthorized("Not authorized to update this order")
	}
	if order.GatewayOrderID != "" && order.GatewayOrderID != v.GatewayOrderID {
		return nil, apperr.BadRequest("Payment does not belong to this order")
	}

	order.PaymentStatus = models.PaymentCompleted
	order.PaymentDetails = &models.PaymentDetails{
		GatewayOrderID: v.GatewayOrderID,
		PaymentID:      v.PaymentID,
		Signature:      v.Signature,
	}
	order.UpdatedAt = s.Now()
	if err := s.orders.Replace(ctx, order.ID, order); err != nil {
		return nil, err
	}
	if err := s.cascadePaid(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) cascadePaid(ctx context.Context, order *models.Order) error {
	n, err := s.bookings.MarkOrderPaid(ctx, order.ID)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"order": order.ID.Hex(), "bookings": n}).Info("order paid")
	if s.events != nil {
		for _, it := range order.Items {
			if it.BookingRef == nil {
				continue
			}
			s.events.PublishEvent(ctx, rdx.Event{
				Booking: it.BookingRef.Hex(),
				Kind:    rdx.KindPayment,
				Action:  "pay",
				Status:  string(models.PaymentCompleted),
				At:      s.Now(),
			})
		}
	}
	return nil
}

// List returns the caller's orders, or every order for an admin.
func (s *Service) List(ctx context.Context, caller utils.Caller) ([]models.Order, error) {
	filter := bson.M{}
	if !caller.IsAdmin() {
		filter["user"] = caller.ID
	}
	list, _, err := s.orders.Find(ctx, filter, repo.ListOptions{Sort: repo.NewestFirst})
	if err != nil {
		return nil, err
	}
	s.populate(ctx, list)
	return list, nil
}

func (s *Service) Get(ctx context.Context, caller utils.Caller, id string) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.User != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Unauthorized("Not authorized to view this order")
	}
	list := []models.Order{*order}
	s.populate(ctx, list)
	return &list[0], nil
}

// UpdateInput changes an order. Only admins may change statuses or the
// payment method; owners may correct the shipping address.
type UpdateInput struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   *models.PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   *models.PaymentStatus   `json:"paymentStatus"`
	OrderStatus     *models.OrderStatus     `json:"orderStatus"`
}

func (s *Service) Update(ctx context.Context, caller utils.Caller, id string, in UpdateInput) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.User != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Unauthorized("Not authorized to update this order")
	}

	if in.ShippingAddress != nil {
		order.ShippingAddress = in.ShippingAddress
	}
	paid := false
	if caller.IsAdmin() {
		if in.PaymentMethod != nil {
			m := models.PaymentMethod(strings.ToLower(string(*in.PaymentMethod)))
			if !m.Valid() {
				return nil, apperr.BadRequest("Invalid payment method: %s", *in.PaymentMethod)
			}
			order.PaymentMethod = m
		}
		if in.PaymentStatus != nil {
			if !in.PaymentStatus.Valid() {
				return nil, apperr.BadRequest("Invalid payment status: %s", *in.PaymentStatus)
			}
			order.PaymentStatus = *in.PaymentStatus
			paid = *in.PaymentStatus == models.PaymentCompleted
		}
		if in.OrderStatus != nil {
			if !in.OrderStatus.Valid() {
				return nil, apperr.BadRequest("Invalid order status: %s", *in.OrderStatus)
			}
			order.OrderStatus = *in.OrderStatus
		}
	}

	order.UpdatedAt = s.Now()
	if err := s.orders.Replace(ctx, order.ID, order); err != nil {
		return nil, err
	}
	if paid {
		if err := s.cascadePaid(ctx, order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Order, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.New(http.StatusNotFound, "Order not found")
	}
	return order, err
}

func (s *Service) populate(ctx context.Context, list []models.Order) {
	if err := s.orders.Populate(ctx, list); err != nil {
		logrus.WithError(err).Warn("populate orders failed")
	}
}
