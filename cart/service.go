// Package cart keeps one shopping cart per user. Lines reference exactly one
// product or service and carry the catalog price at the time they were added.
package cart

import (
	"context"
	"errors"
	"net/http"
	"time"

	"makeeasy/apperr"
	"makeeasy/models"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	ByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Insert(ctx context.Context, c *models.Cart) error
	Replace(ctx context.Context, id primitive.ObjectID, c *models.Cart) error
	Populate(ctx context.Context, c *models.Cart) error
}

type ProductStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type ServiceStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Service, error)
}

type Service struct {
	carts    Store
	products ProductStore
	services ServiceStore

	Now func() time.Time
}

func NewService(carts Store, products ProductStore, services ServiceStore) *Service {
	return &Service{carts: carts, products: products, services: services, Now: time.Now}
}

// Get returns the caller's cart, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, caller utils.Caller) (*models.Cart, error) {
	c, err := s.ensure(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, c)
	return c, nil
}

type AddInput struct {
	ProductID string `json:"productId"`
	ServiceID string `json:"serviceId"`
	Quantity  int    `json:"quantity"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Add puts a product or service in the cart. Adding something already in the
// cart increases its quantity and replaces any dates given.
func (s *Service) Add(ctx context.Context, caller utils.Caller, in AddInput) (*models.Cart, error) {
	if in.ProductID == "" && in.ServiceID == "" {
		return nil, apperr.BadRequest("Please provide productId or serviceId")
	}
	if in.ProductID != "" && in.ServiceID != "" {
		return nil, apperr.BadRequest("Cart items hold either a product or a service, not both")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, apperr.BadRequest("Quantity must be at least 1")
	}

	var (
		product, service *primitive.ObjectID
		price            float64
	)
	if in.ProductID != "" {
		id, err := utils.ParseObjectID(in.ProductID)
		if err != nil {
			return nil, err
		}
		p, err := s.products.Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "Product not found")
		}
		product, price = &p.ID, p.Price
	} else {
		id, err := utils.ParseObjectID(in.ServiceID)
		if err != nil {
			return nil, err
		}
		sv, err := s.services.Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "Service not found")
		}
		service, price = &sv.ID, sv.Price
	}

	c, err := s.ensure(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	start, end := utils.ParseDate(in.StartDate), utils.ParseDate(in.EndDate)
	if i := c.FindLine(product, service); i >= 0 {
		line := &c.Items[i]
		line.Quantity += in.Quantity
		if start != nil {
			line.StartDate = start
		}
		if end != nil {
			line.EndDate = end
		}
	} else {
		c.Items = append(c.Items, models.CartItem{
			ID:        primitive.NewObjectID(),
			Product:   product,
			Service:   service,
			Quantity:  in.Quantity,
			Price:     price,
			StartDate: start,
			EndDate:   end,
		})
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.populate(ctx, c)
	return c, nil
}

// UpdateItem sets the quantity of one line.
func (s *Service) UpdateItem(ctx context.Context, caller utils.Caller, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.BadRequest("Quantity must be at least 1")
	}
	c, err := s.existing(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, apperr.NotFound("Item not found in cart")
	}
	i := c.FindItem(id)
	if i < 0 {
		return nil, apperr.NotFound("Item not found in cart")
	}
	c.Items[i].Quantity = quantity

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.populate(ctx, c)
	return c, nil
}

// RemoveItem drops a line. Unknown lines are ignored.
func (s *Service) RemoveItem(ctx context.Context, caller utils.Caller, itemID string) (*models.Cart, error) {
	c, err := s.existing(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID.Hex() != itemID {
			kept = append(kept, it)
		}
	}
	c.Items = kept

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.populate(ctx, c)
	return c, nil
}

// Clear empties the cart. A user without a cart gets nil and no error.
func (s *Service) Clear(ctx context.Context, caller utils.Caller) (*models.Cart, error) {
	c, err := s.carts.ByUser(ctx, caller.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Items = []models.CartItem{}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ensure(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, err := s.carts.ByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	now := s.Now()
	c = &models.Cart{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Items:     []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) existing(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, err := s.carts.ByUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "Cart not found")
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Cart) error {
	c.Recalculate()
	c.UpdatedAt = s.Now()
	return s.carts.Replace(ctx, c.ID, c)
}

func (s *Service) populate(ctx context.Context, c *models.Cart) {
	if err := s.carts.Populate(ctx, c); err != nil {
		logrus.WithError(err).Warn("populate cart failed")
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.New(http.StatusNotFound, msg)
	}
	return err
}
