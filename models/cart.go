package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem references exactly one product or service.
type CartItem struct {
	ID        primitive.ObjectID  `bson:"_id" json:"_id"`
	Product   *primitive.ObjectID `bson:"product,omitempty" json:"product,omitempty"`
	Service   *primitive.ObjectID `bson:"service,omitempty" json:"service,omitempty"`
	Quantity  int                 `bson:"quantity" json:"quantity"`
	Price     float64             `bson:"price" json:"price"`
	StartDate *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`

	ProductInfo *ProductSummary `bson:"-" json:"productInfo,omitempty"`
	ServiceInfo *ServiceSummary `bson:"-" json:"serviceInfo,omitempty"`
}

// Cart is the single shopping cart a user owns.
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User        primitive.ObjectID `bson:"user" json:"user"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Recalculate sets TotalAmount to the sum of price x quantity over all items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.TotalAmount = total.InexactFloat64()
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cart) FindItem(id primitive.ObjectID) int {
	for i, it := range c.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line for a product or service, or -1.
func (c *Cart) FindLine(product, service *primitive.ObjectID) int {
	for i, it := range c.Items {
		if product != nil && it.Product != nil && *it.Product == *product {
			return i
		}
		if service != nil && it.Service != nil && *it.Service == *service {
			return i
		}
	}
	return -1
}
