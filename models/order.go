package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethod string

const (
	PayCard       PaymentMethod = "card"
	PayUPI        PaymentMethod = "upi"
	PayNetbanking PaymentMethod = "netbanking"
	PayCOD        PaymentMethod = "cod"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCard, PayUPI, PayNetbanking, PayCOD:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderProcessing OrderStatus = "processing"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderCompleted  OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderProcessing, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled, OrderCompleted:
		return true
	}
	return false
}

type OrderItem struct {
	Product    *primitive.ObjectID `bson:"product,omitempty" json:"product,omitempty"`
	Service    *primitive.ObjectID `bson:"service,omitempty" json:"service,omitempty"`
	Quantity   int                 `bson:"quantity" json:"quantity"`
	Price      float64             `bson:"price" json:"price"`
	StartDate  *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate    *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	BookingRef *primitive.ObjectID `bson:"bookingRef,omitempty" json:"bookingRef,omitempty"`

	ProductInfo *ProductSummary `bson:"-" json:"productInfo,omitempty"`
	ServiceInfo *ServiceSummary `bson:"-" json:"serviceInfo,omitempty"`
}

// PaymentDetails is recorded once the gateway signature has been verified.
type PaymentDetails struct {
	GatewayOrderID string `bson:"razorpay_order_id" json:"razorpay_order_id"`
	PaymentID      string `bson:"razorpay_payment_id" json:"razorpay_payment_id"`
	Signature      string `bson:"razorpay_signature" json:"razorpay_signature"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Items           []OrderItem        `bson:"items" json:"items"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	ShippingAddress *ShippingAddress   `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	PaymentDetails  *PaymentDetails    `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	GatewayOrderID  string             `bson:"razorpayOrderId,omitempty" json:"razorpayOrderId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`

	UserInfo *UserSummary `bson:"-" json:"userInfo,omitempty"`
}

// IdempotencyRecord represents an idempotency key record stored in Mongo.
type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	UserID      string                 `bson:"userid" json:"userid"`
	RequestHash string                 `bson:"request_hash" json:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at" json:"expires_at"`
}
