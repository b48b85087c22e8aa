package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BillStatus string

const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
	BillWaived  BillStatus = "waived"
	BillFailed  BillStatus = "failed"
)

type BillingPeriod struct {
	Month int `bson:"month" json:"month"`
	Year  int `bson:"year" json:"year"`
}

type BillAddOn struct {
	AddOn  primitive.ObjectID `bson:"addOn" json:"addOn"`
	Name   string             `bson:"name" json:"name"`
	Charge float64            `bson:"charge" json:"charge"`
}

// MonthlyBilling is one month's invoice for a running rental.
type MonthlyBilling struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User          primitive.ObjectID  `bson:"user" json:"user"`
	Booking       primitive.ObjectID  `bson:"booking" json:"booking"`
	Product       *primitive.ObjectID `bson:"product,omitempty" json:"product,omitempty"`
	BillingPeriod BillingPeriod       `bson:"billingPeriod" json:"billingPeriod"`
	RentalAmount  float64             `bson:"rentalAmount" json:"rentalAmount"`
	AddOns        []BillAddOn         `bson:"addOns,omitempty" json:"addOns,omitempty"`
	AddOnTotal    float64             `bson:"addOnTotal" json:"addOnTotal"`
	GST           float64             `bson:"gst" json:"gst"`
	LateFee       float64             `bson:"lateFee" json:"lateFee"`
	TotalAmount   float64             `bson:"totalAmount" json:"totalAmount"`
	DueDate       time.Time           `bson:"dueDate" json:"dueDate"`
	PaidDate      *time.Time          `bson:"paidDate,omitempty" json:"paidDate,omitempty"`
	PaymentStatus BillStatus          `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod string              `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	TransactionID string              `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	InvoiceURL    string              `bson:"invoiceUrl,omitempty" json:"invoiceUrl,omitempty"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

var BillPaymentMethods = []string{"card", "upi", "netbanking", "wallet", "auto_debit"}

// ValidBillPaymentMethod reports whether m can settle a monthly bill.
func ValidBillPaymentMethod(m string) bool { return contains(BillPaymentMethods, m) }
