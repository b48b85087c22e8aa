package models

import (
	"time"

	"makeeasy/apperr"
	"makeeasy/lifecycle"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingType string

const (
	BookingRental  BookingType = "rental"
	BookingService BookingType = "service"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
		return true
	}
	return false
}

type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositPaid     DepositStatus = "paid"
	DepositRefunded DepositStatus = "refunded"
	DepositAdjusted DepositStatus = "adjusted"
)

type ExtensionStatus string

const (
	ExtensionPending  ExtensionStatus = "pending"
	ExtensionApproved ExtensionStatus = "approved"
	ExtensionRejected ExtensionStatus = "rejected"
)

// SelectedAddOn freezes an add-on's name and charges at booking time.
type SelectedAddOn struct {
	AddOn         primitive.ObjectID `bson:"addOn" json:"addOn"`
	Name          string             `bson:"name" json:"name"`
	MonthlyCharge float64            `bson:"monthlyCharge" json:"monthlyCharge"`
	OneTimeCharge float64            `bson:"oneTimeCharge" json:"oneTimeCharge"`
}

// ExtensionRequest is an entry in a rental's append-only extension log.
type ExtensionRequest struct {
	RequestedMonths int             `bson:"requestedMonths" json:"requestedMonths"`
	RequestedAt     time.Time       `bson:"requestedAt" json:"requestedAt"`
	Status          ExtensionStatus `bson:"status" json:"status"`
	ApprovedAt      *time.Time      `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	NewEndDate      time.Time       `bson:"newEndDate" json:"newEndDate"`
}

type Booking struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User        primitive.ObjectID  `bson:"user" json:"user"`
	Order       *primitive.ObjectID `bson:"order,omitempty" json:"order,omitempty"`
	Product     *primitive.ObjectID `bson:"product,omitempty" json:"product,omitempty"`
	Service     *primitive.ObjectID `bson:"service,omitempty" json:"service,omitempty"`
	BookingType BookingType         `bson:"bookingType" json:"bookingType"`

	// rental
	SelectedCity      string                   `bson:"selectedCity,omitempty" json:"selectedCity,omitempty"`
	SelectedTenure    int                      `bson:"selectedTenure,omitempty" json:"selectedTenure,omitempty"`
	MonthlyRent       float64                  `bson:"monthlyRent,omitempty" json:"monthlyRent,omitempty"`
	DepositAmount     float64                  `bson:"depositAmount,omitempty" json:"depositAmount,omitempty"`
	DepositStatus     DepositStatus            `bson:"depositStatus,omitempty" json:"depositStatus,omitempty"`
	DeliveryCharge    float64                  `bson:"deliveryCharge,omitempty" json:"deliveryCharge,omitempty"`
	DeliveryAddress   *Address                 `bson:"deliveryAddress,omitempty" json:"deliveryAddress,omitempty"`
	DeliveryDate      *time.Time               `bson:"deliveryDate,omitempty" json:"deliveryDate,omitempty"`
	DeliveryTimeSlot  string                   `bson:"deliveryTimeSlot,omitempty" json:"deliveryTimeSlot,omitempty"`
	DeliveryStatus    lifecycle.DeliveryStatus `bson:"deliveryStatus,omitempty" json:"deliveryStatus,omitempty"`
	RentalStatus      lifecycle.RentalStatus   `bson:"rentalStatus,omitempty" json:"rentalStatus,omitempty"`
	RentalStartDate   *time.Time               `bson:"rentalStartDate,omitempty" json:"rentalStartDate,omitempty"`
	PlannedEndDate    *time.Time               `bson:"plannedEndDate,omitempty" json:"plannedEndDate,omitempty"`
	ActualEndDate     *time.Time               `bson:"actualEndDate,omitempty" json:"actualEndDate,omitempty"`
	BillingCycleStart int                      `bson:"billingCycleStart,omitempty" json:"billingCycleStart,omitempty"`
	NextBillingDate   *time.Time               `bson:"nextBillingDate,omitempty" json:"nextBillingDate,omitempty"`
	SelectedAddOns    []SelectedAddOn          `bson:"selectedAddOns,omitempty" json:"selectedAddOns,omitempty"`
	ExtensionRequests []ExtensionRequest       `bson:"extensionRequests,omitempty" json:"extensionRequests,omitempty"`

	EarlyClosureRequested   bool       `bson:"earlyClosureRequested,omitempty" json:"earlyClosureRequested,omitempty"`
	EarlyClosureRequestDate *time.Time `bson:"earlyClosureRequestDate,omitempty" json:"earlyClosureRequestDate,omitempty"`
	EarlyClosureCharge      float64    `bson:"earlyClosureCharge,omitempty" json:"earlyClosureCharge,omitempty"`

	PickupScheduledDate *time.Time `bson:"pickupScheduledDate,omitempty" json:"pickupScheduledDate,omitempty"`
	PickupTimeSlot      string     `bson:"pickupTimeSlot,omitempty" json:"pickupTimeSlot,omitempty"`

	// common
	StartDate       time.Time            `bson:"startDate" json:"startDate"`
	EndDate         time.Time            `bson:"endDate" json:"endDate"`
	TotalAmount     float64              `bson:"totalAmount" json:"totalAmount"`
	PaymentStatus   PaymentStatus        `bson:"paymentStatus" json:"paymentStatus"`
	BookingStatus   BookingStatus        `bson:"bookingStatus" json:"bookingStatus"`
	CustomerName    string               `bson:"customerName" json:"customerName"`
	CustomerEmail   string               `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone   string               `bson:"customerPhone" json:"customerPhone"`
	Notes           string               `bson:"notes,omitempty" json:"notes,omitempty"`
	ServiceRequests []primitive.ObjectID `bson:"serviceRequests,omitempty" json:"serviceRequests,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`

	// populated on read, never stored
	ProductInfo *ProductSummary `bson:"-" json:"productInfo,omitempty"`
	ServiceInfo *ServiceSummary `bson:"-" json:"serviceInfo,omitempty"`
	UserInfo    *UserSummary    `bson:"-" json:"userInfo,omitempty"`
}

// ServiceSummary is the projection embedded when a service is populated.
type ServiceSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Title string             `bson:"title" json:"title"`
	Price float64            `bson:"price" json:"price"`
	Icon  string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Image string             `bson:"image,omitempty" json:"image,omitempty"`
}

// DeriveType sets BookingType from whichever reference is present.
func (b *Booking) DeriveType() {
	switch {
	case b.Product != nil && b.Service == nil:
		b.BookingType = BookingRental
	case b.Service != nil && b.Product == nil:
		b.BookingType = BookingService
	default:
		b.BookingType = ""
	}
}

// Validate recomputes BookingType and checks the record before any write.
func (b *Booking) Validate() error {
	b.DeriveType()

	var v apperr.ValidationError
	switch {
	case b.Product == nil && b.Service == nil:
		v.Add("Either product or service must be provided")
	case b.Product != nil && b.Service != nil:
		v.Add("Cannot book both product and service together")
	}
	if b.StartDate.IsZero() {
		v.Add("Please add a start date")
	}
	if b.EndDate.IsZero() {
		v.Add("Please add an end date")
	}
	if b.CustomerName == "" {
		v.Add("Please add customer name")
	}
	if b.CustomerEmail == "" || !ValidEmail(b.CustomerEmail) {
		v.Add("Please add a valid email")
	}
	if b.CustomerPhone == "" {
		v.Add("Please add customer phone number")
	}
	if len(b.Notes) > 500 {
		v.Add("Notes cannot be more than 500 characters")
	}
	if b.BookingType == BookingRental {
		if b.SelectedTenure < 1 {
			v.Add("Tenure must be at least 1 month")
		}
		if b.RentalStatus != "" && !b.RentalStatus.Valid() {
			v.Add("Invalid rental status")
		}
		if b.DeliveryStatus != "" && !b.DeliveryStatus.Valid() {
			v.Add("Invalid delivery status")
		}
	}
	if b.PaymentStatus != "" && !b.PaymentStatus.Valid() {
		v.Add("Invalid payment status")
	}
	if b.BookingStatus != "" && !b.BookingStatus.Valid() {
		v.Add("Invalid booking status")
	}
	return v.OrNil()
}

// IsRental reports whether the booking references a product.
func (b *Booking) IsRental() bool {
	return b.BookingType == BookingRental
}

// OwnedBy reports whether userID owns the booking.
func (b *Booking) OwnedBy(userID primitive.ObjectID) bool {
	return b.User == userID
}

// CurrentEndDate is the planned end date, falling back to the booking end date.
func (b *Booking) CurrentEndDate() time.Time {
	if b.PlannedEndDate != nil && !b.PlannedEndDate.IsZero() {
		return *b.PlannedEndDate
	}
	return b.EndDate
}
