package models

import (
	"regexp"
	"time"
)

var emailRe = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail matches the address format accepted for users and bookings.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// Address is a structured postal address.
type Address struct {
	Street   string `bson:"street,omitempty" json:"street,omitempty"`
	City     string `bson:"city,omitempty" json:"city,omitempty"`
	State    string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode  string `bson:"pincode,omitempty" json:"pincode,omitempty"`
	Landmark string `bson:"landmark,omitempty" json:"landmark,omitempty"`
}

// ShippingAddress is the address block captured on an order.
type ShippingAddress struct {
	Address    string `bson:"address,omitempty" json:"address,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

// AddMonths adds n calendar months to t. Day overflow rolls into the
// following month, so Jan 31 + 1 month is Mar 3 (or Mar 2 in leap years).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}
