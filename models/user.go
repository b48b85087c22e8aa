package models

import (
	"time"

	"makeeasy/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "not_submitted"
	KYCPending      KYCStatus = "pending"
	KYCUnderReview  KYCStatus = "under_review"
	KYCVerified     KYCStatus = "verified"
	KYCRejected     KYCStatus = "rejected"
)

type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name         string              `bson:"name" json:"name"`
	Email        string              `bson:"email" json:"email"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Password     string              `bson:"password" json:"-"`
	Role         string              `bson:"role" json:"role"`
	Address      string              `bson:"address,omitempty" json:"address,omitempty"`
	ProfileImage string              `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	KYCStatus    KYCStatus           `bson:"kycStatus" json:"kycStatus"`
	KYCDetails   *primitive.ObjectID `bson:"kycDetails,omitempty" json:"kycDetails,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks profile fields. The password is checked separately
// because stored users only carry its hash.
func (u *User) Validate() error {
	var v apperr.ValidationError
	if u.Name == "" {
		v.Add("Please add a name")
	} else if len(u.Name) > 50 {
		v.Add("Name cannot be more than 50 characters")
	}
	if u.Email == "" || !ValidEmail(u.Email) {
		v.Add("Please add a valid email")
	}
	if len(u.Phone) > 20 {
		v.Add("Phone number can not be longer than 20 characters")
	}
	if len(u.Address) > 500 {
		v.Add("Address cannot be more than 500 characters")
	}
	if u.Role != "" && u.Role != "user" && u.Role != "admin" {
		v.Add("Role must be user or admin")
	}
	return v.OrNil()
}

// UserSummary is the projection embedded when a user is populated.
type UserSummary struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	KYCStatus KYCStatus          `bson:"kycStatus,omitempty" json:"kycStatus,omitempty"`
}
