package models

import (
	"strings"
	"time"

	"makeeasy/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IDProof struct {
	Type        string `bson:"type" json:"type"`
	Number      string `bson:"number" json:"number"`
	DocumentURL string `bson:"documentUrl" json:"documentUrl"`
	Verified    bool   `bson:"verified" json:"verified"`
}

type AddressProof struct {
	Type        string `bson:"type" json:"type"`
	DocumentURL string `bson:"documentUrl" json:"documentUrl"`
	Verified    bool   `bson:"verified" json:"verified"`
}

// KYCAddress is the residential address declared with a KYC submission.
type KYCAddress struct {
	AddressLine1 string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city" json:"city"`
	State        string `bson:"state" json:"state"`
	Pincode      string `bson:"pincode" json:"pincode"`
	Landmark     string `bson:"landmark,omitempty" json:"landmark,omitempty"`
}

var (
	IDProofTypes      = []string{"aadhaar", "pan", "passport", "driving_license", "voter_id"}
	AddressProofTypes = []string{"aadhaar", "utility_bill", "bank_statement", "rental_agreement"}
)

// KYC is a user's identity and address verification record.
type KYC struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID  `bson:"user" json:"user"`
	IDProof         IDProof             `bson:"idProof" json:"idProof"`
	AddressProof    AddressProof        `bson:"addressProof" json:"addressProof"`
	CurrentAddress  KYCAddress          `bson:"currentAddress" json:"currentAddress"`
	Status          KYCStatus           `bson:"status" json:"status"`
	RejectionReason string              `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	VerifiedBy      *primitive.ObjectID `bson:"verifiedBy,omitempty" json:"verifiedBy,omitempty"`
	VerifiedAt      *time.Time          `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
	SubmittedAt     time.Time           `bson:"submittedAt" json:"submittedAt"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`

	UserInfo     *UserSummary `bson:"-" json:"userInfo,omitempty"`
	VerifierInfo *UserSummary `bson:"-" json:"verifierInfo,omitempty"`
}

// Validate checks the document types and the required address lines.
func (k *KYC) Validate() error {
	var v apperr.ValidationError
	if !ValidIDProofType(k.IDProof.Type) {
		v.Add("Please provide a valid ID proof type")
	}
	if strings.TrimSpace(k.IDProof.Number) == "" {
		v.Add("Please provide the ID proof number")
	}
	if k.IDProof.DocumentURL == "" {
		v.Add("Please upload the ID proof document")
	}
	if !ValidAddressProofType(k.AddressProof.Type) {
		v.Add("Please provide a valid address proof type")
	}
	if k.AddressProof.DocumentURL == "" {
		v.Add("Please upload the address proof document")
	}
	a := k.CurrentAddress
	if a.AddressLine1 == "" || a.City == "" || a.State == "" || a.Pincode == "" {
		v.Add("Please provide address line 1, city, state and pincode")
	}
	return v.OrNil()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ValidIDProofType reports whether t is an accepted identity document.
func ValidIDProofType(t string) bool { return contains(IDProofTypes, t) }

// ValidAddressProofType reports whether t is an accepted address document.
func ValidAddressProofType(t string) bool { return contains(AddressProofTypes, t) }
