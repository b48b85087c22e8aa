package models

import (
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/lifecycle"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ServiceRequestTypes = []string{"maintenance", "repair", "relocation", "swap", "complaint", "other"}

var Priorities = []string{"low", "medium", "high", "urgent"}

// ValidServiceRequestType reports whether t is a known issue type.
func ValidServiceRequestType(t string) bool { return contains(ServiceRequestTypes, t) }

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool { return contains(Priorities, p) }

type ServiceRequest struct {
	ID                primitive.ObjectID             `bson:"_id,omitempty" json:"_id"`
	User              primitive.ObjectID             `bson:"user" json:"user"`
	Booking           primitive.ObjectID             `bson:"booking" json:"booking"`
	Product           *primitive.ObjectID            `bson:"product,omitempty" json:"product,omitempty"`
	Type              string                         `bson:"type" json:"type"`
	Title             string                         `bson:"title" json:"title"`
	Description       string                         `bson:"description" json:"description"`
	Images            []string                       `bson:"images,omitempty" json:"images,omitempty"`
	Priority          string                         `bson:"priority" json:"priority"`
	Status            lifecycle.ServiceRequestStatus `bson:"status" json:"status"`
	AssignedTo        *primitive.ObjectID            `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedAt        *time.Time                     `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`
	ScheduledDate     *time.Time                     `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	ScheduledTimeSlot string                         `bson:"scheduledTimeSlot,omitempty" json:"scheduledTimeSlot,omitempty"`
	Resolution        string                         `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedAt        *time.Time                     `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ClosedAt          *time.Time                     `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	Rating            int                            `bson:"rating,omitempty" json:"rating,omitempty"`
	Feedback          string                         `bson:"feedback,omitempty" json:"feedback,omitempty"`
	CreatedAt         time.Time                      `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time                      `bson:"updatedAt" json:"updatedAt"`

	UserInfo     *UserSummary    `bson:"-" json:"userInfo,omitempty"`
	ProductInfo  *ProductSummary `bson:"-" json:"productInfo,omitempty"`
	AssigneeInfo *UserSummary    `bson:"-" json:"assigneeInfo,omitempty"`
}

// Validate checks the fields a request must always carry.
func (sr *ServiceRequest) Validate() error {
	var v apperr.ValidationError
	if !ValidServiceRequestType(sr.Type) {
		v.Add("Please provide a valid request type")
	}
	if strings.TrimSpace(sr.Title) == "" {
		v.Add("Please add a title")
	}
	if strings.TrimSpace(sr.Description) == "" {
		v.Add("Please add a description")
	}
	if !ValidPriority(sr.Priority) {
		v.Add("Please provide a valid priority")
	}
	if !sr.Status.Valid() {
		v.Add("Invalid service request status")
	}
	if sr.Rating != 0 && (sr.Rating < 1 || sr.Rating > 5) {
		v.Add("Rating must be between 1 and 5")
	}
	return v.OrNil()
}

// OwnedBy reports whether userID raised the request.
func (sr *ServiceRequest) OwnedBy(userID primitive.ObjectID) bool {
	return sr.User == userID
}
