// Package seeder bootstraps an empty deployment with an admin account and
// the default catalog taxonomy. Records that already exist are left alone,
// so it is safe to run on every start.
package seeder

import (
	"context"
	"errors"
	"strings"
	"time"

	"makeeasy/globals"
	"makeeasy/models"
	"makeeasy/repo"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
}

type Store[T any] interface {
	Count(ctx context.Context, filter bson.M) (int64, error)
	Insert(ctx context.Context, doc *T) error
}

type Seeder struct {
	Users      UserStore
	Categories Store[models.Category]
	AddOns     Store[models.AddOn]

	Now func() time.Time
}

// Report counts the records a run inserted.
type Report struct {
	Admin      bool
	Categories int
	AddOns     int
}

var DefaultCategories = []models.Category{
	{Name: "Electronics", Icon: "Tv", Key: "electronics", Path: "electronics"},
	{Name: "Furniture", Icon: "Sofa", Key: "furniture", Path: "furniture"},
	{Name: "Vehicles", Icon: "Car", Key: "vehicles", Path: "vehicles"},
	{Name: "Construction", Icon: "Building", Key: "construction", Path: "construction"},
	{Name: "Home Services", Icon: "Home", Key: "home-services", Path: "home-services"},
	{Name: "Professional Services", Icon: "Briefcase", Key: "professional", Path: "professional"},
}

var DefaultAddOns = []models.AddOn{
	{
		Name:          "Damage Protection",
		Description:   "Covers accidental damage during the rental",
		Type:          models.AddOnDamageProtection,
		MonthlyCharge: 99,
		Coverage:      "Accidental damage up to the product value",
		DisplayOrder:  1,
	},
	{
		Name:          "Theft Insurance",
		Description:   "Insures the rented item against theft",
		Type:          models.AddOnInsurance,
		MonthlyCharge: 149,
		DisplayOrder:  2,
	},
	{
		Name:          "Installation",
		Description:   "One-time professional installation at delivery",
		Type:          models.AddOnServicePlan,
		OneTimeCharge: 499,
		DisplayOrder:  3,
	},
}

// Run inserts whatever is missing. An empty adminPassword skips the admin.
func (s *Seeder) Run(ctx context.Context, adminEmail, adminPassword string) (Report, error) {
	var rep Report
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	if adminPassword != "" {
		created, err := s.seedAdmin(ctx, strings.ToLower(strings.TrimSpace(adminEmail)), adminPassword, now())
		if err != nil {
			return rep, err
		}
		rep.Admin = created
	}

	for _, c := range DefaultCategories {
		n, err := s.Categories.Count(ctx, bson.M{"key": c.Key})
		if err != nil {
			return rep, err
		}
		if n > 0 {
			continue
		}
		c.ID = primitive.NewObjectID()
		c.CreatedAt, c.UpdatedAt = now(), now()
		if err := s.Categories.Insert(ctx, &c); err != nil {
			return rep, err
		}
		rep.Categories++
	}

	for _, a := range DefaultAddOns {
		n, err := s.AddOns.Count(ctx, bson.M{"name": a.Name})
		if err != nil {
			return rep, err
		}
		if n > 0 {
			continue
		}
		a.ID = primitive.NewObjectID()
		a.Active = true
		a.CreatedAt, a.UpdatedAt = now(), now()
		if err := s.AddOns.Insert(ctx, &a); err != nil {
			return rep, err
		}
		rep.AddOns++
	}

	logrus.WithFields(logrus.Fields{
		"admin":      rep.Admin,
		"categories": rep.Categories,
		"addOns":     rep.AddOns,
	}).Info("seed complete")
	return rep, nil
}

func (s *Seeder) seedAdmin(ctx context.Context, email, password string, now time.Time) (bool, error) {
	_, err := s.Users.ByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      "Admin User",
		Email:     email,
		Password:  string(hash),
		Role:      globals.RoleAdmin,
		KYCStatus: models.KYCNotSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return false, err
	}
	return true, s.Users.Insert(ctx, u)
}
