package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store holds the client and every collection handle. It is built once in
// main and handed to each component.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database

	Users           *mongo.Collection
	Categories      *mongo.Collection
	Products        *mongo.Collection
	Services        *mongo.Collection
	AddOns          *mongo.Collection
	Carts           *mongo.Collection
	Orders          *mongo.Collection
	Bookings        *mongo.Collection
	KYC             *mongo.Collection
	ServiceRequests *mongo.Collection
	Banners         *mongo.Collection
	Locations       *mongo.Collection
	About           *mongo.Collection
	Billing         *mongo.Collection
	Idempotency     *mongo.Collection
}

// Connect dials MongoDB, verifies the connection and returns a Store for database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logrus.WithField("database", name).Info("connected to MongoDB")
	return New(client, name), nil
}

// New wraps an existing client.
func New(client *mongo.Client, name string) *Store {
	d := client.Database(name)
	return &Store{
		Client:          client,
		DB:              d,
		Users:           d.Collection("users"),
		Categories:      d.Collection("categories"),
		Products:        d.Collection("products"),
		Services:        d.Collection("services"),
		AddOns:          d.Collection("addons"),
		Carts:           d.Collection("carts"),
		Orders:          d.Collection("orders"),
		Bookings:        d.Collection("bookings"),
		KYC:             d.Collection("kycs"),
		ServiceRequests: d.Collection("servicerequests"),
		Banners:         d.Collection("banners"),
		Locations:       d.Collection("locations"),
		About:           d.Collection("abouts"),
		Billing:         d.Collection("monthlybillings"),
		Idempotency:     d.Collection("idempotency"),
	}
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the unique, TTL and query indexes each collection relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetName(name)}
	}
	plain := func(name string, keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
	}

	plan := map[*mongo.Collection][]mongo.IndexModel{
		s.Users:      {unique("unique_email", bson.D{{Key: "email", Value: 1}})},
		s.Categories: {unique("unique_key", bson.D{{Key: "key", Value: 1}}), unique("unique_path", bson.D{{Key: "path", Value: 1}})},
		s.Carts:      {unique("unique_user", bson.D{{Key: "user", Value: 1}})},
		s.KYC:        {unique("unique_user", bson.D{{Key: "user", Value: 1}}), plain("status", bson.D{{Key: "status", Value: 1}})},
		s.Bookings: {
			plain("user_created", bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}),
			plain("order", bson.D{{Key: "order", Value: 1}}),
			plain("type_status", bson.D{{Key: "bookingType", Value: 1}, {Key: "rentalStatus", Value: 1}}),
		},
		s.Orders: {plain("user_created", bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}})},
		s.ServiceRequests: {
			plain("user_status", bson.D{{Key: "user", Value: 1}, {Key: "status", Value: 1}}),
			plain("booking", bson.D{{Key: "booking", Value: 1}}),
			plain("status_priority", bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}}),
		},
		s.Billing: {
			unique("booking_period", bson.D{{Key: "booking", Value: 1}, {Key: "billingPeriod.year", Value: 1}, {Key: "billingPeriod.month", Value: 1}}),
			plain("status_due", bson.D{{Key: "paymentStatus", Value: 1}, {Key: "dueDate", Value: 1}}),
		},
		s.Idempotency: {
			unique("unique_key", bson.D{{Key: "key", Value: 1}}),
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
			},
		},
	}

	for coll, idxs := range plan {
		if _, err := coll.Indexes().CreateMany(ctx, idxs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// IsDuplicateKeyError reports a unique index violation.
func IsDuplicateKeyError(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// IsNotFound reports a lookup that matched no document.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// Page builds find options for 1-based page/limit pagination.
func Page(page, limit int, sort bson.D) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	opts := options.Find().SetSkip(int64((page - 1) * limit)).SetLimit(int64(limit))
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	return opts
}

// NewestFirst sorts by creation time, most recent first.
var NewestFirst = bson.D{{Key: "createdAt", Value: -1}}

// FindAll decodes every document matching filter into out.
func FindAll(ctx context.Context, coll *mongo.Collection, filter any, out any, opts ...*options.FindOptions) error {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}
