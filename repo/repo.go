// Package repo holds the MongoDB repositories behind every domain service.
package repo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"makeeasy/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ListOptions pages and sorts a find. A zero Limit returns everything.
type ListOptions struct {
	Page  int
	Limit int
	Sort  bson.D
}

func (o ListOptions) find() *options.FindOptions {
	if o.Limit > 0 {
		return db.Page(o.Page, o.Limit, o.Sort)
	}
	opts := options.Find()
	if len(o.Sort) > 0 {
		opts.SetSort(o.Sort)
	}
	return opts
}

// NewestFirst sorts by creation time, most recent first.
var NewestFirst = db.NewestFirst

// Collection is typed CRUD over one collection.
type Collection[T any] struct {
	C *mongo.Collection
}

func (r Collection[T]) Get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return r.FindOne(ctx, bson.M{"_id": id})
}

func (r Collection[T]) FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := r.C.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Find returns one page of matches and the total match count. The count is
// skipped when no limit is set.
func (r Collection[T]) Find(ctx context.Context, filter bson.M, o ListOptions) ([]T, int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	out := []T{}
	if err := db.FindAll(ctx, r.C, filter, &out, o.find()); err != nil {
		return nil, 0, err
	}
	total := int64(len(out))
	if o.Limit > 0 {
		var err error
		if total, err = r.C.CountDocuments(ctx, filter); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return r.C.CountDocuments(ctx, filter)
}

func (r Collection[T]) Insert(ctx context.Context, doc *T) error {
	_, err := r.C.InsertOne(ctx, doc)
	return err
}

// Replace overwrites the stored document with doc.
func (r Collection[T]) Replace(ctx context.Context, id primitive.ObjectID, doc *T) error {
	res, err := r.C.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Update applies $set fields and stamps updatedAt.
func (r Collection[T]) Update(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := r.C.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Collection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.C.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ByIDs loads every document whose _id is in ids.
func (r Collection[T]) ByIDs(ctx context.Context, ids []primitive.ObjectID, extra bson.M) ([]T, error) {
	out := []T{}
	if len(ids) == 0 {
		return out, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	for k, v := range extra {
		filter[k] = v
	}
	if err := db.FindAll(ctx, r.C, filter, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Distinct returns the distinct string values of field among matches.
func (r Collection[T]) Distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	vals, err := r.C.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// SearchRegex builds a case-insensitive contains match for user input.
func SearchRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// Group is one bucket of an aggregation count.
type Group struct {
	ID    string `bson:"_id" json:"_id"`
	Count int64  `bson:"count" json:"count"`
}

// CountBy groups matches by field and counts each bucket.
func CountBy(ctx context.Context, c *mongo.Collection, match bson.M, field string) ([]Group, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + field}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
