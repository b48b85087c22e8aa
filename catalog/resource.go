package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"makeeasy/apperr"
	"makeeasy/rdx"
	"makeeasy/repo"
	"makeeasy/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the typed CRUD surface every catalog collection offers.
type Store[T any] interface {
	Get(ctx context.Context, id primitive.ObjectID) (*T, error)
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]T, int64, error)
	Insert(ctx context.Context, doc *T) error
	Replace(ctx context.Context, id primitive.ObjectID, doc *T) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Document is a model pointer that can check itself.
type Document[T any] interface {
	*T
	Validate() error
}

// Stamps points at the identity and audit fields of a document.
type Stamps struct {
	ID        *primitive.ObjectID
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Resource runs create, read, update and delete for one collection, keeping
// identity fields intact and dropping cached lists after every write.
type Resource[T any, P Document[T]] struct {
	Name  string
	store Store[T]
	stamp func(*T) Stamps
	check func(*T) error
	cache *rdx.Client
	keys  []string
	now   func() time.Time
}

func (r *Resource[T, P]) Get(ctx context.Context, id string) (*T, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Get(ctx, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.New(http.StatusNotFound, r.Name+" not found")
	}
	return doc, err
}

func (r *Resource[T, P]) List(ctx context.Context, filter bson.M, o repo.ListOptions) ([]T, int64, error) {
	return r.store.Find(ctx, filter, o)
}

func (r *Resource[T, P]) Create(ctx context.Context, doc *T) error {
	now := r.now()
	s := r.stamp(doc)
	*s.ID = primitive.NewObjectID()
	*s.CreatedAt = now
	*s.UpdatedAt = now
	if err := r.validate(doc); err != nil {
		return err
	}
	if err := r.store.Insert(ctx, doc); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Update merges a JSON patch onto the stored document. Fields absent from
// the patch keep their stored values.
func (r *Resource[T, P]) Update(ctx context.Context, id string, patch []byte) (*T, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s := r.stamp(doc)
	keepID, keepCreated := *s.ID, *s.CreatedAt
	if len(patch) > 0 {
		if err := json.Unmarshal(patch, doc); err != nil {
			return nil, apperr.BadRequest("Invalid JSON payload")
		}
	}
	*s.ID, *s.CreatedAt = keepID, keepCreated
	if err := r.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save validates and writes back a document that was loaded with Get.
func (r *Resource[T, P]) Save(ctx context.Context, doc *T) error {
	s := r.stamp(doc)
	*s.UpdatedAt = r.now()
	if err := r.validate(doc); err != nil {
		return err
	}
	if err := r.store.Replace(ctx, *s.ID, doc); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.New(http.StatusNotFound, r.Name+" not found")
		}
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Delete removes the document and returns what was stored.
func (r *Resource[T, P]) Delete(ctx context.Context, id string) (*T, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, *r.stamp(doc).ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperr.New(http.StatusNotFound, r.Name+" not found")
		}
		return nil, err
	}
	r.invalidate(ctx)
	return doc, nil
}

func (r *Resource[T, P]) validate(doc *T) error {
	if r.check != nil {
		if err := r.check(doc); err != nil {
			return err
		}
	}
	return P(doc).Validate()
}

func (r *Resource[T, P]) invalidate(ctx context.Context) {
	if len(r.keys) > 0 {
		rdx.Invalidate(ctx, r.cache, r.keys...)
	}
}
