package cart

import (
	"context"
	"net/http"
	"testing"
	"time"

	"makeeasy/apperr"
	"makeeasy/globals"
	"makeeasy/models"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore keeps carts by user in memory.
type memStore struct {
	byUser  map[primitive.ObjectID]*models.Cart
	inserts int
}

func newMemStore() *memStore {
	return &memStore{byUser: map[primitive.ObjectID]*models.Cart{}}
}

func (m *memStore) ByUser(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *memStore) Insert(_ context.Context, c *models.Cart) error {
	m.inserts++
	cp := *c
	m.byUser[c.User] = &cp
	return nil
}

func (m *memStore) Replace(_ context.Context, _ primitive.ObjectID, c *models.Cart) error {
	cp := *c
	cp.Items = append([]models.CartItem(nil), c.Items...)
	m.byUser[c.User] = &cp
	return nil
}

func (m *memStore) Populate(context.Context, *models.Cart) error { return nil }

type MockProducts struct{ mock.Mock }

func (m *MockProducts) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type MockServices struct{ mock.Mock }

func (m *MockServices) Get(ctx context.Context, id primitive.ObjectID) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

type cartFixture struct {
	svc      *Service
	store    *memStore
	products *MockProducts
	services *MockServices
	caller   utils.Caller
	product  *models.Product
	service  *models.Service
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		store:    newMemStore(),
		products: &MockProducts{},
		services: &MockServices{},
		caller:   utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser},
		product:  &models.Product{ID: primitive.NewObjectID(), Title: "Bed", Price: 800},
		service:  &models.Service{ID: primitive.NewObjectID(), Title: "AC service", Price: 450},
	}
	f.products.On("Get", mock.Anything, f.product.ID).Return(f.product, nil)
	f.services.On("Get", mock.Anything, f.service.ID).Return(f.service, nil)
	f.svc = NewService(f.store, f.products, f.services)
	f.svc.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func status(t *testing.T, err error) int {
	t.Helper()
	ae, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	return ae.Status
}

func TestGetCreatesEmptyCartOnce(t *testing.T) {
	f := newCartFixture()

	c, err := f.svc.Get(context.Background(), f.caller)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, f.caller.ID, c.User)

	_, err = f.svc.Get(context.Background(), f.caller)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.inserts)
}

func TestAddMergesSameLine(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.caller, AddInput{ProductID: f.product.ID.Hex(), Quantity: 2})
	require.NoError(t, err)
	c, err := f.svc.Add(ctx, f.caller, AddInput{ProductID: f.product.ID.Hex(), StartDate: "2024-05-10"})
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	require.NotNil(t, c.Items[0].StartDate)
	assert.Equal(t, 10, c.Items[0].StartDate.Day())
	assert.Equal(t, 2400.0, c.TotalAmount)

	c, err = f.svc.Add(ctx, f.caller, AddInput{ServiceID: f.service.ID.Hex()})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, 2850.0, c.TotalAmount)
}

func TestAddValidation(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	missing := primitive.NewObjectID()
	f.products.On("Get", mock.Anything, missing).Return(nil, repo.ErrNotFound)

	_, err := f.svc.Add(ctx, f.caller, AddInput{})
	assert.EqualError(t, err, "Please provide productId or serviceId")

	_, err = f.svc.Add(ctx, f.caller, AddInput{ProductID: f.product.ID.Hex(), ServiceID: f.service.ID.Hex()})
	assert.Equal(t, http.StatusBadRequest, status(t, err))

	_, err = f.svc.Add(ctx, f.caller, AddInput{ProductID: f.product.ID.Hex(), Quantity: -1})
	assert.EqualError(t, err, "Quantity must be at least 1")

	_, err = f.svc.Add(ctx, f.caller, AddInput{ProductID: missing.Hex()})
	assert.EqualError(t, err, "Product not found")
	assert.Equal(t, http.StatusNotFound, status(t, err))
}

func TestUpdateAndRemoveItems(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	_, err := f.svc.UpdateItem(ctx, f.caller, primitive.NewObjectID().Hex(), 2)
	assert.EqualError(t, err, "Cart not found")

	c, err := f.svc.Add(ctx, f.caller, AddInput{ProductID: f.product.ID.Hex()})
	require.NoError(t, err)
	itemID := c.Items[0].ID.Hex()

	_, err = f.svc.UpdateItem(ctx, f.caller, itemID, 0)
	assert.EqualError(t, err, "Quantity must be at least 1")

	_, err = f.svc.UpdateItem(ctx, f.caller, primitive.NewObjectID().Hex(), 2)
	assert.EqualError(t, err, "Item not found in cart")

	c, err = f.svc.UpdateItem(ctx, f.caller, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 3200.0, c.TotalAmount)

	c, err = f.svc.RemoveItem(ctx, f.caller, itemID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.TotalAmount)
}

func TestClear(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	c, err := f.svc.Clear(ctx, f.caller)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = f.svc.Add(ctx, f.caller, AddInput{ServiceID: f.service.ID.Hex(), Quantity: 2})
	require.NoError(t, err)

	c, err = f.svc.Clear(ctx, f.caller)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Zero(t, c.TotalAmount)
}
