package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"makeeasy/db"
	"makeeasy/lifecycle"
	"makeeasy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// liveRepos connects to the server named by MONGO_URI and hands back
// repositories over a throwaway database.
func liveRepos(t *testing.T) (*Repos, context.Context) {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	store, err := db.Connect(ctx, uri, "makeeasy_test_"+primitive.NewObjectID().Hex())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.DB.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	return New(store), ctx
}

func TestMarkOrderPaidUpdatesOnlyThatOrder(t *testing.T) {
	r, ctx := liveRepos(t)
	orderID, otherOrder := primitive.NewObjectID(), primitive.NewObjectID()

	var ids []primitive.ObjectID
	for _, o := range []primitive.ObjectID{orderID, orderID, otherOrder} {
		order := o
		b := models.Booking{ID: primitive.NewObjectID(), User: primitive.NewObjectID(), Order: &order, PaymentStatus: models.PaymentPending}
		require.NoError(t, r.Bookings.Insert(ctx, &b))
		ids = append(ids, b.ID)
	}

	n, err := r.Bookings.MarkOrderPaid(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for i, want := range []models.PaymentStatus{models.PaymentCompleted, models.PaymentCompleted, models.PaymentPending} {
		got, err := r.Bookings.Get(ctx, ids[i])
		require.NoError(t, err)
		assert.Equal(t, want, got.PaymentStatus)
	}
}

func TestAttachServiceRequestIsIdempotent(t *testing.T) {
	r, ctx := liveRepos(t)
	b := models.Booking{ID: primitive.NewObjectID(), User: primitive.NewObjectID()}
	require.NoError(t, r.Bookings.Insert(ctx, &b))

	reqID := primitive.NewObjectID()
	require.NoError(t, r.Bookings.AttachServiceRequest(ctx, b.ID, reqID))
	require.NoError(t, r.Bookings.AttachServiceRequest(ctx, b.ID, reqID))

	got, err := r.Bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{reqID}, got.ServiceRequests)
}

func TestServiceRequestStats(t *testing.T) {
	r, ctx := liveRepos(t)
	seed := []models.ServiceRequest{
		{Type: "repair", Priority: "high", Status: lifecycle.RequestOpen},
		{Type: "repair", Priority: "low", Status: lifecycle.RequestOpen, Rating: 4},
		{Type: "relocation", Priority: "low", Status: lifecycle.RequestClosed, Rating: 2},
	}
	for i := range seed {
		seed[i].ID = primitive.NewObjectID()
		require.NoError(t, r.ServiceRequests.Insert(ctx, &seed[i]))
	}

	st, err := r.ServiceRequests.Stats(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Group{{ID: "open", Count: 2}, {ID: "closed", Count: 1}}, st.ByStatus)
	assert.ElementsMatch(t, []Group{{ID: "repair", Count: 2}, {ID: "relocation", Count: 1}}, st.ByType)
	assert.ElementsMatch(t, []Group{{ID: "high", Count: 1}, {ID: "low", Count: 2}}, st.ByPriority)
	assert.InDelta(t, 3.0, st.AverageRating, 0.001)
	assert.Equal(t, int64(2), st.RatedCount)
}

func TestMarkOverdueFlagsOnlyPendingPastDue(t *testing.T) {
	r, ctx := liveRepos(t)
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	bills := []models.MonthlyBilling{
		{PaymentStatus: models.BillPending, DueDate: now.AddDate(0, 0, -1)},
		{PaymentStatus: models.BillPending, DueDate: now.AddDate(0, 0, 1)},
		{PaymentStatus: models.BillPaid, DueDate: now.AddDate(0, 0, -10)},
	}
	for i := range bills {
		bills[i].ID = primitive.NewObjectID()
		require.NoError(t, r.Billing.Insert(ctx, &bills[i]))
	}

	n, err := r.Billing.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for i, want := range []models.BillStatus{models.BillOverdue, models.BillPending, models.BillPaid} {
		got, err := r.Billing.Get(ctx, bills[i].ID)
		require.NoError(t, err)
		assert.Equal(t, want, got.PaymentStatus)
	}
}
