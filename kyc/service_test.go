package kyc

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
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockStore struct{ mock.Mock }

func (m *MockStore) Get(ctx context.Context, id primitive.ObjectID) (*models.KYC, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KYC), args.Error(1)
}

func (m *MockStore) ByUser(ctx context.Context, userID primitive.ObjectID) (*models.KYC, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KYC), args.Error(1)
}

func (m *MockStore) Upsert(ctx context.Context, k *models.KYC) error {
	return m.Called(ctx, k).Error(0)
}

func (m *MockStore) Replace(ctx context.Context, id primitive.ObjectID, k *models.KYC) error {
	return m.Called(ctx, id, k).Error(0)
}

func (m *MockStore) Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.KYC, int64, error) {
	args := m.Called(ctx, filter, o)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.KYC), args.Get(1).(int64), args.Error(2)
}

func (m *MockStore) PopulateUsers(ctx context.Context, records []models.KYC) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockStore) CountByStatus(ctx context.Context) ([]repo.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repo.Group), args.Error(1)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) SetKYC(ctx context.Context, userID primitive.ObjectID, status models.KYCStatus, kycID *primitive.ObjectID) error {
	return m.Called(ctx, userID, status, kycID).Error(0)
}

var fixedNow = time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)

func newService() (*Service, *MockStore, *MockUsers) {
	store, users := &MockStore{}, &MockUsers{}
	svc := NewService(store, users)
	svc.Now = func() time.Time { return fixedNow }
	store.On("PopulateUsers", mock.Anything, mock.Anything).Return(nil).Maybe()
	return svc, store, users
}

func submission() Submission {
	return Submission{
		IDProofType:          "pan",
		IDProofNumber:        " ABCDE1234F ",
		AddressProofType:     "utility_bill",
		AddressLine1:         "14 Lake View",
		City:                 "Pune",
		State:                "Maharashtra",
		Pincode:              "411001",
		IDProofDocument:      "/uploads/kyc/documents/id.pdf",
		AddressProofDocument: "/uploads/kyc/documents/addr.pdf",
	}
}

func record(user primitive.ObjectID, status models.KYCStatus) *models.KYC {
	return &models.KYC{
		ID:             primitive.NewObjectID(),
		User:           user,
		IDProof:        models.IDProof{Type: "passport", Number: "P123", DocumentURL: "/uploads/kyc/documents/old-id.pdf"},
		AddressProof:   models.AddressProof{Type: "aadhaar", DocumentURL: "/uploads/kyc/documents/old-addr.pdf"},
		CurrentAddress: models.KYCAddress{AddressLine1: "1 Old Rd", City: "Pune", State: "Maharashtra", Pincode: "411002"},
		Status:         status,
		CreatedAt:      fixedNow.Add(-72 * time.Hour),
	}
}

func requireStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, msg, appErr.Message)
}

func TestSubmitCreatesPendingRecord(t *testing.T) {
	svc, store, users := newService()
	caller := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}
	store.On("ByUser", mock.Anything, caller.ID).Return(nil, repo.ErrNotFound)
	store.On("Upsert", mock.Anything, mock.AnythingOfType("*models.KYC")).Return(nil)
	users.On("SetKYC", mock.Anything, caller.ID, models.KYCPending, mock.AnythingOfType("*primitive.ObjectID")).Return(nil)

	k, err := svc.Submit(context.Background(), caller, submission())
	require.NoError(t, err)
	assert.Equal(t, models.KYCPending, k.Status)
	assert.Equal(t, "ABCDE1234F", k.IDProof.Number)
	assert.False(t, k.IDProof.Verified)
	assert.Equal(t, fixedNow, k.SubmittedAt)

	call := users.Calls[0]
	assert.Equal(t, k.ID, *call.Arguments.Get(3).(*primitive.ObjectID))
}

func TestSubmitResubmissionKeepsRecordID(t *testing.T) {
	svc, store, users := newService()
	caller := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}
	existing := record(caller.ID, models.KYCRejected)
	store.On("ByUser", mock.Anything, caller.ID).Return(existing, nil)
	store.On("Upsert", mock.Anything, mock.AnythingOfType("*models.KYC")).Return(nil)
	users.On("SetKYC", mock.Anything, caller.ID, models.KYCPending, &existing.ID).Return(nil)

	k, err := svc.Submit(context.Background(), caller, submission())
	require.NoError(t, err)
	assert.Equal(t, existing.ID, k.ID)
	assert.Equal(t, existing.CreatedAt, k.CreatedAt)
}

func TestSubmitRejects(t *testing.T) {
	caller := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}

	t.Run("already verified", func(t *testing.T) {
		svc, store, _ := newService()
		store.On("ByUser", mock.Anything, caller.ID).Return(record(caller.ID, models.KYCVerified), nil)

		_, err := svc.Submit(context.Background(), caller, submission())
		requireStatus(t, err, http.StatusBadRequest, "KYC already verified for this user")
		store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("missing document", func(t *testing.T) {
		svc, store, _ := newService()
		store.On("ByUser", mock.Anything, caller.ID).Return(nil, repo.ErrNotFound)
		in := submission()
		in.AddressProofDocument = ""

		_, err := svc.Submit(context.Background(), caller, in)
		requireStatus(t, err, http.StatusBadRequest, "Please upload both ID proof and address proof documents")
	})

	t.Run("invalid proof type", func(t *testing.T) {
		svc, store, _ := newService()
		store.On("ByUser", mock.Anything, caller.ID).Return(nil, repo.ErrNotFound)
		in := submission()
		in.AddressProofType = "pan"

		_, err := svc.Submit(context.Background(), caller, in)
		var v *apperr.ValidationError
		require.ErrorAs(t, err, &v)
	})
}

func TestGetMineNotSubmitted(t *testing.T) {
	svc, store, _ := newService()
	caller := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}
	store.On("ByUser", mock.Anything, caller.ID).Return(nil, repo.ErrNotFound)

	_, err := svc.GetMine(context.Background(), caller)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, models.KYCNotSubmitted, appErr.Extra["kycStatus"])
}

func TestUpdateResetsToPending(t *testing.T) {
	svc, store, users := newService()
	caller := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}
	existing := record(caller.ID, models.KYCRejected)
	existing.RejectionReason = "blurry scan"
	existing.IDProof.Verified = true
	store.On("ByUser", mock.Anything, caller.ID).Return(existing, nil)
	store.On("Replace", mock.Anything, existing.ID, existing).Return(nil)
	users.On("SetKYC", mock.Anything, caller.ID, models.KYCPending, (*primitive.ObjectID)(nil)).Return(nil)

	k, superseded, err := svc.Update(context.Background(), caller, Submission{
		City:            "Mumbai",
		IDProofDocument: "/uploads/kyc/documents/new-id.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, models.KYCPending, k.Status)
	assert.Empty(t, k.RejectionReason)
	assert.Equal(t, "Mumbai", k.CurrentAddress.City)
	assert.Equal(t, "1 Old Rd", k.CurrentAddress.AddressLine1)
	assert.Equal(t, "/uploads/kyc/documents/new-id.pdf", k.IDProof.DocumentURL)
	assert.False(t, k.IDProof.Verified)
	assert.Equal(t, []string{"/uploads/kyc/documents/old-id.pdf"}, superseded)
}

func TestUpdateRejects(t *testing.T) {
	caller := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleUser}

	svc, store, _ := newService()
	store.On("ByUser", mock.Anything, caller.ID).Return(nil, repo.ErrNotFound)
	_, _, err := svc.Update(context.Background(), caller, Submission{})
	requireStatus(t, err, http.StatusNotFound, "No KYC found. Please submit KYC first.")

	svc, store, _ = newService()
	store.On("ByUser", mock.Anything, caller.ID).Return(record(caller.ID, models.KYCVerified), nil)
	_, _, err = svc.Update(context.Background(), caller, Submission{City: "Goa"})
	requireStatus(t, err, http.StatusBadRequest, "Cannot update verified KYC")
}

func TestVerify(t *testing.T) {
	svc, store, users := newService()
	admin := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleAdmin}
	k := record(primitive.NewObjectID(), models.KYCUnderReview)
	store.On("Get", mock.Anything, k.ID).Return(k, nil)
	store.On("Replace", mock.Anything, k.ID, k).Return(nil)
	users.On("SetKYC", mock.Anything, k.User, models.KYCVerified, (*primitive.ObjectID)(nil)).Return(nil)

	got, err := svc.Verify(context.Background(), admin, k.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.KYCVerified, got.Status)
	assert.True(t, got.IDProof.Verified)
	assert.True(t, got.AddressProof.Verified)
	assert.Equal(t, admin.ID, *got.VerifiedBy)
	assert.Equal(t, fixedNow, *got.VerifiedAt)

	_, err = svc.Verify(context.Background(), admin, k.ID.Hex())
	requireStatus(t, err, http.StatusBadRequest, "KYC already verified")
}

func TestReject(t *testing.T) {
	svc, store, users := newService()
	admin := utils.Caller{ID: primitive.NewObjectID(), Role: globals.RoleAdmin}
	k := record(primitive.NewObjectID(), models.KYCPending)
	store.On("Get", mock.Anything, k.ID).Return(k, nil)
	store.On("Replace", mock.Anything, k.ID, k).Return(nil)
	users.On("SetKYC", mock.Anything, k.User, models.KYCRejected, (*primitive.ObjectID)(nil)).Return(nil)

	_, err := svc.Reject(context.Background(), admin, k.ID.Hex(), " ")
	requireStatus(t, err, http.StatusBadRequest, "Please provide a reason for rejection")

	got, err := svc.Reject(context.Background(), admin, k.ID.Hex(), "Address proof expired")
	require.NoError(t, err)
	assert.Equal(t, models.KYCRejected, got.Status)
	assert.Equal(t, "Address proof expired", got.RejectionReason)

	verified := record(primitive.NewObjectID(), models.KYCVerified)
	store.On("Get", mock.Anything, verified.ID).Return(verified, nil)
	_, err = svc.Reject(context.Background(), admin, verified.ID.Hex(), "late")
	requireStatus(t, err, http.StatusBadRequest, "Cannot reject verified KYC")
}

func TestMarkUnderReviewAndMissing(t *testing.T) {
	svc, store, users := newService()
	k := record(primitive.NewObjectID(), models.KYCPending)
	store.On("Get", mock.Anything, k.ID).Return(k, nil)
	store.On("Replace", mock.Anything, k.ID, k).Return(nil)
	users.On("SetKYC", mock.Anything, k.User, models.KYCUnderReview, (*primitive.ObjectID)(nil)).Return(nil)

	got, err := svc.MarkUnderReview(context.Background(), k.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.KYCUnderReview, got.Status)

	missing := primitive.NewObjectID()
	store.On("Get", mock.Anything, missing).Return(nil, repo.ErrNotFound)
	_, err = svc.MarkUnderReview(context.Background(), missing.Hex())
	requireStatus(t, err, http.StatusNotFound, "KYC not found")
}

func TestListAllSortsBySubmission(t *testing.T) {
	svc, store, _ := newService()
	want := repo.ListOptions{Page: 2, Limit: 20, Sort: bson.D{{Key: "submittedAt", Value: -1}}}
	store.On("Find", mock.Anything, bson.M{"status": "pending"}, want).Return([]models.KYC{{}, {}}, int64(22), nil)

	list, total, err := svc.ListAll(context.Background(), "pending", 2, 20)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.EqualValues(t, 22, total)
}

func TestStats(t *testing.T) {
	svc, store, _ := newService()
	store.On("CountByStatus", mock.Anything).Return([]repo.Group{
		{ID: "pending", Count: 3},
		{ID: "verified", Count: 5},
	}, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"total":        8,
		"pending":      3,
		"under_review": 0,
		"verified":     5,
		"rejected":     0,
	}, stats)
}
