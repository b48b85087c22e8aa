// Package kyc collects identity and address documents from renters and lets
// administrators review them. A verified KYC gates rental creation.
package kyc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/models"
	"makeeasy/repo"
	"makeeasy/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.KYC, error)
	ByUser(ctx context.Context, userID primitive.ObjectID) (*models.KYC, error)
	Upsert(ctx context.Context, k *models.KYC) error
	Replace(ctx context.Context, id primitive.ObjectID, k *models.KYC) error
	Find(ctx context.Context, filter bson.M, o repo.ListOptions) ([]models.KYC, int64, error)
	PopulateUsers(ctx context.Context, records []models.KYC) error
	CountByStatus(ctx context.Context) ([]repo.Group, error)
}

type UserStore interface {
	SetKYC(ctx context.Context, userID primitive.ObjectID, status models.KYCStatus, kycID *primitive.ObjectID) error
}

type Service struct {
	records Store
	users   UserStore

	Now func() time.Time
}

func NewService(records Store, users UserStore) *Service {
	return &Service{records: records, users: users, Now: time.Now}
}

// Submission carries the form fields and the stored document URLs of a
// KYC submission or update.
type Submission struct {
	IDProofType      string `json:"idProofType"`
	IDProofNumber    string `json:"idProofNumber"`
	AddressProofType string `json:"addressProofType"`
	AddressLine1     string `json:"addressLine1"`
	AddressLine2     string `json:"addressLine2"`
	City             string `json:"city"`
	State            string `json:"state"`
	Pincode          string `json:"pincode"`
	Landmark         string `json:"landmark"`

	IDProofDocument      string `json:"-"`
	AddressProofDocument string `json:"-"`
}

func (s Submission) address() models.KYCAddress {
	return models.KYCAddress{
		AddressLine1: strings.TrimSpace(s.AddressLine1),
		AddressLine2: strings.TrimSpace(s.AddressLine2),
		City:         strings.TrimSpace(s.City),
		State:        strings.TrimSpace(s.State),
		Pincode:      strings.TrimSpace(s.Pincode),
		Landmark:     strings.TrimSpace(s.Landmark),
	}
}

// Submit creates or replaces the caller's KYC record and marks the user's
// verification pending.
func (s *Service) Submit(ctx context.Context, caller utils.Caller, in Submission) (*models.KYC, error) {
	existing, err := s.records.ByUser(ctx, caller.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == models.KYCVerified {
		return nil, apperr.BadRequest("KYC already verified for this user")
	}
	if in.IDProofDocument == "" || in.AddressProofDocument == "" {
		return nil, apperr.BadRequest("Please upload both ID proof and address proof documents")
	}

	now := s.Now()
	k := &models.KYC{
		ID:   primitive.NewObjectID(),
		User: caller.ID,
		IDProof: models.IDProof{
			Type:        in.IDProofType,
			Number:      strings.TrimSpace(in.IDProofNumber),
			DocumentURL: in.IDProofDocument,
		},
		AddressProof: models.AddressProof{
			Type:        in.AddressProofType,
			DocumentURL: in.AddressProofDocument,
		},
		CurrentAddress: in.address(),
		Status:         models.KYCPending,
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if existing != nil {
		k.ID = existing.ID
		k.CreatedAt = existing.CreatedAt
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	if err := s.records.Upsert(ctx, k); err != nil {
		return nil, err
	}
	if err := s.users.SetKYC(ctx, caller.ID, models.KYCPending, &k.ID); err != nil {
		return nil, err
	}
	return k, nil
}

// GetMine returns the caller's KYC record.
func (s *Service) GetMine(ctx context.Context, caller utils.Caller) (*models.KYC, error) {
	k, err := s.records.ByUser(ctx, caller.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound("No KYC documents found").With("kycStatus", models.KYCNotSubmitted)
	}
	return k, err
}

// Update edits an unverified record and sends it back for review. The
// second return value lists documents the update superseded.
func (s *Service) Update(ctx context.Context, caller utils.Caller, in Submission) (*models.KYC, []string, error) {
	k, err := s.records.ByUser(ctx, caller.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil, apperr.NotFound("No KYC found. Please submit KYC first.")
	}
	if err != nil {
		return nil, nil, err
	}
	if k.Status == models.KYCVerified {
		return nil, nil, apperr.BadRequest("Cannot update verified KYC")
	}

	if in.IDProofType != "" {
		k.IDProof.Type = in.IDProofType
	}
	if v := strings.TrimSpace(in.IDProofNumber); v != "" {
		k.IDProof.Number = v
	}
	if in.AddressProofType != "" {
		k.AddressProof.Type = in.AddressProofType
	}
	mergeAddress(&k.CurrentAddress, in.address())

	var superseded []string
	if in.IDProofDocument != "" {
		superseded = append(superseded, k.IDProof.DocumentURL)
		k.IDProof.DocumentURL = in.IDProofDocument
		k.IDProof.Verified = false
	}
	if in.AddressProofDocument != "" {
		superseded = append(superseded, k.AddressProof.DocumentURL)
		k.AddressProof.DocumentURL = in.AddressProofDocument
		k.AddressProof.Verified = false
	}

	now := s.Now()
	k.Status = models.KYCPending
	k.SubmittedAt = now
	k.RejectionReason = ""
	k.UpdatedAt = now
	if err := k.Validate(); err != nil {
		return nil, nil, err
	}
	if err := s.records.Replace(ctx, k.ID, k); err != nil {
		return nil, nil, err
	}
	if err := s.users.SetKYC(ctx, caller.ID, models.KYCPending, nil); err != nil {
		return nil, nil, err
	}
	return k, superseded, nil
}

func mergeAddress(dst *models.KYCAddress, src models.KYCAddress) {
	if src.AddressLine1 != "" {
		dst.AddressLine1 = src.AddressLine1
	}
	if src.AddressLine2 != "" {
		dst.AddressLine2 = src.AddressLine2
	}
	if src.City != "" {
		dst.City = src.City
	}
	if src.State != "" {
		dst.State = src.State
	}
	if src.Pincode != "" {
		dst.Pincode = src.Pincode
	}
	if src.Landmark != "" {
		dst.Landmark = src.Landmark
	}
}

// ListAll pages over submissions, most recently submitted first.
func (s *Service) ListAll(ctx context.Context, status string, page, limit int) ([]models.KYC, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	list, total, err := s.records.Find(ctx, filter, repo.ListOptions{
		Page:  page,
		Limit: limit,
		Sort:  bson.D{{Key: "submittedAt", Value: -1}},
	})
	if err != nil {
		return nil, 0, err
	}
	s.populateAll(ctx, list)
	return list, total, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.KYC, error) {
	k, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populate(ctx, k)
	return k, nil
}

// Verify marks both proofs verified and unlocks renting for the user.
func (s *Service) Verify(ctx context.Context, admin utils.Caller, id string) (*models.KYC, error) {
	k, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if k.Status == models.KYCVerified {
		return nil, apperr.BadRequest("KYC already verified")
	}
	now := s.Now()
	k.Status = models.KYCVerified
	k.IDProof.Verified = true
	k.AddressProof.Verified = true
	k.VerifiedBy = &admin.ID
	k.VerifiedAt = &now
	if err := s.decide(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *Service) Reject(ctx context.Context, admin utils.Caller, id, reason string) (*models.KYC, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.BadRequest("Please provide a reason for rejection")
	}
	k, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if k.Status == models.KYCVerified {
		return nil, apperr.BadRequest("Cannot reject verified KYC")
	}
	now := s.Now()
	k.Status = models.KYCRejected
	k.RejectionReason = reason
	k.VerifiedBy = &admin.ID
	k.VerifiedAt = &now
	if err := s.decide(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *Service) MarkUnderReview(ctx context.Context, id string) (*models.KYC, error) {
	k, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	k.Status = models.KYCUnderReview
	if err := s.decide(ctx, k); err != nil {
		return nil, err
	}
	return k, nil
}

// decide persists an admin decision and mirrors the status onto the user.
func (s *Service) decide(ctx context.Context, k *models.KYC) error {
	k.UpdatedAt = s.Now()
	if err := s.records.Replace(ctx, k.ID, k); err != nil {
		return err
	}
	if err := s.users.SetKYC(ctx, k.User, k.Status, nil); err != nil {
		return err
	}
	s.populate(ctx, k)
	return nil
}

// Stats counts submissions per status with a running total.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	groups, err := s.records.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]int64{
		"total":                       0,
		string(models.KYCPending):     0,
		string(models.KYCUnderReview): 0,
		string(models.KYCVerified):    0,
		string(models.KYCRejected):    0,
	}
	for _, g := range groups {
		out[g.ID] = g.Count
		out["total"] += g.Count
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.KYC, error) {
	oid, err := utils.ParseObjectID(id)
	if err != nil {
		return nil, err
	}
	k, err := s.records.Get(ctx, oid)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.New(http.StatusNotFound, "KYC not found")
	}
	return k, err
}

func (s *Service) populate(ctx context.Context, k *models.KYC) {
	list := []models.KYC{*k}
	s.populateAll(ctx, list)
	*k = list[0]
}

func (s *Service) populateAll(ctx context.Context, list []models.KYC) {
	if err := s.records.PopulateUsers(ctx, list); err != nil {
		logrus.WithError(err).Warn("populate kyc users failed")
	}
}
