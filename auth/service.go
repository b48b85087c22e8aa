// Package auth registers users, signs bearer tokens and manages the
// caller's own profile.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"makeeasy/apperr"
	"makeeasy/globals"
	"makeeasy/middleware"
	"makeeasy/models"
	"makeeasy/repo"
	"makeeasy/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type UserStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	Replace(ctx context.Context, id primitive.ObjectID, u *models.User) error
}

// Revoker remembers logged-out tokens until they expire.
type Revoker interface {
	RevokeToken(ctx context.Context, token string, ttl time.Duration) error
}

type Service struct {
	users    UserStore
	revoker  Revoker
	TokenTTL time.Duration
	cost     int

	Now func() time.Time
}

func NewService(users UserStore, revoker Revoker, tokenTTL time.Duration) *Service {
	return &Service{
		users:    users,
		revoker:  revoker,
		TokenTTL: tokenTTL,
		cost:     bcrypt.DefaultCost,
		Now:      time.Now,
	}
}

// Session is a signed token and the user it was issued for.
type Session struct {
	Token string
	User  *models.User
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return apperr.BadRequest("Password must be at least 6 characters")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email != "" {
		_, err := s.users.ByEmail(ctx, email)
		if err == nil {
			return nil, apperr.BadRequest("Email already registered")
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}
	role := in.Role
	if role == "" {
		role = globals.RoleUser
	}
	if role != globals.RoleUser && role != globals.RoleAdmin {
		return nil, apperr.BadRequest(`Role must be either "user" or "admin"`)
	}
	if role == globals.RoleAdmin {
		return nil, apperr.Forbidden("Admin accounts cannot be self-registered")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	now := s.Now()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Role:      role,
		KYCStatus: models.KYCNotSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u.Password = string(hash)
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

// Login checks credentials. With adminOnly set, non-admin accounts are
// treated as unknown.
func (s *Service) Login(ctx context.Context, email, password string, adminOnly bool) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.BadRequest("Please provide an email and password")
	}
	invalid := "Invalid credentials"
	if adminOnly {
		invalid = "Invalid admin credentials"
	}

	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && adminOnly && u.Role != globals.RoleAdmin) {
		return nil, apperr.New(http.StatusUnauthorized, invalid)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.New(http.StatusUnauthorized, invalid)
	}
	return s.session(u)
}

// Logout revokes token for the rest of its lifetime. Unparseable tokens
// are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" || s.revoker == nil {
		return nil
	}
	claims, err := middleware.ValidateJWT(token)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.RevokeToken(ctx, token, claims.ExpiresAt.Sub(s.Now()))
}

func (s *Service) Me(ctx context.Context, caller utils.Caller) (*models.User, error) {
	return s.load(ctx, caller.ID)
}

// DetailsInput carries the profile fields a user may change. Nil fields are
// left untouched.
type DetailsInput struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	ProfileImage *string `json:"profileImage"`
}

func (s *Service) UpdateDetails(ctx context.Context, caller utils.Caller, in DetailsInput) (*models.User, error) {
	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != u.Email {
			other, err := s.users.ByEmail(ctx, email)
			if err == nil && other.ID != u.ID {
				return nil, apperr.BadRequest("Email already registered")
			}
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
		}
		u.Email = email
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.ProfileImage != nil {
		u.ProfileImage = *in.ProfileImage
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdatePassword swaps the password after checking the current one and
// issues a fresh token.
func (s *Service) UpdatePassword(ctx context.Context, caller utils.Caller, current, next string) (*Session, error) {
	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(current)) != nil {
		return nil, apperr.Unauthorized("Current password is incorrect")
	}
	if err := checkPassword(next); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return nil, err
	}
	u.Password = string(hash)
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

// SetProfileImage stores a new avatar URL and returns the previous one.
func (s *Service) SetProfileImage(ctx context.Context, caller utils.Caller, url string) (*models.User, string, error) {
	u, err := s.load(ctx, caller.ID)
	if err != nil {
		return nil, "", err
	}
	old := u.ProfileImage
	u.ProfileImage = url
	if err := s.save(ctx, u); err != nil {
		return nil, "", err
	}
	return u, old, nil
}

// ForgotPassword only confirms the account exists; no reset mail is sent.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	_, err := s.users.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound("No user with that email")
	}
	return err
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := middleware.GenerateToken(u.ID.Hex(), u.Role, u.Email, s.TokenTTL)
	if err != nil {
		return nil, apperr.Internal("Failed to generate token")
	}
	return &Session{Token: token, User: u}, nil
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.New(http.StatusNotFound, "User not found")
	}
	return u, err
}

func (s *Service) save(ctx context.Context, u *models.User) error {
	u.UpdatedAt = s.Now()
	if err := u.Validate(); err != nil {
		return err
	}
	return s.users.Replace(ctx, u.ID, u)
}
