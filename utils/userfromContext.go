package utils

import (
	"net/http"

	"makeeasy/apperr"
	"makeeasy/globals"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

func GetRoleFromRequest(r *http.Request) string {
	role, _ := r.Context().Value(globals.RoleKey).(string)
	return role
}

func IsAdmin(r *http.Request) bool {
	return GetRoleFromRequest(r) == globals.RoleAdmin
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   primitive.ObjectID
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == globals.RoleAdmin
}

// CallerFromRequest resolves the authenticated user, or fails with 401.
func CallerFromRequest(r *http.Request) (Caller, error) {
	raw := GetUserIDFromRequest(r)
	if raw == "" {
		return Caller{}, apperr.Unauthorized("Not authorized to access this route")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return Caller{}, apperr.Unauthorized("Not authorized to access this route")
	}
	return Caller{ID: id, Role: GetRoleFromRequest(r)}, nil
}
