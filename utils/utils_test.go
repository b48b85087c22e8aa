package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"makeeasy/apperr"
	"makeeasy/globals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithAppError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"app error", apperr.NotFound("Rental not found"), http.StatusNotFound, "Rental not found"},
		{"wrapped app error", fmt.Errorf("load: %w", apperr.Forbidden("Not authorized")), http.StatusForbidden, "Not authorized"},
		{"cast", &apperr.CastError{Value: "abc"}, http.StatusNotFound, "Resource not found with id of abc"},
		{"duplicate", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, http.StatusBadRequest, "Duplicate field value entered"},
		{"validation", &apperr.ValidationError{Fields: []string{"Please add a name", "Please add an email"}}, http.StatusBadRequest, "Please add a name, Please add an email"},
		{"no documents", mongo.ErrNoDocuments, http.StatusNotFound, "Resource not found"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondWithAppError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.msg, body["error"])
		})
	}
}

func TestRespondWithAppErrorExtra(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithAppError(rec, apperr.Forbidden("KYC verification required before renting").
		With("redirect", globals.KYCRedirect).
		With("kycStatus", "pending"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "/kyc-upload", body["redirect"])
	assert.Equal(t, "pending", body["kycStatus"])
}

func TestParseQueryOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500&search=%20sofa%20&status=active", nil)
	opts := ParseQueryOptions(req, 20)
	assert.Equal(t, 3, opts.Page)
	assert.Equal(t, 100, opts.Limit)
	assert.Equal(t, "sofa", opts.Search)
	assert.Equal(t, "active", opts.Status)

	opts = ParseQueryOptions(httptest.NewRequest(http.MethodGet, "/?page=-1", nil), 20)
	assert.Equal(t, 1, opts.Page)
	assert.Equal(t, 20, opts.Limit)
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 20))
	assert.Equal(t, 1, Pages(20, 20))
	assert.Equal(t, 2, Pages(21, 20))
	assert.Equal(t, 0, Pages(5, 0))
}

func TestParseObjectID(t *testing.T) {
	_, err := ParseObjectID("64b7f0c2a1b2c3d4e5f60718")
	assert.NoError(t, err)

	_, err = ParseObjectID("nope")
	var cast *apperr.CastError
	require.ErrorAs(t, err, &cast)
	assert.Equal(t, "nope", cast.Value)
}

func TestParseDate(t *testing.T) {
	d := ParseDate("2024-03-15")
	require.NotNil(t, d)
	assert.Equal(t, 15, d.Day())
	assert.NotNil(t, ParseDate("2024-03-15T10:00:00Z"))
	assert.Nil(t, ParseDate("15/03/2024"))
	assert.Nil(t, ParseDate(""))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitTags(" a, b ,a,,"))
	assert.Empty(t, SplitTags(""))
}

func TestCallerFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := CallerFromRequest(req)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)

	ctx := context.WithValue(req.Context(), globals.UserIDKey, "64b7f0c2a1b2c3d4e5f60718")
	ctx = context.WithValue(ctx, globals.RoleKey, globals.RoleAdmin)
	caller, err := CallerFromRequest(req.WithContext(ctx))
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin())
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", caller.ID.Hex())
}
