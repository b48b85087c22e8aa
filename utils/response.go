package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"makeeasy/apperr"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

type M map[string]interface{}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"success": false, "error": msg})
}

// RespondWithAppError maps any handler error to a status and error body.
// Store-level failures are translated the same way everywhere: bad ids and
// missing documents are 404, duplicate keys and validation failures are 400.
// Everything else is a 500 carrying the raw message.
func RespondWithAppError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Error("request failed")
	}
	RespondWithJSON(w, status, body)
}

func errorResponse(err error) (int, M) {
	body := M{"success": false}

	var (
		ae   *apperr.Error
		cast *apperr.CastError
		ve   *apperr.ValidationError
	)
	switch {
	case errors.As(err, &ae):
		for k, v := range ae.Extra {
			body[k] = v
		}
		body["error"] = ae.Message
		return ae.Status, body
	case errors.As(err, &cast):
		body["error"] = "Resource not found with id of " + cast.Value
		return http.StatusNotFound, body
	case mongo.IsDuplicateKeyError(err):
		body["error"] = "Duplicate field value entered"
		return http.StatusBadRequest, body
	case errors.As(err, &ve):
		body["error"] = ve.Error()
		return http.StatusBadRequest, body
	case errors.Is(err, mongo.ErrNoDocuments):
		body["error"] = "Resource not found"
		return http.StatusNotFound, body
	default:
		msg := "Server Error"
		if err != nil && err.Error() != "" {
			msg = err.Error()
		}
		body["error"] = msg
		return http.StatusInternalServerError, body
	}
}

// DecodeJSON reads the request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest("Invalid JSON payload")
	}
	return nil
}
