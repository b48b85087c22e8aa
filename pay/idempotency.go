package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"makeeasy/db"
	"makeeasy/models"
	"makeeasy/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// IdempotencyTTL is how long a stored response is replayed.
const IdempotencyTTL = 24 * time.Hour

type IdempotencyStore interface {
	Insert(ctx context.Context, rec *models.IdempotencyRecord) error
	ByKey(ctx context.Context, key string) (*models.IdempotencyRecord, error)
	StoreResponse(ctx context.Context, key string, response map[string]interface{}) error
}

func computeRequestHash(r *http.Request, bodyBytes []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter tees the response so it can be stored for replay.
type captureWriter struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func (c *captureWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
		c.ResponseWriter.WriteHeader(status)
	}
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.buf.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotent replays responses for requests carrying an Idempotency-Key.
// Without the header the request passes through untouched. The first request
// with a key runs and its response is stored; a repeat with the same body
// gets the stored response, a repeat with a different body gets 409, and a
// repeat that arrives while the first is still running runs again.
func Idempotent(store IdempotencyStore) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next(w, r, ps)
				return
			}

			userID := utils.GetUserIDFromRequest(r)
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			reqHash := computeRequestHash(r, bodyBytes, userID)
			now := time.Now()
			rec := &models.IdempotencyRecord{
				Key:         key,
				Method:      r.Method,
				Path:        r.URL.Path,
				UserID:      userID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(IdempotencyTTL),
			}

			ctx := r.Context()
			err = store.Insert(ctx, rec)
			if err == nil {
				cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
				next(cw, r, ps)

				var parsed interface{}
				if err := json.Unmarshal(cw.buf.Bytes(), &parsed); err != nil {
					parsed = cw.buf.String()
				}
				response := map[string]interface{}{"status": cw.status, "body": parsed}
				if err := store.StoreResponse(context.WithoutCancel(ctx), key, response); err != nil {
					logrus.WithError(err).WithField("key", key).Warn("storing idempotent response failed")
				}
				return
			}

			if !db.IsDuplicateKeyError(err) {
				logrus.WithError(err).Error("idempotency insert failed")
				utils.RespondWithError(w, http.StatusInternalServerError, "Idempotency lookup error")
				return
			}

			existing, err := store.ByKey(ctx, key)
			if err != nil {
				utils.RespondWithError(w, http.StatusInternalServerError, "Idempotency lookup error")
				return
			}
			if existing.RequestHash != reqHash {
				utils.RespondWithError(w, http.StatusConflict, "Idempotency-Key reused with a different request")
				return
			}
			if existing.Response != nil {
				w.Header().Set("Idempotent-Replayed", "true")
				utils.RespondWithJSON(w, storedStatus(existing.Response["status"]), existing.Response["body"])
				return
			}

			next(w, r, ps)
		}
	}
}

// storedStatus reads the status back from whichever numeric type the
// store decoded it as.
func storedStatus(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return http.StatusOK
}
