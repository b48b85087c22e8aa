package pay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"makeeasy/models"
	"makeeasy/repo"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

type memIdempotency struct {
	mu   sync.Mutex
	recs map[string]*models.IdempotencyRecord
}

func (m *memIdempotency) Insert(_ context.Context, rec *models.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.Key]; ok {
		return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
	}
	cp := *rec
	m.recs[rec.Key] = &cp
	return nil
}

func (m *memIdempotency) ByKey(_ context.Context, key string) (*models.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[key]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memIdempotency) StoreResponse(_ context.Context, key string, response map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[key].Response = response
	return nil
}

func idempotentServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	store := &memIdempotency{recs: map[string]*models.IdempotencyRecord{}}
	calls := 0
	handler := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"n":` + strconv.Itoa(calls) + `}`))
	}
	router := httprouter.New()
	router.POST("/api/orders", Idempotent(store)(handler))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func post(t *testing.T, url, key, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/api/orders", strings.NewReader(body))
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	return resp, buf.String()
}

func TestWithoutKeyEveryRequestRuns(t *testing.T) {
	srv, calls := idempotentServer(t)

	post(t, srv.URL, "", `{"items":[]}`)
	post(t, srv.URL, "", `{"items":[]}`)
	assert.Equal(t, 2, *calls)
}

func TestReplayReturnsStoredResponse(t *testing.T) {
	srv, calls := idempotentServer(t)

	first, body1 := post(t, srv.URL, "k-1", `{"items":[1]}`)
	second, body2 := post(t, srv.URL, "k-1", `{"items":[1]}`)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, body1, body2)
}

func TestKeyReuseWithDifferentBodyConflicts(t *testing.T) {
	srv, calls := idempotentServer(t)

	post(t, srv.URL, "k-2", `{"items":[1]}`)
	resp, _ := post(t, srv.URL, "k-2", `{"items":[2]}`)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 1, *calls)
}

func TestStoredStatus(t *testing.T) {
	assert.Equal(t, 201, storedStatus(int32(201)))
	assert.Equal(t, 201, storedStatus(int64(201)))
	assert.Equal(t, 201, storedStatus(float64(201)))
	assert.Equal(t, 201, storedStatus(201))
	assert.Equal(t, http.StatusOK, storedStatus("x"))
}
