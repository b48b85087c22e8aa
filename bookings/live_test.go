package bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"makeeasy/globals"
	"makeeasy/rdx"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func liveServer(hub *Hub, userID primitive.ObjectID, role, bookingID string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), globals.UserIDKey, userID.Hex())
		ctx = context.WithValue(ctx, globals.RoleKey, role)
		hub.HandleWS(w, r.WithContext(ctx), httprouter.Params{{Key: "id", Value: bookingID}})
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestHubRelaysEventsToOwner(t *testing.T) {
	store := &MockStore{}
	owner := primitive.NewObjectID()
	b := serviceBooking(owner)
	store.On("Get", mock.Anything, b.ID).Return(b, nil)

	hub := NewHub(store, nil)
	messages := make(chan *redis.Message, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, messages)

	srv := liveServer(hub, owner, globals.RoleUser, b.ID.Hex())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers(b.ID.Hex()) == 1 }, 2*time.Second, 10*time.Millisecond)

	other := primitive.NewObjectID().Hex()
	messages <- &redis.Message{Channel: rdx.RentalEventsChannel, Payload: `{"booking":"` + other + `","status":"paused"}`}
	messages <- &redis.Message{Channel: rdx.RentalEventsChannel, Payload: `{"booking":"` + b.ID.Hex() + `","kind":"rental","action":"pause","status":"paused"}`}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), b.ID.Hex())
	assert.Contains(t, string(payload), `"status":"paused"`)
}

func TestHubRejectsStranger(t *testing.T) {
	store := &MockStore{}
	b := serviceBooking(primitive.NewObjectID())
	store.On("Get", mock.Anything, b.ID).Return(b, nil)

	hub := NewHub(store, nil)
	srv := liveServer(hub, primitive.NewObjectID(), globals.RoleUser, b.ID.Hex())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Subscribers(b.ID.Hex()))
}

func TestHubRemovesClosedSubscribers(t *testing.T) {
	store := &MockStore{}
	owner := primitive.NewObjectID()
	b := serviceBooking(owner)
	store.On("Get", mock.Anything, b.ID).Return(b, nil)

	hub := NewHub(store, nil)
	srv := liveServer(hub, primitive.NewObjectID(), globals.RoleAdmin, b.ID.Hex())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Subscribers(b.ID.Hex()) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(b.ID.Hex()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"https://app.makeeasy.in"}, "", true},
		{"listed origin", []string{" https://app.makeeasy.in", "https://admin.makeeasy.in"}, "https://app.makeeasy.in", true},
		{"wildcard", []string{"*"}, "https://anywhere.example", true},
		{"unlisted origin", []string{"https://app.makeeasy.in"}, "https://evil.example", false},
		{"same host without list", nil, "http://api.makeeasy.in", true},
		{"other host without list", nil, "http://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(&MockStore{}, tt.origins)
			r := httptest.NewRequest(http.MethodGet, "http://api.makeeasy.in/api/rentals/x/live", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, hub.checkOrigin(r))
		})
	}
}

func TestHubRefusesForeignOrigin(t *testing.T) {
	store := &MockStore{}
	owner := primitive.NewObjectID()
	b := serviceBooking(owner)
	store.On("Get", mock.Anything, b.ID).Return(b, nil)

	hub := NewHub(store, []string{"https://app.makeeasy.in"})
	srv := liveServer(hub, owner, globals.RoleUser, b.ID.Hex())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Subscribers(b.ID.Hex()))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {"https://app.makeeasy.in"}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(b.ID.Hex()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsSubscriberThatFailsWrite(t *testing.T) {
	store := &MockStore{}
	owner := primitive.NewObjectID()
	b := serviceBooking(owner)
	store.On("Get", mock.Anything, b.ID).Return(b, nil)

	hub := NewHub(store, nil)
	srv := liveServer(hub, owner, globals.RoleUser, b.ID.Hex())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(b.ID.Hex()) == 1 }, 2*time.Second, 10*time.Millisecond)

	// close the server side so the next write fails
	hub.mu.Lock()
	server := hub.subscribers[b.ID.Hex()][0]
	hub.mu.Unlock()
	server.Close()

	hub.broadcast(b.ID.Hex(), []byte(`{"status":"paused"}`))
	assert.Equal(t, 0, hub.Subscribers(b.ID.Hex()))
}
