package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"makeeasy/rdx"
	"makeeasy/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Hub fans rental events out to websocket subscribers keyed by booking id.
type Hub struct {
	bookings Store
	origins  []string
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[string][]*websocket.Conn
}

// NewHub builds a hub that accepts upgrades from the given origins. "*"
// allows any origin; with no origins only same-host pages may connect.
func NewHub(bookings Store, allowedOrigins []string) *Hub {
	h := &Hub{bookings: bookings, subscribers: make(map[string][]*websocket.Conn)}
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			h.origins = append(h.origins, o)
		}
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin admits non-browser clients, which send no Origin header.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Run relays messages until ctx is done or messages closes.
func (h *Hub) Run(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg, ok := <-messages:
			if !ok {
				h.closeAll()
				return
			}
			var ev rdx.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logrus.WithError(err).Warn("dropping malformed rental event")
				continue
			}
			if ev.Booking == "" {
				continue
			}
			h.broadcast(ev.Booking, []byte(msg.Payload))
		}
	}
}

// GET /api/rentals/:id/live
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, err := utils.CallerFromRequest(r)
	if err != nil {
		utils.RespondWithAppError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	id, err := utils.ParseObjectID(ps.ByName("id"))
	if err != nil {
		cancel()
		utils.RespondWithAppError(w, err)
		return
	}
	b, err := h.bookings.Get(ctx, id)
	cancel()
	if err != nil {
		utils.RespondWithAppError(w, notFound(err, "Rental not found"))
		return
	}
	if !b.OwnedBy(caller.ID) && !caller.IsAdmin() {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized to access this rental")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}

	key := id.Hex()
	h.add(key, conn)

	for {
		// keep reading so close frames are seen
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(key, conn)
	conn.Close()
}

func (h *Hub) add(key string, conn *websocket.Conn) {
	h.mu.Lock()
	h.subscribers[key] = append(h.subscribers[key], conn)
	h.mu.Unlock()
}

func (h *Hub) remove(key string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subscribers[key]
	kept := make([]*websocket.Conn, 0, len(conns))
	for _, c := range conns {
		if c != conn {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.subscribers, key)
		return
	}
	h.subscribers[key] = kept
}

// broadcast writes outside the lock. Only Run calls it, so writes to one
// connection never overlap.
func (h *Hub) broadcast(key string, val []byte) {
	h.mu.Lock()
	conns := append([]*websocket.Conn(nil), h.subscribers[key]...)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, val); err != nil {
			h.remove(key, conn)
			conn.Close()
		}
	}
}

// Subscribers reports how many connections listen on a booking.
func (h *Hub) Subscribers(bookingID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[bookingID])
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, conns := range h.subscribers {
		for _, c := range conns {
			c.Close()
		}
		delete(h.subscribers, key)
	}
}
