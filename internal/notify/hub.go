// Package notify pushes terminal request outcomes to browser sessions over
// WebSocket. A session registers interest in one requestId (usually from the
// page showing the connector's QR code) and receives at most one redirect
// event; the callback URL remains the feedback path of record, so undelivered
// events are dropped rather than buffered.
package notify

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const sendTimeout = 5 * time.Second

// Event instructs the client to redirect the end-user's browser. Redirecting
// twice to the same URL is harmless, so duplicate delivery needs no guard.
type Event struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// Hub tracks open sessions keyed by requestId and fans outcome events out to
// them.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string][]*websocket.Conn
	origins  []string
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string][]*websocket.Conn),
		origins:  []string{"localhost:*", "127.0.0.1:*"},
		log:      log,
	}
}

// SetOriginPatterns replaces the origin host patterns browser sessions may
// connect from. Same-origin requests always pass. Call before serving.
func (h *Hub) SetOriginPatterns(patterns []string) {
	h.origins = patterns
}

// Notify delivers a one-shot redirect event to every session registered for
// requestID and reports how many sessions received it. Zero registered
// sessions is a normal outcome, not an error.
func (h *Hub) Notify(ctx context.Context, requestID, status, redirectURL string) int {
	evt := Event{Type: "redirect", Status: status, URL: redirectURL}

	h.mu.RLock()
	conns := make([]*websocket.Conn, len(h.sessions[requestID]))
	copy(conns, h.sessions[requestID])
	h.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := wsjson.Write(sendCtx, conn, evt)
		cancel()
		if err != nil {
			h.log.Debug().Err(err).Str("request_id", requestID).Msg("notify write failed")
			continue
		}
		delivered++
	}
	return delivered
}

// ServeHTTP upgrades the connection and registers it for the requestId given
// in the query string. The connection stays registered until the peer closes
// it or the read side fails.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(r.URL.Query().Get("requestId"))
	if requestID == "" {
		http.Error(w, "requestId query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.Info().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.register(requestID, conn)
	h.monitor(r.Context(), requestID, conn)
}

func (h *Hub) register(requestID string, conn *websocket.Conn) {
	h.mu.Lock()
	h.sessions[requestID] = append(h.sessions[requestID], conn)
	h.mu.Unlock()
}

// monitor blocks reading from the connection; the hub never expects inbound
// messages, so the first read returning is the signal to drop the session.
func (h *Hub) monitor(ctx context.Context, requestID string, conn *websocket.Conn) {
	_, _, err := conn.Reader(ctx)
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		h.log.Debug().Err(err).Str("request_id", requestID).Msg("session closed")
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.remove(requestID, conn)
}

func (h *Hub) remove(requestID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var remaining []*websocket.Conn
	for _, c := range h.sessions[requestID] {
		if c != conn {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == 0 {
		delete(h.sessions, requestID)
		return
	}
	h.sessions[requestID] = remaining
}

// SessionCount reports the sessions registered for a requestId.
func (h *Hub) SessionCount(requestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[requestID])
}
