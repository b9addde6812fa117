package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func dialSession(t *testing.T, url, requestID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url+"?requestId="+requestID, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForSessions(t *testing.T, h *Hub, requestID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.SessionCount(requestID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d sessions for %s, have %d", want, requestID, h.SessionCount(requestID))
}

func TestHubDeliversRedirect(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn := dialSession(t, "ws"+srv.URL[len("http"):], "verify:u1")
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForSessions(t, h, "verify:u1", 1)

	delivered := h.Notify(context.Background(), "verify:u1", "success", "https://example.com/cb.token")
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var evt Event
	if err := wsjson.Read(ctx, conn, &evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Type != "redirect" || evt.Status != "success" || evt.URL != "https://example.com/cb.token" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestHubDropsWhenNoSession(t *testing.T) {
	h := NewHub(zerolog.Nop())
	if delivered := h.Notify(context.Background(), "verify:nobody", "success", "https://example.com/cb"); delivered != 0 {
		t.Fatalf("expected 0 deliveries, got %d", delivered)
	}
}

func TestHubOnlyNotifiesMatchingRequest(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	wsURL := "ws" + srv.URL[len("http"):]
	connA := dialSession(t, wsURL, "verify:a")
	defer connA.Close(websocket.StatusNormalClosure, "")
	connB := dialSession(t, wsURL, "verify:b")
	defer connB.Close(websocket.StatusNormalClosure, "")
	waitForSessions(t, h, "verify:a", 1)
	waitForSessions(t, h, "verify:b", 1)

	if delivered := h.Notify(context.Background(), "verify:a", "failure", "https://example.com/cb"); delivered != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", delivered)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var evt Event
	if err := wsjson.Read(ctx, connA, &evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if evt.Status != "failure" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestHubForgetsClosedSessions(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn := dialSession(t, "ws"+srv.URL[len("http"):], "verify:gone")
	waitForSessions(t, h, "verify:gone", 1)

	_ = conn.Close(websocket.StatusNormalClosure, "")
	waitForSessions(t, h, "verify:gone", 0)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"?requestId=verify:u1", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://evil.example"}},
	})
	if err == nil {
		t.Fatal("expected dial from foreign origin to fail")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if h.SessionCount("verify:u1") != 0 {
		t.Fatal("foreign-origin session must not register")
	}
}

func TestHubAllowsConfiguredOrigin(t *testing.T) {
	h := NewHub(zerolog.Nop())
	h.SetOriginPatterns([]string{"app.example.com"})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"?requestId=verify:u1", &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://app.example.com"}},
	})
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForSessions(t, h, "verify:u1", 1)
}

func TestHubRequiresRequestID(t *testing.T) {
	h := NewHub(zerolog.Nop())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err == nil {
		t.Fatal("expected dial without requestId to fail")
	}
	if resp != nil && resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
