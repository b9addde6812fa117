// Package httpapi exposes the broker over HTTP: the verify and issue
// surfaces, the websocket session endpoint, and the usual service plumbing.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vclink.org/internal/broker"
	"vclink.org/internal/connector"
	"vclink.org/internal/notify"
	"vclink.org/internal/obs"
)

// ReadyProbe — readiness check (pings the DB when one is configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer. All collaborators come in through New.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	broker   *broker.Broker
	registry *connector.Registry
	hub      *notify.Hub

	rateBurst  int
	ratePerSec int
	maxBody    int64
}

func New(rp ReadyProbe, version string, b *broker.Broker, reg *connector.Registry, hub *notify.Hub) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		broker:     b,
		registry:   reg,
		hub:        hub,
		rateBurst:  20,
		ratePerSec: 10,
		maxBody:    1 << 20,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// broker surfaces
	a.mux.HandleFunc("/api/verify", a.handleAcceptVerify)
	a.mux.HandleFunc("/api/verify/", a.handleVerifyConnector)
	a.mux.HandleFunc("/api/issue", a.handleAcceptIssue)
	a.mux.HandleFunc("/api/issue/", a.handleIssueConnector)

	// outcome notification sessions
	if hub != nil {
		a.mux.Handle("/api/session", hub)
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimit overrides the default per-IP limiter knobs.
func (a *API) SetRateLimit(burst, perSec int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSec > 0 {
		a.ratePerSec = perSec
	}
}

// SetMaxBodyBytes overrides the request body cap.
func (a *API) SetMaxBodyBytes(n int64) {
	if n > 0 {
		a.maxBody = n
	}
}

// Handler returns the full middleware chain. WebSocket upgrades bypass the
// chain: the wrapped response writers hide http.Hijacker from the upgrade.
func (a *API) Handler() http.Handler {
	chain := http.Handler(a.mux)
	chain = Logging(chain)
	chain = obs.Instrument(chain)
	chain = MaxBodyBytes(chain, a.maxBody)
	chain = RateLimit(chain, a.rateBurst, a.ratePerSec)
	chain = CORS(chain)
	chain = SecurityHeaders(chain)
	chain = TraceID(chain)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isWebSocketUpgrade(r) {
			a.mux.ServeHTTP(w, r)
			return
		}
		chain.ServeHTTP(w, r)
	})
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "vclink-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "vclink-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if tid := TraceIDFromContext(r.Context()); tid != "" {
		payload["trace_id"] = tid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
