package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"vclink.org/internal/broker"
	"vclink.org/internal/request"
)

// GET /api/issue?token=<signed JWT>
func (a *API) handleAcceptIssue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	raw := r.URL.Query().Get("token")
	if strings.TrimSpace(raw) == "" {
		writeError(w, r, http.StatusBadRequest, "token query parameter is required")
		return
	}

	req, err := a.broker.AcceptIssueToken(r.Context(), raw)
	if err != nil {
		handleBrokerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, acceptResponse{
		Request: requestView{
			RequestID:   req.RequestID(),
			Type:        req.TypeName,
			CallbackURL: req.CallbackURL,
		},
		Connectors: connectorNames(a.registry.Available(request.KindIssue, req.TypeCategory)),
	})
}

// GET /api/issue/{connector}?issueRequestId=...
// POST /api/issue/{connector}/complete?issueRequestId=...
func (a *API) handleIssueConnector(w http.ResponseWriter, r *http.Request) {
	name, step, ok := splitConnectorPath(r.URL.Path, "/api/issue/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	resolved, err := a.resolveKind(w, r, r.URL.Query().Get("issueRequestId"), request.KindIssue)
	if err != nil {
		return
	}

	conn, err := a.registry.Issue(name, resolved.Issue)
	if err != nil {
		handleBrokerError(w, r, err)
		return
	}

	switch step {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		payload, err := conn.HandleIssueRequest(r.Context(), resolved.Issue)
		if err != nil {
			writeError(w, r, http.StatusBadGateway, "connector failed to build issuance request")
			return
		}
		writeJSON(w, http.StatusOK, json.RawMessage(payload))
	case "complete":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "unreadable request body")
			return
		}

		status := broker.StatusSuccess
		data, err := conn.HandleIssueCompletion(r.Context(), resolved.Issue, body)
		if err != nil {
			status = broker.StatusFailure
			data, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		a.finishFlow(w, r, resolved.RequestID(), resolved.CallbackURL(), status, name, data)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
