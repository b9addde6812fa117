package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"vclink.org/internal/broker"
	"vclink.org/internal/connector"
	"vclink.org/internal/obs"
	"vclink.org/internal/request"
)

type requestView struct {
	RequestID   string `json:"requestId"`
	Type        string `json:"type"`
	CallbackURL string `json:"callbackUrl"`
}

type acceptResponse struct {
	Request    requestView `json:"request"`
	Connectors []string    `json:"connectors"`
}

type disclosureResponse struct {
	Status      string `json:"status"`
	RedirectURL string `json:"redirectUrl"`
}

// GET /api/verify?token=<signed JWT>
func (a *API) handleAcceptVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	raw := r.URL.Query().Get("token")
	if strings.TrimSpace(raw) == "" {
		writeError(w, r, http.StatusBadRequest, "token query parameter is required")
		return
	}

	req, err := a.broker.AcceptVerifyToken(r.Context(), raw)
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
		Connectors: connectorNames(a.registry.Available(request.KindVerify, req.TypeCategory)),
	})
}

// GET /api/verify/{connector}?verifyRequestId=...
// POST /api/verify/{connector}/disclose?verifyRequestId=...
func (a *API) handleVerifyConnector(w http.ResponseWriter, r *http.Request) {
	name, step, ok := splitConnectorPath(r.URL.Path, "/api/verify/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	resolved, err := a.resolveKind(w, r, r.URL.Query().Get("verifyRequestId"), request.KindVerify)
	if err != nil {
		return
	}

	conn, err := a.registry.Verify(name, resolved.Verify)
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
		payload, err := conn.HandleVerifyRequest(r.Context(), resolved.Verify)
		if err != nil {
			writeError(w, r, http.StatusBadGateway, "connector failed to build presentation request")
			return
		}
		writeJSON(w, http.StatusOK, json.RawMessage(payload))
	case "disclose":
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
		data, err := conn.HandleVerifyDisclosure(r.Context(), resolved.Verify, body)
		if err != nil {
			// The flow still terminates: a failure outcome is encoded and the
			// waiting session notified, so the browser is not left hanging.
			status = broker.StatusFailure
			data, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		a.finishFlow(w, r, resolved.RequestID(), resolved.CallbackURL(), status, name, data)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// finishFlow encodes the outcome token, notifies the waiting session and
// answers the connector's caller.
func (a *API) finishFlow(w http.ResponseWriter, r *http.Request, requestID, callbackURL, status, connectorName string, data json.RawMessage) {
	outcome, err := a.broker.EncodeOutcomeToken(requestID, status, connectorName, data)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	redirect := callbackURL + outcome
	if a.hub != nil {
		if delivered := a.hub.Notify(r.Context(), requestID, status, redirect); delivered > 0 {
			obs.IncNotifyDelivery("delivered")
		} else {
			obs.IncNotifyDelivery("dropped")
		}
	}

	writeJSON(w, http.StatusOK, disclosureResponse{
		Status:      status,
		RedirectURL: redirect,
	})
}

// resolveKind resolves a request identifier and enforces the expected kind
// tag. A mismatched tag is indistinguishable from a missing record. On
// error the response has already been written.
func (a *API) resolveKind(w http.ResponseWriter, r *http.Request, requestID string, kind request.Kind) (broker.Resolved, error) {
	if strings.TrimSpace(requestID) == "" {
		writeError(w, r, http.StatusNotFound, "request not found")
		return broker.Resolved{}, broker.ErrRequestNotFound
	}
	resolved, err := a.broker.ResolveByRequestID(r.Context(), requestID)
	if err != nil {
		handleBrokerError(w, r, err)
		return broker.Resolved{}, err
	}
	if resolved.Kind != kind {
		writeError(w, r, http.StatusNotFound, "request not found")
		return broker.Resolved{}, broker.ErrRequestNotFound
	}
	return resolved, nil
}

// splitConnectorPath extracts the connector name and optional trailing step
// from paths like /api/verify/irma/disclose.
func splitConnectorPath(path, prefix string) (name, step string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path || rest == "" {
		return "", "", false
	}
	name, step, _ = strings.Cut(rest, "/")
	if name == "" || strings.Contains(step, "/") {
		return "", "", false
	}
	return name, step, true
}

func connectorNames(descs []connector.Descriptor) []string {
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	return names
}

func handleBrokerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, broker.ErrMalformedToken),
		errors.Is(err, broker.ErrUnknownIssuer),
		errors.Is(err, broker.ErrInvalidRequestToken):
		// One generic rejection for every authentication failure; the real
		// reason is in the server log only.
		writeError(w, r, http.StatusBadRequest, "invalid request token")
	case errors.Is(err, broker.ErrUnknownCredentialType):
		writeError(w, r, http.StatusBadRequest, "unknown credential type")
	case errors.Is(err, broker.ErrRequestNotFound):
		writeError(w, r, http.StatusNotFound, "request not found")
	case errors.Is(err, connector.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "connector not found")
	case errors.Is(err, connector.ErrUnsupported):
		writeError(w, r, http.StatusBadRequest, "connector not eligible for this credential type")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
