// Package connector defines the capability contract credential connectors
// implement and the registry the broker dispatches through. The broker
// depends only on these interfaces; protocol internals (QR payloads, proof
// verification, wallet sessions) stay inside each connector.
package connector

import (
	"context"
	"encoding/json"
	"errors"

	"vclink.org/internal/request"
)

var (
	ErrNotFound    = errors.New("connector: not found")
	ErrUnsupported = errors.New("connector: unsupported for credential type")
)

// VerifyConnector handles the two steps of a verify flow: producing the
// protocol-specific presentation request shown to the wallet, and consuming
// the wallet's disclosure to yield raw result data.
type VerifyConnector interface {
	Name() string
	HandleVerifyRequest(ctx context.Context, req *request.VerifyRequest) (json.RawMessage, error)
	HandleVerifyDisclosure(ctx context.Context, req *request.VerifyRequest, rawBody []byte) (json.RawMessage, error)
}

// IssueConnector is the issuance analogue of VerifyConnector.
type IssueConnector interface {
	Name() string
	HandleIssueRequest(ctx context.Context, req *request.IssueRequest) (json.RawMessage, error)
	HandleIssueCompletion(ctx context.Context, req *request.IssueRequest, rawBody []byte) (json.RawMessage, error)
}

// Descriptor is the registry's public view of a connector: its name and the
// credential type categories it can serve.
type Descriptor struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories,omitempty"`
}

// Supports reports whether the descriptor serves the given category. An
// empty category list means the connector takes any type.
func (d Descriptor) Supports(category string) bool {
	if len(d.Categories) == 0 {
		return true
	}
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}
