package request

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Kind tags the two request families. The tag is embedded in external
// request identifiers and is fixed wire format — do not rename.
type Kind string

const (
	KindVerify Kind = "verify"
	KindIssue  Kind = "issue"
)

const requestIDSep = ":"

var (
	ErrNotFound     = errors.New("request: not found")
	ErrInvalidInput = errors.New("request: invalid input")
)

// VerifyRequest is a persisted, authenticated ask to verify a credential.
// Records are immutable once created; completion state lives in the outcome
// token, not here.
type VerifyRequest struct {
	UUID           string    `json:"uuid"`
	OrganizationID string    `json:"organization_id"`
	TypeID         string    `json:"type_id"`
	TypeName       string    `json:"type"`
	TypeCategory   string    `json:"-"`
	CallbackURL    string    `json:"callback_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// RequestID returns the external type-tagged address of the record.
func (r *VerifyRequest) RequestID() string { return FormatRequestID(KindVerify, r.UUID) }

// IssueRequest is a persisted, authenticated ask to issue a credential.
// Data is the requestor's payload, carried verbatim from the signed token.
type IssueRequest struct {
	UUID           string          `json:"uuid"`
	OrganizationID string          `json:"organization_id"`
	TypeID         string          `json:"type_id"`
	TypeName       string          `json:"type"`
	TypeCategory   string          `json:"-"`
	CallbackURL    string          `json:"callback_url"`
	Data           json.RawMessage `json:"data,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (r *IssueRequest) RequestID() string { return FormatRequestID(KindIssue, r.UUID) }

// FormatRequestID builds the external "<kind>:<uuid>" address.
func FormatRequestID(kind Kind, uuid string) string {
	return string(kind) + requestIDSep + uuid
}

// ParseRequestID splits a request identifier into its kind tag and uuid.
// This is the only place the tagged format is interpreted; every other
// component treats request identifiers as opaque. An unknown tag or empty
// uuid reports ErrNotFound — stale or mangled links are a normal outcome,
// not a fault.
func ParseRequestID(requestID string) (Kind, string, error) {
	tag, uuid, found := strings.Cut(requestID, requestIDSep)
	if !found || uuid == "" {
		return "", "", ErrNotFound
	}
	switch Kind(tag) {
	case KindVerify, KindIssue:
		return Kind(tag), uuid, nil
	default:
		return "", "", ErrNotFound
	}
}
