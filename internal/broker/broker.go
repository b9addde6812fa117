// Package broker authenticates inbound request tokens, persists the
// resulting request records and encodes outcome tokens. It sits between
// untrusted network input, the trust and request stores, and the connector
// layer; nothing below it sees a token that has not been verified.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vclink.org/internal/obs"
	"vclink.org/internal/request"
	"vclink.org/internal/token"
	"vclink.org/internal/trust"
)

// Outcome statuses embedded in outcome tokens.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Broker brokers credential requests. All collaborators are
// constructor-supplied; there is no process-wide registry.
type Broker struct {
	trust      trust.Store
	requests   request.Store
	signingKey []byte
	maxAge     time.Duration
	log        zerolog.Logger
}

// Option configures Broker behavior.
type Option func(*Broker)

// WithMaxTokenAge overrides the request-token freshness window. Intended for
// dev setups; production keeps the default.
func WithMaxTokenAge(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.maxAge = d
		}
	}
}

// WithLogger sets the logger used for server-side failure detail.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Broker) { b.log = log }
}

// New constructs a Broker. signingKey is the broker's own key for outcome
// tokens, never a requestor secret.
func New(trustStore trust.Store, requestStore request.Store, signingKey []byte, opts ...Option) (*Broker, error) {
	if trustStore == nil || requestStore == nil {
		return nil, errors.New("broker: trust and request stores are required")
	}
	if len(signingKey) == 0 {
		return nil, errors.New("broker: signing key is required")
	}
	b := &Broker{
		trust:      trustStore,
		requests:   requestStore,
		signingKey: append([]byte(nil), signingKey...),
		maxAge:     token.MaxAge,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// AcceptVerifyToken authenticates a signed verify-request token and persists
// the resulting record. No record is created on any failure.
func (b *Broker) AcceptVerifyToken(ctx context.Context, raw string) (*request.VerifyRequest, error) {
	org, claims, err := b.authenticate(ctx, raw)
	if err != nil {
		return nil, err
	}
	ct, err := b.resolveType(ctx, org, claims)
	if err != nil {
		return nil, err
	}

	req := &request.VerifyRequest{
		OrganizationID: org.ID,
		TypeID:         ct.ID,
		TypeName:       ct.Name,
		TypeCategory:   ct.Category,
		CallbackURL:    claims.CallbackURL,
	}
	if err := b.requests.CreateVerify(ctx, req); err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	obs.IncRequestCreated(string(request.KindVerify))
	b.log.Info().Str("request_id", req.RequestID()).Str("org", org.ID).
		Str("type", ct.Name).Msg("verify request created")
	return req, nil
}

// AcceptIssueToken authenticates a signed issue-request token and persists
// the resulting record, carrying the payload's data field verbatim.
func (b *Broker) AcceptIssueToken(ctx context.Context, raw string) (*request.IssueRequest, error) {
	org, claims, err := b.authenticate(ctx, raw)
	if err != nil {
		return nil, err
	}
	ct, err := b.resolveType(ctx, org, claims)
	if err != nil {
		return nil, err
	}

	req := &request.IssueRequest{
		OrganizationID: org.ID,
		TypeID:         ct.ID,
		TypeName:       ct.Name,
		TypeCategory:   ct.Category,
		CallbackURL:    claims.CallbackURL,
		Data:           claims.Data,
	}
	if err := b.requests.CreateIssue(ctx, req); err != nil {
		return nil, fmt.Errorf("create issue request: %w", err)
	}
	obs.IncRequestCreated(string(request.KindIssue))
	b.log.Info().Str("request_id", req.RequestID()).Str("org", org.ID).
		Str("type", ct.Name).Msg("issue request created")
	return req, nil
}

// authenticate runs the two-phase decode: peek at the unverified issuer
// claim to pick the secret, then verify signature and freshness with it.
// The issuer hint is untrusted until verification passes — a token claiming
// issuer B but signed with A's secret fails the signature check against B's
// secret.
func (b *Broker) authenticate(ctx context.Context, raw string) (*trust.Organization, *token.RequestClaims, error) {
	issuer, err := token.DecodeIssuerHint(raw)
	if err != nil {
		obs.IncAuthFailure("malformed")
		b.log.Warn().Err(err).Msg("request token rejected")
		return nil, nil, ErrMalformedToken
	}

	org, err := b.trust.FindOrganization(ctx, issuer)
	if err != nil {
		if errors.Is(err, trust.ErrNotFound) {
			obs.IncAuthFailure("unknown_issuer")
			b.log.Warn().Str("issuer", issuer).Msg("request token from unknown issuer")
			return nil, nil, ErrUnknownIssuer
		}
		return nil, nil, fmt.Errorf("find organization: %w", err)
	}

	claims, err := token.VerifyAndExtract(raw, org.Secret, b.maxAge)
	if err != nil {
		// Signature and freshness failures collapse into one generic error
		// so the response does not reveal which check tripped. The raw
		// reason still lands in the log.
		switch {
		case errors.Is(err, token.ErrBadSignature):
			obs.IncAuthFailure("bad_signature")
		case errors.Is(err, token.ErrExpired):
			obs.IncAuthFailure("expired")
		default:
			obs.IncAuthFailure("malformed")
			b.log.Warn().Err(err).Str("issuer", issuer).Msg("request token rejected")
			return nil, nil, ErrMalformedToken
		}
		b.log.Warn().Err(err).Str("issuer", issuer).Msg("request token rejected")
		return nil, nil, ErrInvalidRequestToken
	}

	if strings.TrimSpace(claims.CallbackURL) == "" || strings.TrimSpace(claims.CredentialType) == "" {
		obs.IncAuthFailure("malformed")
		b.log.Warn().Str("issuer", issuer).Msg("request token missing type or callbackUrl")
		return nil, nil, ErrMalformedToken
	}
	return org, claims, nil
}

// resolveType looks the declared type name up inside the verified issuer's
// own namespace, which is what keeps type.organization == requestor true by
// construction.
func (b *Broker) resolveType(ctx context.Context, org *trust.Organization, claims *token.RequestClaims) (*trust.CredentialType, error) {
	ct, err := b.trust.FindCredentialType(ctx, org.ID, claims.CredentialType)
	if err != nil {
		if errors.Is(err, trust.ErrNotFound) {
			b.log.Warn().Str("org", org.ID).Str("type", claims.CredentialType).
				Msg("unknown credential type")
			return nil, ErrUnknownCredentialType
		}
		return nil, fmt.Errorf("find credential type: %w", err)
	}
	return ct, nil
}

// Resolved is the result of addressing a request by its external identifier.
// Exactly one of Verify/Issue is set, matching Kind.
type Resolved struct {
	Kind   request.Kind
	Verify *request.VerifyRequest
	Issue  *request.IssueRequest
}

// RequestID returns the external identifier of the resolved record.
func (r Resolved) RequestID() string {
	switch r.Kind {
	case request.KindVerify:
		return r.Verify.RequestID()
	case request.KindIssue:
		return r.Issue.RequestID()
	}
	return ""
}

// CallbackURL returns the requestor-supplied callback of the resolved record.
func (r Resolved) CallbackURL() string {
	switch r.Kind {
	case request.KindVerify:
		return r.Verify.CallbackURL
	case request.KindIssue:
		return r.Issue.CallbackURL
	}
	return ""
}

// ResolveByRequestID dispatches a type-tagged identifier to the matching
// store lookup. Unrecognized tags, empty identifier segments and store
// misses all come back as ErrRequestNotFound: stale links are expected.
func (b *Broker) ResolveByRequestID(ctx context.Context, requestID string) (Resolved, error) {
	kind, uuid, err := request.ParseRequestID(requestID)
	if err != nil {
		return Resolved{}, ErrRequestNotFound
	}
	switch kind {
	case request.KindVerify:
		req, err := b.requests.FindVerify(ctx, uuid)
		if err != nil {
			if errors.Is(err, request.ErrNotFound) {
				return Resolved{}, ErrRequestNotFound
			}
			return Resolved{}, fmt.Errorf("find verify request: %w", err)
		}
		return Resolved{Kind: kind, Verify: req}, nil
	case request.KindIssue:
		req, err := b.requests.FindIssue(ctx, uuid)
		if err != nil {
			if errors.Is(err, request.ErrNotFound) {
				return Resolved{}, ErrRequestNotFound
			}
			return Resolved{}, fmt.Errorf("find issue request: %w", err)
		}
		return Resolved{Kind: kind, Issue: req}, nil
	}
	return Resolved{}, ErrRequestNotFound
}

// EncodeOutcomeToken signs the terminal result of a request with the
// broker's key.
func (b *Broker) EncodeOutcomeToken(requestID, status, connectorName string, data json.RawMessage) (string, error) {
	return token.EncodeOutcome(requestID, status, connectorName, data, b.signingKey)
}
