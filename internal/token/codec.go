package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MaxAge is the enforced freshness window for inbound request tokens,
// measured from the iat claim. A token exactly MaxAge old is rejected.
const MaxAge = 300 * time.Second

var (
	// ErrMalformed indicates the token could not be parsed at all, or is
	// missing the claims needed to process it.
	ErrMalformed = errors.New("token: malformed")
	// ErrBadSignature indicates the signature did not verify against the
	// supplied secret.
	ErrBadSignature = errors.New("token: signature mismatch")
	// ErrExpired indicates the token parsed and verified but is older than
	// the allowed age.
	ErrExpired = errors.New("token: expired")
)

// RequestClaims is the payload of a signed request token. Beyond the
// registered claims the broker only reads type, callbackUrl and data; any
// deeper structure inside data is the requestor's business.
type RequestClaims struct {
	CredentialType string          `json:"type"`
	CallbackURL    string          `json:"callbackUrl"`
	Data           json.RawMessage `json:"data,omitempty"`
	jwt.RegisteredClaims
}

// OutcomeClaims is the payload of a broker-signed outcome token. Subject
// carries the requestId the outcome belongs to.
type OutcomeClaims struct {
	Status    string          `json:"status"`
	Connector string          `json:"connector"`
	Data      json.RawMessage `json:"data,omitempty"`
	jwt.RegisteredClaims
}

// DecodeIssuerHint parses the token without verifying its signature and
// returns the iss claim. The hint tells the broker which organization's
// secret to verify with; nothing else read here may be trusted until
// VerifyAndExtract succeeds.
func DecodeIssuerHint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformed
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return "", ErrMalformed
	}
	if strings.TrimSpace(claims.Issuer) == "" {
		return "", ErrMalformed
	}
	return claims.Issuer, nil
}

// VerifyAndExtract verifies the token's HS256 signature with the given
// secret and enforces the maxAge freshness window. It distinguishes
// ErrMalformed, ErrBadSignature and ErrExpired; callers decide how much of
// that distinction to expose.
func VerifyAndExtract(raw string, secret []byte, maxAge time.Duration) (*RequestClaims, error) {
	return verifyAt(raw, secret, maxAge, time.Now())
}

func verifyAt(raw string, secret []byte, maxAge time.Duration, now time.Time) (*RequestClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(secret) == 0 {
		return nil, ErrMalformed
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	parsed, err := parser.ParseWithClaims(raw, &RequestClaims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}
	claims, ok := parsed.Claims.(*RequestClaims)
	if !ok || !parsed.Valid {
		return nil, ErrBadSignature
	}
	if claims.IssuedAt == nil {
		return nil, ErrMalformed
	}
	if !now.Before(claims.IssuedAt.Add(maxAge)) {
		return nil, ErrExpired
	}
	return claims, nil
}

// EncodeOutcome produces a broker-signed compact token embedding the
// terminal result of a request. The requestId goes into sub so the
// requestor can correlate the callback with the request it made. Apart
// from iat the token is a pure function of its inputs: identical inputs
// signed at the same instant yield identical tokens.
func EncodeOutcome(requestID, status, connectorName string, data json.RawMessage, signingKey []byte) (string, error) {
	return encodeOutcomeAt(requestID, status, connectorName, data, signingKey, time.Now().UTC())
}

func encodeOutcomeAt(requestID, status, connectorName string, data json.RawMessage, signingKey []byte, now time.Time) (string, error) {
	if len(signingKey) == 0 {
		return "", errors.New("token: signing key is required")
	}
	claims := OutcomeClaims{
		Status:    status,
		Connector: connectorName,
		Data:      data,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  requestID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("sign outcome token: %w", err)
	}
	return signed, nil
}

// SignRequest signs request claims with an organization secret. The server
// never calls this; it backs the signreq tool and tests that need inbound
// tokens.
func SignRequest(claims RequestClaims, secret []byte) (string, error) {
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(time.Now().UTC())
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign request token: %w", err)
	}
	return signed, nil
}
