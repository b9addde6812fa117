package broker

import "errors"

// The broker's client-facing error taxonomy. ErrInvalidRequestToken
// deliberately covers both bad-signature and expired tokens so callers
// cannot probe which check failed; the raw reason is logged server-side.
var (
	ErrMalformedToken        = errors.New("broker: malformed token")
	ErrUnknownIssuer         = errors.New("broker: unknown issuer")
	ErrInvalidRequestToken   = errors.New("broker: invalid request token")
	ErrUnknownCredentialType = errors.New("broker: unknown credential type")
	ErrRequestNotFound       = errors.New("broker: request not found")
)
