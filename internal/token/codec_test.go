package token

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedRequest(t *testing.T, secret []byte, issuer string, issuedAt time.Time) string {
	t.Helper()
	raw, err := SignRequest(RequestClaims{
		CredentialType: "passport",
		CallbackURL:    "https://example.com/cb",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}, secret)
	if err != nil {
		t.Fatalf("SignRequest: %v", err)
	}
	return raw
}

func TestVerifyAndExtractRoundtrip(t *testing.T) {
	secret := []byte("s1")
	raw := signedRequest(t, secret, "org1", time.Now().UTC())

	claims, err := VerifyAndExtract(raw, secret, MaxAge)
	if err != nil {
		t.Fatalf("VerifyAndExtract: %v", err)
	}
	if claims.Issuer != "org1" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.CredentialType != "passport" {
		t.Fatalf("unexpected type: %s", claims.CredentialType)
	}
	if claims.CallbackURL != "https://example.com/cb" {
		t.Fatalf("unexpected callback: %s", claims.CallbackURL)
	}
}

func TestVerifyAndExtractWrongSecret(t *testing.T) {
	raw := signedRequest(t, []byte("s1"), "org1", time.Now().UTC())

	if _, err := VerifyAndExtract(raw, []byte("s2"), MaxAge); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyAndExtractFreshnessBoundary(t *testing.T) {
	secret := []byte("s1")
	now := time.Now().UTC()

	cases := []struct {
		name string
		age  time.Duration
		want error
	}{
		{"fresh", 0, nil},
		{"just inside the window", 299 * time.Second, nil},
		{"exactly at the window", 300 * time.Second, ErrExpired},
		{"stale", time.Hour, ErrExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := signedRequest(t, secret, "org1", now.Add(-tc.age))
			_, err := verifyAt(raw, secret, MaxAge, now)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyAndExtractMissingIssuedAt(t *testing.T) {
	secret := []byte("s1")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer: "org1",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyAndExtract(raw, secret, MaxAge); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeIssuerHint(t *testing.T) {
	raw := signedRequest(t, []byte("s1"), "org1", time.Now().UTC())

	issuer, err := DecodeIssuerHint(raw)
	if err != nil {
		t.Fatalf("DecodeIssuerHint: %v", err)
	}
	if issuer != "org1" {
		t.Fatalf("unexpected issuer: %s", issuer)
	}
}

func TestDecodeIssuerHintMalformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := DecodeIssuerHint(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("input %q: expected ErrMalformed, got %v", raw, err)
		}
	}

	// Parseable token without an iss claim is also malformed.
	noIss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString([]byte("s1"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := DecodeIssuerHint(noIss); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for missing iss, got %v", err)
	}
}

func TestEncodeOutcome(t *testing.T) {
	key := []byte("broker-key")
	data := json.RawMessage(`{"name":"Alice"}`)

	raw, err := EncodeOutcome("verify:u1", "success", "demo", data, key)
	if err != nil {
		t.Fatalf("EncodeOutcome: %v", err)
	}

	var claims OutcomeClaims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse outcome token: %v", err)
	}
	if claims.Subject != "verify:u1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Status != "success" || claims.Connector != "demo" {
		t.Fatalf("unexpected outcome fields: %+v", claims)
	}
	if string(claims.Data) != `{"name":"Alice"}` {
		t.Fatalf("unexpected data: %s", claims.Data)
	}
}

func TestEncodeOutcomeDeterministic(t *testing.T) {
	key := []byte("broker-key")
	data := json.RawMessage(`{"name":"Alice"}`)
	at := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

	a, err := encodeOutcomeAt("verify:u1", "success", "demo", data, key, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	b, err := encodeOutcomeAt("verify:u1", "success", "demo", data, key, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a != b {
		t.Fatalf("identical inputs produced different tokens:\n%s\n%s", a, b)
	}

	c, err := encodeOutcomeAt("verify:u1", "failure", "demo", data, key, at)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if a == c {
		t.Fatal("different status produced the same token")
	}
}

func TestEncodeOutcomeRequiresKey(t *testing.T) {
	if _, err := EncodeOutcome("verify:u1", "success", "demo", nil, nil); err == nil {
		t.Fatal("expected error for missing signing key")
	}
}
