package connector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"vclink.org/internal/request"
)

func TestRegistryAvailableKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"irma", "demo", "openid"} {
		c := NewDemo(name)
		if err := r.Register(c.Describe(), c, c); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	descs := r.Available(request.KindVerify, "anything")
	if len(descs) != 3 {
		t.Fatalf("expected 3 connectors, got %d", len(descs))
	}
	for i, want := range []string{"irma", "demo", "openid"} {
		if descs[i].Name != want {
			t.Fatalf("order broken at %d: %s", i, descs[i].Name)
		}
	}
}

func TestRegistryFiltersByCategoryAndKind(t *testing.T) {
	r := NewRegistry()

	idemix := NewDemo("idemix-only")
	if err := r.Register(Descriptor{Name: "idemix-only", Categories: []string{"idemix"}}, idemix, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	open := NewDemo("open")
	if err := r.Register(open.Describe(), open, open); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got := r.Available(request.KindVerify, "idemix")
	if len(got) != 2 {
		t.Fatalf("expected both connectors for idemix, got %d", len(got))
	}
	got = r.Available(request.KindVerify, "jwt-vc")
	if len(got) != 1 || got[0].Name != "open" {
		t.Fatalf("category filter failed: %+v", got)
	}
	// idemix-only has no issue capability.
	got = r.Available(request.KindIssue, "idemix")
	if len(got) != 1 || got[0].Name != "open" {
		t.Fatalf("kind filter failed: %+v", got)
	}
}

func TestRegistryLookupErrors(t *testing.T) {
	r := NewRegistry()
	c := NewDemo("demo")
	if err := r.Register(Descriptor{Name: "demo", Categories: []string{"idemix"}}, c, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	req := &request.VerifyRequest{TypeCategory: "idemix"}
	if _, err := r.Verify("missing", req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Verify("demo", &request.VerifyRequest{TypeCategory: "jwt-vc"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := r.Issue("demo", &request.IssueRequest{TypeCategory: "idemix"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing issue capability, got %v", err)
	}
	if _, err := r.Verify("demo", req); err != nil {
		t.Fatalf("expected lookup to succeed: %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	c := NewDemo("demo")
	if err := r.Register(c.Describe(), c, c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(c.Describe(), c, c); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestDemoDisclosureEchoesBody(t *testing.T) {
	c := NewDemo("demo")
	req := &request.VerifyRequest{UUID: "u1", TypeName: "passport"}

	out, err := c.HandleVerifyDisclosure(context.Background(), req, []byte(`{"name":"Alice"}`))
	if err != nil {
		t.Fatalf("HandleVerifyDisclosure: %v", err)
	}
	var parsed map[string]string
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed["name"] != "Alice" {
		t.Fatalf("unexpected result: %v", parsed)
	}

	if _, err := c.HandleVerifyDisclosure(context.Background(), req, []byte("not json")); err == nil {
		t.Fatal("expected invalid JSON to fail")
	}
}
