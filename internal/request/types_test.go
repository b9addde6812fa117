package request

import (
	"errors"
	"testing"
)

func TestFormatAndParseRequestID(t *testing.T) {
	id := FormatRequestID(KindVerify, "u1")
	if id != "verify:u1" {
		t.Fatalf("unexpected id: %s", id)
	}

	kind, uuid, err := ParseRequestID(id)
	if err != nil {
		t.Fatalf("ParseRequestID: %v", err)
	}
	if kind != KindVerify || uuid != "u1" {
		t.Fatalf("unexpected parse result: %s %s", kind, uuid)
	}
}

func TestParseRequestIDRejects(t *testing.T) {
	cases := []string{
		"",
		"verify",
		"verify:",
		":u1",
		"bogus:123",
		"issue::",
	}
	for _, raw := range cases {
		if _, _, err := ParseRequestID(raw); !errors.Is(err, ErrNotFound) {
			t.Fatalf("input %q: expected ErrNotFound, got %v", raw, err)
		}
	}
}

func TestParseRequestIDKeepsUUIDVerbatim(t *testing.T) {
	// Only the first delimiter splits; anything after stays in the uuid
	// segment and simply misses the store.
	kind, uuid, err := ParseRequestID("issue:u1:extra")
	if err != nil {
		t.Fatalf("ParseRequestID: %v", err)
	}
	if kind != KindIssue || uuid != "u1:extra" {
		t.Fatalf("unexpected parse result: %s %s", kind, uuid)
	}
}
