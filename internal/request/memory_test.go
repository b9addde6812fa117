package request

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestInMemoryCreateAndFindVerify(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	req := &VerifyRequest{
		OrganizationID: "org1",
		TypeID:         "t1",
		TypeName:       "passport",
		CallbackURL:    "https://example.com/cb",
	}
	if err := s.CreateVerify(ctx, req); err != nil {
		t.Fatalf("CreateVerify: %v", err)
	}
	if req.UUID == "" {
		t.Fatal("expected a generated uuid")
	}
	if req.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	got, err := s.FindVerify(ctx, req.UUID)
	if err != nil {
		t.Fatalf("FindVerify: %v", err)
	}
	if got.CallbackURL != req.CallbackURL || got.TypeName != req.TypeName {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestInMemoryKindsDoNotCross(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	req := &VerifyRequest{OrganizationID: "org1", TypeID: "t1"}
	if err := s.CreateVerify(ctx, req); err != nil {
		t.Fatalf("CreateVerify: %v", err)
	}

	// The same uuid is not addressable as an issue request.
	if _, err := s.FindIssue(ctx, req.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryIssueDataIsCopied(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	data := []byte(`{"attr":"v"}`)
	req := &IssueRequest{OrganizationID: "org1", TypeID: "t1", Data: json.RawMessage(data)}
	if err := s.CreateIssue(ctx, req); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	data[2] = 'X' // mutate the caller's slice

	got, err := s.FindIssue(ctx, req.UUID)
	if err != nil {
		t.Fatalf("FindIssue: %v", err)
	}
	if string(got.Data) != `{"attr":"v"}` {
		t.Fatalf("stored data was aliased: %s", got.Data)
	}
}

func TestInMemoryFindMissing(t *testing.T) {
	s := NewInMemory()
	if _, err := s.FindVerify(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryRejectsInvalid(t *testing.T) {
	s := NewInMemory()
	if err := s.CreateVerify(context.Background(), &VerifyRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
