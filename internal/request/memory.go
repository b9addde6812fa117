package request

import (
	"context"
	"sync"
	"time"

	guuid "github.com/google/uuid"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety.
type InMemory struct {
	mu     sync.RWMutex
	verify map[string]*VerifyRequest
	issue  map[string]*IssueRequest
}

// NewInMemory creates an empty request store.
func NewInMemory() *InMemory {
	return &InMemory{
		verify: make(map[string]*VerifyRequest),
		issue:  make(map[string]*IssueRequest),
	}
}

func (s *InMemory) CreateVerify(ctx context.Context, req *VerifyRequest) error {
	if req == nil || req.OrganizationID == "" || req.TypeID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req.UUID = guuid.NewString()
	req.CreatedAt = time.Now().UTC()
	cp := *req
	s.verify[req.UUID] = &cp
	return nil
}

func (s *InMemory) CreateIssue(ctx context.Context, req *IssueRequest) error {
	if req == nil || req.OrganizationID == "" || req.TypeID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req.UUID = guuid.NewString()
	req.CreatedAt = time.Now().UTC()
	cp := *req
	cp.Data = append([]byte(nil), req.Data...)
	s.issue[req.UUID] = &cp
	return nil
}

func (s *InMemory) FindVerify(ctx context.Context, uuid string) (*VerifyRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.verify[uuid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *InMemory) FindIssue(ctx context.Context, uuid string) (*IssueRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.issue[uuid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *req
	cp.Data = append([]byte(nil), req.Data...)
	return &cp, nil
}
