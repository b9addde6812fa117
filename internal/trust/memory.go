package trust

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. Used by the
// dev build and tests; production points at the Postgres store.
type InMemory struct {
	mu    sync.RWMutex
	orgs  map[string]*Organization
	types map[string][]*CredentialType // orgID -> types in creation order
}

// NewInMemory creates an empty trust store.
func NewInMemory() *InMemory {
	return &InMemory{
		orgs:  make(map[string]*Organization),
		types: make(map[string][]*CredentialType),
	}
}

func (s *InMemory) CreateOrganization(ctx context.Context, org *Organization) error {
	if org == nil || strings.TrimSpace(org.Name) == "" || len(org.Secret) == 0 {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if _, ok := s.orgs[org.ID]; ok {
		return ErrAlreadyExists
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	cp := *org
	cp.Secret = append([]byte(nil), org.Secret...)
	s.orgs[org.ID] = &cp
	return nil
}

func (s *InMemory) FindOrganization(ctx context.Context, id string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *org
	cp.Secret = append([]byte(nil), org.Secret...)
	return &cp, nil
}

func (s *InMemory) CreateCredentialType(ctx context.Context, ct *CredentialType) error {
	if ct == nil || strings.TrimSpace(ct.Name) == "" || ct.OrganizationID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[ct.OrganizationID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.types[ct.OrganizationID] {
		if existing.Name == ct.Name {
			return ErrAlreadyExists
		}
	}
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	if ct.CreatedAt.IsZero() {
		ct.CreatedAt = time.Now().UTC()
	}
	cp := *ct
	s.types[ct.OrganizationID] = append(s.types[ct.OrganizationID], &cp)
	return nil
}

func (s *InMemory) FindCredentialType(ctx context.Context, orgID, name string) (*CredentialType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ct := range s.types[orgID] {
		if ct.Name == name {
			cp := *ct
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) ListCredentialTypes(ctx context.Context, orgID string) ([]*CredentialType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*CredentialType, 0, len(s.types[orgID]))
	for _, ct := range s.types[orgID] {
		cp := *ct
		out = append(out, &cp)
	}
	return out, nil
}
