package connector

import (
	"fmt"

	"vclink.org/internal/request"
)

type entry struct {
	desc   Descriptor
	verify VerifyConnector
	issue  IssueConnector
}

// Registry maps connector names to implementations and answers which
// connectors are eligible for a request. Registration order is preserved so
// Available is deterministic.
type Registry struct {
	names   []string
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a connector under the descriptor's name. At least one of
// verify/issue must be non-nil; registering the same name twice is a wiring
// bug and fails.
func (r *Registry) Register(desc Descriptor, verify VerifyConnector, issue IssueConnector) error {
	if desc.Name == "" {
		return fmt.Errorf("connector: descriptor name is required")
	}
	if verify == nil && issue == nil {
		return fmt.Errorf("connector %q: no capabilities", desc.Name)
	}
	if _, ok := r.entries[desc.Name]; ok {
		return fmt.Errorf("connector %q: already registered", desc.Name)
	}
	r.names = append(r.names, desc.Name)
	r.entries[desc.Name] = &entry{desc: desc, verify: verify, issue: issue}
	return nil
}

// Available lists, in registration order, the connectors that support the
// given kind and credential type category.
func (r *Registry) Available(kind request.Kind, category string) []Descriptor {
	var out []Descriptor
	for _, name := range r.names {
		e := r.entries[name]
		switch kind {
		case request.KindVerify:
			if e.verify == nil {
				continue
			}
		case request.KindIssue:
			if e.issue == nil {
				continue
			}
		default:
			continue
		}
		if !e.desc.Supports(category) {
			continue
		}
		out = append(out, e.desc)
	}
	return out
}

// Verify returns the named verify-capable connector, checking eligibility
// against the request's credential type category.
func (r *Registry) Verify(name string, req *request.VerifyRequest) (VerifyConnector, error) {
	e, ok := r.entries[name]
	if !ok || e.verify == nil {
		return nil, ErrNotFound
	}
	if !e.desc.Supports(req.TypeCategory) {
		return nil, ErrUnsupported
	}
	return e.verify, nil
}

// Issue returns the named issue-capable connector, checking eligibility
// against the request's credential type category.
func (r *Registry) Issue(name string, req *request.IssueRequest) (IssueConnector, error) {
	e, ok := r.entries[name]
	if !ok || e.issue == nil {
		return nil, ErrNotFound
	}
	if !e.desc.Supports(req.TypeCategory) {
		return nil, ErrUnsupported
	}
	return e.issue, nil
}
