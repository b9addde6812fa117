package trust

import "context"

// Store resolves organizations and their credential types. The broker only
// reads; the Create methods exist for provisioning (migrations, dev seeding,
// tests) and are never reached from the request path.
type Store interface {
	FindOrganization(ctx context.Context, id string) (*Organization, error)
	FindCredentialType(ctx context.Context, orgID, name string) (*CredentialType, error)

	CreateOrganization(ctx context.Context, org *Organization) error
	CreateCredentialType(ctx context.Context, ct *CredentialType) error
	ListCredentialTypes(ctx context.Context, orgID string) ([]*CredentialType, error)
}
