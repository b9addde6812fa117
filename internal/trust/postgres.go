package trust

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateOrganization(ctx context.Context, org *Organization) error {
	if org == nil || strings.TrimSpace(org.Name) == "" || len(org.Secret) == 0 {
		return ErrInvalidInput
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into organizations(id, name, secret) values($1,$2,$3)`,
		org.ID, org.Name, org.Secret,
	)
	return err
}

func (s *PGStore) FindOrganization(ctx context.Context, id string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, secret, created_at from organizations where id=$1`, id,
	)
	var org Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Secret, &org.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *PGStore) CreateCredentialType(ctx context.Context, ct *CredentialType) error {
	if ct == nil || strings.TrimSpace(ct.Name) == "" || ct.OrganizationID == "" {
		return ErrInvalidInput
	}
	if ct.ID == "" {
		ct.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into credential_types(id, organization_id, name, category) values($1,$2,$3,$4)`,
		ct.ID, ct.OrganizationID, ct.Name, ct.Category,
	)
	return err
}

func (s *PGStore) FindCredentialType(ctx context.Context, orgID, name string) (*CredentialType, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, organization_id, name, category, created_at
		   from credential_types where organization_id=$1 and name=$2`,
		orgID, name,
	)
	var ct CredentialType
	if err := row.Scan(&ct.ID, &ct.OrganizationID, &ct.Name, &ct.Category, &ct.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ct, nil
}

func (s *PGStore) ListCredentialTypes(ctx context.Context, orgID string) ([]*CredentialType, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, organization_id, name, category, created_at
		   from credential_types where organization_id=$1 order by created_at asc`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*CredentialType
	for rows.Next() {
		var ct CredentialType
		if err := rows.Scan(&ct.ID, &ct.OrganizationID, &ct.Name, &ct.Category, &ct.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &ct)
	}
	return res, rows.Err()
}
