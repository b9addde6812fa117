package request

import (
	"context"
	"database/sql"
	"errors"

	guuid "github.com/google/uuid"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Type name and category are
// denormalized onto the row so lookups do not need a join against the
// trust schema.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateVerify(ctx context.Context, req *VerifyRequest) error {
	if req == nil || req.OrganizationID == "" || req.TypeID == "" {
		return ErrInvalidInput
	}
	req.UUID = guuid.NewString()
	row := s.db.QueryRowContext(ctx,
		`insert into verify_requests(uuid, organization_id, type_id, type_name, type_category, callback_url)
		 values($1,$2,$3,$4,$5,$6) returning created_at`,
		req.UUID, req.OrganizationID, req.TypeID, req.TypeName, req.TypeCategory, req.CallbackURL,
	)
	return row.Scan(&req.CreatedAt)
}

func (s *PGStore) CreateIssue(ctx context.Context, req *IssueRequest) error {
	if req == nil || req.OrganizationID == "" || req.TypeID == "" {
		return ErrInvalidInput
	}
	req.UUID = guuid.NewString()
	row := s.db.QueryRowContext(ctx,
		`insert into issue_requests(uuid, organization_id, type_id, type_name, type_category, callback_url, data)
		 values($1,$2,$3,$4,$5,$6,$7) returning created_at`,
		req.UUID, req.OrganizationID, req.TypeID, req.TypeName, req.TypeCategory, req.CallbackURL, []byte(req.Data),
	)
	return row.Scan(&req.CreatedAt)
}

func (s *PGStore) FindVerify(ctx context.Context, uuid string) (*VerifyRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`select uuid, organization_id, type_id, type_name, type_category, callback_url, created_at
		   from verify_requests where uuid=$1`, uuid,
	)
	var req VerifyRequest
	err := row.Scan(&req.UUID, &req.OrganizationID, &req.TypeID, &req.TypeName,
		&req.TypeCategory, &req.CallbackURL, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (s *PGStore) FindIssue(ctx context.Context, uuid string) (*IssueRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`select uuid, organization_id, type_id, type_name, type_category, callback_url, data, created_at
		   from issue_requests where uuid=$1`, uuid,
	)
	var (
		req  IssueRequest
		data []byte
	)
	err := row.Scan(&req.UUID, &req.OrganizationID, &req.TypeID, &req.TypeName,
		&req.TypeCategory, &req.CallbackURL, &data, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	req.Data = data
	return &req, nil
}
