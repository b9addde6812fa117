package request

import "context"

// Store persists request records. Creation assigns the record's UUID;
// records are append-only and never mutated or deleted by the broker.
type Store interface {
	CreateVerify(ctx context.Context, req *VerifyRequest) error
	CreateIssue(ctx context.Context, req *IssueRequest) error
	FindVerify(ctx context.Context, uuid string) (*VerifyRequest, error)
	FindIssue(ctx context.Context, uuid string) (*IssueRequest, error)
}
