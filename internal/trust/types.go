package trust

import "time"

// Organization is a requesting party known to the broker. Its ID is the
// public UUID carried in the iss claim of request tokens; Secret is the
// pre-shared symmetric key those tokens are signed with.
type Organization struct {
	ID        string
	Name      string
	Secret    []byte
	CreatedAt time.Time
}

// CredentialType names a credential schema inside one organization's
// namespace. Category links the type to a protocol-specific descriptor and
// drives connector eligibility.
type CredentialType struct {
	ID             string
	OrganizationID string
	Name           string
	Category       string
	CreatedAt      time.Time
}
