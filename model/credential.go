// File: model/credential.go
package model

// Credential binds a holder identity to academic attributes. Key: (id, holder).
// Revocation sets Revoked; records are never deleted and never un-revoked.
type Credential struct {
	ObjectType   string `json:"objectType"`   // "Credential"
	ID           string `json:"id"`           // Credential id, unique per holder
	Holder       string `json:"holder"`       // Holder identity
	Institution  string `json:"institution"`  // Issuing institution
	IssuedBy     string `json:"issuedBy"`     // Caller that issued; a delegate for on-behalf issuance
	FieldOfStudy string `json:"fieldOfStudy"` // e.g. "Computer Science"
	Year         uint64 `json:"year"`
	MetadataURL  string `json:"metadataUrl"` // Opaque off-chain reference
	Degree       string `json:"degree"`      // Degree / category label, e.g. "Bachelor"
	IssuedAt     uint64 `json:"issuedAt"`    // Ledger sequence at issuance
	ExpiresAt    uint64 `json:"expiresAt"`   // 0 = never expires
	BatchID      string `json:"batchId"`     // Set for batch-issued credentials
	Digest       string `json:"digest"`      // CIDv1 over the issuance fields
	Revoked      bool   `json:"revoked"`
	RevokedAt    uint64 `json:"revokedAt"`
	RevokedBy    string `json:"revokedBy"`
}

// CredentialInfo is the public projection returned by GetCredentialInfo.
type CredentialInfo struct {
	Credential   *Credential         `json:"credential"`
	Valid        bool                `json:"valid"`
	Expired      bool                `json:"expired"`
	ReadAt       uint64              `json:"readAt"`
	Endorsements *EndorsementSummary `json:"endorsements"`
}

// CredentialDigestFields is the canonical, field-ordered input of a credential digest.
// Revocation state is excluded so the digest is stable for the credential's lifetime.
type CredentialDigestFields struct {
	ID           string `json:"id"`
	Holder       string `json:"holder"`
	Institution  string `json:"institution"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Year         uint64 `json:"year"`
	MetadataURL  string `json:"metadataUrl"`
	Degree       string `json:"degree"`
	IssuedAt     uint64 `json:"issuedAt"`
	ExpiresAt    uint64 `json:"expiresAt"`
}

// CredentialIssueRequest is one positional slot of a batch issuance.
type CredentialIssueRequest struct {
	ID           string `json:"id"`
	Holder       string `json:"holder"`
	FieldOfStudy string `json:"fieldOfStudy"`
	Year         uint64 `json:"year"`
	MetadataURL  string `json:"metadataUrl"`
	ExpiresAt    uint64 `json:"expiresAt"`
	Degree       string `json:"degree"`
}
