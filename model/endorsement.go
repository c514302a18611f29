package model

// Endorsement is a third-party institution's rating of an issued credential.
// Key: (credentialId, holder, endorser).
type Endorsement struct {
	ObjectType      string `json:"objectType"`
	CredentialID    string `json:"credentialId"`
	Holder          string `json:"holder"`
	Endorser        string `json:"endorser"`   // Endorsing institution
	EndorsedBy      string `json:"endorsedBy"` // Caller; differs from Endorser for delegated endorsements
	Rating          uint64 `json:"rating"`
	Comment         string `json:"comment"`
	Category        string `json:"category"`
	EndorsedAt      uint64 `json:"endorsedAt"`
	FirstEndorsedAt uint64 `json:"firstEndorsedAt"`
}

// EndorsementSummary aggregates the endorsements attached to one credential.
type EndorsementSummary struct {
	Count         int      `json:"count"`
	AverageRating float64  `json:"averageRating"`
	Endorsers     []string `json:"endorsers"`
}
