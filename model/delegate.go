package model

// DelegateGrant lets Delegate act for Institution until the ledger sequence reaches ExpiresAt.
// Grants are overwritten by a repeat grant and never removed on expiry.
type DelegateGrant struct {
	ObjectType  string   `json:"objectType"`
	Institution string   `json:"institution"`
	Delegate    string   `json:"delegate"`
	Permissions []string `json:"permissions"` // Sorted, de-duplicated permission tags
	ExpiresAt   uint64   `json:"expiresAt"`
	GrantedAt   uint64   `json:"grantedAt"`
}

// DelegateGrantView is a grant projected at the sequence it was read.
type DelegateGrantView struct {
	Grant  DelegateGrant `json:"grant"`
	Active bool          `json:"active"`
	ReadAt uint64        `json:"readAt"`
}
