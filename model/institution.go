// File: model/institution.go
package model

// Institution stores a registered issuing authority. Records are never deleted.
type Institution struct {
	ObjectType      string `json:"objectType"`      // Set to the composite key object type (Institution)
	Identity        string `json:"identity"`        // Caller identity that registered the institution
	Name            string `json:"name"`            // Display name supplied on first registration
	OrganizationMSP string `json:"organizationMsp"` // MSP ID of the registering client
	RegisteredAt    uint64 `json:"registeredAt"`    // Ledger sequence of the registration
	Active          bool   `json:"active"`
}
