// Package auth carries the caller identity resolved by the external identity
// provider and verifies the tokens it issues.
package auth

// Identity is the already verified caller. Services trust it as given.
type Identity struct {
	// OwnerID is the provider's user id; empty for admin-only or anonymous callers.
	OwnerID string
	Admin   bool
}

// Owner returns OwnerID as a nullable column value.
func (i Identity) Owner() *string {
	if i.OwnerID == "" {
		return nil
	}
	owner := i.OwnerID
	return &owner
}

// Anonymous reports whether the caller has neither an owner id nor admin rights.
func (i Identity) Anonymous() bool {
	return i.OwnerID == "" && !i.Admin
}
