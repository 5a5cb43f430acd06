// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the marketplace side an account belongs to.
type UserRole string

const (
	// Shops and reviews produce
	RoleBuyer UserRole = "buyer"

	// Owns a farm and may open the seller dashboard
	RoleSeller UserRole = "seller"
)

// Valid reports whether r is one of the roles issued by the backend.
func (r UserRole) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller:
		return true
	default:
		return false
	}
}

// IsSeller reports whether r grants access to the seller dashboard.
func (r UserRole) IsSeller() bool {
	return r == RoleSeller
}
