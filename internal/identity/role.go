// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package identity

// Role is a resolved user role. Only two roles exist; anything that is
// not exactly admin resolves to user.
type Role string

const (
	// RoleAdmin grants access to the admin area and admin endpoints.
	RoleAdmin Role = "admin"

	// RoleUser is the default role for every authenticated account.
	RoleUser Role = "user"
)

// metadataRoleKey is the key in user metadata holding the role value.
const metadataRoleKey = "role"

// RoleFromMetadata resolves a role from provider user metadata.
//
// The comparison is exact and case-sensitive: the role is admin if and
// only if the metadata value is the string "admin". Missing metadata,
// a missing key, a non-string value, or any other string (including
// "Admin" or "ADMIN") resolves to user.
func RoleFromMetadata(meta map[string]any) Role {
	if meta == nil {
		return RoleUser
	}
	val, ok := meta[metadataRoleKey]
	if !ok {
		return RoleUser
	}
	s, ok := val.(string)
	if !ok {
		return RoleUser
	}
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// IsAdmin reports whether the role is admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
