package model

import "time"

// Role names accepted by the role gate.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is one of the two known roles.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a row in the `users` table.  Only name and role are
// rendered in API responses; the password hash never leaves the store
// and handler layers.
//
// Fields:
//  ID           – opaque identifier assigned by the store (UUID).
//  Name         – display name.
//  Role         – RoleUser or RoleAdmin.
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string `jsonapi:"primary,users"` // users.id
	Name         string `jsonapi:"attr,name"`     // users.name
	Role         string `jsonapi:"attr,role"`     // users.role
	PasswordHash string                           // users.password_hash
	CreatedAt    time.Time                        // users.created_at
}
