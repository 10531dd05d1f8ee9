package model

import "time"

// Account represents a row in the `accounts` table.  The jsonapi tags
// shape it as an "accounts" resource with a single name attribute; the
// timestamps stay internal.
//
// Fields:
//  ID        – opaque identifier assigned by the store (UUID).
//  Name      – display name, the only mutable field.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last rename.
type Account struct {
	ID        string `jsonapi:"primary,accounts"` // accounts.id
	Name      string `jsonapi:"attr,name"`        // accounts.name
	CreatedAt time.Time                           // accounts.created_at
	UpdatedAt time.Time                           // accounts.updated_at
}
