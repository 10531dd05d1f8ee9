// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Audit actions.
const (
	ActionAccountCreated = "account.created"
	ActionAccountUpdated = "account.updated"
	ActionAccountDeleted = "account.deleted"
	ActionUsersSeeded    = "users.seeded"
)

// AuditEvent is published after every successful write.  It carries enough
// information for the audit consumer to record who changed what without
// querying the primary database.
type AuditEvent struct {
	Action     string    `json:"action"`
	ResourceID string    `json:"resource_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Found      *bool     `json:"found,omitempty"` // update/delete only: whether the id existed
	Count      int       `json:"count,omitempty"` // users.seeded only
	ActorID    string    `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
