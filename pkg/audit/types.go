package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session lifecycle actions recorded in the trail.
const (
	ActionCreated      = "session.created"
	ActionRevoked      = "session.revoked"
	ActionExpired      = "session.expired"
	ActionTokenRotated = "session.token_rotated"
	ActionSSOMigrated  = "session.sso_migrated"
)

// Entry is a single immutable audit record. ID and CreatedAt are assigned
// by the Trail on write.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	SessionID uuid.UUID         `json:"session_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Validate checks required fields before the entry is persisted.
func (e *Entry) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEntryValidation)
	}
	if e.SessionID == uuid.Nil {
		return fmt.Errorf("%w: session id is required", ErrEntryValidation)
	}
	return nil
}

// Criteria narrows a trail query. Zero-valued fields are ignored.
type Criteria struct {
	SessionID *uuid.UUID
	UserID    *uuid.UUID
	Action    string
	From      time.Time
	To        time.Time
	Limit     int
}

// Storage persists audit entries. Implementations must be append-only:
// there is deliberately no update or delete operation.
type Storage interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, criteria Criteria) ([]Entry, error)
}
