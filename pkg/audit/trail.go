package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Trail records and reads session lifecycle events through a Storage
// backend.
type Trail struct {
	storage Storage
	nowFunc func() time.Time
}

// Option configures a Trail.
type Option func(*Trail)

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(t *Trail) {
		if now != nil {
			t.nowFunc = now
		}
	}
}

// NewTrail creates an audit trail. Storage is required; the trail is a
// compliance surface, so misconfiguration fails fast.
func NewTrail(storage Storage, opts ...Option) *Trail {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	t := &Trail{
		storage: storage,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record validates and appends an entry, assigning its ID and timestamp.
func (t *Trail) Record(ctx context.Context, entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	entry.ID = uuid.New()
	entry.CreatedAt = t.nowFunc()

	if err := t.storage.Append(ctx, entry); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// Find retrieves entries matching the criteria, newest first.
func (t *Trail) Find(ctx context.Context, criteria Criteria) ([]Entry, error) {
	entries, err := t.storage.Query(ctx, criteria)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return entries, nil
}
