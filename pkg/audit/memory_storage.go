package audit

import (
	"context"
	"maps"
	"sync"
)

// MemoryStorage implements Storage with in-process state, for tests and
// local development.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryStorage creates an empty in-memory audit storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Append stores a copy of the entry.
func (s *MemoryStorage) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Metadata != nil {
		md := make(map[string]string, len(entry.Metadata))
		maps.Copy(md, entry.Metadata)
		entry.Metadata = md
	}

	s.entries = append(s.entries, entry)
	return nil
}

// Query returns matching entries, newest first.
func (s *MemoryStorage) Query(ctx context.Context, criteria Criteria) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !matches(e, criteria) {
			continue
		}
		out = append(out, e)
		if criteria.Limit > 0 && len(out) >= criteria.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored entries.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matches(e Entry, c Criteria) bool {
	if c.SessionID != nil && e.SessionID != *c.SessionID {
		return false
	}
	if c.UserID != nil && e.UserID != *c.UserID {
		return false
	}
	if c.Action != "" && e.Action != c.Action {
		return false
	}
	if !c.From.IsZero() && e.CreatedAt.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && e.CreatedAt.After(c.To) {
		return false
	}
	return true
}

var _ Storage = (*MemoryStorage)(nil)
