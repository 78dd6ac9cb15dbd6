package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CacheStore is the fast, evictable tier. It serves low-latency reads and
// the per-user active-session index; it is never the sole authority for a
// committed write.
//
// Implementations return ErrSessionNotFound for a clean miss and join
// ErrStoreUnavailable into I/O failures so callers can tell the two apart.
type CacheStore interface {
	// Get retrieves a live session by id.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// GetByTokenHash retrieves a live session via the token index.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Set caches the session record and its token index entry with the
	// given TTL, replacing any previous entry for the id.
	Set(ctx context.Context, s *Session, ttl time.Duration) error

	// Delete removes the session record and its token index entry.
	Delete(ctx context.Context, id uuid.UUID, tokenHash string) error

	// DeleteTokenIndex removes only a token index entry; used when a token
	// is rotated and the stale credential must stop resolving.
	DeleteTokenIndex(ctx context.Context, tokenHash string) error

	// AddToUserIndex records the session under the user's active set.
	AddToUserIndex(ctx context.Context, userID, id uuid.UUID) error

	// RemoveFromUserIndex removes the session from the user's active set.
	RemoveFromUserIndex(ctx context.Context, userID, id uuid.UUID) error

	// UserIndex lists session ids in the user's active set. Entries may be
	// stale; readers prune ids that no longer resolve.
	UserIndex(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// DurableStore is the authoritative tier. All committed state lives here;
// the cache is rebuilt from it on miss.
type DurableStore interface {
	// Insert persists a new session row.
	Insert(ctx context.Context, s *Session) error

	// Get retrieves a session by id. Returns ErrSessionNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// GetByTokenHash retrieves a session by its token digest.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Update overwrites an existing session row.
	Update(ctx context.Context, s *Session) error

	// UpdateStatusIfActive transitions a session to a terminal status only
	// if it is still active, reporting whether the transition applied. This
	// is the optimistic check that lets cleanup run concurrently with
	// normal traffic.
	UpdateStatusIfActive(ctx context.Context, id uuid.UUID, status Status, reason string, now time.Time) (bool, error)

	// TouchActivity records an access on a session that is still active and
	// still holds the given token digest, bumping the activity timestamp,
	// the access count, and the expiry deadline. Reports whether a row
	// matched; false means a terminal transition or a token rotation
	// committed since the caller read the session.
	TouchActivity(ctx context.Context, id uuid.UUID, tokenHash string, lastActivity, expiresAt time.Time) (bool, error)

	// ListByUser returns the user's sessions, optionally including
	// terminal ones.
	ListByUser(ctx context.Context, userID uuid.UUID, includeTerminal bool) ([]*Session, error)

	// CountActiveByUser counts live sessions for the ceiling check. The
	// durable tier is authoritative for this count.
	CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// OldestActiveByUser returns the user's least-recently-active live
	// session, the eviction candidate under LimitEvictOldest.
	OldestActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*Session, error)

	// ListExpiredActive returns sessions still marked active whose expiry
	// has passed, up to limit.
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*Session, error)

	// DeleteTerminalBefore removes terminal session rows whose last
	// activity predates cutoff, returning how many were removed. Audit
	// entries are stored separately and survive.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Analytics aggregates over all sessions. Must return a zero-valued
	// result, not an error, when no sessions exist.
	Analytics(ctx context.Context, now time.Time) (Analytics, error)
}

// Analytics is an aggregate view over the durable tier.
type Analytics struct {
	TotalActive int64                 `json:"total_active"`
	ByType      map[SessionType]int64 `json:"by_type"`
	AvgDuration time.Duration         `json:"avg_duration"`
}
