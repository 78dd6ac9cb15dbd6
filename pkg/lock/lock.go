package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handle identifies a single successful acquisition. Only the holder that
// acquired a key can release it.
type Handle struct {
	key    string
	holder string
}

// Key returns the locked key.
func (h *Handle) Key() string {
	if h == nil {
		return ""
	}
	return h.key
}

// Locker is a distributed mutual-exclusion primitive with bounded holder
// lifetime.
type Locker interface {
	// Acquire obtains the lock for key, retrying with backoff until timeout
	// elapses. Returns ErrAcquireTimeout when the lock stays contended.
	Acquire(ctx context.Context, key string, timeout time.Duration) (*Handle, error)

	// Release frees the lock held by handle. Idempotent: releasing an
	// already-expired or already-released handle is a no-op, and a handle
	// can never free a lock re-acquired by another holder in the interim.
	Release(ctx context.Context, handle *Handle) error
}

// newHolder generates a unique holder value for one acquisition.
func newHolder() string {
	return uuid.NewString()
}
