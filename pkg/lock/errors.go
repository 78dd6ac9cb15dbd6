package lock

import "errors"

var (
	// ErrAcquireTimeout indicates the lock was not obtained within the
	// caller's wait deadline
	ErrAcquireTimeout = errors.New("lock.acquire_timeout")

	// ErrStoreUnavailable indicates the backing store failed, making lock
	// state unknowable
	ErrStoreUnavailable = errors.New("lock.store_unavailable")

	// ErrNilHandle indicates release was called with a nil handle
	ErrNilHandle = errors.New("lock.nil_handle")
)
