package session

import "errors"

var (
	// ErrInvalidSessionType indicates an unsupported session type was requested
	ErrInvalidSessionType = errors.New("session.invalid_type")

	// ErrSessionNotFound indicates no session exists in either tier
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session has passed its expiry
	ErrSessionExpired = errors.New("session.expired")

	// ErrSessionRevoked indicates the session was explicitly revoked
	ErrSessionRevoked = errors.New("session.revoked")

	// ErrFingerprintMismatch indicates the client's derived fingerprint does
	// not match the one recorded at creation
	ErrFingerprintMismatch = errors.New("session.fingerprint_mismatch")

	// ErrConcurrentLimitExceeded indicates the per-user session ceiling was
	// reached under the reject policy
	ErrConcurrentLimitExceeded = errors.New("session.concurrent_limit_exceeded")

	// ErrLockTimeout indicates the per-session lock was not obtained within
	// the configured wait
	ErrLockTimeout = errors.New("session.lock_timeout")

	// ErrStoreUnavailable indicates a storage tier I/O failure that could
	// not be recovered by the fallback path
	ErrStoreUnavailable = errors.New("session.store_unavailable")

	// ErrMetadataTooLarge indicates the supplied metadata exceeds the
	// configured bounds
	ErrMetadataTooLarge = errors.New("session.metadata_too_large")

	// ErrInvalidSession indicates a nil or structurally invalid session
	// record was passed to a store
	ErrInvalidSession = errors.New("session.invalid")
)
