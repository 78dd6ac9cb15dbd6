package session

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/fingerprint"
)

// LimitPolicy decides what happens when a user is already at the
// concurrent-session ceiling.
type LimitPolicy string

const (
	// LimitEvictOldest revokes the least-recently-active session to admit
	// the new one.
	LimitEvictOldest LimitPolicy = "evict_oldest"

	// LimitReject refuses the new session.
	LimitReject LimitPolicy = "reject"
)

// Config holds session manager configuration.
type Config struct {
	// Default TTL per session type.
	WebTTL    time.Duration `env:"SESSION_WEB_TTL" envDefault:"24h"`
	MobileTTL time.Duration `env:"SESSION_MOBILE_TTL" envDefault:"720h"`
	APITTL    time.Duration `env:"SESSION_API_TTL" envDefault:"2160h"`
	SSOTTL    time.Duration `env:"SESSION_SSO_TTL" envDefault:"8h"`

	// ConcurrentLimit caps active sessions per user; 0 disables the check.
	ConcurrentLimit int `env:"SESSION_CONCURRENT_LIMIT" envDefault:"5"`

	// OnLimitExceeded selects eviction or rejection at the ceiling.
	OnLimitExceeded LimitPolicy `env:"SESSION_ON_LIMIT_EXCEEDED" envDefault:"evict_oldest"`

	// FingerprintStrictness controls fingerprint validation.
	FingerprintStrictness fingerprint.Strictness `env:"SESSION_FINGERPRINT_STRICTNESS" envDefault:"strict"`

	// SlidingTTL extends expiry on each successful validation; absolute
	// expiry otherwise.
	SlidingTTL bool `env:"SESSION_SLIDING_TTL" envDefault:"true"`

	// LockTimeout bounds the wait for the per-session lock.
	LockTimeout time.Duration `env:"SESSION_LOCK_TIMEOUT" envDefault:"5s"`

	// RetentionGracePeriod keeps terminal session rows queryable before
	// cleanup removes them. The audit trail persists regardless.
	RetentionGracePeriod time.Duration `env:"SESSION_RETENTION_GRACE_PERIOD" envDefault:"720h"`

	// CleanupBatchSize caps how many overdue sessions one cleanup pass
	// transitions.
	CleanupBatchSize int `env:"SESSION_CLEANUP_BATCH_SIZE" envDefault:"500"`

	// Metadata bounds, enforced at creation and SSO migration.
	MaxMetadataEntries  int `env:"SESSION_MAX_METADATA_ENTRIES" envDefault:"32"`
	MaxMetadataValueLen int `env:"SESSION_MAX_METADATA_VALUE_LEN" envDefault:"1024"`

	// RotateOnSSOMigration issues a fresh token when a session migrates to
	// SSO mode.
	RotateOnSSOMigration bool `env:"SESSION_ROTATE_ON_SSO_MIGRATION" envDefault:"false"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		WebTTL:                24 * time.Hour,
		MobileTTL:             30 * 24 * time.Hour,
		APITTL:                90 * 24 * time.Hour,
		SSOTTL:                8 * time.Hour,
		ConcurrentLimit:       5,
		OnLimitExceeded:       LimitEvictOldest,
		FingerprintStrictness: fingerprint.StrictnessStrict,
		SlidingTTL:            true,
		LockTimeout:           5 * time.Second,
		RetentionGracePeriod:  30 * 24 * time.Hour,
		CleanupBatchSize:      500,
		MaxMetadataEntries:    32,
		MaxMetadataValueLen:   1024,
		RotateOnSSOMigration:  false,
	}
}

// TTLFor returns the default TTL for a session type.
func (c Config) TTLFor(t SessionType) time.Duration {
	switch t {
	case TypeMobile:
		return c.MobileTTL
	case TypeAPI:
		return c.APITTL
	case TypeSSO:
		return c.SSOTTL
	default:
		return c.WebTTL
	}
}
