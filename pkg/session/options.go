package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/audit"
	"github.com/dmitrymomot/sessionkit/pkg/lock"
)

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithStore supplies a pre-built tiered store.
func WithStore(store *TieredStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithStores supplies the cache and durable tiers. The tiered store is
// assembled after all options run, so it shares the manager's logger and
// clock regardless of where this option appears in the argument list.
func WithStores(cache CacheStore, durable DurableStore) Option {
	return func(m *Manager) {
		m.cacheTier = cache
		m.durableTier = durable
	}
}

// WithLocker replaces the default in-process locker.
func WithLocker(locker lock.Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithAuditTrail replaces the default in-memory audit trail.
func WithAuditTrail(trail *audit.Trail) Option {
	return func(m *Manager) {
		m.trail = trail
	}
}

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}
