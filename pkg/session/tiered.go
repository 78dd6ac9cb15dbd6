package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TieredStore composes the cache and durable tiers behind a single
// read-through/write-through surface.
//
// Write order is fixed: durable tier first, cache tier second. Any observer
// that sees a cache entry is therefore guaranteed that the durable state
// behind it has already committed. Cache failures on the read path fall
// back to the durable tier; cache failures on most write paths are logged
// and tolerated because the cache can always be rebuilt.
type TieredStore struct {
	cache   CacheStore
	durable DurableStore
	log     *slog.Logger
	nowFunc func() time.Time
}

// TieredOption configures a TieredStore.
type TieredOption func(*TieredStore)

// WithTieredLogger sets the logger for recovered cache failures.
func WithTieredLogger(log *slog.Logger) TieredOption {
	return func(s *TieredStore) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTieredClock overrides the time source used for cache TTL computation.
func WithTieredClock(now func() time.Time) TieredOption {
	return func(s *TieredStore) {
		if now != nil {
			s.nowFunc = now
		}
	}
}

// NewTieredStore composes a cache tier over a durable tier.
func NewTieredStore(cache CacheStore, durable DurableStore, opts ...TieredOption) *TieredStore {
	if cache == nil || durable == nil {
		panic("session: tiered store requires both a cache and a durable tier")
	}

	s := &TieredStore{
		cache:   cache,
		durable: durable,
		log:     slog.New(slog.DiscardHandler),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create commits the session to the durable tier, then populates the cache
// and the user index best-effort.
func (s *TieredStore) Create(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrInvalidSession
	}

	if err := s.durable.Insert(ctx, sess); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	if err := s.cache.Set(ctx, sess, s.remainingTTL(sess)); err != nil {
		s.log.WarnContext(ctx, "cache population failed after create",
			"session_id", sess.ID, "error", err)
	}
	if err := s.cache.AddToUserIndex(ctx, sess.UserID, sess.ID); err != nil {
		s.log.WarnContext(ctx, "user index update failed after create",
			"session_id", sess.ID, "user_id", sess.UserID, "error", err)
	}
	return nil
}

// Get reads by id: cache first, durable fallback with cache repopulation.
func (s *TieredStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.cache.Get(ctx, id)
	if err == nil {
		return sess, nil
	}
	s.noteCacheMiss(ctx, err, "id", id.String())

	return s.readThrough(ctx, func() (*Session, error) {
		return s.durable.Get(ctx, id)
	})
}

// GetByTokenHash reads via the token index: cache first, durable fallback
// with cache repopulation.
func (s *TieredStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	sess, err := s.cache.GetByTokenHash(ctx, tokenHash)
	if err == nil {
		return sess, nil
	}
	s.noteCacheMiss(ctx, err, "lookup", "token")

	return s.readThrough(ctx, func() (*Session, error) {
		return s.durable.GetByTokenHash(ctx, tokenHash)
	})
}

// GetAuthoritative bypasses the cache and reads the durable tier directly,
// refreshing the cache on the way out. Lock-protected critical sections use
// this to avoid acting on a stale cached record.
func (s *TieredStore) GetAuthoritative(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.readThrough(ctx, func() (*Session, error) {
		return s.durable.Get(ctx, id)
	})
}

// Update commits to the durable tier, then refreshes the cache best-effort.
func (s *TieredStore) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrInvalidSession
	}

	if err := s.durable.Update(ctx, sess); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	if err := s.cache.Set(ctx, sess, s.remainingTTL(sess)); err != nil {
		s.log.WarnContext(ctx, "cache refresh failed after update",
			"session_id", sess.ID, "error", err)
	}
	return nil
}

// RecordActivity commits a validation's activity bump as a guarded partial
// update in the durable tier. The write lands only while the row is still
// active under the same token digest, so it can never overwrite a
// concurrently committed revocation, expiry, or rotation. Reports whether
// the write applied; false means the caller's copy lost such a race.
func (s *TieredStore) RecordActivity(ctx context.Context, sess *Session) (bool, error) {
	if sess == nil {
		return false, ErrInvalidSession
	}

	applied, err := s.durable.TouchActivity(ctx, sess.ID, sess.TokenHash, sess.LastActivityAt, sess.ExpiresAt)
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	if !applied {
		return false, nil
	}

	if err := s.cache.Set(ctx, sess, s.remainingTTL(sess)); err != nil {
		s.log.WarnContext(ctx, "cache refresh failed after activity write",
			"session_id", sess.ID, "error", err)
	}
	return true, nil
}

// InvalidateToken drops a stale token index entry after rotation. Best
// effort: the durable tier no longer resolves the old digest, so a lagging
// cache entry only survives until its TTL.
func (s *TieredStore) InvalidateToken(ctx context.Context, tokenHash string) {
	if err := s.cache.DeleteTokenIndex(ctx, tokenHash); err != nil {
		s.log.WarnContext(ctx, "stale token index removal failed", "error", err)
	}
}

// DropLive removes the session's live cache entry and its user index
// membership. Unlike most cache writes this is not best-effort: revocation
// must be observable in both tiers before it reports success.
func (s *TieredStore) DropLive(ctx context.Context, sess *Session) error {
	if sess == nil {
		return ErrInvalidSession
	}

	if err := s.cache.Delete(ctx, sess.ID, sess.TokenHash); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := s.cache.RemoveFromUserIndex(ctx, sess.UserID, sess.ID); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// MarkExpired transitions an overdue session to expired using the durable
// tier's optimistic conditional update, then clears the cache. Reports
// whether this caller applied the transition.
func (s *TieredStore) MarkExpired(ctx context.Context, sess *Session, now time.Time) (bool, error) {
	if sess == nil {
		return false, ErrInvalidSession
	}

	applied, err := s.durable.UpdateStatusIfActive(ctx, sess.ID, StatusExpired, "", now)
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}

	// Expiry is time-driven: a cache record that outlives this cleanup still
	// fails the expiry check on read, so cache removal stays best-effort.
	if err := s.cache.Delete(ctx, sess.ID, sess.TokenHash); err != nil {
		s.log.WarnContext(ctx, "cache removal failed for expired session",
			"session_id", sess.ID, "error", err)
	}
	if err := s.cache.RemoveFromUserIndex(ctx, sess.UserID, sess.ID); err != nil {
		s.log.WarnContext(ctx, "user index removal failed for expired session",
			"session_id", sess.ID, "error", err)
	}

	return applied, nil
}

// UserSessionIDs lists the user's session ids from the cache index, falling
// back to a durable scan when the index is unavailable.
func (s *TieredStore) UserSessionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.cache.UserIndex(ctx, userID)
	if err == nil && len(ids) > 0 {
		return ids, nil
	}
	if err != nil {
		s.log.WarnContext(ctx, "user index read failed, falling back to durable tier",
			"user_id", userID, "error", err)
	}

	sessions, err := s.durable.ListByUser(ctx, userID, false)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	ids = make([]uuid.UUID, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	return ids, nil
}

// PruneUserIndex removes an index entry that no longer resolves to a
// session. Stale entries are healed, never treated as errors.
func (s *TieredStore) PruneUserIndex(ctx context.Context, userID, id uuid.UUID) {
	if err := s.cache.RemoveFromUserIndex(ctx, userID, id); err != nil {
		s.log.WarnContext(ctx, "stale user index entry removal failed",
			"user_id", userID, "session_id", id, "error", err)
	}
}

// Durable exposes the authoritative tier for aggregate queries (analytics,
// cleanup scans, ceiling checks).
func (s *TieredStore) Durable() DurableStore {
	return s.durable
}

// readThrough resolves from the durable tier and repopulates the cache with
// the record's remaining TTL.
func (s *TieredStore) readThrough(ctx context.Context, fetch func() (*Session, error)) (*Session, error) {
	sess, err := fetch()
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	if ttl := s.remainingTTL(sess); ttl > 0 && sess.Status == StatusActive {
		if err := s.cache.Set(ctx, sess, ttl); err != nil {
			s.log.WarnContext(ctx, "cache repopulation failed",
				"session_id", sess.ID, "error", err)
		}
	}
	return sess, nil
}

// noteCacheMiss logs cache tier I/O failures; clean misses stay silent.
func (s *TieredStore) noteCacheMiss(ctx context.Context, err error, attrs ...any) {
	if errors.Is(err, ErrSessionNotFound) {
		return
	}
	s.log.WarnContext(ctx, "cache tier read failed, falling back to durable tier",
		append(attrs, "error", err)...)
}

func (s *TieredStore) remainingTTL(sess *Session) time.Duration {
	return sess.ExpiresAt.Sub(s.nowFunc())
}
