package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/audit"
	"github.com/dmitrymomot/sessionkit/pkg/fingerprint"
	"github.com/dmitrymomot/sessionkit/pkg/lock"
	"github.com/dmitrymomot/sessionkit/pkg/token"
)

// lockKeyPrefix namespaces per-session lock keys in the cache tier.
const lockKeyPrefix = "session_lock:"

// Manager is the session lifecycle authority. It orchestrates creation,
// validation, refresh, revocation, bulk operations, cleanup, and analytics
// across the two storage tiers, serializing mutating critical sections
// through a per-session distributed lock.
type Manager struct {
	store   *TieredStore
	locker  lock.Locker
	trail   *audit.Trail
	config  Config
	log     *slog.Logger
	nowFunc func() time.Time

	// Tiers collected by WithStores; assembled into a TieredStore only
	// after every option has run, so the store always sees the final
	// logger and clock no matter the option order.
	cacheTier   CacheStore
	durableTier DurableStore
}

// RevokeFailure reports one session that could not be revoked during a
// bulk revocation.
type RevokeFailure struct {
	SessionID uuid.UUID
	Err       error
}

// New creates a session manager. Without options it runs fully in-process:
// memory tiers, memory locker, memory audit storage.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:  DefaultConfig(),
		log:     slog.New(slog.DiscardHandler),
		nowFunc: time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if !m.config.FingerprintStrictness.Valid() {
		// Never degrade an unrecognized policy to something weaker.
		m.config.FingerprintStrictness = fingerprint.StrictnessStrict
	}

	if m.store == nil {
		cache := m.cacheTier
		if cache == nil {
			cache = NewMemoryCacheStore(WithMemoryCacheClock(m.nowFunc))
		}
		durable := m.durableTier
		if durable == nil {
			durable = NewMemoryDurableStore()
		}
		m.store = NewTieredStore(cache, durable,
			WithTieredLogger(m.log),
			WithTieredClock(m.nowFunc),
		)
	}
	if m.locker == nil {
		m.locker = lock.NewMemoryLocker()
	}
	if m.trail == nil {
		m.trail = audit.NewTrail(audit.NewMemoryStorage(), audit.WithClock(m.nowFunc))
	}

	return m
}

// Create admits a new session for the user. The returned Session carries
// the plaintext token exactly once; it is not retrievable afterwards.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID, typ SessionType, client fingerprint.ClientContext, metadata map[string]string) (*Session, error) {
	if !typ.Valid() {
		return nil, ErrInvalidSessionType
	}
	if err := m.validateMetadata(metadata); err != nil {
		return nil, err
	}

	now := m.nowFunc()
	if err := m.enforceConcurrentLimit(ctx, userID, now); err != nil {
		return nil, err
	}

	raw, err := token.Generate()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           typ,
		TokenHash:      token.Hash(raw),
		Fingerprint:    fingerprint.Generate(client),
		Status:         StatusActive,
		Metadata:       metadata,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(m.config.TTLFor(typ)),
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}

	m.record(ctx, audit.Entry{
		SessionID: sess.ID,
		UserID:    userID,
		Action:    audit.ActionCreated,
		IP:        client.IP,
	})

	out := sess.Clone()
	out.Token = raw
	return out, nil
}

// Validate resolves a presented token, enforces expiry and fingerprint
// policy, and records the access. With sliding TTL enabled the expiry is
// extended. Activity writes go to the durable tier synchronously.
func (m *Manager) Validate(ctx context.Context, rawToken string, client fingerprint.ClientContext) (*Session, error) {
	hash := token.Hash(rawToken)

	sess, err := m.store.GetByTokenHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	// A stale token index entry (left behind by rotation) can resolve to a
	// session whose credential has moved on. Heal the index and report the
	// token unknown.
	if !token.Equal(sess.TokenHash, hash) {
		m.store.InvalidateToken(ctx, hash)
		return nil, ErrSessionNotFound
	}

	now := m.nowFunc()
	if err := m.checkLive(ctx, sess, now); err != nil {
		return nil, err
	}

	if !sess.Fingerprint.Match(fingerprint.Generate(client), m.config.FingerprintStrictness) {
		m.log.WarnContext(ctx, "session fingerprint mismatch",
			"session_id", sess.ID, "user_id", sess.UserID)
		return nil, ErrFingerprintMismatch
	}

	sess.LastActivityAt = now
	sess.AccessCount++
	if m.config.SlidingTTL {
		sess.ExpiresAt = now.Add(m.config.TTLFor(sess.Type))
	}

	// The activity write is a guarded partial update, not a row overwrite:
	// a revocation or rotation committed since the read above must win.
	applied, err := m.store.RecordActivity(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !applied {
		fresh, err := m.store.GetAuthoritative(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		if err := m.checkLive(ctx, fresh, now); err != nil {
			return nil, err
		}
		// Still live under a different credential: the token was rotated
		// out while we held the old copy.
		m.store.InvalidateToken(ctx, hash)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Refresh extends and/or rotates a session under the per-session lock.
// When rotateToken is set the returned Session carries the new plaintext
// token and the old credential stops resolving.
func (m *Manager) Refresh(ctx context.Context, id uuid.UUID, extendTTL, rotateToken bool) (*Session, error) {
	handle, err := m.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer m.release(ctx, handle)

	// Re-read under the lock; a racing revoke may have won.
	sess, err := m.store.GetAuthoritative(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.nowFunc()
	if err := m.checkLive(ctx, sess, now); err != nil {
		return nil, err
	}

	var (
		raw       string
		staleHash string
	)
	if rotateToken {
		raw, err = token.Generate()
		if err != nil {
			return nil, err
		}
		staleHash = sess.TokenHash
		sess.TokenHash = token.Hash(raw)
	}

	sess.RefreshCount++
	sess.LastActivityAt = now
	if extendTTL {
		sess.ExpiresAt = now.Add(m.config.TTLFor(sess.Type))
	}

	if err := m.store.Update(ctx, sess); err != nil {
		return nil, err
	}

	if rotateToken {
		m.store.InvalidateToken(ctx, staleHash)
		m.record(ctx, audit.Entry{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			Action:    audit.ActionTokenRotated,
		})
	}

	sess.Token = raw
	return sess, nil
}

// Revoke terminates a session under the per-session lock. The transition
// is reflected in both tiers and appended to the audit trail before the
// call returns. Revoking an already-revoked session is a no-op.
func (m *Manager) Revoke(ctx context.Context, id uuid.UUID, reason string) error {
	handle, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer m.release(ctx, handle)

	sess, err := m.store.GetAuthoritative(ctx, id)
	if err != nil {
		return err
	}

	switch sess.Status {
	case StatusRevoked:
		return nil
	case StatusExpired:
		return ErrSessionExpired
	}

	sess.Status = StatusRevoked
	sess.RevocationReason = reason
	sess.LastActivityAt = m.nowFunc()

	if err := m.store.Update(ctx, sess); err != nil {
		return err
	}
	if err := m.store.DropLive(ctx, sess); err != nil {
		return err
	}

	// The audit entry is part of the revocation contract, not telemetry.
	if err := m.trail.Record(ctx, audit.Entry{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Action:    audit.ActionRevoked,
		Reason:    reason,
	}); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "session revoked",
		"session_id", sess.ID, "user_id", sess.UserID, "reason", reason)
	return nil
}

// RevokeAllForUser revokes every session of the user except the optional
// exceptID (pass uuid.Nil to revoke all). Individual failures are
// collected and returned; they do not abort the batch.
func (m *Manager) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string, exceptID uuid.UUID) ([]RevokeFailure, error) {
	ids, err := m.store.UserSessionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var failures []RevokeFailure
	for _, id := range ids {
		if id == exceptID {
			continue
		}

		switch err := m.Revoke(ctx, id, reason); {
		case err == nil:
		case errors.Is(err, ErrSessionNotFound):
			m.store.PruneUserIndex(ctx, userID, id)
		case errors.Is(err, ErrSessionExpired):
			// Already terminal; nothing left to revoke.
		default:
			failures = append(failures, RevokeFailure{SessionID: id, Err: err})
		}
	}
	return failures, nil
}

// ListForUser returns the user's sessions. Active sessions come from the
// cache index with stale entries pruned; includeExpired widens the query
// to the durable tier so lapsed sessions are reported too.
func (m *Manager) ListForUser(ctx context.Context, userID uuid.UUID, includeExpired bool) ([]*Session, error) {
	now := m.nowFunc()

	if includeExpired {
		sessions, err := m.store.Durable().ListByUser(ctx, userID, true)
		if err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}

		out := make([]*Session, 0, len(sessions))
		for _, sess := range sessions {
			if sess.Status == StatusRevoked {
				continue
			}
			if err := m.lazyExpire(ctx, sess, now); err != nil {
				return nil, err
			}
			out = append(out, sess)
		}
		return out, nil
	}

	ids, err := m.store.UserSessionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := m.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				// Index entry pointing nowhere is stale, not an error.
				m.store.PruneUserIndex(ctx, userID, id)
				continue
			}
			return nil, err
		}
		if sess.UserID != userID {
			m.store.PruneUserIndex(ctx, userID, id)
			continue
		}
		if err := m.lazyExpire(ctx, sess, now); err != nil {
			return nil, err
		}
		if sess.Status != StatusActive {
			continue
		}
		out = append(out, sess)
	}

	slices.SortFunc(out, func(a, b *Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// CleanupExpired transitions overdue active sessions to expired and prunes
// terminal rows past the retention grace period. Idempotent and safe to
// run concurrently with live traffic: the status transition is an
// optimistic conditional update, so a racing validate or refresh loses at
// most its own turn.
func (m *Manager) CleanupExpired(ctx context.Context) (int, error) {
	now := m.nowFunc()

	overdue, err := m.store.Durable().ListExpiredActive(ctx, now, m.config.CleanupBatchSize)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}

	count := 0
	for _, sess := range overdue {
		applied, err := m.store.MarkExpired(ctx, sess, now)
		if err != nil {
			m.log.WarnContext(ctx, "expiry transition failed",
				"session_id", sess.ID, "error", err)
			continue
		}
		if applied {
			count++
			m.record(ctx, audit.Entry{
				SessionID: sess.ID,
				UserID:    sess.UserID,
				Action:    audit.ActionExpired,
			})
		}
	}

	if m.config.RetentionGracePeriod > 0 {
		cutoff := now.Add(-m.config.RetentionGracePeriod)
		removed, err := m.store.Durable().DeleteTerminalBefore(ctx, cutoff)
		if err != nil {
			m.log.WarnContext(ctx, "terminal session retention cleanup failed", "error", err)
		} else if removed > 0 {
			m.log.InfoContext(ctx, "terminal sessions removed past retention",
				"count", removed)
		}
	}

	return count, nil
}

// Analytics aggregates over the durable tier. An empty system yields a
// zero-valued result, never an error.
func (m *Manager) Analytics(ctx context.Context) (Analytics, error) {
	result, err := m.store.Durable().Analytics(ctx, m.nowFunc())
	if err != nil {
		return Analytics{ByType: make(map[SessionType]int64)}, errors.Join(ErrStoreUnavailable, err)
	}
	if result.ByType == nil {
		result.ByType = make(map[SessionType]int64)
	}
	return result, nil
}

// MigrateToSSO converts a session to SSO mode under the per-session lock,
// preserving id and token continuity unless RotateOnSSOMigration demands a
// fresh credential.
func (m *Manager) MigrateToSSO(ctx context.Context, id uuid.UUID, provider string, ssoData map[string]string) (*Session, error) {
	if err := m.validateMetadata(ssoData); err != nil {
		return nil, err
	}

	handle, err := m.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer m.release(ctx, handle)

	sess, err := m.store.GetAuthoritative(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.nowFunc()
	if err := m.checkLive(ctx, sess, now); err != nil {
		return nil, err
	}

	sess.Type = TypeSSO
	sess.SSOProvider = provider
	sess.SSOData = ssoData
	sess.LastActivityAt = now

	var (
		raw       string
		staleHash string
	)
	if m.config.RotateOnSSOMigration {
		raw, err = token.Generate()
		if err != nil {
			return nil, err
		}
		staleHash = sess.TokenHash
		sess.TokenHash = token.Hash(raw)
		sess.RefreshCount++
	}

	if err := m.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	if staleHash != "" {
		m.store.InvalidateToken(ctx, staleHash)
	}

	m.record(ctx, audit.Entry{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Action:    audit.ActionSSOMigrated,
		Metadata:  map[string]string{"provider": provider},
	})

	sess.Token = raw
	return sess, nil
}

// AuditTrail exposes the trail for read queries.
func (m *Manager) AuditTrail() *audit.Trail {
	return m.trail
}

// checkLive rejects terminal sessions and lazily transitions overdue ones
// to expired in both tiers before reporting the failure.
func (m *Manager) checkLive(ctx context.Context, sess *Session, now time.Time) error {
	switch sess.Status {
	case StatusRevoked:
		m.log.WarnContext(ctx, "revoked session presented",
			"session_id", sess.ID, "user_id", sess.UserID, "reason", sess.RevocationReason)
		return ErrSessionRevoked
	case StatusExpired:
		return ErrSessionExpired
	}

	if sess.IsExpired(now) {
		applied, err := m.store.MarkExpired(ctx, sess, now)
		if err != nil {
			m.log.WarnContext(ctx, "lazy expiry transition failed",
				"session_id", sess.ID, "error", err)
		}
		if applied {
			m.record(ctx, audit.Entry{
				SessionID: sess.ID,
				UserID:    sess.UserID,
				Action:    audit.ActionExpired,
			})
		}
		return ErrSessionExpired
	}
	return nil
}

// lazyExpire applies the expired transition to an overdue active session
// during listing.
func (m *Manager) lazyExpire(ctx context.Context, sess *Session, now time.Time) error {
	if sess.Status != StatusActive || !sess.IsExpired(now) {
		return nil
	}
	applied, err := m.store.MarkExpired(ctx, sess, now)
	if err != nil {
		return err
	}
	if applied {
		m.record(ctx, audit.Entry{
			SessionID: sess.ID,
			UserID:    sess.UserID,
			Action:    audit.ActionExpired,
		})
	}
	sess.Status = StatusExpired
	return nil
}

// enforceConcurrentLimit evicts or rejects at the per-user ceiling. The
// durable tier is authoritative for the count.
func (m *Manager) enforceConcurrentLimit(ctx context.Context, userID uuid.UUID, now time.Time) error {
	if m.config.ConcurrentLimit <= 0 {
		return nil
	}

	count, err := m.store.Durable().CountActiveByUser(ctx, userID, now)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}

	for count >= m.config.ConcurrentLimit {
		if m.config.OnLimitExceeded == LimitReject {
			return ErrConcurrentLimitExceeded
		}

		oldest, err := m.store.Durable().OldestActiveByUser(ctx, userID, now)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return nil
			}
			return errors.Join(ErrStoreUnavailable, err)
		}

		if err := m.Revoke(ctx, oldest.ID, ReasonConcurrentLimit); err != nil && !errors.Is(err, ErrSessionExpired) {
			return err
		}
		count--
	}
	return nil
}

func (m *Manager) validateMetadata(metadata map[string]string) error {
	if len(metadata) > m.config.MaxMetadataEntries {
		return ErrMetadataTooLarge
	}
	for _, v := range metadata {
		if len(v) > m.config.MaxMetadataValueLen {
			return ErrMetadataTooLarge
		}
	}
	return nil
}

// acquire obtains the per-session lock, mapping lock-layer failures onto
// the session error taxonomy.
func (m *Manager) acquire(ctx context.Context, id uuid.UUID) (*lock.Handle, error) {
	handle, err := m.locker.Acquire(ctx, lockKeyPrefix+id.String(), m.config.LockTimeout)
	if err != nil {
		if errors.Is(err, lock.ErrStoreUnavailable) {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		return nil, errors.Join(ErrLockTimeout, err)
	}
	return handle, nil
}

// release frees the lock on every exit path; failures are logged, the lock
// self-releases at its TTL anyway.
func (m *Manager) release(ctx context.Context, handle *lock.Handle) {
	if err := m.locker.Release(ctx, handle); err != nil {
		m.log.WarnContext(ctx, "lock release failed", "key", handle.Key(), "error", err)
	}
}

// record writes a non-contractual audit entry best-effort.
func (m *Manager) record(ctx context.Context, entry audit.Entry) {
	if err := m.trail.Record(ctx, entry); err != nil {
		m.log.WarnContext(ctx, "audit entry write failed",
			"session_id", entry.SessionID, "action", entry.Action, "error", err)
	}
}
