package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type cacheEntry struct {
	session  *Session
	deadline time.Time
}

// MemoryCacheStore implements CacheStore with in-process state. It honors
// TTLs the way the Redis tier does and exists for tests and single-process
// deployments.
type MemoryCacheStore struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]cacheEntry
	byToken   map[string]uuid.UUID
	userIndex map[uuid.UUID]map[uuid.UUID]struct{}
	nowFunc   func() time.Time
}

// MemoryCacheOption configures a MemoryCacheStore.
type MemoryCacheOption func(*MemoryCacheStore)

// WithMemoryCacheClock overrides the time source for deterministic tests.
func WithMemoryCacheClock(now func() time.Time) MemoryCacheOption {
	return func(s *MemoryCacheStore) {
		if now != nil {
			s.nowFunc = now
		}
	}
}

// NewMemoryCacheStore creates an empty in-memory cache tier.
func NewMemoryCacheStore(opts ...MemoryCacheOption) *MemoryCacheStore {
	s := &MemoryCacheStore{
		byID:      make(map[uuid.UUID]cacheEntry),
		byToken:   make(map[string]uuid.UUID),
		userIndex: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryCacheStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.byID[id]
	s.mu.RUnlock()

	if !ok || s.nowFunc().After(entry.deadline) {
		return nil, ErrSessionNotFound
	}
	return entry.session.Clone(), nil
}

func (s *MemoryCacheStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	s.mu.RLock()
	id, ok := s.byToken[tokenHash]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Get(ctx, id)
}

func (s *MemoryCacheStore) Set(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.TokenHash == "" {
		return ErrInvalidSession
	}
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A rotated token leaves the old index entry behind; drop it so the id
	// never resolves through two digests.
	if prev, ok := s.byID[sess.ID]; ok && prev.session.TokenHash != sess.TokenHash {
		delete(s.byToken, prev.session.TokenHash)
	}

	s.byID[sess.ID] = cacheEntry{session: sess.Clone(), deadline: s.nowFunc().Add(ttl)}
	s.byToken[sess.TokenHash] = sess.ID
	return nil
}

func (s *MemoryCacheStore) Delete(ctx context.Context, id uuid.UUID, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byID, id)
	delete(s.byToken, tokenHash)
	return nil
}

func (s *MemoryCacheStore) DeleteTokenIndex(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byToken, tokenHash)
	return nil
}

func (s *MemoryCacheStore) AddToUserIndex(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userIndex[userID] == nil {
		s.userIndex[userID] = make(map[uuid.UUID]struct{})
	}
	s.userIndex[userID][id] = struct{}{}
	return nil
}

func (s *MemoryCacheStore) RemoveFromUserIndex(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.userIndex[userID], id)
	return nil
}

func (s *MemoryCacheStore) UserIndex(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.userIndex[userID]))
	for id := range s.userIndex[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ CacheStore = (*MemoryCacheStore)(nil)

// MemoryDurableStore implements DurableStore with in-process state, for
// tests and local development.
type MemoryDurableStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewMemoryDurableStore creates an empty in-memory durable tier.
func NewMemoryDurableStore() *MemoryDurableStore {
	return &MemoryDurableStore{sessions: make(map[uuid.UUID]*Session)}
}

func (s *MemoryDurableStore) Insert(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == uuid.Nil {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryDurableStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemoryDurableStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if sess.TokenHash == tokenHash {
			return sess.Clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

func (s *MemoryDurableStore) Update(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == uuid.Nil {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sess.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemoryDurableStore) UpdateStatusIfActive(ctx context.Context, id uuid.UUID, status Status, reason string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Status != StatusActive {
		return false, nil
	}

	sess.Status = status
	sess.RevocationReason = reason
	sess.LastActivityAt = now
	return true, nil
}

func (s *MemoryDurableStore) TouchActivity(ctx context.Context, id uuid.UUID, tokenHash string, lastActivity, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.Status != StatusActive || sess.TokenHash != tokenHash {
		return false, nil
	}

	sess.LastActivityAt = lastActivity
	sess.AccessCount++
	sess.ExpiresAt = expiresAt
	return true, nil
}

func (s *MemoryDurableStore) ListByUser(ctx context.Context, userID uuid.UUID, includeTerminal bool) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, sess := range s.sessions {
		if sess.UserID != userID {
			continue
		}
		if !includeTerminal && sess.Status.Terminal() {
			continue
		}
		out = append(out, sess.Clone())
	}

	slices.SortFunc(out, func(a, b *Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *MemoryDurableStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive(now) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryDurableStore) OldestActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *Session
	for _, sess := range s.sessions {
		if sess.UserID != userID || !sess.IsActive(now) {
			continue
		}
		if oldest == nil || sess.LastActivityAt.Before(oldest.LastActivityAt) {
			oldest = sess
		}
	}

	if oldest == nil {
		return nil, ErrSessionNotFound
	}
	return oldest.Clone(), nil
}

func (s *MemoryDurableStore) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, sess := range s.sessions {
		if sess.Status == StatusActive && sess.IsExpired(now) {
			out = append(out, sess.Clone())
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryDurableStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, sess := range s.sessions {
		if sess.Status.Terminal() && sess.LastActivityAt.Before(cutoff) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

func (s *MemoryDurableStore) Analytics(ctx context.Context, now time.Time) (Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := Analytics{ByType: make(map[SessionType]int64)}
	if len(s.sessions) == 0 {
		return result, nil
	}

	var totalDuration time.Duration
	for _, sess := range s.sessions {
		if sess.IsActive(now) {
			result.TotalActive++
			result.ByType[sess.Type]++
		}
		totalDuration += sessionDuration(sess)
	}

	result.AvgDuration = totalDuration / time.Duration(len(s.sessions))
	return result, nil
}

// sessionDuration measures a session's lifetime for analytics: up to the
// last activity for live and revoked sessions, up to the expiry for
// sessions that timed out.
func sessionDuration(sess *Session) time.Duration {
	end := sess.LastActivityAt
	if sess.Status == StatusExpired && sess.ExpiresAt.After(end) {
		end = sess.ExpiresAt
	}

	if d := end.Sub(sess.CreatedAt); d > 0 {
		return d
	}
	return 0
}

var _ DurableStore = (*MemoryDurableStore)(nil)
