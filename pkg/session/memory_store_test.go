package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestMemoryCacheStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryCacheStore()

		sess := newActiveSession(uuid.New(), time.Now())
		require.NoError(t, store.Set(ctx, sess, time.Hour))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)

		got, err = store.GetByTokenHash(ctx, sess.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)

		require.NoError(t, store.Delete(ctx, sess.ID, sess.TokenHash))
		_, err = store.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("entries honor ttl", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		store := session.NewMemoryCacheStore(session.WithMemoryCacheClock(clock.Now))

		sess := newActiveSession(uuid.New(), clock.Now())
		require.NoError(t, store.Set(ctx, sess, time.Minute))

		_, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)

		clock.Advance(2 * time.Minute)
		_, err = store.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("non positive ttl is not cached", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryCacheStore()

		sess := newActiveSession(uuid.New(), time.Now())
		require.NoError(t, store.Set(ctx, sess, 0))

		_, err := store.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})

	t.Run("rotation drops the old token index entry", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryCacheStore()

		sess := newActiveSession(uuid.New(), time.Now())
		oldHash := sess.TokenHash
		require.NoError(t, store.Set(ctx, sess, time.Hour))

		rotated := sess.Clone()
		rotated.TokenHash = uuid.NewString()
		require.NoError(t, store.Set(ctx, rotated, time.Hour))

		_, err := store.GetByTokenHash(ctx, oldHash)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)

		got, err := store.GetByTokenHash(ctx, rotated.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
	})

	t.Run("handed out sessions are isolated", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryCacheStore()

		sess := newActiveSession(uuid.New(), time.Now())
		sess.Metadata = map[string]string{"app": "dashboard"}
		require.NoError(t, store.Set(ctx, sess, time.Hour))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		got.Metadata["app"] = "mutated"

		again, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "dashboard", again.Metadata["app"])
	})

	t.Run("user index membership", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryCacheStore()
		userID := uuid.New()
		a, b := uuid.New(), uuid.New()

		require.NoError(t, store.AddToUserIndex(ctx, userID, a))
		require.NoError(t, store.AddToUserIndex(ctx, userID, b))

		ids, err := store.UserIndex(ctx, userID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)

		require.NoError(t, store.RemoveFromUserIndex(ctx, userID, a))
		ids, err = store.UserIndex(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b}, ids)
	})
}

func TestMemoryDurableStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("insert get update", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryDurableStore()

		sess := newActiveSession(uuid.New(), time.Now())
		require.NoError(t, store.Insert(ctx, sess))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.TokenHash, got.TokenHash)

		got.AccessCount = 3
		require.NoError(t, store.Update(ctx, got))

		again, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), again.AccessCount)
	})

	t.Run("update status if active", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryDurableStore()
		now := time.Now()

		sess := newActiveSession(uuid.New(), now)
		require.NoError(t, store.Insert(ctx, sess))

		applied, err := store.UpdateStatusIfActive(ctx, sess.ID, session.StatusRevoked, "user_logout", now)
		require.NoError(t, err)
		assert.True(t, applied)

		// Terminal states never transition again.
		applied, err = store.UpdateStatusIfActive(ctx, sess.ID, session.StatusExpired, "", now)
		require.NoError(t, err)
		assert.False(t, applied)

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusRevoked, got.Status)
		assert.Equal(t, "user_logout", got.RevocationReason)
	})

	t.Run("touch activity guards status and credential", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryDurableStore()
		now := time.Now()

		sess := newActiveSession(uuid.New(), now)
		require.NoError(t, store.Insert(ctx, sess))

		later := now.Add(time.Minute)
		applied, err := store.TouchActivity(ctx, sess.ID, sess.TokenHash, later, later.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, applied)

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.AccessCount)
		assert.Equal(t, later, got.LastActivityAt)

		// A stale credential never touches the row.
		applied, err = store.TouchActivity(ctx, sess.ID, "rotated-away", later, later.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, applied)

		flipped, err := store.UpdateStatusIfActive(ctx, sess.ID, session.StatusRevoked, "user_logout", later)
		require.NoError(t, err)
		require.True(t, flipped)

		applied, err = store.TouchActivity(ctx, sess.ID, sess.TokenHash, later, later.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("list expired active", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryDurableStore()
		now := time.Now()

		overdue := newActiveSession(uuid.New(), now)
		overdue.ExpiresAt = now.Add(-time.Minute)
		require.NoError(t, store.Insert(ctx, overdue))

		live := newActiveSession(uuid.New(), now)
		require.NoError(t, store.Insert(ctx, live))

		expired, err := store.ListExpiredActive(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, overdue.ID, expired[0].ID)
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()
		store := session.NewMemoryDurableStore()
		userID := uuid.New()

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sess := newActiveSession(userID, time.Now())
				_ = store.Insert(context.Background(), sess)
				_, _ = store.CountActiveByUser(context.Background(), userID, time.Now())
			}()
		}
		wg.Wait()

		count, err := store.CountActiveByUser(ctx, userID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 8, count)
	})
}
