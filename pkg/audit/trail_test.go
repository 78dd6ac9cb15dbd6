package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/audit"
)

func TestTrail_Record(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assigns id and timestamp", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		storage := audit.NewMemoryStorage()
		trail := audit.NewTrail(storage, audit.WithClock(func() time.Time { return now }))

		sessionID := uuid.New()
		err := trail.Record(ctx, audit.Entry{
			SessionID: sessionID,
			UserID:    uuid.New(),
			Action:    audit.ActionRevoked,
			Reason:    "user_logout",
		})
		require.NoError(t, err)

		entries, err := trail.Find(ctx, audit.Criteria{SessionID: &sessionID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.NotEqual(t, uuid.Nil, entries[0].ID)
		assert.Equal(t, now, entries[0].CreatedAt)
		assert.Equal(t, "user_logout", entries[0].Reason)
	})

	t.Run("rejects missing action", func(t *testing.T) {
		t.Parallel()

		trail := audit.NewTrail(audit.NewMemoryStorage())
		err := trail.Record(ctx, audit.Entry{SessionID: uuid.New()})
		assert.ErrorIs(t, err, audit.ErrEntryValidation)
	})

	t.Run("rejects missing session id", func(t *testing.T) {
		t.Parallel()

		trail := audit.NewTrail(audit.NewMemoryStorage())
		err := trail.Record(ctx, audit.Entry{Action: audit.ActionCreated})
		assert.ErrorIs(t, err, audit.ErrEntryValidation)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { audit.NewTrail(nil) })
	})
}

func TestTrail_Find(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	seed := func(t *testing.T) (*audit.Trail, uuid.UUID, uuid.UUID) {
		t.Helper()

		trail := audit.NewTrail(audit.NewMemoryStorage())
		userID := uuid.New()
		sessionID := uuid.New()

		require.NoError(t, trail.Record(ctx, audit.Entry{
			SessionID: sessionID, UserID: userID, Action: audit.ActionCreated,
		}))
		require.NoError(t, trail.Record(ctx, audit.Entry{
			SessionID: sessionID, UserID: userID, Action: audit.ActionTokenRotated,
		}))
		require.NoError(t, trail.Record(ctx, audit.Entry{
			SessionID: uuid.New(), UserID: userID, Action: audit.ActionRevoked, Reason: "concurrent_limit_exceeded",
		}))
		require.NoError(t, trail.Record(ctx, audit.Entry{
			SessionID: uuid.New(), UserID: uuid.New(), Action: audit.ActionCreated,
		}))

		return trail, userID, sessionID
	}

	t.Run("filter by session", func(t *testing.T) {
		t.Parallel()

		trail, _, sessionID := seed(t)
		entries, err := trail.Find(ctx, audit.Criteria{SessionID: &sessionID})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("filter by user", func(t *testing.T) {
		t.Parallel()

		trail, userID, _ := seed(t)
		entries, err := trail.Find(ctx, audit.Criteria{UserID: &userID})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("filter by action", func(t *testing.T) {
		t.Parallel()

		trail, userID, _ := seed(t)
		entries, err := trail.Find(ctx, audit.Criteria{UserID: &userID, Action: audit.ActionRevoked})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "concurrent_limit_exceeded", entries[0].Reason)
	})

	t.Run("limit caps results", func(t *testing.T) {
		t.Parallel()

		trail, userID, _ := seed(t)
		entries, err := trail.Find(ctx, audit.Criteria{UserID: &userID, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("no matches returns empty", func(t *testing.T) {
		t.Parallel()

		trail, _, _ := seed(t)
		other := uuid.New()
		entries, err := trail.Find(ctx, audit.Criteria{SessionID: &other})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
