package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
)

const sessionColumns = `id, user_id, session_type, token_hash, fingerprint, status,
	metadata, revocation_reason, sso_provider, sso_data,
	access_count, refresh_count, created_at, last_activity_at, expires_at`

// PGDurableStore implements DurableStore on PostgreSQL. It is the
// authoritative tier: every committed write lands here before the cache
// sees it.
type PGDurableStore struct {
	pool *pgxpool.Pool
}

// NewPGDurableStore creates a Postgres-backed durable tier.
func NewPGDurableStore(pool *pgxpool.Pool) *PGDurableStore {
	if pool == nil {
		panic("session: pgx pool cannot be nil")
	}
	return &PGDurableStore{pool: pool}
}

func (s *PGDurableStore) Insert(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == uuid.Nil {
		return ErrInvalidSession
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		sess.ID, sess.UserID, sess.Type, sess.TokenHash, sess.Fingerprint, sess.Status,
		sess.Metadata, sess.RevocationReason, sess.SSOProvider, sess.SSOData,
		sess.AccessCount, sess.RefreshCount, sess.CreatedAt, sess.LastActivityAt, sess.ExpiresAt,
	)
	if err != nil {
		// token_hash and id carry unique constraints; a conflict means the
		// caller is re-inserting, not that the tier is down.
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(ErrInvalidSession, err)
		}
		return err
	}
	return nil
}

func (s *PGDurableStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.scanOne(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
}

func (s *PGDurableStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	return s.scanOne(s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_hash = $1`, tokenHash))
}

func (s *PGDurableStore) Update(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == uuid.Nil {
		return ErrInvalidSession
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET
			session_type = $2, token_hash = $3, fingerprint = $4, status = $5,
			metadata = $6, revocation_reason = $7, sso_provider = $8, sso_data = $9,
			access_count = $10, refresh_count = $11, last_activity_at = $12, expires_at = $13
		WHERE id = $1`,
		sess.ID, sess.Type, sess.TokenHash, sess.Fingerprint, sess.Status,
		sess.Metadata, sess.RevocationReason, sess.SSOProvider, sess.SSOData,
		sess.AccessCount, sess.RefreshCount, sess.LastActivityAt, sess.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PGDurableStore) UpdateStatusIfActive(ctx context.Context, id uuid.UUID, status Status, reason string, now time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET status = $2, revocation_reason = $3, last_activity_at = $4
		WHERE id = $1 AND status = 'active'`,
		id, status, reason, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGDurableStore) TouchActivity(ctx context.Context, id uuid.UUID, tokenHash string, lastActivity, expiresAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET last_activity_at = $2, access_count = access_count + 1, expires_at = $3
		WHERE id = $1 AND status = 'active' AND token_hash = $4`,
		id, lastActivity, expiresAt, tokenHash,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PGDurableStore) ListByUser(ctx context.Context, userID uuid.UUID, includeTerminal bool) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1`
	if !includeTerminal {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanAll(rows)
}

func (s *PGDurableStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM sessions
		WHERE user_id = $1 AND status = 'active' AND expires_at > $2`,
		userID, now,
	).Scan(&count)
	return count, err
}

func (s *PGDurableStore) OldestActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (*Session, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE user_id = $1 AND status = 'active' AND expires_at > $2
		ORDER BY last_activity_at
		LIMIT 1`,
		userID, now,
	))
}

func (s *PGDurableStore) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE status = 'active' AND expires_at < $1
		ORDER BY expires_at
		LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanAll(rows)
}

func (s *PGDurableStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sessions
		WHERE status IN ('expired', 'revoked') AND last_activity_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PGDurableStore) Analytics(ctx context.Context, now time.Time) (Analytics, error) {
	result := Analytics{ByType: make(map[SessionType]int64)}

	rows, err := s.pool.Query(ctx, `
		SELECT session_type, COUNT(*) FROM sessions
		WHERE status = 'active' AND expires_at > $1
		GROUP BY session_type`,
		now,
	)
	if err != nil {
		return result, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typ   SessionType
			count int64
		)
		if err := rows.Scan(&typ, &count); err != nil {
			return result, err
		}
		result.ByType[typ] = count
		result.TotalActive += count
	}
	if err := rows.Err(); err != nil {
		return result, err
	}

	// Lifetime runs to the last activity, except for timed-out sessions
	// where the expiry deadline closes the window.
	var avgSeconds *float64
	err = s.pool.QueryRow(ctx, `
		SELECT AVG(EXTRACT(EPOCH FROM (
			GREATEST(CASE WHEN status = 'expired' THEN expires_at ELSE last_activity_at END, created_at) - created_at
		))) FROM sessions`,
	).Scan(&avgSeconds)
	if err != nil {
		return result, err
	}
	if avgSeconds != nil {
		result.AvgDuration = time.Duration(*avgSeconds * float64(time.Second))
	}

	return result, nil
}

func (s *PGDurableStore) scanOne(row pgx.Row) (*Session, error) {
	var sess Session
	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.Type, &sess.TokenHash, &sess.Fingerprint, &sess.Status,
		&sess.Metadata, &sess.RevocationReason, &sess.SSOProvider, &sess.SSOData,
		&sess.AccessCount, &sess.RefreshCount, &sess.CreatedAt, &sess.LastActivityAt, &sess.ExpiresAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *PGDurableStore) scanAll(rows pgx.Rows) ([]*Session, error) {
	var out []*Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(
			&sess.ID, &sess.UserID, &sess.Type, &sess.TokenHash, &sess.Fingerprint, &sess.Status,
			&sess.Metadata, &sess.RevocationReason, &sess.SSOProvider, &sess.SSOData,
			&sess.AccessCount, &sess.RefreshCount, &sess.CreatedAt, &sess.LastActivityAt, &sess.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &sess)
	}
	return out, rows.Err()
}

var _ DurableStore = (*PGDurableStore)(nil)
