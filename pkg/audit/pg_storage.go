package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStorage implements Storage on PostgreSQL. The session_audit table is
// append-only; rows survive cleanup of the live session records.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a Postgres-backed audit storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	if pool == nil {
		panic("audit: pgx pool cannot be nil")
	}
	return &PGStorage{pool: pool}
}

// Append inserts one audit row.
func (s *PGStorage) Append(ctx context.Context, entry Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_audit (id, session_id, user_id, action, reason, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.SessionID, entry.UserID, entry.Action,
		entry.Reason, entry.IP, entry.Metadata, entry.CreatedAt,
	)
	return err
}

// Query selects matching rows, newest first.
func (s *PGStorage) Query(ctx context.Context, criteria Criteria) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if criteria.SessionID != nil {
		conds = append(conds, "session_id = "+arg(*criteria.SessionID))
	}
	if criteria.UserID != nil {
		conds = append(conds, "user_id = "+arg(*criteria.UserID))
	}
	if criteria.Action != "" {
		conds = append(conds, "action = "+arg(criteria.Action))
	}
	if !criteria.From.IsZero() {
		conds = append(conds, "created_at >= "+arg(criteria.From))
	}
	if !criteria.To.IsZero() {
		conds = append(conds, "created_at <= "+arg(criteria.To))
	}

	query := "SELECT id, session_id, user_id, action, reason, ip, metadata, created_at FROM session_audit"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if criteria.Limit > 0 {
		query += " LIMIT " + arg(criteria.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Action, &e.Reason, &e.IP, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Storage = (*PGStorage)(nil)
