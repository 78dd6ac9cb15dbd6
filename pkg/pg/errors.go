package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidConnectionString = errors.New("pg.invalid_connection_string")
	ErrConnectionFailed        = errors.New("pg.connection_failed")
	ErrHealthcheckFailed       = errors.New("pg.healthcheck_failed")
	ErrMigrationFailed         = errors.New("pg.migration_failed")
	ErrMigrationsDirNotFound   = errors.New("pg.migrations_dir_not_found")
)

// IsNotFoundError reports whether err is pgx's empty-result sentinel.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation (SQLSTATE
// 23505), e.g. an id or token digest that already exists.
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
