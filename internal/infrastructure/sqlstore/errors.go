package sqlstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/martijn/website/internal/core/domain"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// asConstraintViolation maps a unique index failure on the users table to a
// *domain.ConstraintViolation naming the offending field. Any other error is
// returned as is.
func asConstraintViolation(err error) error {
	detail, ok := uniqueViolation(err)
	if !ok {
		return err
	}

	field := ""
	switch {
	case strings.Contains(detail, "email"):
		field = "email"
	case strings.Contains(detail, "username"):
		field = "username"
	default:
		return err
	}

	return &domain.ConstraintViolation{Field: field, Err: err}
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// "UNIQUE constraint failed: users.username"
		msg := sqliteErr.Error()
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return msg, true
		case sqlite3.SQLITE_CONSTRAINT:
			return msg, strings.Contains(msg, "UNIQUE")
		}
	}

	return "", false
}
