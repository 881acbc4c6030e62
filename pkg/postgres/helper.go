package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key
// violation (SQLSTATE 23503). Works through wrapped errors via errors.As.
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == "23503"
}

// IsUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505). The driver-exclusivity partial
// index and the mission-join uniqueness both surface through here.
func IsUniqueViolation(err error) bool {
	return sqlState(err) == "23505"
}

// IsCheckViolation reports whether err is a PostgreSQL CHECK constraint
// violation (SQLSTATE 23514), e.g. a wallet balance dropping below zero.
func IsCheckViolation(err error) bool {
	return sqlState(err) == "23514"
}

func sqlState(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState()
	}
	return ""
}
