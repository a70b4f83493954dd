package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the error is a unique constraint
// violation. A typed postgres error is matched on its SQLSTATE; anything
// else falls back to the driver message, which also covers sqlite's
// "UNIQUE constraint failed" in tests. When constraintName is provided the
// violation must reference that constraint, except that drivers which do
// not name the constraint (sqlite) still match on the generic text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	return constraintName != "" && strings.Contains(msg, constraintName)
}
