package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation. When
// constraintName is given, the match is restricted to that constraint so
// callers can tell a retryable code collision from an idempotent duplicate.
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

	// sqlite (tests) and other drivers only give us message text.
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") {
		return false
	}
	if constraintName == "" || strings.Contains(msg, constraintName) {
		return true
	}
	// sqlite reports the violated columns as "table.column", never the index
	// name, so compare with separators stripped: the message for a violation
	// of uq_order_items_redemption_code reads
	// "UNIQUE constraint failed: order_items.redemption_code".
	return strings.Contains(normalizeIdentifier(msg), normalizeIdentifier(strings.TrimPrefix(constraintName, "uq_")))
}

func normalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
