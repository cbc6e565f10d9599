package database

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isUUID guards UUID columns: Postgres rejects a malformed literal with
// 22P02 instead of matching no rows.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
