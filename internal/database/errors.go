package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	customerrors "github.com/axellelanca/redirector/internal/errors"
)

// Postgres SQLSTATE codes we care about.
const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

// Classify wraps err with the matching sentinel from the errors package.
// op names the failed operation and prefixes the message. A nil err stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var sentinel error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sentinel = customerrors.ErrNotFound
	case IsUniqueViolation(err):
		sentinel = customerrors.ErrConflict
	case IsMissingTable(err):
		sentinel = customerrors.ErrSchemaMissing
	default:
		sentinel = customerrors.ErrStorage
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel, err)
}

// IsUniqueViolation reports whether err is a primary key or unique index collision.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// IsMissingTable reports whether err means the schema has not been created.
func IsMissingTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUndefinedTable
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}
