package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the sentinel every ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")
)

// Catalog exposes the book catalog operations.
// Handlers never query the DB directly; all access goes through this interface.
type Catalog interface {
	AddBook(ctx context.Context, nb NewBook) (int64, error)
	GetBook(ctx context.Context, id int64) (*BookView, error)
	ListBooks(ctx context.Context) ([]*BookView, error)
	SearchBooks(ctx context.Context, q string) ([]*BookView, error)
	Ping(ctx context.Context) error
}

// ValidationError reports which required inputs were missing.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// isUniqueConstraintError checks whether err indicates a unique constraint violation.
// Works across SQLite, PostgreSQL, and MySQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
