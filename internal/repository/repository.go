package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	pqUniqueViolation  = "23505"
	pqInvalidTextInput = "22P02" // e.g. a malformed UUID literal
)

// queryTimeout bounds each storage call so a saturated pool fails fast.
type queryTimeout time.Duration

func (t queryTimeout) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if t <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(t))
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
}

func isInvalidInput(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextInput
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
