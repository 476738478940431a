package shortcode

import (
	"context"
	"errors"
	"fmt"
)

// DefaultMaxAttempts bounds how many candidates a single claim may try.
const DefaultMaxAttempts = 5

var (
	// ErrCollision is returned by an InsertFunc when storage rejects the code as a duplicate.
	ErrCollision = errors.New("short code already taken")
	// ErrRetriesExhausted means every attempt in the budget hit a taken code.
	ErrRetriesExhausted = errors.New("failed to generate unique short code")
)

// ExistenceChecker looks a code up in storage.
type ExistenceChecker interface {
	ShortCodeExists(ctx context.Context, code string) (bool, error)
}

// InsertFunc persists a record under code.
type InsertFunc func(ctx context.Context, code string) error

// Allocation is a successfully claimed code.
type Allocation struct {
	Code     string
	Attempts int
}

// Resolver claims codes that are free in storage. The pre-check narrows the race window;
// the storage unique constraint, surfaced as ErrCollision, decides it.
type Resolver struct {
	gen         Generator
	checker     ExistenceChecker
	maxAttempts int
}

func NewResolver(gen Generator, checker ExistenceChecker, maxAttempts int) *Resolver {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Resolver{gen: gen, checker: checker, maxAttempts: maxAttempts}
}

// Claim generates candidates until insert succeeds or the budget runs out.
// Storage errors other than ErrCollision abort immediately.
func (r *Resolver) Claim(ctx context.Context, insert InsertFunc) (Allocation, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Allocation{}, err
		}

		code := r.gen.Generate()
		if IsReserved(code) {
			continue
		}

		taken, err := r.checker.ShortCodeExists(ctx, code)
		if err != nil {
			return Allocation{}, fmt.Errorf("failed to check short code availability: %w", err)
		}
		if taken {
			continue
		}

		err = insert(ctx, code)
		if errors.Is(err, ErrCollision) {
			continue
		}
		if err != nil {
			return Allocation{}, err
		}
		return Allocation{Code: code, Attempts: attempt}, nil
	}

	return Allocation{}, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, r.maxAttempts)
}
