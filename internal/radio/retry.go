package radio

import (
	"context"
	"errors"
	"fmt"
)

// DefaultAttempts is one call plus one retry.
const DefaultAttempts = 2

// Outcome classifies a single attempt
type Outcome int

const (
	OutcomeOk Outcome = iota
	OutcomeRetry
	OutcomeFatal
)

// Attempt is the result of one try of a provider call
type Attempt[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// Ok ends the loop with v
func Ok[T any](v T) Attempt[T] {
	return Attempt[T]{Value: v, Outcome: OutcomeOk}
}

// Transient asks for another attempt if any are left
func Transient[T any](err error) Attempt[T] {
	return Attempt[T]{Outcome: OutcomeRetry, Err: err}
}

// Fatal ends the loop with err, unwrapped
func Fatal[T any](err error) Attempt[T] {
	return Attempt[T]{Outcome: OutcomeFatal, Err: err}
}

// FromCall turns a plain call result into an Attempt. Context errors are
// fatal, everything else is worth another try.
func FromCall[T any](v T, err error) Attempt[T] {
	switch {
	case err == nil:
		return Ok(v)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Fatal[T](err)
	default:
		return Transient[T](err)
	}
}

// Retry runs fn up to attempts times. The context is checked before every
// attempt. When attempts run out the last error is wrapped in
// ErrProviderError.
func Retry[T any](ctx context.Context, attempts int, fn func(ctx context.Context, attempt int) Attempt[T]) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		a := fn(ctx, i)
		switch a.Outcome {
		case OutcomeOk:
			return a.Value, nil
		case OutcomeFatal:
			return zero, a.Err
		default:
			last = a.Err
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrProviderError, attempts, last)
}
