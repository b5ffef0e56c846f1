package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/errors"
)

// Within runs fn under a limit. An overrun yields an error matching both
// apperrors.ErrTimeout and context.DeadlineExceeded; cancellation of ctx
// itself is passed through unchanged. A limit <= 0 disables the bound.
func Within[T any](ctx context.Context, limit time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if limit <= 0 {
		return fn(ctx)
	}
	bounded, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(bounded)
		done <- outcome{v, err}
	}()

	var zero T
	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && bounded.Err() != nil {
			return zero, overrun(name, limit)
		}
		return o.val, o.err
	case <-bounded.Done():
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", name, err)
		}
		return zero, overrun(name, limit)
	}
}

func overrun(name string, limit time.Duration) error {
	return fmt.Errorf("%s exceeded %v: %w: %w", name, limit, apperrors.ErrTimeout, context.DeadlineExceeded)
}
