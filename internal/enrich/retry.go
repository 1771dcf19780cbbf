package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy is a fixed-delay retry over a declared set of error kinds.
type RetryPolicy struct {
	MaxAttempts  int
	WaitInterval time.Duration
	// RetryOn lists the errors that trigger another attempt, matched with
	// errors.Is. Anything else propagates on the first failure.
	RetryOn []error
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrConfig, p.MaxAttempts)
	}
	if p.WaitInterval < 0 {
		return fmt.Errorf("%w: wait interval must not be negative, got %s", ErrConfig, p.WaitInterval)
	}
	return nil
}

// Retryable reports whether err belongs to the declared retryable set.
func (p RetryPolicy) Retryable(err error) bool {
	for _, target := range p.RetryOn {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Execute calls fn until it succeeds, fails with a non-retryable error, or
// MaxAttempts calls have been made. The last error is returned unchanged.
// The wait between attempts is interrupted by ctx.
func (p RetryPolicy) Execute(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	attempts := max(p.MaxAttempts, 1)
	wait := p.WaitInterval
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		return wait, false
	}))

	var out string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			if p.Retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
