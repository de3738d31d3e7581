package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrNavigationExhausted is returned when every navigation attempt failed
var ErrNavigationExhausted = errors.New("navigation failed after retries")

// Navigator loads a URL in the browser
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// RetryPolicy controls NavigateWithRetry
type RetryPolicy struct {
	Attempts int           // total attempts, at least 1
	Timeout  time.Duration // per attempt
	Backoff  time.Duration // wait after attempt n is n*Backoff
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() { b.n = 0 }

// NavigateWithRetry loads url, retrying every failure with a linearly growing
// wait. It gives up with ErrNavigationExhausted once policy.Attempts is used up,
// or with the context error as soon as ctx is done.
func NavigateWithRetry(ctx context.Context, nav Navigator, url string, policy RetryPolicy, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	attempts := max(policy.Attempts, 1)

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: policy.Backoff}, uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	operation := func() error {
		attempt++
		log.Info("navigating", zap.String("url", url), zap.Int("attempt", attempt), zap.Int("of", attempts))

		var (
			attemptCtx context.Context
			cancel     context.CancelFunc
		)
		if policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		} else {
			attemptCtx, cancel = context.WithCancel(ctx)
		}
		defer cancel()

		err := nav.Navigate(attemptCtx, url)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("navigation failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Error("navigation failed", zap.Int("attempts", attempt), zap.Error(err))
		return fmt.Errorf("%w (%d attempts): %w", ErrNavigationExhausted, attempt, err)
	}
	return nil
}
