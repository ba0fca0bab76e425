package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Attempt calls fn up to tries times, sleeping delay between attempts, until it returns a nil
// error. fn receives the 1-based attempt number. An error wrapped with Permanent stops the retries
// immediately. When ctx is cancelled the last result is returned together with the context's
// error.
func Attempt[T any](
	ctx context.Context,
	tries int,
	delay time.Duration,
	fn func(attempt int) (T, error),
) (T, error) {
	if tries < 1 {
		tries = 1
	}

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(tries-1)),
		ctx,
	)
	return backoff.RetryWithData(func() (T, error) {
		attempt++
		return fn(attempt)
	}, policy)
}

// AttemptNotify is Attempt with a callback invoked after every failed attempt that will be
// retried.
func AttemptNotify[T any](
	ctx context.Context,
	tries int,
	delay time.Duration,
	fn func(attempt int) (T, error),
	notify func(attempt int, err error),
) (T, error) {
	if tries < 1 {
		tries = 1
	}

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(tries-1)),
		ctx,
	)
	return backoff.RetryNotifyWithData(
		func() (T, error) {
			attempt++
			return fn(attempt)
		},
		policy,
		func(err error, _ time.Duration) {
			notify(attempt, err)
		},
	)
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
