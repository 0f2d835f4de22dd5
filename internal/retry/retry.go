// Package retry re-runs idempotent reads on transient failures. Writes must
// never go through here: a retried insert can duplicate a row.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const maxTries = 3

// Read runs fn until it succeeds, returns an error transient reports as
// permanent, runs out of tries or ctx is done.
func Read[T any](ctx context.Context, transient func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	return backoff.Retry(ctx, func() (T, error) {
		v, err := fn(ctx)

		if err != nil && (transient == nil || !transient(err)) {
			return v, backoff.Permanent(err)
		}

		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(maxTries))
}
