// Package lock serializes work per key. Every Locker waits a bounded time for
// the key and fails with ErrNotAcquired when the wait runs out.
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Release gives the key back. Calling it more than once is safe.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
