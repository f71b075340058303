package reconcile

import (
	"context"
	"time"
)

// GroupLocker serializes change event processing per group key across worker
// instances. Acquire returns false without error when another holder owns the
// group; the TTL bounds how long a crashed holder can block the group.
type GroupLocker interface {
	// Acquire tries to take the lock for a group, returning true on success
	Acquire(ctx context.Context, group string, ttl time.Duration) (bool, error)

	// Release gives up the lock for a group. Releasing a lock this holder
	// does not own is a no-op.
	Release(ctx context.Context, group string) error
}
