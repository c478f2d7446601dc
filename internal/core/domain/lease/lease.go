package lease

import (
	"context"
	"errors"
	"time"
)

var ErrLeaseHeld = errors.New("lease is held by another process")

type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive, expiring leases. Acquire returns ErrLeaseHeld
// when another holder owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
