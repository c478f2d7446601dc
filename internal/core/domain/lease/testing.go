package lease

import (
	"context"
	"sync"
	"time"
)

type FakeLocker struct {
	AcquireError error
	held         map[string]bool
	Acquired     int
	lock         sync.Mutex
}

func NewFakeLocker() *FakeLocker {
	return &FakeLocker{held: make(map[string]bool)}
}

func (l *FakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	if l.AcquireError != nil {
		return nil, l.AcquireError
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.held[key] {
		return nil, ErrLeaseHeld
	}
	l.held[key] = true
	l.Acquired++
	return &fakeLease{locker: l, key: key}, nil
}

func (l *FakeLocker) Hold(key string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.held[key] = true
}

type fakeLease struct {
	locker *FakeLocker
	key    string
}

func (f *fakeLease) Release(ctx context.Context) error {
	f.locker.lock.Lock()
	defer f.locker.lock.Unlock()
	delete(f.locker.held, f.key)
	return nil
}
