package notification

import (
	"context"
	"sync"
)

type FakeDispatcher struct {
	Error error
	Sent  []Notification
	lock  sync.Mutex
}

func NewFakeDispatcher() *FakeDispatcher {
	return &FakeDispatcher{}
}

func (d *FakeDispatcher) Send(ctx context.Context, n Notification) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.Error != nil {
		return d.Error
	}
	d.Sent = append(d.Sent, n)
	return nil
}

func (d *FakeDispatcher) SentOfKind(kind Kind) []Notification {
	d.lock.Lock()
	defer d.lock.Unlock()
	result := make([]Notification, 0)
	for _, n := range d.Sent {
		if n.Kind == kind {
			result = append(result, n)
		}
	}
	return result
}
