package owner

import (
	"context"
	c "snoozer/internal/core/domain/common"
	"sync"
	"time"
)

type FakeRepository struct {
	GetOrCreateError error
	GetError         error
	UpdateError      error

	owners map[ID]Owner
	lastID ID
	lock   sync.Mutex
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{owners: make(map[ID]Owner)}
}

func (r *FakeRepository) GetOrCreate(ctx context.Context, input GetOrCreateInput) (o Owner, created bool, err error) {
	if r.GetOrCreateError != nil {
		return o, false, r.GetOrCreateError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.owners {
		if existing.Address == input.Address {
			return existing, false, nil
		}
	}
	r.lastID++
	o = Owner{
		ID:        r.lastID,
		Address:   input.Address,
		TimeZone:  input.TimeZone,
		Secret:    input.Secret,
		CreatedAt: input.CreatedAt,
	}
	r.owners[o.ID] = o
	return o, true, nil
}

func (r *FakeRepository) GetByID(ctx context.Context, id ID) (o Owner, err error) {
	if r.GetError != nil {
		return o, r.GetError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	o, ok := r.owners[id]
	if !ok {
		return o, ErrOwnerDoesNotExist
	}
	return o, nil
}

func (r *FakeRepository) GetByAddress(ctx context.Context, address c.Email) (o Owner, err error) {
	if r.GetError != nil {
		return o, r.GetError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.owners {
		if existing.Address == address {
			return existing, nil
		}
	}
	return o, ErrOwnerDoesNotExist
}

func (r *FakeRepository) SetDefaultExpression(ctx context.Context, id ID, expression string) error {
	return r.update(id, func(o *Owner) { o.DefaultExpression = c.NewOptional(expression, true) })
}

func (r *FakeRepository) MarkVerified(ctx context.Context, id ID, at time.Time) error {
	return r.update(id, func(o *Owner) {
		if !o.VerifiedAt.IsPresent {
			o.VerifiedAt = c.NewOptional(at, true)
		}
	})
}

// Put stores the owner as is.
func (r *FakeRepository) Put(o Owner) Owner {
	r.lock.Lock()
	defer r.lock.Unlock()
	if o.ID == 0 {
		r.lastID++
		o.ID = r.lastID
	} else if o.ID > r.lastID {
		r.lastID = o.ID
	}
	r.owners[o.ID] = o
	return o
}

func (r *FakeRepository) Count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.owners)
}

func (r *FakeRepository) update(id ID, apply func(o *Owner)) error {
	if r.UpdateError != nil {
		return r.UpdateError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	o, ok := r.owners[id]
	if !ok {
		return ErrOwnerDoesNotExist
	}
	apply(&o)
	r.owners[id] = o
	return nil
}

type FakeStreamTokens struct{}

func (FakeStreamTokens) GenerateStreamToken(address c.Email) StreamToken {
	return StreamToken("stream-" + string(address))
}

func (FakeStreamTokens) ValidateStreamToken(address c.Email, token StreamToken) bool {
	return token == StreamToken("stream-"+string(address))
}
