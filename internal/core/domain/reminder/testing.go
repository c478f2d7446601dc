package reminder

import (
	"context"
	"fmt"
	"sort"
	c "snoozer/internal/core/domain/common"
	"strings"
	"sync"
	"time"
)

// FakeRepository is an in-memory Repository with the same uniqueness and
// conditional update guarantees as the database stores.
type FakeRepository struct {
	CreateError error
	GetError    error
	UpdateError error
	ReadError   error
	Updated     []UpdateStatusInput
	// AfterDueRead runs once a due read has returned its rows.
	AfterDueRead func()

	reminders map[ID]Reminder
	snoozed   map[ID]bool
	lastID    ID
	lock      sync.Mutex
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{reminders: make(map[ID]Reminder), snoozed: make(map[ID]bool)}
}

func (r *FakeRepository) Create(ctx context.Context, input CreateInput) (rem Reminder, err error) {
	if r.CreateError != nil {
		return rem, r.CreateError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.reminders {
		if existing.MessageID == input.MessageID {
			return rem, ErrDuplicateMessageID
		}
	}
	r.lastID++
	rem = Reminder{
		ID:            r.lastID,
		MessageID:     input.MessageID,
		RootMessageID: input.RootMessageID,
		ParentID:      input.ParentID,
		OwnerAddress:  input.OwnerAddress,
		TargetAddress: input.TargetAddress,
		Subject:       input.Subject,
		CreatedAt:     input.CreatedAt,
		Status:        input.Status,
		DueAt:         input.DueAt,
		Secret:        input.Secret,
		Notes:         input.Notes,
	}
	if rem.RootMessageID == "" {
		rem.RootMessageID = rem.MessageID
	}
	r.reminders[rem.ID] = rem
	return rem, nil
}

func (r *FakeRepository) GetByID(ctx context.Context, id ID) (rem Reminder, err error) {
	if r.GetError != nil {
		return rem, r.GetError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	rem, ok := r.reminders[id]
	if !ok {
		return rem, ErrReminderDoesNotExist
	}
	return rem, nil
}

func (r *FakeRepository) GetByMessageID(ctx context.Context, messageID MessageID) (rem Reminder, err error) {
	if r.GetError != nil {
		return rem, r.GetError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, existing := range r.reminders {
		if existing.MessageID == messageID {
			return existing, nil
		}
	}
	return rem, ErrReminderDoesNotExist
}

func (r *FakeRepository) UpdateStatusConditional(ctx context.Context, input UpdateStatusInput) (bool, error) {
	if r.UpdateError != nil {
		return false, r.UpdateError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	rem, ok := r.reminders[input.ID]
	if !ok || rem.Status != input.ExpectedStatus {
		return false, nil
	}
	if input.DueBefore.IsPresent && (!rem.DueAt.IsPresent || rem.DueAt.Value.After(input.DueBefore.Value)) {
		return false, nil
	}
	if input.SnoozedAt.IsPresent {
		if r.snoozed[rem.ID] {
			return false, nil
		}
		r.snoozed[rem.ID] = true
	}
	rem.Status = input.Status
	if input.DoDueAtUpdate {
		rem.DueAt = input.DueAt
	}
	if input.DoNotesUpdate {
		rem.Notes = input.Notes
	}
	r.reminders[rem.ID] = rem
	r.Updated = append(r.Updated, input)
	return true, nil
}

func (r *FakeRepository) ReadScheduledDueBefore(ctx context.Context, ts time.Time, limit uint) ([]Reminder, error) {
	rems, err := r.read(limit, func(rem Reminder) bool { return rem.IsDue(ts) }, byDueAt)
	if err == nil && r.AfterDueRead != nil {
		r.AfterDueRead()
	}
	return rems, err
}

func (r *FakeRepository) ReadUnprocessed(ctx context.Context, limit uint) ([]Reminder, error) {
	return r.read(limit, func(rem Reminder) bool { return rem.Status == StatusUnprocessed }, byID)
}

func (r *FakeRepository) ReadByOwnerAndStatus(ctx context.Context, owner c.Email, status Status) ([]Reminder, error) {
	return r.read(0, func(rem Reminder) bool {
		return rem.OwnerAddress == owner && rem.Status == status
	}, byDueAt)
}

func (r *FakeRepository) Search(ctx context.Context, owner c.Email, subjectLike string, limit uint) ([]Reminder, error) {
	needle := strings.ToLower(subjectLike)
	return r.read(limit, func(rem Reminder) bool {
		return rem.OwnerAddress == owner &&
			rem.Status != StatusUnprocessed &&
			rem.Status != StatusIgnored &&
			strings.Contains(strings.ToLower(rem.Subject), needle)
	}, byIDDesc)
}

// Put stores a reminder as is, bypassing uniqueness checks.
func (r *FakeRepository) Put(rem Reminder) Reminder {
	r.lock.Lock()
	defer r.lock.Unlock()
	if rem.ID == 0 {
		r.lastID++
		rem.ID = r.lastID
	} else if rem.ID > r.lastID {
		r.lastID = rem.ID
	}
	r.reminders[rem.ID] = rem
	return rem
}

func (r *FakeRepository) All() []Reminder {
	all, _ := r.read(0, func(Reminder) bool { return true }, byID)
	return all
}

func (r *FakeRepository) MustGet(id ID) Reminder {
	r.lock.Lock()
	defer r.lock.Unlock()
	rem, ok := r.reminders[id]
	if !ok {
		panic(fmt.Sprintf("reminder %d does not exist", id))
	}
	return rem
}

func byID(a, b Reminder) bool     { return a.ID < b.ID }
func byIDDesc(a, b Reminder) bool { return a.ID > b.ID }
func byDueAt(a, b Reminder) bool {
	if a.DueAt.Value.Equal(b.DueAt.Value) {
		return a.ID < b.ID
	}
	return a.DueAt.Value.Before(b.DueAt.Value)
}

func (r *FakeRepository) read(limit uint, filter func(Reminder) bool, less func(a, b Reminder) bool) ([]Reminder, error) {
	if r.ReadError != nil {
		return nil, r.ReadError
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	result := make([]Reminder, 0)
	for _, rem := range r.reminders {
		if filter(rem) {
			result = append(result, rem)
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	if limit > 0 && uint(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

type FakeIngestionAdapter struct {
	Batches [][]InboundMessage
	Error   error
	lock    sync.Mutex
}

func NewFakeIngestionAdapter(batches ...[]InboundMessage) *FakeIngestionAdapter {
	return &FakeIngestionAdapter{Batches: batches}
}

func (a *FakeIngestionAdapter) FetchNewMessages(ctx context.Context) ([]InboundMessage, error) {
	if a.Error != nil {
		return nil, a.Error
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	if len(a.Batches) == 0 {
		return nil, nil
	}
	batch := a.Batches[0]
	a.Batches = a.Batches[1:]
	return batch, nil
}

type FakeEventPublisher struct {
	Published []Event
	lock      sync.Mutex
}

func NewFakeEventPublisher() *FakeEventPublisher {
	return &FakeEventPublisher{}
}

func (p *FakeEventPublisher) Publish(ctx context.Context, event Event) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.Published = append(p.Published, event)
}

func (p *FakeEventPublisher) Types() []EventType {
	p.lock.Lock()
	defer p.lock.Unlock()
	types := make([]EventType, 0, len(p.Published))
	for _, event := range p.Published {
		types = append(types, event.Type)
	}
	return types
}

type FakeIdentityGenerator struct {
	SecretError error
	counter     int
	lock        sync.Mutex
}

func NewFakeIdentityGenerator() *FakeIdentityGenerator {
	return &FakeIdentityGenerator{}
}

func (g *FakeIdentityGenerator) GenerateMessageID() MessageID {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.counter++
	return MessageID(fmt.Sprintf("generated-%d@snoozer.test", g.counter))
}

func (g *FakeIdentityGenerator) GenerateSecret() (c.Secret, error) {
	if g.SecretError != nil {
		return nil, g.SecretError
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	g.counter++
	secret := make(c.Secret, SECRET_LEN)
	for i := range secret {
		secret[i] = byte(g.counter + i)
	}
	return secret, nil
}

type FakeTimeExpressionParser struct {
	Results map[string]Resolution
}

func NewFakeTimeExpressionParser() *FakeTimeExpressionParser {
	return &FakeTimeExpressionParser{Results: make(map[string]Resolution)}
}

func (p *FakeTimeExpressionParser) Resolve(expression string, reference time.Time) (Resolution, error) {
	res, ok := p.Results[expression]
	if !ok {
		return res, ErrParseExpression
	}
	return res, nil
}
