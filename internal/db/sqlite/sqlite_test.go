package sqlite

import (
	"context"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
)

var Now = time.Date(2024, 1, 3, 10, 30, 0, 123, time.UTC)

type testSuite struct {
	suite.Suite
	db        *sqlx.DB
	uow       *SqlxUnitOfWork
	reminders *SqlxReminderRepository
	owners    *SqlxOwnerRepository
}

func (s *testSuite) SetupTest() {
	db, err := Open(":memory:")
	s.Require().Nil(err)
	s.db = db
	s.uow = NewSqlxUnitOfWork(db)
	s.reminders = NewSqlxReminderRepository(db)
	s.owners = NewSqlxOwnerRepository(db)
}

func (s *testSuite) TearDownTest() {
	s.db.Close()
}

func TestSqliteStore(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) input(messageID string, status reminder.Status, dueAt c.Optional[time.Time]) reminder.CreateInput {
	return reminder.CreateInput{
		MessageID:     reminder.MessageID(messageID),
		OwnerAddress:  c.NewEmail("alice@example.com"),
		TargetAddress: c.NewEmail("2hours@snoozer.test"),
		Subject:       "Call Bob",
		CreatedAt:     Now,
		Status:        status,
		DueAt:         dueAt,
		Secret:        c.Secret("0123456789abcdef0123456789abcdef"),
	}
}

func (s *testSuite) TestMigrationsAreIdempotent() {
	s.Nil(runMigrations(s.db))
	var version int
	s.Nil(s.db.Get(&version, "SELECT MAX(version) FROM schema_version"))
	s.Equal(1, version)
}

func (s *testSuite) TestCreateAndGet() {
	ctx := context.Background()
	input := s.input("m-1@example.com", reminder.StatusScheduled, c.NewOptional(Now.Add(time.Hour), true))

	rem, err := s.reminders.Create(ctx, input)
	s.Nil(err)

	fetched, err := s.reminders.GetByID(ctx, rem.ID)
	s.Nil(err)
	s.Equal(rem, fetched)
	s.Equal(reminder.MessageID("m-1@example.com"), fetched.RootMessageID)
	s.True(fetched.CreatedAt.Equal(Now))
	s.True(fetched.DueAt.Value.Equal(Now.Add(time.Hour)))
	s.False(fetched.ParentID.IsPresent)
}

func (s *testSuite) TestCreateDuplicateMessageID() {
	ctx := context.Background()
	input := s.input("m-1@example.com", reminder.StatusUnprocessed, c.Optional[time.Time]{})

	_, err := s.reminders.Create(ctx, input)
	s.Nil(err)
	_, err = s.reminders.Create(ctx, input)

	s.ErrorIs(err, reminder.ErrDuplicateMessageID)
	all, err := s.reminders.ReadUnprocessed(ctx, 0)
	s.Nil(err)
	s.Len(all, 1)
}

func (s *testSuite) TestNotFound() {
	_, err := s.reminders.GetByID(context.Background(), 42)
	s.ErrorIs(err, reminder.ErrReminderDoesNotExist)
	_, err = s.reminders.GetByMessageID(context.Background(), "nope")
	s.ErrorIs(err, reminder.ErrReminderDoesNotExist)
}

func (s *testSuite) TestUpdateStatusConditional() {
	ctx := context.Background()
	rem, err := s.reminders.Create(ctx, s.input("m-1", reminder.StatusScheduled, c.NewOptional(Now, true)))
	s.Nil(err)

	ok, err := s.reminders.UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusFired,
	})
	s.Nil(err)
	s.True(ok)

	ok, err = s.reminders.UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusFired,
	})
	s.Nil(err)
	s.False(ok)

	fired, err := s.reminders.GetByID(ctx, rem.ID)
	s.Nil(err)
	s.Equal(reminder.StatusFired, fired.Status)
	s.True(fired.DueAt.Value.Equal(Now))
}

func (s *testSuite) TestUpdateStatusConditionalWithValues() {
	ctx := context.Background()
	rem, err := s.reminders.Create(ctx, s.input("m-1", reminder.StatusScheduled, c.NewOptional(Now, true)))
	s.Nil(err)

	ok, err := s.reminders.UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusScheduled,
		DoDueAtUpdate:  true,
		DueAt:          c.NewOptional(Now.Add(24*time.Hour), true),
		DoNotesUpdate:  true,
		Notes:          "moved",
	})
	s.Nil(err)
	s.True(ok)

	updated, err := s.reminders.GetByID(ctx, rem.ID)
	s.Nil(err)
	s.True(updated.DueAt.Value.Equal(Now.Add(24 * time.Hour)))
	s.Equal("moved", updated.Notes)
}

func (s *testSuite) TestUpdateStatusConditionalDueBefore() {
	ctx := context.Background()
	rem, err := s.reminders.Create(ctx, s.input("m-1", reminder.StatusScheduled, c.NewOptional(Now.Add(time.Hour), true)))
	s.Nil(err)

	fire := reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusScheduled,
		Status:         reminder.StatusFired,
		DueBefore:      c.NewOptional(Now, true),
	}
	ok, err := s.reminders.UpdateStatusConditional(ctx, fire)
	s.Nil(err)
	s.False(ok)

	fire.DueBefore = c.NewOptional(Now.Add(time.Hour), true)
	ok, err = s.reminders.UpdateStatusConditional(ctx, fire)
	s.Nil(err)
	s.True(ok)
}

func (s *testSuite) TestUpdateStatusConditionalSnoozesOnce() {
	ctx := context.Background()
	rem, err := s.reminders.Create(ctx, s.input("m-1", reminder.StatusFired, c.NewOptional(Now, true)))
	s.Nil(err)

	snooze := reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusFired,
		Status:         reminder.StatusFired,
		SnoozedAt:      c.NewOptional(Now, true),
	}
	ok, err := s.reminders.UpdateStatusConditional(ctx, snooze)
	s.Nil(err)
	s.True(ok)

	ok, err = s.reminders.UpdateStatusConditional(ctx, snooze)
	s.Nil(err)
	s.False(ok)

	// Plain transitions ignore the mark.
	ok, err = s.reminders.UpdateStatusConditional(ctx, reminder.UpdateStatusInput{
		ID:             rem.ID,
		ExpectedStatus: reminder.StatusFired,
		Status:         reminder.StatusFired,
	})
	s.Nil(err)
	s.True(ok)
}

func (s *testSuite) TestReadScheduledDueBefore() {
	ctx := context.Background()
	a, _ := s.reminders.Create(ctx, s.input("m-1", reminder.StatusScheduled, c.NewOptional(Now.Add(-time.Minute), true)))
	b, _ := s.reminders.Create(ctx, s.input("m-2", reminder.StatusScheduled, c.NewOptional(Now.Add(-time.Hour), true)))
	s.reminders.Create(ctx, s.input("m-3", reminder.StatusScheduled, c.NewOptional(Now.Add(time.Nanosecond), true)))
	s.reminders.Create(ctx, s.input("m-4", reminder.StatusCancelled, c.NewOptional(Now.Add(-time.Hour), true)))

	due, err := s.reminders.ReadScheduledDueBefore(ctx, Now, 0)
	s.Nil(err)
	s.Equal([]reminder.ID{b.ID, a.ID}, ids(due))

	due, err = s.reminders.ReadScheduledDueBefore(ctx, Now, 1)
	s.Nil(err)
	s.Equal([]reminder.ID{b.ID}, ids(due))
}

func (s *testSuite) TestSearch() {
	ctx := context.Background()
	input := s.input("m-1", reminder.StatusScheduled, c.NewOptional(Now, true))
	input.Subject = "Dentist appointment"
	match, _ := s.reminders.Create(ctx, input)
	input = s.input("m-2", reminder.StatusUnprocessed, c.Optional[time.Time]{})
	input.Subject = "dentist"
	s.reminders.Create(ctx, input)
	input = s.input("m-3", reminder.StatusScheduled, c.NewOptional(Now, true))
	input.Subject = "Taxes"
	s.reminders.Create(ctx, input)

	found, err := s.reminders.Search(ctx, c.NewEmail("alice@example.com"), "DENTIST", 10)

	s.Nil(err)
	s.Equal([]reminder.ID{match.ID}, ids(found))
}

func (s *testSuite) TestOwners() {
	ctx := context.Background()
	input := owner.GetOrCreateInput{
		Address:   c.NewEmail("alice@example.com"),
		TimeZone:  "Europe/Berlin",
		Secret:    c.Secret("0123456789abcdef0123456789abcdef"),
		CreatedAt: Now,
	}

	created, isCreated, err := s.owners.GetOrCreate(ctx, input)
	s.Nil(err)
	s.True(isCreated)
	existing, isCreated, err := s.owners.GetOrCreate(ctx, input)
	s.Nil(err)
	s.False(isCreated)
	s.Equal(created.ID, existing.ID)

	s.Nil(s.owners.SetDefaultExpression(ctx, created.ID, "friday"))
	s.Nil(s.owners.MarkVerified(ctx, created.ID, Now))
	updated, err := s.owners.GetByAddress(ctx, input.Address)
	s.Nil(err)
	s.Equal("friday", updated.Expression("tomorrow"))
	s.True(updated.IsVerified())

	s.ErrorIs(s.owners.MarkVerified(ctx, 42, Now), owner.ErrOwnerDoesNotExist)
}

func (s *testSuite) TestUnitOfWorkRollback() {
	ctx := context.Background()

	tx, err := s.uow.Begin(ctx)
	s.Nil(err)
	_, err = tx.Reminders().Create(ctx, s.input("m-1", reminder.StatusScheduled, c.NewOptional(Now, true)))
	s.Nil(err)
	s.Nil(tx.Rollback(ctx))

	tx, err = s.uow.Begin(ctx)
	s.Nil(err)
	defer tx.Rollback(ctx)
	_, err = tx.Reminders().GetByMessageID(ctx, "m-1")
	s.ErrorIs(err, reminder.ErrReminderDoesNotExist)
}

func (s *testSuite) TestUnitOfWorkCommit() {
	ctx := context.Background()

	tx, err := s.uow.Begin(ctx)
	s.Nil(err)
	_, _, err = tx.Owners().GetOrCreate(ctx, owner.GetOrCreateInput{
		Address:   c.NewEmail("alice@example.com"),
		TimeZone:  "UTC",
		Secret:    c.Secret("0123456789abcdef0123456789abcdef"),
		CreatedAt: Now,
	})
	s.Nil(err)
	s.Nil(tx.Commit(ctx))
	s.Nil(tx.Rollback(ctx))

	_, err = s.owners.GetByAddress(ctx, c.NewEmail("alice@example.com"))
	s.Nil(err)
}

func ids(reminders []reminder.Reminder) []reminder.ID {
	result := make([]reminder.ID, 0, len(reminders))
	for _, rem := range reminders {
		result = append(result, rem.ID)
	}
	return result
}
