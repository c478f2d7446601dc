package executeaction

import (
	"context"
	"net/url"
	"snoozer/internal/core/domain/action"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	cancelreminder "snoozer/internal/core/services/cancel_reminder"
	snoozereminder "snoozer/internal/core/services/snooze_reminder"
	verifyowner "snoozer/internal/core/services/verify_owner"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

var Now = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

type testSuite struct {
	suite.Suite
	reminders *reminder.FakeRepository
	owners    *owner.FakeRepository
	parser    *reminder.FakeTimeExpressionParser
	links     *action.LinkBuilder
	service   services.Service[Input, Result]
}

func (suite *testSuite) SetupTest() {
	log := logging.NewFakeLogger()
	now := func() time.Time { return Now }
	suite.reminders = reminder.NewFakeRepository()
	suite.owners = owner.NewFakeRepository()
	suite.parser = reminder.NewFakeTimeExpressionParser()
	suite.links = action.NewLinkBuilder(url.URL{Scheme: "https", Host: "snoozer.test"}, action.FakeTokenCodec{})
	unitOfWork := uow.NewFakeUnitOfWork(suite.reminders, suite.owners)
	events := reminder.NewFakeEventPublisher()
	suite.service = New(
		log,
		unitOfWork,
		action.FakeTokenCodec{},
		snoozereminder.New(log, unitOfWork, suite.parser, reminder.NewFakeIdentityGenerator(), events, "tomorrow", "UTC", now),
		cancelreminder.New(log, unitOfWork, events, now),
		verifyowner.New(log, unitOfWork, now),
	)
}

func TestExecuteActionService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) put(status reminder.Status) reminder.Reminder {
	return s.reminders.Put(reminder.Reminder{
		MessageID:     "m1@x.com",
		OwnerAddress:  "a@x.com",
		TargetAddress: "tomorrow@snoozer.test",
		Status:        status,
		DueAt:         c.NewOptional(Now.Add(time.Hour), true),
		Secret:        c.Secret{1, 2, 3},
	})
}

func inputOf(link notification.Link) Input {
	u, err := url.Parse(link.URL)
	if err != nil {
		panic(err)
	}
	q := u.Query()
	return Input{ID: q.Get("id"), Action: q.Get("action"), Expression: q.Get("t"), Token: q.Get("token")}
}

func (s *testSuite) TestSnoozeLink() {
	// Setup ---
	s.owners.Put(owner.Owner{Address: "a@x.com", TimeZone: "Europe/Berlin"})
	rem := s.put(reminder.StatusFired)
	s.parser.Results["1hour"] = reminder.Resolution{DueAt: Now.Add(time.Hour)}
	link, err := s.links.Snooze(rem, "1hour")
	s.Require().Nil(err)

	// Exercise ---
	result, err := s.service.Run(context.Background(), inputOf(link))

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(action.ActionSnooze, result.Action)
	assert.Equal(rem.ID, result.Reminder.ID)
	assert.Equal(c.NewOptional(Now.Add(time.Hour), true), s.reminders.MustGet(result.Clone.ID).DueAt)
	assert.Equal("Europe/Berlin", result.Owner.TimeZone)
}

func (s *testSuite) TestCancelLink() {
	// Setup ---
	rem := s.put(reminder.StatusScheduled)
	link, err := s.links.Cancel(rem)
	s.Require().Nil(err)

	// Exercise ---
	result, err := s.service.Run(context.Background(), inputOf(link))

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(reminder.StatusCancelled, result.Reminder.Status)
	assert.Equal(reminder.StatusCancelled, s.reminders.MustGet(rem.ID).Status)
}

func (s *testSuite) TestCancelLinkAfterFire() {
	// Setup ---
	rem := s.put(reminder.StatusScheduled)
	link, err := s.links.Cancel(rem)
	s.Require().Nil(err)
	fired := rem
	fired.Status = reminder.StatusFired
	s.reminders.Put(fired)

	// Exercise ---
	_, err = s.service.Run(context.Background(), inputOf(link))

	// Verify ---
	s.Require().ErrorIs(err, reminder.ErrReminderNotActive)
}

func (s *testSuite) TestVerifyLink() {
	// Setup ---
	o := s.owners.Put(owner.Owner{Address: "a@x.com", Secret: c.Secret{7, 7}})
	link, err := s.links.Verify(o)
	s.Require().Nil(err)

	// Exercise ---
	result, err := s.service.Run(context.Background(), inputOf(link))

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(action.ActionVerify, result.Action)
	assert.True(result.Owner.IsVerified())
}

func (s *testSuite) TestTamperedLinks() {
	rem := s.put(reminder.StatusScheduled)
	other := s.reminders.Put(reminder.Reminder{MessageID: "m2@x.com", Status: reminder.StatusScheduled, Secret: c.Secret{9}})
	o := s.owners.Put(owner.Owner{Address: "a@x.com", Secret: c.Secret{7, 7}})
	cancel, _ := s.links.Cancel(rem)
	verify, _ := s.links.Verify(o)

	cases := []struct {
		id     string
		mutate func(i *Input)
		err    error
	}{
		{id: "empty token", mutate: func(i *Input) { i.Token = "" }, err: action.ErrInvalidToken},
		{id: "garbage token", mutate: func(i *Input) { i.Token = "xyz" }, err: action.ErrInvalidToken},
		{id: "token of other reminder", mutate: func(i *Input) { i.ID = strconv.FormatInt(int64(other.ID), 10) }, err: action.ErrInvalidToken},
		{id: "missing reminder", mutate: func(i *Input) { i.ID = "404" }, err: reminder.ErrReminderDoesNotExist},
		{id: "bad id", mutate: func(i *Input) { i.ID = "abc" }, err: reminder.ErrReminderDoesNotExist},
		{id: "bad action", mutate: func(i *Input) { i.Action = "x" }, err: action.ErrParseAction},
		{id: "reminder token as verification", mutate: func(i *Input) { i.Action = "v"; i.ID = verifyID(verify) }, err: action.ErrInvalidToken},
	}

	for _, testcase := range cases {
		s.Run(testcase.id, func() {
			input := inputOf(cancel)
			testcase.mutate(&input)

			_, err := s.service.Run(context.Background(), input)

			assert := s.Require()
			assert.ErrorIs(err, testcase.err)
			assert.Equal(reminder.StatusScheduled, s.reminders.MustGet(rem.ID).Status)
		})
	}
}

func verifyID(link notification.Link) string {
	return inputOf(link).ID
}
