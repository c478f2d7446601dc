package senddigest

import (
	"context"
	"net/url"
	"snoozer/internal/core/domain/action"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/metrics"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/owner"
	"snoozer/internal/core/domain/reminder"
	uow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/core/services"
	sendnotice "snoozer/internal/core/services/send_notice"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

var Now = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

type testSuite struct {
	suite.Suite
	reminders  *reminder.FakeRepository
	owners     *owner.FakeRepository
	dispatcher *notification.FakeDispatcher
	service    services.Service[Input, Result]
	owner      owner.Owner
}

func (suite *testSuite) SetupTest() {
	log := logging.NewFakeLogger()
	suite.reminders = reminder.NewFakeRepository()
	suite.owners = owner.NewFakeRepository()
	suite.dispatcher = notification.NewFakeDispatcher()
	suite.service = New(
		log,
		uow.NewFakeUnitOfWork(suite.reminders, suite.owners),
		sendnotice.New(log, suite.dispatcher, metrics.NopRecorder{}),
		action.NewLinkBuilder(url.URL{Scheme: "https", Host: "snoozer.test"}, action.FakeTokenCodec{}),
		owner.FakeStreamTokens{},
		func() time.Time { return Now },
	)
	suite.owner = suite.owners.Put(owner.Owner{Address: "a@x.com", TimeZone: "UTC"})
}

func TestSendDigestService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) put(subject string, status reminder.Status, dueIn time.Duration) reminder.Reminder {
	return s.reminders.Put(reminder.Reminder{
		MessageID:    reminder.MessageID(subject + "@x.com"),
		OwnerAddress: "a@x.com",
		Subject:      subject,
		Status:       status,
		DueAt:        c.NewOptional(Now.Add(dueIn), true),
	})
}

func (s *testSuite) TestDigestListsScheduledRemindersByDueTime() {
	// Setup ---
	s.put("later", reminder.StatusScheduled, 48*time.Hour)
	s.put("sooner", reminder.StatusScheduled, time.Hour)
	s.put("done", reminder.StatusFired, -time.Hour)
	s.reminders.Put(reminder.Reminder{MessageID: "other@y.com", OwnerAddress: "b@y.com", Status: reminder.StatusScheduled})

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Owner: s.owner, InReplyTo: c.NewOptional("cmd@x.com", true)})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(2, result.Count)

	sent := s.dispatcher.SentOfKind(notification.KindDigest)
	assert.Len(sent, 1)
	assert.Equal(c.Email("a@x.com"), sent[0].To)
	assert.Equal(c.NewOptional("cmd@x.com", true), sent[0].InReplyTo)
	assert.Equal("You have 2 upcoming reminders.", sent[0].Text)
	assert.Equal("sooner", sent[0].Items[0].Subject)
	assert.Equal("later", sent[0].Items[1].Subject)
	assert.Len(sent[0].Links, 0)
}

func (s *testSuite) TestVerifiedOwnerGetsLiveFeedLink() {
	// Setup ---
	s.owner.VerifiedAt = c.NewOptional(Now, true)

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Owner: s.owner})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(0, result.Count)
	sent := s.dispatcher.SentOfKind(notification.KindDigest)
	assert.Len(sent, 1)
	assert.Equal("You have no upcoming reminders.", sent[0].Text)
	assert.Len(sent[0].Links, 1)
	assert.Contains(sent[0].Links[0].URL, "/events?")
	assert.Contains(sent[0].Links[0].URL, "token=stream-a%40x.com")
}
