package classifyreminder

import (
	"context"
	"errors"
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
	searchreminders "snoozer/internal/core/services/search_reminders"
	senddigest "snoozer/internal/core/services/send_digest"
	sendnotice "snoozer/internal/core/services/send_notice"
	setdefaultexpression "snoozer/internal/core/services/set_default_expression"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

var (
	Now       = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	CreatedAt = Now.Add(-10 * time.Minute)
)

type testSuite struct {
	suite.Suite
	logger     *logging.FakeLogger
	reminders  *reminder.FakeRepository
	owners     *owner.FakeRepository
	parser     *reminder.FakeTimeExpressionParser
	dispatcher *notification.FakeDispatcher
	events     *reminder.FakeEventPublisher
	service    services.Service[Input, Result]
}

func (suite *testSuite) SetupTest() {
	suite.logger = logging.NewFakeLogger()
	suite.reminders = reminder.NewFakeRepository()
	suite.owners = owner.NewFakeRepository()
	suite.parser = reminder.NewFakeTimeExpressionParser()
	suite.dispatcher = notification.NewFakeDispatcher()
	suite.events = reminder.NewFakeEventPublisher()

	now := func() time.Time { return Now }
	unitOfWork := uow.NewFakeUnitOfWork(suite.reminders, suite.owners)
	notices := sendnotice.New(suite.logger, suite.dispatcher, metrics.NopRecorder{})
	links := action.NewLinkBuilder(url.URL{Scheme: "https", Host: "snoozer.test"}, action.FakeTokenCodec{})
	suite.service = New(
		suite.logger,
		unitOfWork,
		suite.parser,
		reminder.NewFakeIdentityGenerator(),
		notices,
		Commands{
			Digest:     senddigest.New(suite.logger, unitOfWork, notices, links, owner.FakeStreamTokens{}, now),
			Search:     searchreminders.New(suite.logger, unitOfWork, notices, links, now),
			SetDefault: setdefaultexpression.New(suite.logger, unitOfWork, suite.parser, notices, now),
		},
		suite.events,
		metrics.NopRecorder{},
		Config{
			IgnoredLocalParts: []string{"noreply", "blackhole"},
			DefaultExpression: "tomorrow",
			DefaultTimeZone:   "UTC",
		},
		now,
	)
}

func TestClassifyReminderService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) unprocessed(localPart string, subject string) reminder.Reminder {
	return s.reminders.Put(reminder.Reminder{
		MessageID:     "m1@x.com",
		RootMessageID: "m1@x.com",
		OwnerAddress:  "a@x.com",
		TargetAddress: c.Email(localPart + "@snoozer.test"),
		Subject:       subject,
		CreatedAt:     CreatedAt,
		Status:        reminder.StatusUnprocessed,
	})
}

func (s *testSuite) TestTimeExpressionIsScheduled() {
	// Setup ---
	dueAt := CreatedAt.Add(2 * time.Hour)
	s.parser.Results["2hours"] = reminder.Resolution{DueAt: dueAt}
	rem := s.unprocessed("2hours", "Hi")

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(OutcomeScheduled, result.Outcome)

	stored := s.reminders.MustGet(rem.ID)
	assert.Equal(reminder.StatusScheduled, stored.Status)
	assert.Equal(c.NewOptional(dueAt, true), stored.DueAt)
	assert.Equal([]reminder.EventType{reminder.EventScheduled}, s.events.Types())
	assert.Len(s.dispatcher.Sent, 0)
	assert.Equal(1, s.owners.Count())
}

func (s *testSuite) TestUnknownExpressionIsIgnoredWithNotice() {
	// Setup ---
	rem := s.unprocessed("whenever", "Hi")

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(OutcomeUnrecognized, result.Outcome)
	assert.Equal(reminder.StatusIgnored, s.reminders.MustGet(rem.ID).Status)
	assert.False(s.reminders.MustGet(rem.ID).DueAt.IsPresent)

	sent := s.dispatcher.SentOfKind(notification.KindUnrecognized)
	assert.Len(sent, 1)
	assert.Equal(c.Email("a@x.com"), sent[0].To)
	assert.Equal("Re: Hi", sent[0].Subject)
	assert.Equal(c.NewOptional("m1@x.com", true), sent[0].InReplyTo)
	assert.Contains(sent[0].Text, "whenever@snoozer.test")
}

func (s *testSuite) TestDefaultAliasUsesOwnerExpression() {
	cases := []struct {
		id         string
		expression c.Optional[string]
		expected   string
	}{
		{id: "configured default", expected: "tomorrow"},
		{id: "owner default", expression: c.NewOptional("friday-9am", true), expected: "friday-9am"},
	}

	for _, testcase := range cases {
		s.Run(testcase.id, func() {
			s.SetupTest()
			s.owners.Put(owner.Owner{Address: "a@x.com", DefaultExpression: testcase.expression})
			dueAt := Now.Add(24 * time.Hour)
			s.parser.Results[testcase.expected] = reminder.Resolution{DueAt: dueAt}
			rem := s.unprocessed("remind", "Hi")

			result, err := s.service.Run(context.Background(), Input{Reminder: rem})

			assert := s.Require()
			assert.Nil(err)
			assert.Equal(OutcomeScheduled, result.Outcome)
			assert.Equal(c.NewOptional(dueAt, true), s.reminders.MustGet(rem.ID).DueAt)
		})
	}
}

func (s *testSuite) TestCommandsAreIgnoredAndAnswered() {
	cases := []struct {
		localPart string
		outcome   string
		kind      notification.Kind
	}{
		{localPart: "upcoming", outcome: OutcomeDigest, kind: notification.KindDigest},
		{localPart: "check", outcome: OutcomeSearch, kind: notification.KindSearchResults},
		{localPart: "search", outcome: OutcomeSearch, kind: notification.KindSearchResults},
	}

	for _, testcase := range cases {
		s.Run(testcase.localPart, func() {
			s.SetupTest()
			rem := s.unprocessed(testcase.localPart, "rent")

			result, err := s.service.Run(context.Background(), Input{Reminder: rem})

			assert := s.Require()
			assert.Nil(err)
			assert.Equal(testcase.outcome, result.Outcome)
			assert.Equal(reminder.StatusIgnored, s.reminders.MustGet(rem.ID).Status)
			sent := s.dispatcher.SentOfKind(testcase.kind)
			assert.Len(sent, 1)
			assert.Equal(c.NewOptional("m1@x.com", true), sent[0].InReplyTo)
		})
	}
}

func (s *testSuite) TestSetStoresDefaultExpression() {
	// Setup ---
	s.parser.Results["9am"] = reminder.Resolution{DueAt: Now.Add(time.Hour)}
	rem := s.unprocessed("set", "9am")

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(OutcomeSetDefault, result.Outcome)
	o, err := s.owners.GetByAddress(context.Background(), "a@x.com")
	assert.Nil(err)
	assert.Equal(c.NewOptional("9am", true), o.DefaultExpression)
	assert.Len(s.dispatcher.SentOfKind(notification.KindDefaultSet), 1)
}

func (s *testSuite) TestSetWithInvalidSubjectSendsNotice() {
	// Setup ---
	rem := s.unprocessed("set", "sometime")

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(OutcomeSetDefault, result.Outcome)
	assert.Equal(reminder.StatusIgnored, s.reminders.MustGet(rem.ID).Status)
	assert.Len(s.dispatcher.SentOfKind(notification.KindUnrecognized), 1)
}

func (s *testSuite) TestIgnoredLocalPartIsSilent() {
	// Setup ---
	rem := s.unprocessed("NoReply", "Hi")

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(OutcomeIgnored, result.Outcome)
	assert.Equal(reminder.StatusIgnored, s.reminders.MustGet(rem.ID).Status)
	assert.Len(s.dispatcher.Sent, 0)
	assert.Len(s.events.Published, 0)
}

func (s *testSuite) TestConcurrentlyClassifiedReminderIsStale() {
	// Setup ---
	s.parser.Results["2hours"] = reminder.Resolution{DueAt: Now}
	rem := s.unprocessed("2hours", "Hi")
	stored := rem
	stored.Status = reminder.StatusIgnored
	s.reminders.Put(stored)

	// Exercise ---
	_, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.ErrorIs(err, reminder.ErrReminderNotActive)
	assert.Equal(reminder.StatusIgnored, s.reminders.MustGet(rem.ID).Status)
	assert.Len(s.events.Published, 0)
}

func (s *testSuite) TestAlreadyProcessedReminderIsRejected() {
	rem := s.unprocessed("2hours", "Hi")
	rem.Status = reminder.StatusScheduled

	_, err := s.service.Run(context.Background(), Input{Reminder: rem})

	s.Require().ErrorIs(err, reminder.ErrReminderNotActive)
}

func (s *testSuite) TestNoticeFailureKeepsIgnoredStatus() {
	// Setup ---
	s.dispatcher.Error = errors.New("ses throttled")
	rem := s.unprocessed("whenever", "Hi")

	// Exercise ---
	result, err := s.service.Run(context.Background(), Input{Reminder: rem})

	// Verify ---
	assert := s.Require()
	assert.Nil(err)
	assert.Equal(OutcomeUnrecognized, result.Outcome)
	assert.Equal(reminder.StatusIgnored, s.reminders.MustGet(rem.ID).Status)
}
