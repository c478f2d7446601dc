package services

import (
	"snoozer/internal/app/deps"
	"snoozer/internal/core/services"
	cancelreminder "snoozer/internal/core/services/cancel_reminder"
	classifyreminder "snoozer/internal/core/services/classify_reminder"
	createreminder "snoozer/internal/core/services/create_reminder"
	executeaction "snoozer/internal/core/services/execute_action"
	fireduereminders "snoozer/internal/core/services/fire_due_reminders"
	ingestmessage "snoozer/internal/core/services/ingest_message"
	ingestmessages "snoozer/internal/core/services/ingest_messages"
	listownerreminders "snoozer/internal/core/services/list_owner_reminders"
	processunprocessed "snoozer/internal/core/services/process_unprocessed"
	ratelimiting "snoozer/internal/core/services/rate_limiting"
	reschedulereminder "snoozer/internal/core/services/reschedule_reminder"
	runpass "snoozer/internal/core/services/run_pass"
	searchreminders "snoozer/internal/core/services/search_reminders"
	senddigest "snoozer/internal/core/services/send_digest"
	sendnotice "snoozer/internal/core/services/send_notice"
	setdefaultexpression "snoozer/internal/core/services/set_default_expression"
	snoozereminder "snoozer/internal/core/services/snooze_reminder"
	verifyowner "snoozer/internal/core/services/verify_owner"
)

type Services struct {
	SendNotice           services.Service[sendnotice.Input, sendnotice.Result]
	SendDigest           services.Service[senddigest.Input, senddigest.Result]
	SearchReminders      services.Service[searchreminders.Input, searchreminders.Result]
	SetDefaultExpression services.Service[setdefaultexpression.Input, setdefaultexpression.Result]

	IngestMessage      services.Service[ingestmessage.Input, ingestmessage.Result]
	IngestMessages     services.Service[ingestmessages.Input, ingestmessages.Result]
	ClassifyReminder   services.Service[classifyreminder.Input, classifyreminder.Result]
	ProcessUnprocessed services.Service[processunprocessed.Input, processunprocessed.Result]
	FireDueReminders   services.Service[fireduereminders.Input, fireduereminders.Result]
	RunPass            services.Service[runpass.Input, runpass.Result]

	SnoozeReminder     services.Service[snoozereminder.Input, snoozereminder.Result]
	CancelReminder     services.Service[cancelreminder.Input, cancelreminder.Result]
	VerifyOwner        services.Service[verifyowner.Input, verifyowner.Result]
	ExecuteAction      services.Service[executeaction.Input, executeaction.Result]
	CreateReminder     services.Service[createreminder.Input, createreminder.Result]
	ListOwnerReminders services.Service[listownerreminders.Input, listownerreminders.Result]
	RescheduleReminder services.Service[reschedulereminder.Input, reschedulereminder.Result]
}

func InitServices(deps *deps.Deps) *Services {
	s := &Services{}
	cfg := deps.Config

	s.SendNotice = ratelimiting.WithRateLimiting(
		deps.Logger,
		deps.RateLimiter,
		deps.NoticeRateLimit,
		sendnotice.New(deps.Logger, deps.Dispatcher, deps.Metrics),
	)
	s.SendDigest = senddigest.New(
		deps.Logger,
		deps.UnitOfWork,
		s.SendNotice,
		deps.LinkBuilder,
		deps.StreamTokens,
		deps.Now,
	)
	s.SearchReminders = searchreminders.New(
		deps.Logger,
		deps.UnitOfWork,
		s.SendNotice,
		deps.LinkBuilder,
		deps.Now,
	)
	s.SetDefaultExpression = setdefaultexpression.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TimeExpressionParser,
		s.SendNotice,
		deps.Now,
	)

	s.IngestMessage = ingestmessage.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.IdentityGenerator,
		s.SendNotice,
		deps.LinkBuilder,
		deps.Metrics,
		cfg.DefaultTimeZone,
		deps.Now,
	)
	if deps.IngestionAdapter != nil {
		s.IngestMessages = ingestmessages.New(deps.Logger, deps.IngestionAdapter, s.IngestMessage)
	}
	s.ClassifyReminder = classifyreminder.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TimeExpressionParser,
		deps.IdentityGenerator,
		s.SendNotice,
		classifyreminder.Commands{
			Digest:     s.SendDigest,
			Search:     s.SearchReminders,
			SetDefault: s.SetDefaultExpression,
		},
		deps.EventPublisher,
		deps.Metrics,
		classifyreminder.Config{
			IgnoredLocalParts: cfg.IgnoredLocalParts,
			DefaultExpression: cfg.DefaultExpression,
			DefaultTimeZone:   cfg.DefaultTimeZone,
		},
		deps.Now,
	)
	s.ProcessUnprocessed = processunprocessed.New(deps.Logger, deps.UnitOfWork, s.ClassifyReminder)
	s.FireDueReminders = fireduereminders.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.IdentityGenerator,
		deps.LinkBuilder,
		deps.Dispatcher,
		deps.EventPublisher,
		deps.Metrics,
		cfg.DefaultTimeZone,
		deps.Now,
	)
	s.RunPass = runpass.New(
		deps.Logger,
		deps.Locker,
		cfg.PassLeaseTTL,
		s.IngestMessages,
		s.ProcessUnprocessed,
		s.FireDueReminders,
		deps.Metrics,
		deps.Now,
	)

	s.SnoozeReminder = snoozereminder.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TimeExpressionParser,
		deps.IdentityGenerator,
		deps.EventPublisher,
		cfg.DefaultExpression,
		cfg.DefaultTimeZone,
		deps.Now,
	)
	s.CancelReminder = cancelreminder.New(deps.Logger, deps.UnitOfWork, deps.EventPublisher, deps.Now)
	s.VerifyOwner = verifyowner.New(deps.Logger, deps.UnitOfWork, deps.Now)
	s.ExecuteAction = executeaction.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.ActionTokenCodec,
		s.SnoozeReminder,
		s.CancelReminder,
		s.VerifyOwner,
	)

	s.CreateReminder = createreminder.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TimeExpressionParser,
		deps.IdentityGenerator,
		deps.EventPublisher,
		createreminder.Config{
			MailDomain:        cfg.MailDomain,
			DefaultExpression: cfg.DefaultExpression,
			DefaultTimeZone:   cfg.DefaultTimeZone,
		},
		deps.Now,
	)
	s.ListOwnerReminders = listownerreminders.New(deps.Logger, deps.UnitOfWork)
	s.RescheduleReminder = reschedulereminder.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TimeExpressionParser,
		deps.EventPublisher,
		cfg.DefaultExpression,
		cfg.DefaultTimeZone,
		deps.Now,
	)

	return s
}
