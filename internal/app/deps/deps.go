package deps

import (
	"context"
	"fmt"
	"snoozer/internal/config"
	"snoozer/internal/core/domain/action"
	"snoozer/internal/core/domain/lease"
	dl "snoozer/internal/core/domain/logging"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/notification"
	drl "snoozer/internal/core/domain/rate_limiter"
	"snoozer/internal/core/domain/reminder"
	duow "snoozer/internal/core/domain/unit_of_work"
	"snoozer/internal/db"
	"snoozer/internal/db/sqlite"
	uow "snoozer/internal/db/unit_of_work"
	actiontoken "snoozer/internal/implementations/action_token"
	eventpublisher "snoozer/internal/implementations/event_publisher"
	"snoozer/internal/implementations/identity"
	"snoozer/internal/implementations/ingestion"
	leaseimpl "snoozer/internal/implementations/lease"
	"snoozer/internal/implementations/logging"
	"snoozer/internal/implementations/metrics"
	notificationdispatcher "snoozer/internal/implementations/notification_dispatcher"
	ownerstreamtoken "snoozer/internal/implementations/owner_stream_token"
	ratelimiter "snoozer/internal/implementations/rate_limiter"
	timeexpressionparser "snoozer/internal/implementations/time_expression_parser"
	"snoozer/internal/rabbitmq"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v9"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/r3labs/sse/v2"
)

type Deps struct {
	Config    *config.Config
	AwsConfig aws.Config
	Logger    dl.Logger

	DB        *pgxpool.Pool
	SqliteDB  *sqlx.DB
	Redis     *redis.Client
	Rabbitmq  *rabbitmq.Connection
	SseServer *sse.Server
	Metrics   *metrics.Prometheus

	Now func() time.Time

	UnitOfWork duow.UnitOfWork

	RateLimiter      drl.RateLimiter
	NoticeRateLimit  drl.Limit
	Locker           lease.Locker
	EventPublisher   reminder.EventPublisher
	Dispatcher       notification.Dispatcher
	IngestionAdapter reminder.IngestionAdapter
	InboundParser    *ingestion.Parser

	TimeExpressionParser reminder.TimeExpressionParser
	IdentityGenerator    reminder.IdentityGenerator
	ActionTokenCodec     action.TokenCodec
	LinkBuilder          *action.LinkBuilder
	StreamTokens         *ownerstreamtoken.HMAC
}

func InitDeps() (*Deps, func()) {
	deps := &Deps{}

	deps.initConfig()
	deps.initAwsConfig()

	closeLogger := deps.initLogger()
	closeStorage := deps.initStorage()
	closeRedisClient := deps.initRedisClient()
	closeRabbitmqConn := deps.initRabbitmqConnection()
	closeSseServer := deps.initSseServer()

	deps.Now = func() time.Time { return time.Now().UTC() }
	deps.Metrics = metrics.NewPrometheus()
	deps.RateLimiter = ratelimiter.NewRedis(deps.Redis, deps.Logger, deps.Now)
	deps.NoticeRateLimit = drl.Limit{Interval: drl.Hour, Value: deps.Config.NoticeRateLimitPerHour}
	deps.Locker = leaseimpl.NewRedis(deps.Redis)
	deps.EventPublisher = eventpublisher.NewSSE(deps.SseServer, deps.Logger)

	deps.TimeExpressionParser = timeexpressionparser.New(timeexpressionparser.Config{
		DefaultHour:  deps.Config.DefaultHour,
		EndOfDayHour: deps.Config.EndOfDayHour,
		EndOfWeekDay: deps.Config.EndOfWeekDay(),
	})
	deps.IdentityGenerator = identity.NewUUID(deps.Config.MailDomain)
	deps.ActionTokenCodec = actiontoken.NewAES()
	deps.LinkBuilder = action.NewLinkBuilder(deps.Config.ExecURL(), deps.ActionTokenCodec)
	deps.StreamTokens = ownerstreamtoken.NewHMAC(deps.Config.Secret)

	deps.Dispatcher = deps.initDispatcher()
	deps.InboundParser = ingestion.NewParser(deps.Config.MailDomain)
	deps.IngestionAdapter = deps.initIngestionAdapter()

	flushSentry := deps.initSentry()

	return deps, func() {
		closeFuncs := []func(){
			closeSseServer,
			closeRabbitmqConn,
			closeRedisClient,
			closeStorage,
			flushSentry,
		}

		var wg sync.WaitGroup
		wg.Add(len(closeFuncs))
		for _, closeFunc := range closeFuncs {
			closeFunc := closeFunc
			go func() {
				closeFunc()
				wg.Done()
			}()
		}

		wg.Wait()
		closeLogger()
	}
}

func (deps *Deps) initConfig() {
	config, err := config.Load()
	if err != nil {
		panic(err)
	}
	deps.Config = config
}

func (deps *Deps) initAwsConfig() {
	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(deps.Config.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				deps.Config.AwsAccessKey,
				deps.Config.AwsSecretKey,
				"",
			),
		),
		awsConfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(
				retry.AddWithMaxBackoffDelay(retry.NewStandard(), time.Second*5),
				3,
			)
		}),
	)
	if err != nil {
		panic(err)
	}
	deps.AwsConfig = cfg
}

func (deps *Deps) initLogger() func() {
	logger := logging.NewZapLogger(deps.Config.IsTestMode)
	deps.Logger = logger
	return func() { logger.Sync() }
}

func (deps *Deps) initStorage() func() {
	if deps.Config.Storage == config.StorageSqlite {
		return deps.initSqlite()
	}
	return deps.initPgxPool()
}

func (deps *Deps) initPgxPool() func() {
	if err := db.Migrate(deps.Config.PostgresqlURL, deps.Config.MigrationsPath); err != nil {
		deps.Logger.Error(context.Background(), "Could not apply DB migrations.", dl.Entry("err", err))
		panic(err)
	}
	pool, err := pgxpool.Connect(context.Background(), deps.Config.PostgresqlURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.DB = pool
	deps.UnitOfWork = uow.NewPgxUnitOfWork(pool)
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down DB connection.")
		pool.Close()
		deps.Logger.Info(context.Background(), "DB connection shut down.")
	}
}

func (deps *Deps) initSqlite() func() {
	sqliteDB, err := sqlite.Open(deps.Config.SqlitePath)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not open SQLite DB.", dl.Entry("err", err))
		panic(err)
	}
	deps.SqliteDB = sqliteDB
	deps.UnitOfWork = sqlite.NewSqlxUnitOfWork(sqliteDB)
	return func() {
		deps.Logger.Info(context.Background(), "Closing SQLite DB.")
		sqliteDB.Close()
		deps.Logger.Info(context.Background(), "SQLite DB closed.")
	}
}

func (deps *Deps) initRedisClient() func() {
	redisOpt, err := redis.ParseURL(deps.Config.RedisURL)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to Redis.", dl.Entry("err", err))
		panic(err)
	}
	redisClient := redis.NewClient(redisOpt)
	deps.Redis = redisClient
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down Redis client.")
		redisClient.Close()
		deps.Logger.Info(context.Background(), "Redis client shut down.")
	}
}

func (deps *Deps) initRabbitmqConnection() func() {
	rabbitmqConnection, err := rabbitmq.Dial(deps.Config.RabbitmqURL, deps.Logger)
	if err != nil {
		deps.Logger.Error(context.Background(), "Could not connect to RabbitMQ.", dl.Entry("err", err))
		panic("could not connect to RabbitMQ")
	}
	deps.Rabbitmq = rabbitmqConnection
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down RabbitMQ connection.")
		rabbitmqConnection.Close()
		deps.Logger.Info(context.Background(), "RabbitMQ connection shut down.")
	}
}

// InboundChannel opens a channel with the inbound queue declared on it.
func (deps *Deps) InboundChannel() (*rabbitmq.Channel, error) {
	channel, err := deps.Rabbitmq.Channel()
	if err != nil {
		return nil, fmt.Errorf("could not create RabbitMQ channel: %w", err)
	}
	if err := channel.DeclareQueue(deps.Config.RabbitmqInboundQueue); err != nil {
		channel.Close()
		return nil, fmt.Errorf("could not declare RabbitMQ queue: %w", err)
	}
	return channel, nil
}

func (deps *Deps) initSseServer() func() {
	deps.SseServer = sse.New()
	deps.SseServer.AutoStream = true
	deps.SseServer.AutoReplay = false
	return func() {
		deps.Logger.Info(context.Background(), "Shutting down SSE server.")
		deps.SseServer.Close()
		deps.Logger.Info(context.Background(), "SSE server shut down.")
	}
}

func (deps *Deps) initDispatcher() notification.Dispatcher {
	if deps.Config.IsTestMode || deps.Config.AwsEmailSender == "" {
		deps.Logger.Warning(context.Background(), "Outgoing mail is logged instead of sent.")
		return notificationdispatcher.NewLog(deps.Logger)
	}
	return notificationdispatcher.NewSES(
		deps.AwsConfig,
		c.NewEmail(deps.Config.AwsEmailSender),
		deps.IdentityGenerator,
		deps.Now,
	)
}

func (deps *Deps) initIngestionAdapter() reminder.IngestionAdapter {
	switch deps.Config.IngestionSource {
	case config.IngestionIMAP:
		return ingestion.NewIMAP(
			ingestion.IMAPConfig{
				Addr:      deps.Config.ImapAddr,
				Username:  deps.Config.ImapUsername,
				Password:  deps.Config.ImapPassword,
				Mailbox:   deps.Config.ImapMailbox,
				BatchSize: int(deps.Config.PassBatchSize),
			},
			deps.InboundParser,
			deps.Logger,
			deps.Now,
		)
	case config.IngestionGmail:
		adapter, err := ingestion.NewGmail(
			context.Background(),
			ingestion.GmailConfig{
				CredentialsJSON: deps.Config.GmailCredentialsJSON,
				TokenJSON:       deps.Config.GmailTokenJSON,
				Query:           deps.Config.GmailQuery,
				BatchSize:       int64(deps.Config.PassBatchSize),
			},
			deps.InboundParser,
			deps.Logger,
			deps.Now,
		)
		if err != nil {
			deps.Logger.Error(context.Background(), "Could not create Gmail adapter.", dl.Entry("err", err))
			panic(err)
		}
		return adapter
	default:
		return nil
	}
}

// PingStorage reports whether the storage backend is reachable.
func (deps *Deps) PingStorage(ctx context.Context) error {
	if deps.SqliteDB != nil {
		return deps.SqliteDB.PingContext(ctx)
	}
	return deps.DB.Ping(ctx)
}

func (deps *Deps) PingRedis(ctx context.Context) error {
	return deps.Redis.Ping(ctx).Err()
}

func (deps *Deps) initSentry() func() {
	if deps.Config.SentryDsn != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              deps.Config.SentryDsn,
			TracesSampleRate: 0.01,
		})
		if err != nil {
			panic(fmt.Sprintf("could not init Sentry: %v\n", err))
		}
		deps.Logger.Info(context.Background(), "Sentry has been successfully initialized.")
		return func() {
			ok := sentry.Flush(5 * time.Second)
			deps.Logger.Info(context.Background(), "Sentry events flushed.", dl.Entry("ok", ok))
		}
	}

	deps.Logger.Info(context.Background(), "Sentry is disabled.")
	return func() {}
}
