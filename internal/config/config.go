package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Storage string

const (
	StoragePostgres Storage = "postgres"
	StorageSqlite   Storage = "sqlite"
)

type IngestionSource string

const (
	IngestionIMAP  IngestionSource = "imap"
	IngestionGmail IngestionSource = "gmail"
	IngestionNone  IngestionSource = "none"
)

type Config struct {
	IsTestMode bool   `env:"TEST_MODE" envDefault:"false"`
	Secret     string `env:"SECRET"`
	MailDomain string `env:"MAIL_DOMAIN"`
	BaseURL    string `env:"BASE_URL"`
	Port       uint16 `env:"PORT" envDefault:"9090"`

	DefaultTimeZone   string `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
	DefaultHour       int    `env:"DEFAULT_HOUR" envDefault:"8"`
	EndOfDayHour      int    `env:"END_OF_DAY_HOUR" envDefault:"18"`
	EndOfWeekDayRaw   string `env:"END_OF_WEEK_DAY" envDefault:"friday"`
	DefaultExpression string `env:"DEFAULT_EXPRESSION" envDefault:"tomorrow"`

	IgnoredLocalParts []string        `env:"IGNORED_LOCAL_PARTS" envDefault:"noreply,blackhole,limbo" envSeparator:","`
	Storage           Storage         `env:"STORAGE" envDefault:"postgres"`
	IngestionSource   IngestionSource `env:"INGESTION_SOURCE" envDefault:"none"`

	PostgresqlURL        string `env:"POSTGRESQL_URL"`
	MigrationsPath       string `env:"MIGRATIONS_PATH" envDefault:"migrations/postgres"`
	SqlitePath           string `env:"SQLITE_PATH" envDefault:"snoozer.db"`
	RedisURL             string `env:"REDIS_URL"`
	RabbitmqURL          string `env:"RABBITMQ_URL"`
	RabbitmqInboundQueue string `env:"RABBITMQ_INBOUND_QUEUE" envDefault:"snoozer.inbound"`

	ImapAddr     string `env:"IMAP_ADDR"`
	ImapUsername string `env:"IMAP_USERNAME"`
	ImapPassword string `env:"IMAP_PASSWORD"`
	ImapMailbox  string `env:"IMAP_MAILBOX" envDefault:"INBOX"`

	GmailCredentialsJSON string `env:"GMAIL_CREDENTIALS_JSON"`
	GmailTokenJSON       string `env:"GMAIL_TOKEN_JSON"`
	GmailQuery           string `env:"GMAIL_QUERY" envDefault:"is:unread in:inbox"`

	AwsRegion      string `env:"AWS_REGION" envDefault:"eu-central-1"`
	AwsAccessKey   string `env:"AWS_ACCESS_KEY"`
	AwsSecretKey   string `env:"AWS_SECRET_KEY"`
	AwsEmailSender string `env:"AWS_EMAIL_SENDER"`

	SchedulerSpec    string        `env:"SCHEDULER_SPEC" envDefault:"@every 1m"`
	SchedulerRunOnce bool          `env:"SCHEDULER_RUN_ONCE" envDefault:"false"`
	PassLeaseTTL     time.Duration `env:"PASS_LEASE_TTL" envDefault:"5m"`
	PassBatchSize    uint          `env:"PASS_BATCH_SIZE" envDefault:"500"`

	APIToken               string   `env:"API_TOKEN"`
	AllowedOrigins         []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	SentryDsn              string   `env:"SENTRY_DSN"`
	NoticeRateLimitPerHour uint16   `env:"NOTICE_RATE_LIMIT_PER_HOUR" envDefault:"10"`
}

// EndOfWeekDay is valid once Load succeeded.
func (cfg *Config) EndOfWeekDay() time.Weekday {
	weekday, _ := parseWeekday(cfg.EndOfWeekDayRaw)
	return weekday
}

func (cfg *Config) ExecURL() url.URL {
	baseURL, _ := url.Parse(cfg.BaseURL)
	return *baseURL.JoinPath("exec")
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}

	if cfg.Secret == "" {
		return nil, fmt.Errorf("SECRET must be set")
	}
	if cfg.MailDomain == "" {
		return nil, fmt.Errorf("MAIL_DOMAIN must be set")
	}
	cfg.MailDomain = strings.ToLower(cfg.MailDomain)

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BASE_URL must be set")
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid BASE_URL value: %q", cfg.BaseURL)
	}

	if _, err := time.LoadLocation(cfg.DefaultTimeZone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE value: %w", err)
	}
	if cfg.DefaultHour < 0 || cfg.DefaultHour > 23 {
		return nil, fmt.Errorf("invalid DEFAULT_HOUR value: %d", cfg.DefaultHour)
	}
	if cfg.EndOfDayHour < 0 || cfg.EndOfDayHour > 23 {
		return nil, fmt.Errorf("invalid END_OF_DAY_HOUR value: %d", cfg.EndOfDayHour)
	}
	if _, err := parseWeekday(cfg.EndOfWeekDayRaw); err != nil {
		return nil, err
	}

	switch cfg.Storage {
	case StoragePostgres:
		if cfg.PostgresqlURL == "" {
			return nil, fmt.Errorf("POSTGRESQL_URL must be set")
		}
	case StorageSqlite:
		if cfg.SqlitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH must be set")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE value: %q", cfg.Storage)
	}

	switch cfg.IngestionSource {
	case IngestionIMAP:
		if cfg.ImapAddr == "" || cfg.ImapUsername == "" {
			return nil, fmt.Errorf("IMAP_ADDR and IMAP_USERNAME must be set")
		}
	case IngestionGmail:
		if cfg.GmailCredentialsJSON == "" || cfg.GmailTokenJSON == "" {
			return nil, fmt.Errorf("GMAIL_CREDENTIALS_JSON and GMAIL_TOKEN_JSON must be set")
		}
	case IngestionNone:
	default:
		return nil, fmt.Errorf("invalid INGESTION_SOURCE value: %q", cfg.IngestionSource)
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.RabbitmqURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL must be set")
	}
	if cfg.NoticeRateLimitPerHour == 0 {
		return nil, fmt.Errorf("NOTICE_RATE_LIMIT_PER_HOUR must be positive")
	}

	for i, part := range cfg.IgnoredLocalParts {
		cfg.IgnoredLocalParts[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return cfg, nil
}

func parseWeekday(value string) (time.Weekday, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == value {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid END_OF_WEEK_DAY value: %q", value)
}
