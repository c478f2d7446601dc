package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	gmailUser         = "me"
	DefaultGmailQuery = "is:unread in:inbox"
)

type GmailConfig struct {
	CredentialsJSON string
	TokenJSON       string
	Query           string
	BatchSize       int64
}

// Gmail consumes unread messages through the Gmail API and removes the
// UNREAD label once a message was handed out.
type Gmail struct {
	service   *gmail.Service
	parser    *Parser
	log       logging.Logger
	now       func() time.Time
	query     string
	batchSize int64
}

func NewGmail(
	ctx context.Context,
	cfg GmailConfig,
	parser *Parser,
	log logging.Logger,
	now func() time.Time,
) (*Gmail, error) {
	if parser == nil {
		panic(e.NewNilArgumentError("parser"))
	}
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}

	oauth2Config, err := google.ConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to read Gmail credentials: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal([]byte(cfg.TokenJSON), token); err != nil {
		return nil, fmt.Errorf("failed to read Gmail token: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithTokenSource(oauth2Config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	query := cfg.Query
	if query == "" {
		query = DefaultGmailQuery
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Gmail{
		service:   service,
		parser:    parser,
		log:       log,
		now:       now,
		query:     query,
		batchSize: batchSize,
	}, nil
}

func (g *Gmail) FetchNewMessages(ctx context.Context) ([]reminder.InboundMessage, error) {
	response, err := g.service.Users.Messages.List(gmailUser).
		Q(g.query).
		MaxResults(g.batchSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	fetchedAt := g.now()
	messages := make([]reminder.InboundMessage, 0, len(response.Messages))
	consumed := make([]string, 0, len(response.Messages))
	for _, ref := range response.Messages {
		msg, err := g.service.Users.Messages.Get(gmailUser, ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			g.log.Warning(ctx, "Could not get Gmail message.", logging.Entry("id", ref.Id), logging.Entry("err", err))
			continue
		}
		consumed = append(consumed, ref.Id)

		raw, err := base64.URLEncoding.DecodeString(msg.Raw)
		if err != nil {
			g.log.Warning(ctx, "Could not decode Gmail message.", logging.Entry("id", ref.Id), logging.Entry("err", err))
			continue
		}
		parsed, err := g.parser.Parse(raw, fetchedAt)
		if err != nil {
			g.log.Warning(ctx, "Skipped inbound message.", logging.Entry("id", ref.Id), logging.Entry("err", err))
			continue
		}
		messages = append(messages, parsed)
	}

	if len(consumed) > 0 {
		err := g.service.Users.Messages.BatchModify(gmailUser, &gmail.BatchModifyMessagesRequest{
			Ids:            consumed,
			RemoveLabelIds: []string{"UNREAD"},
		}).Context(ctx).Do()
		if err != nil {
			g.log.Warning(ctx, "Could not mark Gmail messages as read.", logging.Entry("err", err))
		}
	}

	g.log.Info(ctx, "Fetched inbound messages.", logging.Entry("source", "gmail"), logging.Entry("count", len(messages)))
	return messages, nil
}
