package ingestion

import (
	"context"
	"fmt"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/logging"
	"snoozer/internal/core/domain/reminder"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

type IMAPConfig struct {
	Addr     string
	Username string
	Password string
	Mailbox  string
	// BatchSize caps the number of messages taken per fetch.
	BatchSize int
}

// IMAP consumes unseen messages from a mailbox. Fetched messages are flagged
// \Seen, including ones that could not be parsed.
type IMAP struct {
	cfg    IMAPConfig
	parser *Parser
	log    logging.Logger
	now    func() time.Time
}

func NewIMAP(cfg IMAPConfig, parser *Parser, log logging.Logger, now func() time.Time) *IMAP {
	if parser == nil {
		panic(e.NewNilArgumentError("parser"))
	}
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &IMAP{cfg: cfg, parser: parser, log: log, now: now}
}

func (a *IMAP) connect() (*imapclient.Client, error) {
	client, err := imapclient.DialTLS(a.cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", a.cfg.Addr, err)
	}
	if err := client.Login(a.cfg.Username, a.cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("IMAP authentication failed for %s: %w", a.cfg.Username, err)
	}
	return client, nil
}

func (a *IMAP) FetchNewMessages(ctx context.Context) ([]reminder.InboundMessage, error) {
	client, err := a.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(a.cfg.Mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", a.cfg.Mailbox, err)
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if a.cfg.BatchSize > 0 && len(uids) > a.cfg.BatchSize {
		uids = uids[:a.cfg.BatchSize]
	}
	uidSet := imap.UIDSetNum(uids...)

	headerSection := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierHeader,
		Peek:      true,
	}
	fetchCmd := client.Fetch(uidSet, &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{headerSection},
	})

	fetchedAt := a.now()
	messages := make([]reminder.InboundMessage, 0, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			a.log.Warning(ctx, "Could not collect IMAP message.", logging.Entry("err", err))
			continue
		}
		parsed, err := a.parser.Parse(buf.FindBodySection(headerSection), fetchedAt)
		if err != nil {
			a.log.Warning(
				ctx,
				"Skipped inbound message.",
				logging.Entry("uid", buf.UID),
				logging.Entry("err", err),
			)
			continue
		}
		messages = append(messages, parsed)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		// Messages will be fetched again; ingestion is idempotent on message ID.
		a.log.Warning(ctx, "Could not flag IMAP messages as seen.", logging.Entry("err", err))
	}

	a.log.Info(ctx, "Fetched inbound messages.", logging.Entry("source", "imap"), logging.Entry("count", len(messages)))
	return messages, nil
}
