package ingestion

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/reminder"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

var (
	ErrNoTimeAddress = errors.New("message is not addressed to the service domain")
	ErrNoMessageID   = errors.New("message has no Message-ID")
	ErrNoSender      = errors.New("message has no sender")
)

// Recipient headers in lookup order. The envelope headers added by the MTA
// carry addresses that only appeared in Bcc.
var recipientHeaders = []string{"To", "Cc", "Delivered-To", "X-Original-To"}

// Parser normalizes raw RFC 5322 messages.
type Parser struct {
	domain string
}

func NewParser(domain string) *Parser {
	return &Parser{domain: strings.ToLower(strings.TrimSpace(domain))}
}

// Parse reads the header section of raw and returns the message addressed to
// the first time address in the service domain. fetchedAt is used when the
// message carries no usable Date header.
func (p *Parser) Parse(raw []byte, fetchedAt time.Time) (reminder.InboundMessage, error) {
	var msg reminder.InboundMessage

	rawHeader := headerSection(raw)
	th, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(rawHeader)))
	if err != nil {
		return msg, fmt.Errorf("could not read header: %w", err)
	}
	h := mail.Header{}
	h.Header.Header = th

	from, err := h.AddressList("From")
	if err != nil || len(from) == 0 {
		return msg, ErrNoSender
	}

	to, ok := p.findTimeAddress(h)
	if !ok {
		return msg, ErrNoTimeAddress
	}

	messageID, err := h.MessageID()
	if err != nil || messageID == "" {
		return msg, ErrNoMessageID
	}

	subject, err := h.Subject()
	if err != nil {
		// Undecodable encoded words are kept verbatim.
		subject = h.Get("Subject")
	}

	receivedAt := fetchedAt
	if date, err := h.Date(); err == nil && !date.IsZero() {
		receivedAt = date
	}

	msg.From = c.NewEmail(from[0].Address)
	msg.To = to
	msg.Subject = strings.TrimSpace(subject)
	msg.RawHeader = string(rawHeader)
	msg.MessageID = reminder.MessageID(messageID)
	msg.ReceivedAt = receivedAt
	return msg, nil
}

func (p *Parser) findTimeAddress(h mail.Header) (c.Email, bool) {
	for _, key := range recipientHeaders {
		addresses, err := h.AddressList(key)
		if err != nil {
			continue
		}
		for _, a := range addresses {
			email := c.NewEmail(a.Address)
			if email.IsValid() && email.Domain() == p.domain {
				return email, true
			}
		}
	}
	return "", false
}

// headerSection returns raw up to and including the blank line that ends the header.
func headerSection(raw []byte) []byte {
	if ix := bytes.Index(raw, []byte("\r\n\r\n")); ix >= 0 {
		return raw[:ix+4]
	}
	if ix := bytes.Index(raw, []byte("\n\n")); ix >= 0 {
		return raw[:ix+2]
	}
	section := make([]byte, len(raw), len(raw)+4)
	copy(section, raw)
	if bytes.HasSuffix(raw, []byte("\n")) {
		return append(section, "\r\n"...)
	}
	return append(section, "\r\n\r\n"...)
}
