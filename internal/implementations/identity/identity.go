package identity

import (
	"crypto/rand"
	"fmt"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/reminder"

	"github.com/google/uuid"
)

type UUID struct {
	domain string
}

func NewUUID(domain string) *UUID {
	if domain == "" {
		panic("domain must not be empty")
	}
	return &UUID{domain: domain}
}

// GenerateMessageID returns an RFC 5322 style identifier for reminders that
// do not originate from an inbound email.
func (g *UUID) GenerateMessageID() reminder.MessageID {
	return reminder.MessageID(fmt.Sprintf("%s@%s", uuid.New().String(), g.domain))
}

func (g *UUID) GenerateSecret() (c.Secret, error) {
	secret := make(c.Secret, reminder.SECRET_LEN)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("could not generate secret: %w", err)
	}
	return secret, nil
}
