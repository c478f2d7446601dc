package notificationdispatcher

import (
	"context"
	"fmt"
	c "snoozer/internal/core/domain/common"
	e "snoozer/internal/core/domain/errors"
	"snoozer/internal/core/domain/notification"
	"snoozer/internal/core/domain/reminder"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SES struct {
	ses *ses.Client
	// This address must be verified with Amazon SES.
	sender     c.Email
	identities reminder.IdentityGenerator
	now        func() time.Time
}

func NewSES(
	awsConfig aws.Config,
	sender c.Email,
	identities reminder.IdentityGenerator,
	now func() time.Time,
) *SES {
	if identities == nil {
		panic(e.NewNilArgumentError("identities"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &SES{
		ses:        ses.NewFromConfig(awsConfig),
		sender:     sender,
		identities: identities,
		now:        now,
	}
}

func (s *SES) Send(ctx context.Context, n notification.Notification) error {
	raw, err := BuildMessage(n, s.sender, string(s.identities.GenerateMessageID()), s.now())
	if err != nil {
		return fmt.Errorf("could not build %s notification: %w", n.Kind, err)
	}
	source := string(s.sender)
	_, err = s.ses.SendRawEmail(
		ctx,
		&ses.SendRawEmailInput{
			Source:       &source,
			Destinations: []string{string(n.To)},
			RawMessage:   &types.RawMessage{Data: raw},
		},
	)
	return err
}
