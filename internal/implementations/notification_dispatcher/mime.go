package notificationdispatcher

import (
	"bytes"
	"io"
	c "snoozer/internal/core/domain/common"
	"snoozer/internal/core/domain/notification"
	"time"

	"github.com/emersion/go-message/mail"
)

// BuildMessage renders n into an RFC 5322 multipart/alternative message.
func BuildMessage(n notification.Notification, from c.Email, messageID string, date time.Time) ([]byte, error) {
	rendered, err := Render(n)
	if err != nil {
		return nil, err
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Name: "Snoozer", Address: string(from)}})
	h.SetAddressList("To", []*mail.Address{{Address: string(n.To)}})
	h.SetSubject(n.Subject)
	h.SetMessageID(messageID)
	if n.InReplyTo.IsPresent && n.InReplyTo.Value != "" {
		h.SetMsgIDList("In-Reply-To", []string{n.InReplyTo.Value})
		h.SetMsgIDList("References", []string{n.InReplyTo.Value})
	}
	h.Set("Auto-Submitted", "auto-generated")

	var b bytes.Buffer
	mw, err := mail.CreateWriter(&b, h)
	if err != nil {
		return nil, err
	}
	tw, err := mw.CreateInline()
	if err != nil {
		return nil, err
	}
	if err := writePart(tw, "text/plain", rendered.Text); err != nil {
		return nil, err
	}
	if err := writePart(tw, "text/html", rendered.HTML); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func writePart(tw *mail.InlineWriter, contentType string, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	w, err := tw.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	return w.Close()
}
