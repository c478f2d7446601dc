package schema

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrEmptyMessage = errors.New("inbound message has no content")

// InboundMessage carries a raw RFC 5322 message handed over by the MTA.
type InboundMessage struct {
	Raw        []byte    `json:"raw"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (m *InboundMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func (m *InboundMessage) Unmarshal(data []byte) error {
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	if len(m.Raw) == 0 {
		return ErrEmptyMessage
	}
	return nil
}
