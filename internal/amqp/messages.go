package amqp

import (
	"encoding/json"
	"time"

	"spendtrack/internal/events"
)

// ChangeMessage is the wire form of a row-level change fanned out to other
// API instances. Origin identifies the publishing instance so consumers can
// skip their own messages.
type ChangeMessage struct {
	Origin string           `json:"origin"`
	Table  string           `json:"table"`
	Type   events.EventType `json:"type"`
	UserID string           `json:"user_id"`
	New    json.RawMessage  `json:"new,omitempty"`
	Old    json.RawMessage  `json:"old,omitempty"`
	At     time.Time        `json:"at"`
}

// NewChangeMessage builds a wire message from a local change. Row payloads
// are serialized eagerly so the message is self-contained.
func NewChangeMessage(origin string, ch events.Change) (*ChangeMessage, error) {
	msg := &ChangeMessage{
		Origin: origin,
		Table:  ch.Table,
		Type:   ch.Type,
		UserID: ch.UserID,
		At:     ch.At,
	}

	if ch.New != nil {
		b, err := json.Marshal(ch.New)
		if err != nil {
			return nil, err
		}
		msg.New = b
	}
	if ch.Old != nil {
		b, err := json.Marshal(ch.Old)
		if err != nil {
			return nil, err
		}
		msg.Old = b
	}
	return msg, nil
}

// ToChange converts a wire message back into a bus change. Row payloads stay
// as raw JSON; subscribers decode into their own types.
func (m *ChangeMessage) ToChange() events.Change {
	ch := events.Change{
		Table:  m.Table,
		Type:   m.Type,
		UserID: m.UserID,
		At:     m.At,
	}
	if len(m.New) > 0 {
		ch.New = m.New
	}
	if len(m.Old) > 0 {
		ch.Old = m.Old
	}
	return ch
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
