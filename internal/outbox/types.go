package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a row of the auction outbox. RoundID is nil for events
// that are not tied to a single round, like a full reset.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	RoundID   *uuid.UUID      `json:"round_id,omitempty"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Envelope is the wire form a publisher sends. Subscribers key on EventType;
// Payload keeps the shape written by the mutation that queued the event.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoundID   string          `json:"roundId,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an outbox row for publishing.
func NewEnvelope(event OutboxEvent) Envelope {
	env := Envelope{
		EventID:   event.ID.String(),
		EventType: event.EventType,
		Timestamp: event.CreatedAt,
		Payload:   event.Payload,
	}
	if event.RoundID != nil {
		env.RoundID = event.RoundID.String()
	}
	return env
}
