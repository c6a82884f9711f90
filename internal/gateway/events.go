package gateway

import (
	"encoding/json"
	"time"

	"github.com/hammerclub/auctiond/internal/auction/events"
)

// AuctionEvent is the frame pushed to websocket clients.
type AuctionEvent struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Event type
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data"`      // Event-specific payload
}

// EventType represents the type of auction event
type EventType string

const (
	EventTypeRoundStarted   EventType = events.TypeRoundStarted
	EventTypeRoundActivated EventType = events.TypeRoundActivated
	EventTypePlayerSold     EventType = events.TypePlayerSold
	EventTypePlayerUnsold   EventType = events.TypePlayerUnsold
	EventTypeRoundWaiting   EventType = events.TypeRoundWaiting
	EventTypeAuctionEnded   EventType = events.TypeAuctionEnded
	EventTypeAuctionReset   EventType = events.TypeAuctionReset
	EventTypeStateSnapshot  EventType = "StateSnapshot"
)

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *AuctionEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeRoundStarted:
		var payload events.RoundStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRoundActivated:
		var payload events.RoundActivatedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypePlayerSold:
		var payload events.PlayerSoldPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypePlayerUnsold:
		var payload events.PlayerUnsoldPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRoundWaiting:
		var payload events.RoundWaitingPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeAuctionEnded:
		var payload events.AuctionEndedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeAuctionReset:
		var payload events.AuctionResetPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeStateSnapshot:
		var payload StateSnapshot
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}

func knownEventType(t string) bool {
	switch EventType(t) {
	case EventTypeRoundStarted, EventTypeRoundActivated, EventTypePlayerSold,
		EventTypePlayerUnsold, EventTypeRoundWaiting, EventTypeAuctionEnded,
		EventTypeAuctionReset:
		return true
	}
	return false
}
