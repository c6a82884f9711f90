package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hammerclub/auctiond/internal/auction/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventPayload(t *testing.T) {
	t.Run("player sold", func(t *testing.T) {
		event := &AuctionEvent{
			Type: EventTypePlayerSold,
			Data: json.RawMessage(`{
				"round_id": "r1",
				"round": 2,
				"player_id": "p1",
				"team_id": "t1",
				"final_price": 450,
				"players_left": 7,
				"next_player_id": "p2"
			}`),
		}

		parsed, err := ParseEventPayload(event)
		require.NoError(t, err)

		payload, ok := parsed.(events.PlayerSoldPayload)
		require.True(t, ok)
		assert.Equal(t, int64(450), payload.FinalPrice)
		assert.Equal(t, 7, payload.PlayersLeft)
		assert.Equal(t, "p2", payload.NextPlayerID)
	})

	t.Run("round started", func(t *testing.T) {
		event := &AuctionEvent{
			Type: EventTypeRoundStarted,
			Data: json.RawMessage(`{"round_id": "r1", "round": 1, "total_players": 12, "players_left": 12}`),
		}

		parsed, err := ParseEventPayload(event)
		require.NoError(t, err)

		payload, ok := parsed.(events.RoundStartedPayload)
		require.True(t, ok)
		assert.Equal(t, 12, payload.TotalPlayers)
	})

	t.Run("auction reset", func(t *testing.T) {
		event := &AuctionEvent{
			Type: EventTypeAuctionReset,
			Data: json.RawMessage(`{"players_reset": 30, "teams_reset": 4}`),
		}

		parsed, err := ParseEventPayload(event)
		require.NoError(t, err)

		payload, ok := parsed.(events.AuctionResetPayload)
		require.True(t, ok)
		assert.Equal(t, 30, payload.PlayersReset)
		assert.Equal(t, 4, payload.TeamsReset)
	})

	t.Run("state snapshot", func(t *testing.T) {
		event := &AuctionEvent{
			Type: EventTypeStateSnapshot,
			Data: json.RawMessage(`{"round": null, "players": [], "teams": []}`),
		}

		parsed, err := ParseEventPayload(event)
		require.NoError(t, err)

		_, ok := parsed.(StateSnapshot)
		assert.True(t, ok)
	})

	t.Run("unknown type parses to nil", func(t *testing.T) {
		event := &AuctionEvent{
			Type: EventType("SomethingNew"),
			Data: json.RawMessage(`{}`),
		}

		parsed, err := ParseEventPayload(event)
		require.NoError(t, err)
		assert.Nil(t, parsed)
	})

	t.Run("malformed data errors", func(t *testing.T) {
		event := &AuctionEvent{
			Type: EventTypePlayerSold,
			Data: json.RawMessage(`{"final_price":`),
		}

		_, err := ParseEventPayload(event)
		assert.Error(t, err)
	})
}

func TestKnownEventType(t *testing.T) {
	broker := []string{
		events.TypeRoundStarted,
		events.TypeRoundActivated,
		events.TypePlayerSold,
		events.TypePlayerUnsold,
		events.TypeRoundWaiting,
		events.TypeAuctionEnded,
		events.TypeAuctionReset,
	}
	for _, name := range broker {
		assert.True(t, knownEventType(name), "broker event %s", name)
	}

	// Snapshots are gateway-local frames, never broker traffic.
	assert.False(t, knownEventType(string(EventTypeStateSnapshot)))
	assert.False(t, knownEventType("Bogus"))
}

func TestAuctionEventFrame(t *testing.T) {
	event := AuctionEvent{
		ID:        "e1",
		Type:      EventTypeRoundWaiting,
		Timestamp: time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
		Data:      json.RawMessage(`{"round": 3}`),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Contains(t, wire, "id")
	assert.Contains(t, wire, "type")
	assert.Contains(t, wire, "timestamp")
	assert.Contains(t, wire, "data")
	assert.Equal(t, `"RoundWaiting"`, string(wire["type"]))
}
