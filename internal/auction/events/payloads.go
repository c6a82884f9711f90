package events

import (
	"time"
)

// Event payload types shared between the auction and gateway packages.

// RoundStartedPayload is the payload for a RoundStarted event.
type RoundStartedPayload struct {
	RoundID         string    `json:"round_id"`
	Round           int       `json:"round"`
	TotalPlayers    int       `json:"total_players"`
	PlayersLeft     int       `json:"players_left"`
	CurrentPlayerID string    `json:"current_player_id"`
	StartedAt       time.Time `json:"started_at"`
}

// RoundActivatedPayload is the payload for a RoundActivated event.
type RoundActivatedPayload struct {
	RoundID     string    `json:"round_id"`
	Round       int       `json:"round"`
	ActivatedAt time.Time `json:"activated_at"`
}

// PlayerSoldPayload is the payload for a PlayerSold event.
type PlayerSoldPayload struct {
	RoundID      string    `json:"round_id"`
	Round        int       `json:"round"`
	PlayerID     string    `json:"player_id"`
	TeamID       string    `json:"team_id"`
	FinalPrice   int64     `json:"final_price"`
	PlayersLeft  int       `json:"players_left"`
	NextPlayerID string    `json:"next_player_id,omitempty"`
	SoldAt       time.Time `json:"sold_at"`
}

// PlayerUnsoldPayload is the payload for a PlayerUnsold event.
type PlayerUnsoldPayload struct {
	RoundID      string    `json:"round_id"`
	Round        int       `json:"round"`
	PlayerID     string    `json:"player_id"`
	PlayersLeft  int       `json:"players_left"`
	NextPlayerID string    `json:"next_player_id,omitempty"`
	UnsoldAt     time.Time `json:"unsold_at"`
}

// RoundWaitingPayload is emitted when a round runs out of eligible players
// and parks in waiting_for_admin.
type RoundWaitingPayload struct {
	RoundID   string    `json:"round_id"`
	Round     int       `json:"round"`
	WaitingAt time.Time `json:"waiting_at"`
}

// AuctionEndedPayload is the payload for an AuctionEnded event.
type AuctionEndedPayload struct {
	RoundID string    `json:"round_id"`
	Round   int       `json:"round"`
	EndedAt time.Time `json:"ended_at"`
}

// AuctionResetPayload is the payload for an AuctionReset event.
type AuctionResetPayload struct {
	PlayersReset int       `json:"players_reset"`
	TeamsReset   int       `json:"teams_reset"`
	ResetAt      time.Time `json:"reset_at"`
}
