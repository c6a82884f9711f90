package models

import (
	"time"

	"github.com/google/uuid"
)

// RoundStatus defines the status of an auction round.
type RoundStatus string

const (
	RoundStatusPending         RoundStatus = "pending"
	RoundStatusActive          RoundStatus = "active"
	RoundStatusWaitingForAdmin RoundStatus = "waiting_for_admin"
	RoundStatusCompleted       RoundStatus = "completed"
)

// Live reports whether the round is the one the auction is currently on.
// At most one round may be live at a time; round creation completes any
// prior live round inside the same transaction.
func (s RoundStatus) Live() bool {
	return s == RoundStatusActive || s == RoundStatusWaitingForAdmin
}

// AuctionRound is one batch of players auctioned sequentially before an
// admin has to intervene.
//
// The draw is shuffled exactly once when the round is created: DrawSeed is
// the seed that produced DrawOrder, and DrawOrder is the authoritative
// on-stage ordering for the round. Version is bumped on every mutation and
// checked on writes, so two admins racing on the same round get a conflict
// instead of a silent double-apply.
type AuctionRound struct {
	ID              uuid.UUID   `json:"id"`
	Round           int         `json:"round"` // monotonically increasing, starts at 1
	Status          RoundStatus `json:"status"`
	PlayersLeft     int         `json:"players_left"`
	TotalPlayers    int         `json:"total_players"`
	CurrentPlayerID *uuid.UUID  `json:"current_player_id,omitempty"`
	DrawSeed        int64       `json:"draw_seed"`
	DrawOrder       []uuid.UUID `json:"draw_order"`
	Version         int         `json:"version"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
