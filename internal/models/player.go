package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PlayerStatus defines where a player sits in the auction lifecycle.
type PlayerStatus string

const (
	PlayerStatusActive  PlayerStatus = "active"
	PlayerStatusPending PlayerStatus = "pending"
	PlayerStatusSold    PlayerStatus = "sold"
	PlayerStatusUnsold  PlayerStatus = "unsold"
)

// Player represents a player on the auction block.
//
// Invariant: Status == sold iff TeamID and FinalPrice are both set and
// FinalPrice >= BasePrice. Sold/unsold transitions only happen through the
// auction app; unsold players are recycled to active when the next round
// starts.
type Player struct {
	ID         uuid.UUID    `json:"id"`
	Name       string       `json:"name"`
	Role       string       `json:"role"` // batter, bowler, all-rounder, wicket-keeper (free text)
	BasePrice  int64        `json:"base_price"`
	FinalPrice *int64       `json:"final_price,omitempty"` // set on sale
	TeamID     *uuid.UUID   `json:"team_id,omitempty"`     // set on sale
	Status     PlayerStatus `json:"status"`

	// Stats holds career statistics for display. Never invariant-bearing.
	Stats json.RawMessage `json:"stats,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resolved reports whether the player has already been decided this auction.
func (p *Player) Resolved() bool {
	return p.Status == PlayerStatusSold || p.Status == PlayerStatusUnsold
}
