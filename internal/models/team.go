package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a franchise bidding in the auction.
//
// Invariant: RemainingBudget <= Budget. A sale is rejected when the final
// price exceeds RemainingBudget; the guard lives in the sale transaction.
type Team struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Budget          int64       `json:"budget"`           // fixed ceiling, set at creation
	RemainingBudget int64       `json:"remaining_budget"` // decreases by FinalPrice per sale
	Players         []uuid.UUID `json:"players"`          // roster, append-only except on full reset
	Targets         []uuid.UUID `json:"targets"`          // bidding-priority watch list
	OwnerID         *uuid.UUID  `json:"owner_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
