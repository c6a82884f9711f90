package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/auction"
	"github.com/hammerclub/auctiond/internal/models"
)

// StateSnapshot is the full auction state sent to a client that connects
// mid-auction, so the display renders without waiting for the next event.
type StateSnapshot struct {
	Round         *models.AuctionRound `json:"round"`
	CurrentPlayer *models.Player       `json:"current_player,omitempty"`
	Players       []models.Player      `json:"players"`
	Teams         []models.Team        `json:"teams"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// RoundProvider supplies the live round.
type RoundProvider interface {
	CurrentRound(ctx context.Context) (*models.AuctionRound, error)
}

// PlayerProvider supplies the player pool.
type PlayerProvider interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayers(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error)
}

// TeamProvider supplies team standings.
type TeamProvider interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
}

// StateProvider assembles snapshots from the domain apps.
type StateProvider struct {
	rounds  RoundProvider
	players PlayerProvider
	teams   TeamProvider
}

// NewStateProvider creates a new state provider
func NewStateProvider(rounds RoundProvider, players PlayerProvider, teams TeamProvider) *StateProvider {
	return &StateProvider{rounds: rounds, players: players, teams: teams}
}

// GetState builds a snapshot of the auction. A missing live round is not an
// error: the snapshot simply carries a nil round.
func (p *StateProvider) GetState(ctx context.Context) (*StateSnapshot, error) {
	snapshot := &StateSnapshot{GeneratedAt: time.Now()}

	round, err := p.rounds.CurrentRound(ctx)
	if err != nil && !errors.Is(err, auction.ErrNoCurrentRound) {
		return nil, fmt.Errorf("failed to get current round: %w", err)
	}
	snapshot.Round = round

	if round != nil && round.CurrentPlayerID != nil {
		player, err := p.players.GetPlayer(ctx, *round.CurrentPlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get current player: %w", err)
		}
		snapshot.CurrentPlayer = player
	}

	players, err := p.players.ListPlayers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	snapshot.Players = players

	teams, err := p.teams.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	snapshot.Teams = teams

	return snapshot, nil
}
