package player

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/rs/zerolog/log"
)

// PlayerRepository defines the interface for player data access
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error)
	CreatePlayersBatch(ctx context.Context, reqs []CreatePlayerRequest) ([]models.Player, error)
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayers(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error)
	DeletePlayer(ctx context.Context, id uuid.UUID) error
}

// CreatePlayerRequest carries the fields of a new player. Status is not a
// field: players enter the pool as active, and sale statuses are assigned
// by the round engine only.
type CreatePlayerRequest struct {
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	BasePrice int64           `json:"base_price"`
	Stats     json.RawMessage `json:"stats,omitempty"`
}

// UpdatePlayerRequest carries optional updates. Nil fields are left as-is.
type UpdatePlayerRequest struct {
	Name      *string         `json:"name,omitempty"`
	Role      *string         `json:"role,omitempty"`
	BasePrice *int64          `json:"base_price,omitempty"`
	Stats     json.RawMessage `json:"stats,omitempty"`
}

// App handles player business logic
type App struct {
	repo PlayerRepository
}

// NewApp creates a new player App
func NewApp(repo PlayerRepository) *App {
	return &App{repo: repo}
}

// CreatePlayer validates and creates a single player.
func (a *App) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	player, err := a.repo.CreatePlayer(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("player_id", player.ID.String()).
		Str("name", player.Name).
		Int64("base_price", player.BasePrice).
		Msg("created player")
	return player, nil
}

// CreatePlayersBatch validates and creates players in bulk. All-or-nothing:
// one bad row fails the whole batch before anything is written.
func (a *App) CreatePlayersBatch(ctx context.Context, reqs []CreatePlayerRequest) ([]models.Player, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}
	for i, req := range reqs {
		if err := validateCreate(req); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	players, err := a.repo.CreatePlayersBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	log.Info().Int("count", len(players)).Msg("created player batch")
	return players, nil
}

// GetPlayer retrieves a player by ID.
func (a *App) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

// ListPlayers returns players, optionally filtered by status.
func (a *App) ListPlayers(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error) {
	for _, s := range statuses {
		if !validStatus(s) {
			return nil, fmt.Errorf("unknown status %q", s)
		}
	}
	return a.repo.ListPlayers(ctx, statuses)
}

// UpdatePlayer validates and applies a partial update.
func (a *App) UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if req.BasePrice != nil && *req.BasePrice < 0 {
		return nil, fmt.Errorf("base price cannot be negative")
	}

	player, err := a.repo.UpdatePlayer(ctx, id, req)
	if err != nil {
		return nil, err
	}

	log.Info().Str("player_id", id.String()).Msg("updated player")
	return player, nil
}

// DeletePlayer deletes a player by ID.
func (a *App) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	if err := a.repo.DeletePlayer(ctx, id); err != nil {
		return err
	}
	log.Info().Str("player_id", id.String()).Msg("deleted player")
	return nil
}

func validateCreate(req CreatePlayerRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.BasePrice < 0 {
		return fmt.Errorf("base price cannot be negative")
	}
	if len(req.Stats) > 0 && !json.Valid(req.Stats) {
		return fmt.Errorf("stats must be valid JSON")
	}
	return nil
}

func validStatus(s models.PlayerStatus) bool {
	switch s {
	case models.PlayerStatusActive, models.PlayerStatusPending,
		models.PlayerStatusSold, models.PlayerStatusUnsold:
		return true
	}
	return false
}
