package team

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/rs/zerolog/log"
)

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error)
	DeleteTeam(ctx context.Context, id uuid.UUID) error
	GetRoster(ctx context.Context, id uuid.UUID) ([]models.Player, error)
	AddTarget(ctx context.Context, teamID, playerID uuid.UUID) error
	RemoveTarget(ctx context.Context, teamID, playerID uuid.UUID) error
}

// PlayerGetter verifies target players exist before listing them.
type PlayerGetter interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// CreateTeamRequest carries the fields of a new team.
type CreateTeamRequest struct {
	Name    string     `json:"name"`
	Budget  int64      `json:"budget"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// UpdateTeamRequest carries optional updates. Nil fields are left as-is.
type UpdateTeamRequest struct {
	Name    *string    `json:"name,omitempty"`
	Budget  *int64     `json:"budget,omitempty"`
	OwnerID *uuid.UUID `json:"owner_id,omitempty"`
}

// App handles team business logic
type App struct {
	repo    TeamRepository
	players PlayerGetter
}

// NewApp creates a new team App
func NewApp(repo TeamRepository, players PlayerGetter) *App {
	return &App{repo: repo, players: players}
}

// CreateTeam validates and creates a team.
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Budget <= 0 {
		return nil, fmt.Errorf("budget must be positive")
	}

	team, err := a.repo.CreateTeam(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("team_id", team.ID.String()).
		Str("name", team.Name).
		Int64("budget", team.Budget).
		Msg("created team")
	return team, nil
}

// GetTeam retrieves a team by ID.
func (a *App) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// ListTeams returns all teams.
func (a *App) ListTeams(ctx context.Context) ([]models.Team, error) {
	return a.repo.ListTeams(ctx)
}

// UpdateTeam validates and applies a partial update. Lowering the budget
// below what the team has already spent is rejected.
func (a *App) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if req.Budget != nil {
		if *req.Budget <= 0 {
			return nil, fmt.Errorf("budget must be positive")
		}
		current, err := a.repo.GetTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		spent := current.Budget - current.RemainingBudget
		if *req.Budget < spent {
			return nil, fmt.Errorf("budget %d is below the %d already spent", *req.Budget, spent)
		}
	}

	team, err := a.repo.UpdateTeam(ctx, id, req)
	if err != nil {
		return nil, err
	}

	log.Info().Str("team_id", id.String()).Msg("updated team")
	return team, nil
}

// DeleteTeam deletes a team, releasing its roster back to the pool.
func (a *App) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	if err := a.repo.DeleteTeam(ctx, id); err != nil {
		return err
	}
	log.Info().Str("team_id", id.String()).Msg("deleted team")
	return nil
}

// GetRoster returns the team's players with sale details.
func (a *App) GetRoster(ctx context.Context, id uuid.UUID) ([]models.Player, error) {
	if _, err := a.repo.GetTeam(ctx, id); err != nil {
		return nil, err
	}
	return a.repo.GetRoster(ctx, id)
}

// AddTarget puts a player on the team's target list.
func (a *App) AddTarget(ctx context.Context, teamID, playerID uuid.UUID) error {
	if _, err := a.repo.GetTeam(ctx, teamID); err != nil {
		return err
	}
	if _, err := a.players.GetPlayer(ctx, playerID); err != nil {
		return fmt.Errorf("target player: %w", err)
	}

	if err := a.repo.AddTarget(ctx, teamID, playerID); err != nil {
		return err
	}

	log.Info().
		Str("team_id", teamID.String()).
		Str("player_id", playerID.String()).
		Msg("added target")
	return nil
}

// RemoveTarget takes a player off the team's target list.
func (a *App) RemoveTarget(ctx context.Context, teamID, playerID uuid.UUID) error {
	if err := a.repo.RemoveTarget(ctx, teamID, playerID); err != nil {
		return err
	}
	log.Info().
		Str("team_id", teamID.String()).
		Str("player_id", playerID.String()).
		Msg("removed target")
	return nil
}
