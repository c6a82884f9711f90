package auction

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/auction/repository"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// RoundRepository defines what the app layer needs from the round store.
type RoundRepository interface {
	GetLiveRound(ctx context.Context) (*models.AuctionRound, error)
	NextRoundNumber(ctx context.Context) (int, error)
	GetRound(ctx context.Context, id uuid.UUID) (*models.AuctionRound, error)
	ListRounds(ctx context.Context) ([]models.AuctionRound, error)
	StartRound(ctx context.Context, req repository.StartRoundRequest) (*models.AuctionRound, error)
	ActivateRound(ctx context.Context, id uuid.UUID, version int) (*models.AuctionRound, error)
	SellPlayer(ctx context.Context, req repository.SellPlayerRequest) (*repository.Resolution, error)
	MarkPlayerUnsold(ctx context.Context, req repository.UnsoldPlayerRequest) (*repository.Resolution, error)
	CompleteLiveRound(ctx context.Context) (*models.AuctionRound, error)
	ResetAuction(ctx context.Context) (*repository.ResetSummary, error)
	CountPlayersByStatus(ctx context.Context) (map[models.PlayerStatus]int, error)
	ListPlayersByStatus(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error)
}

// PlayerGetter defines what the app layer needs from the player repository
// for sale validation.
type PlayerGetter interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// TeamGetter defines what the app layer needs from the team repository for
// sale validation.
type TeamGetter interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// App is the round engine: it decides which players are eligible, advances
// rounds, and resolves sell/unsold decisions against the store. Validation
// happens before any write; the repository re-guards every mutation inside
// its transaction so racing sessions get typed conflicts.
type App struct {
	repo    RoundRepository
	players PlayerGetter
	teams   TeamGetter
	clock   clockwork.Clock
}

// NewApp creates a new auction App.
func NewApp(repo RoundRepository, players PlayerGetter, teams TeamGetter, clock clockwork.Clock) *App {
	return &App{
		repo:    repo,
		players: players,
		teams:   teams,
		clock:   clock,
	}
}

// SellRequest asks to sell the player currently on stage.
type SellRequest struct {
	PlayerID   uuid.UUID  `json:"player_id"`
	TeamID     *uuid.UUID `json:"team_id"`
	FinalPrice int64      `json:"final_price"`
}

// RemainingCount is a display-only progress breakdown.
type RemainingCount struct {
	Unsold int `json:"unsold"`
	Active int `json:"active"` // includes pending
	Total  int `json:"total"`
}

// CurrentRound returns the live round.
func (a *App) CurrentRound(ctx context.Context) (*models.AuctionRound, error) {
	round, err := a.repo.GetLiveRound(ctx)
	if errors.Is(err, repository.ErrRoundNotFound) {
		return nil, ErrNoCurrentRound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current round: %w", err)
	}
	return round, nil
}

// ListRounds returns every round, oldest first.
func (a *App) ListRounds(ctx context.Context) ([]models.AuctionRound, error) {
	return a.repo.ListRounds(ctx)
}

// StartNextRound completes the live round (if any) and creates its
// successor with a fresh, persisted draw. Returns (nil, nil) when no
// players are eligible, which callers surface as "no players available".
func (a *App) StartNextRound(ctx context.Context) (*models.AuctionRound, error) {
	next, err := a.repo.NextRoundNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read round history: %w", err)
	}

	seed := a.clock.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	round, err := a.repo.StartRound(ctx, repository.StartRoundRequest{
		RoundNumber:      next,
		DrawSeed:         seed,
		EligibleStatuses: EligibleStatuses(next),
		Draw: func(players []models.Player) []models.Player {
			return EligiblePlayers(players, next, rng)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start round %d: %w", next, err)
	}
	if round == nil {
		log.Info().Int("round", next).Msg("no eligible players, round not created")
		return nil, nil
	}

	if !ValidateDrawIntegrity(round.DrawOrder) {
		// Diagnostic only, the auction proceeds.
		log.Warn().Int("round", round.Round).Msg("duplicate player ids in draw")
	}

	log.Info().
		Int("round", round.Round).
		Int("total_players", round.TotalPlayers).
		Str("round_id", round.ID.String()).
		Msg("round started")
	return round, nil
}

// ActivateRound puts a waiting round on stage.
func (a *App) ActivateRound(ctx context.Context, id uuid.UUID) (*models.AuctionRound, error) {
	round, err := a.repo.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}

	activated, err := a.repo.ActivateRound(ctx, id, round.Version)
	if err != nil {
		return nil, err
	}

	log.Info().Int("round", activated.Round).Msg("round activated")
	return activated, nil
}

// SellCurrentPlayer validates the sale preconditions and resolves the
// current player as sold. On a validation failure nothing is written and
// the caller learns which precondition failed.
func (a *App) SellCurrentPlayer(ctx context.Context, req SellRequest) (*repository.Resolution, error) {
	round, err := a.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	if round.CurrentPlayerID == nil {
		return nil, ErrNoCurrentPlayer
	}
	if req.PlayerID != *round.CurrentPlayerID {
		return nil, ErrPlayerNotOnStage
	}
	if req.TeamID == nil {
		return nil, ErrNoTeamSelected
	}

	player, err := a.players.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("player not found: %w", err)
	}
	if req.FinalPrice < player.BasePrice {
		return nil, ErrBelowBasePrice
	}

	team, err := a.teams.GetTeam(ctx, *req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("team not found: %w", err)
	}
	if team.RemainingBudget < req.FinalPrice {
		return nil, ErrInsufficientBudget
	}

	res, err := a.repo.SellPlayer(ctx, repository.SellPlayerRequest{
		RoundID:      round.ID,
		RoundVersion: round.Version,
		PlayerID:     req.PlayerID,
		TeamID:       *req.TeamID,
		FinalPrice:   req.FinalPrice,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("player", player.Name).
		Str("team", team.Name).
		Int64("final_price", req.FinalPrice).
		Int("players_left", res.Round.PlayersLeft).
		Msg("player sold")
	return res, nil
}

// MarkUnsold resolves the current player as unsold. No preconditions
// beyond a player being on stage.
func (a *App) MarkUnsold(ctx context.Context, playerID uuid.UUID) (*repository.Resolution, error) {
	round, err := a.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	if round.CurrentPlayerID == nil {
		return nil, ErrNoCurrentPlayer
	}
	if playerID != *round.CurrentPlayerID {
		return nil, ErrPlayerNotOnStage
	}

	res, err := a.repo.MarkPlayerUnsold(ctx, repository.UnsoldPlayerRequest{
		RoundID:      round.ID,
		RoundVersion: round.Version,
		PlayerID:     playerID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("player_id", playerID.String()).
		Int("players_left", res.Round.PlayersLeft).
		Msg("player unsold")
	return res, nil
}

// EndAuction completes the live round.
func (a *App) EndAuction(ctx context.Context) (*models.AuctionRound, error) {
	round, err := a.repo.CompleteLiveRound(ctx)
	if errors.Is(err, repository.ErrRoundNotFound) {
		return nil, ErrNoCurrentRound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to end auction: %w", err)
	}

	log.Info().Int("round", round.Round).Msg("auction ended")
	return round, nil
}

// ResetAuction is the admin reset-all operation.
func (a *App) ResetAuction(ctx context.Context) (*repository.ResetSummary, error) {
	summary, err := a.repo.ResetAuction(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset auction: %w", err)
	}

	log.Info().
		Int("players_reset", summary.PlayersReset).
		Int("teams_reset", summary.TeamsReset).
		Msg("auction reset")
	return summary, nil
}

// ValidateRoundIntegrity recomputes the eligible set for the round and
// checks it for duplicate ids. Non-fatal: callers log and continue.
func (a *App) ValidateRoundIntegrity(ctx context.Context, roundNumber int) (bool, error) {
	players, err := a.repo.ListPlayersByStatus(ctx, EligibleStatuses(roundNumber))
	if err != nil {
		return false, fmt.Errorf("failed to list eligible players: %w", err)
	}
	return ValidateDrawIntegrity(drawIDs(players)), nil
}

// HasPlayersForNextRound reports whether any player could join another
// round.
func (a *App) HasPlayersForNextRound(ctx context.Context) (bool, error) {
	counts, err := a.repo.CountPlayersByStatus(ctx)
	if err != nil {
		return false, err
	}
	n := counts[models.PlayerStatusUnsold] +
		counts[models.PlayerStatusActive] +
		counts[models.PlayerStatusPending]
	return n > 0, nil
}

// AreAllPlayersSold reports whether every player has been sold. False on
// an empty player set.
func (a *App) AreAllPlayersSold(ctx context.Context) (bool, error) {
	counts, err := a.repo.CountPlayersByStatus(ctx)
	if err != nil {
		return false, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total > 0 && counts[models.PlayerStatusSold] == total, nil
}

// RemainingPlayersCount returns display-only progress counters.
func (a *App) RemainingPlayersCount(ctx context.Context) (*RemainingCount, error) {
	counts, err := a.repo.CountPlayersByStatus(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &RemainingCount{
		Unsold: counts[models.PlayerStatusUnsold],
		Active: counts[models.PlayerStatusActive] + counts[models.PlayerStatusPending],
		Total:  total,
	}, nil
}
