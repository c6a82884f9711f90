package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/auction/events"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/lib/pq"
)

const roundColumns = `id, round, status, players_left, total_players, current_player_id, draw_seed, draw_order, version, created_at, updated_at`

// Repository implements auction round data access on Postgres. Mutations
// that touch more than one document run as a single transaction together
// with their outbox insert, so a change notification is only ever emitted
// for state that actually committed.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StartRoundRequest carries everything StartRound needs besides the store
// contents. Draw is the one-time shuffle; it runs inside the transaction,
// after the unsold reset, so the persisted order reflects what the reset
// produced.
type StartRoundRequest struct {
	RoundNumber      int
	DrawSeed         int64
	EligibleStatuses []models.PlayerStatus
	Draw             func([]models.Player) []models.Player
}

// ResetSummary reports what a full auction reset touched.
type ResetSummary struct {
	PlayersReset int `json:"players_reset"`
	TeamsReset   int `json:"teams_reset"`
}

// GetLiveRound returns the single round with status active or
// waiting_for_admin, newest round number first.
func (r *Repository) GetLiveRound(ctx context.Context) (*models.AuctionRound, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roundColumns+`
		FROM auction_rounds
		WHERE status IN ('active', 'waiting_for_admin')
		ORDER BY round DESC
		LIMIT 1`)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live round: %w", err)
	}
	return round, nil
}

// NextRoundNumber returns one past the highest round on record. Fresh
// store (or just after a reset) yields 1.
func (r *Repository) NextRoundNumber(ctx context.Context) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round), 0) + 1 FROM auction_rounds`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next round number: %w", err)
	}
	return next, nil
}

// GetRound retrieves a round by ID.
func (r *Repository) GetRound(ctx context.Context, id uuid.UUID) (*models.AuctionRound, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM auction_rounds WHERE id = $1`, id)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

// ListRounds returns every round, oldest first.
func (r *Repository) ListRounds(ctx context.Context) ([]models.AuctionRound, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roundColumns+` FROM auction_rounds ORDER BY round`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []models.AuctionRound
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, *round)
	}
	return rounds, rows.Err()
}

// StartRound completes any live round and creates its successor in one
// transaction: lock live rounds, recycle unsold players back to active
// (rounds past the first), draw the eligible set, complete the old round,
// insert the new one with the persisted draw, and queue the RoundStarted
// event. Returns (nil, nil) when no players are eligible; nothing is
// written in that case.
func (r *Repository) StartRound(ctx context.Context, req StartRoundRequest) (*models.AuctionRound, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	// Serialize concurrent round starts on the live round rows.
	if _, err = txn.ExecContext(ctx, `SELECT id FROM auction_rounds
		WHERE status IN ('active', 'waiting_for_admin') FOR UPDATE`); err != nil {
		return nil, fmt.Errorf("failed to lock live rounds: %w", err)
	}

	if req.RoundNumber > 1 {
		// The only place unsold players are recycled.
		if _, err = txn.ExecContext(ctx, `UPDATE players
			SET status = 'active', updated_at = now()
			WHERE status = 'unsold'`); err != nil {
			return nil, fmt.Errorf("failed to reset unsold players: %w", err)
		}
	}

	candidates, err := listPlayersByStatus(ctx, txn, req.EligibleStatuses)
	if err != nil {
		return nil, err
	}

	draw := req.Draw(candidates)
	if len(draw) == 0 {
		_ = txn.Rollback()
		return nil, nil
	}

	if _, err = txn.ExecContext(ctx, `UPDATE auction_rounds
		SET status = 'completed', version = version + 1, updated_at = now()
		WHERE status IN ('active', 'waiting_for_admin')`); err != nil {
		return nil, fmt.Errorf("failed to complete prior round: %w", err)
	}

	order := make([]uuid.UUID, len(draw))
	for i, p := range draw {
		order[i] = p.ID
	}
	orderBytes, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draw order: %w", err)
	}

	round := &models.AuctionRound{
		ID:              uuid.New(),
		Round:           req.RoundNumber,
		Status:          models.RoundStatusWaitingForAdmin,
		PlayersLeft:     len(draw),
		TotalPlayers:    len(draw),
		CurrentPlayerID: &order[0],
		DrawSeed:        req.DrawSeed,
		DrawOrder:       order,
		Version:         1,
	}

	err = txn.QueryRowContext(ctx, `INSERT INTO auction_rounds
		(id, round, status, players_left, total_players, current_player_id, draw_seed, draw_order, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		round.ID, round.Round, round.Status, round.PlayersLeft, round.TotalPlayers,
		round.CurrentPlayerID, round.DrawSeed, orderBytes, round.Version,
	).Scan(&round.CreatedAt, &round.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert round: %w", err)
	}

	err = insertOutbox(ctx, txn, &round.ID, events.TypeRoundStarted, events.RoundStartedPayload{
		RoundID:         round.ID.String(),
		Round:           round.Round,
		TotalPlayers:    round.TotalPlayers,
		PlayersLeft:     round.PlayersLeft,
		CurrentPlayerID: order[0].String(),
		StartedAt:       round.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return round, nil
}

// ActivateRound moves a waiting (or pending) round on stage. The write is
// compare-and-swap on the version column.
func (r *Repository) ActivateRound(ctx context.Context, id uuid.UUID, version int) (*models.AuctionRound, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	row := txn.QueryRowContext(ctx, `UPDATE auction_rounds
		SET status = 'active', version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status IN ('pending', 'waiting_for_admin')
		RETURNING `+roundColumns, id, version)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyMissedWrite(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to activate round: %w", err)
	}

	err = insertOutbox(ctx, txn, &round.ID, events.TypeRoundActivated, events.RoundActivatedPayload{
		RoundID:     round.ID.String(),
		Round:       round.Round,
		ActivatedAt: round.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return round, nil
}

// CompleteLiveRound ends the auction: the live round goes to completed and
// an AuctionEnded event is queued.
func (r *Repository) CompleteLiveRound(ctx context.Context) (*models.AuctionRound, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	row := txn.QueryRowContext(ctx, `UPDATE auction_rounds
		SET status = 'completed', version = version + 1, updated_at = now()
		WHERE status IN ('active', 'waiting_for_admin')
		RETURNING ` + roundColumns)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete live round: %w", err)
	}

	err = insertOutbox(ctx, txn, &round.ID, events.TypeAuctionEnded, events.AuctionEndedPayload{
		RoundID: round.ID.String(),
		Round:   round.Round,
		EndedAt: round.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return round, nil
}

// ResetAuction is the admin reset-all: every player back to active with
// sale fields cleared, budgets restored, target lists wiped, round history
// dropped.
func (r *Repository) ResetAuction(ctx context.Context) (*ResetSummary, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	res, err := txn.ExecContext(ctx, `UPDATE players
		SET status = 'active', team_id = NULL, final_price = NULL, updated_at = now()
		WHERE status <> 'active' OR team_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to reset players: %w", err)
	}
	playersReset, _ := res.RowsAffected()

	res, err = txn.ExecContext(ctx, `UPDATE teams
		SET remaining_budget = budget, updated_at = now()
		WHERE remaining_budget <> budget`)
	if err != nil {
		return nil, fmt.Errorf("failed to reset team budgets: %w", err)
	}
	teamsReset, _ := res.RowsAffected()

	if _, err = txn.ExecContext(ctx, `DELETE FROM team_targets`); err != nil {
		return nil, fmt.Errorf("failed to clear target lists: %w", err)
	}

	// Round history goes too, so the next auction numbers from 1 again.
	// Outbox rows survive with round_id nulled by the FK.
	if _, err = txn.ExecContext(ctx, `DELETE FROM auction_rounds`); err != nil {
		return nil, fmt.Errorf("failed to clear rounds: %w", err)
	}

	summary := &ResetSummary{
		PlayersReset: int(playersReset),
		TeamsReset:   int(teamsReset),
	}
	err = insertOutbox(ctx, txn, nil, events.TypeAuctionReset, events.AuctionResetPayload{
		PlayersReset: summary.PlayersReset,
		TeamsReset:   summary.TeamsReset,
	})
	if err != nil {
		return nil, err
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return summary, nil
}

// CountPlayersByStatus returns player counts keyed by status.
func (r *Repository) CountPlayersByStatus(ctx context.Context) (map[models.PlayerStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM players GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.PlayerStatus]int)
	for rows.Next() {
		var status models.PlayerStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListPlayersByStatus returns players whose status is in the given set.
func (r *Repository) ListPlayersByStatus(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error) {
	return listPlayersByStatus(ctx, r.db, statuses)
}

// classifyMissedWrite distinguishes "round gone" from "version moved" after
// a CAS update touched zero rows.
func (r *Repository) classifyMissedWrite(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM auction_rounds WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to inspect round: %w", err)
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrRoundNotFound
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listPlayersByStatus(ctx context.Context, q querier, statuses []models.PlayerStatus) ([]models.Player, error) {
	set := make([]string, len(statuses))
	for i, s := range statuses {
		set[i] = string(s)
	}

	rows, err := q.QueryContext(ctx, `SELECT `+playerColumns+`
		FROM players WHERE status = ANY($1) ORDER BY name`, pq.Array(set))
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertOutbox(ctx context.Context, e execer, roundID *uuid.UUID, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	var round uuid.NullUUID
	if roundID != nil {
		round = uuid.NullUUID{UUID: *roundID, Valid: true}
	}
	if _, err := e.ExecContext(ctx, `INSERT INTO auction_outbox (id, round_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`, uuid.New(), round, eventType, body); err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}
