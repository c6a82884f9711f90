package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/auction/events"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/lib/pq"
)

// SellPlayerRequest resolves the current player as sold.
type SellPlayerRequest struct {
	RoundID      uuid.UUID `json:"round_id"`
	RoundVersion int       `json:"round_version"`
	PlayerID     uuid.UUID `json:"player_id"`
	TeamID       uuid.UUID `json:"team_id"`
	FinalPrice   int64     `json:"final_price"`
}

// UnsoldPlayerRequest resolves the current player as unsold.
type UnsoldPlayerRequest struct {
	RoundID      uuid.UUID `json:"round_id"`
	RoundVersion int       `json:"round_version"`
	PlayerID     uuid.UUID `json:"player_id"`
}

// Resolution is the round state after a sell/unsold decision.
type Resolution struct {
	Round          *models.AuctionRound `json:"round"`
	RoundExhausted bool                 `json:"round_exhausted"`
}

// SellPlayer runs the whole sale as one transaction: player to sold with
// team and price, team budget decrement, target-list cleanup, players_left
// decrement, advance to the next player in the persisted draw (or park the
// round in waiting_for_admin), and the PlayerSold outbox row. Every write
// is guarded so a retry or a racing admin hits a typed error instead of a
// double-apply.
func (r *Repository) SellPlayer(ctx context.Context, req SellPlayerRequest) (*Resolution, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	round, err := lockRound(ctx, txn, req.RoundID, req.RoundVersion, req.PlayerID)
	if err != nil {
		return nil, err
	}

	res, err := txn.ExecContext(ctx, `UPDATE players
		SET status = 'sold', team_id = $1, final_price = $2, updated_at = now()
		WHERE id = $3 AND status <> 'sold' AND base_price <= $2`,
		req.TeamID, req.FinalPrice, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = classifyPlayerMiss(ctx, txn, req.PlayerID, req.FinalPrice)
		return nil, err
	}

	res, err = txn.ExecContext(ctx, `UPDATE teams
		SET remaining_budget = remaining_budget - $1, updated_at = now()
		WHERE id = $2 AND remaining_budget >= $1`,
		req.FinalPrice, req.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to update team budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = classifyTeamMiss(ctx, txn, req.TeamID)
		return nil, err
	}

	// A sold player stops being anyone's bidding target.
	if _, err = txn.ExecContext(ctx, `DELETE FROM team_targets WHERE player_id = $1`, req.PlayerID); err != nil {
		return nil, fmt.Errorf("failed to clear target lists: %w", err)
	}

	round, err = advanceRound(ctx, txn, round)
	if err != nil {
		return nil, err
	}

	var nextID string
	if round.CurrentPlayerID != nil {
		nextID = round.CurrentPlayerID.String()
	}
	err = insertOutbox(ctx, txn, &round.ID, events.TypePlayerSold, events.PlayerSoldPayload{
		RoundID:      round.ID.String(),
		Round:        round.Round,
		PlayerID:     req.PlayerID.String(),
		TeamID:       req.TeamID.String(),
		FinalPrice:   req.FinalPrice,
		PlayersLeft:  round.PlayersLeft,
		NextPlayerID: nextID,
		SoldAt:       round.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if err = queueWaitingEvent(ctx, txn, round); err != nil {
		return nil, err
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &Resolution{Round: round, RoundExhausted: round.Status == models.RoundStatusWaitingForAdmin}, nil
}

// MarkPlayerUnsold resolves the current player as unsold and advances the
// round, in one transaction with the PlayerUnsold outbox row.
func (r *Repository) MarkPlayerUnsold(ctx context.Context, req UnsoldPlayerRequest) (*Resolution, error) {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = txn.Rollback()
		}
	}()

	round, err := lockRound(ctx, txn, req.RoundID, req.RoundVersion, req.PlayerID)
	if err != nil {
		return nil, err
	}

	res, err := txn.ExecContext(ctx, `UPDATE players
		SET status = 'unsold', updated_at = now()
		WHERE id = $1 AND status IN ('active', 'pending')`, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrPlayerResolved
		return nil, err
	}

	round, err = advanceRound(ctx, txn, round)
	if err != nil {
		return nil, err
	}

	var nextID string
	if round.CurrentPlayerID != nil {
		nextID = round.CurrentPlayerID.String()
	}
	err = insertOutbox(ctx, txn, &round.ID, events.TypePlayerUnsold, events.PlayerUnsoldPayload{
		RoundID:      round.ID.String(),
		Round:        round.Round,
		PlayerID:     req.PlayerID.String(),
		PlayersLeft:  round.PlayersLeft,
		NextPlayerID: nextID,
		UnsoldAt:     round.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if err = queueWaitingEvent(ctx, txn, round); err != nil {
		return nil, err
	}

	if err = txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &Resolution{Round: round, RoundExhausted: round.Status == models.RoundStatusWaitingForAdmin}, nil
}

// lockRound locks the round row for the rest of the transaction and checks
// the caller's version and on-stage player.
func lockRound(ctx context.Context, txn *sql.Tx, roundID uuid.UUID, version int, playerID uuid.UUID) (*models.AuctionRound, error) {
	row := txn.QueryRowContext(ctx, `SELECT `+roundColumns+`
		FROM auction_rounds WHERE id = $1 FOR UPDATE`, roundID)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock round: %w", err)
	}

	if round.Version != version {
		return nil, ErrVersionConflict
	}
	if round.CurrentPlayerID == nil || *round.CurrentPlayerID != playerID {
		return nil, ErrPlayerNotOnStage
	}
	return round, nil
}

// advanceRound puts the next undecided player from the persisted draw on
// stage, or parks the round in waiting_for_admin when none remain.
func advanceRound(ctx context.Context, txn *sql.Tx, round *models.AuctionRound) (*models.AuctionRound, error) {
	next, err := nextOnStage(ctx, txn, round.DrawOrder)
	if err != nil {
		return nil, err
	}

	playersLeft := round.PlayersLeft - 1
	if playersLeft < 0 {
		playersLeft = 0
	}

	var row *sql.Row
	if next != nil {
		row = txn.QueryRowContext(ctx, `UPDATE auction_rounds
			SET players_left = $1, current_player_id = $2, version = version + 1, updated_at = now()
			WHERE id = $3
			RETURNING `+roundColumns, playersLeft, *next, round.ID)
	} else {
		row = txn.QueryRowContext(ctx, `UPDATE auction_rounds
			SET status = 'waiting_for_admin', players_left = 0, current_player_id = NULL,
			    version = version + 1, updated_at = now()
			WHERE id = $1
			RETURNING `+roundColumns, round.ID)
	}

	updated, err := scanRound(row)
	if err != nil {
		return nil, fmt.Errorf("failed to advance round: %w", err)
	}
	return updated, nil
}

// nextOnStage returns the first player in draw order still undecided.
func nextOnStage(ctx context.Context, txn *sql.Tx, order []uuid.UUID) (*uuid.UUID, error) {
	ids := make([]string, len(order))
	for i, id := range order {
		ids[i] = id.String()
	}

	rows, err := txn.QueryContext(ctx, `SELECT id FROM players
		WHERE id = ANY($1::uuid[]) AND status IN ('active', 'pending')`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query undecided players: %w", err)
	}
	defer rows.Close()

	undecided := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan player id: %w", err)
		}
		undecided[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range order {
		if undecided[id] {
			next := id
			return &next, nil
		}
	}
	return nil, nil
}

func queueWaitingEvent(ctx context.Context, txn *sql.Tx, round *models.AuctionRound) error {
	if round.Status != models.RoundStatusWaitingForAdmin {
		return nil
	}
	return insertOutbox(ctx, txn, &round.ID, events.TypeRoundWaiting, events.RoundWaitingPayload{
		RoundID:   round.ID.String(),
		Round:     round.Round,
		WaitingAt: round.UpdatedAt,
	})
}

func classifyPlayerMiss(ctx context.Context, txn *sql.Tx, playerID uuid.UUID, price int64) error {
	var (
		status    models.PlayerStatus
		basePrice int64
	)
	err := txn.QueryRowContext(ctx,
		`SELECT status, base_price FROM players WHERE id = $1`, playerID).Scan(&status, &basePrice)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlayerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect player: %w", err)
	}
	if status == models.PlayerStatusSold {
		return ErrPlayerResolved
	}
	if price < basePrice {
		return ErrBelowBasePrice
	}
	return fmt.Errorf("player %s not sellable in status %s", playerID, status)
}

func classifyTeamMiss(ctx context.Context, txn *sql.Tx, teamID uuid.UUID) error {
	var exists bool
	err := txn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1)`, teamID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to inspect team: %w", err)
	}
	if exists {
		return ErrInsufficientBudget
	}
	return ErrTeamNotFound
}
