package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/hammerclub/auctiond/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

const playerColumns = `id, name, role, base_price, final_price, team_id, status, stats, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRound(row rowScanner) (*models.AuctionRound, error) {
	var (
		round      models.AuctionRound
		current    uuid.NullUUID
		orderBytes []byte
	)
	err := row.Scan(
		&round.ID,
		&round.Round,
		&round.Status,
		&round.PlayersLeft,
		&round.TotalPlayers,
		&current,
		&round.DrawSeed,
		&orderBytes,
		&round.Version,
		&round.CreatedAt,
		&round.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	round.CurrentPlayerID = sqlutil.FromNullUUID(current)
	if err := json.Unmarshal(orderBytes, &round.DrawOrder); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draw order: %w", err)
	}
	return &round, nil
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	var (
		player models.Player
		price  sql.NullInt64
		teamID uuid.NullUUID
		stats  pqtype.NullRawMessage
	)
	err := row.Scan(
		&player.ID,
		&player.Name,
		&player.Role,
		&player.BasePrice,
		&price,
		&teamID,
		&player.Status,
		&stats,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	player.FinalPrice = sqlutil.FromSqlInt64(price)
	player.TeamID = sqlutil.FromNullUUID(teamID)
	if stats.Valid {
		player.Stats = stats.RawMessage
	}
	return &player, nil
}
