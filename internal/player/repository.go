package player

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/hammerclub/auctiond/internal/sqlutil"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const playerColumns = `id, name, role, base_price, final_price, team_id, status, stats, created_at, updated_at`

// Repository implements player data access on Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new player repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreatePlayer inserts a player.
func (r *Repository) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	player := &models.Player{
		ID:        uuid.New(),
		Name:      req.Name,
		Role:      req.Role,
		BasePrice: req.BasePrice,
		Status:    models.PlayerStatusActive,
		Stats:     req.Stats,
	}

	err := r.db.QueryRowContext(ctx, `INSERT INTO players (id, name, role, base_price, status, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		player.ID, player.Name, player.Role, player.BasePrice, player.Status,
		pqtype.NullRawMessage{RawMessage: req.Stats, Valid: len(req.Stats) > 0},
	).Scan(&player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

// CreatePlayersBatch bulk-inserts players in one transaction.
func (r *Repository) CreatePlayersBatch(ctx context.Context, reqs []CreatePlayerRequest) ([]models.Player, error) {
	var players []models.Player
	err := sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO players (id, name, role, base_price, status, stats)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, req := range reqs {
			player := models.Player{
				ID:        uuid.New(),
				Name:      req.Name,
				Role:      req.Role,
				BasePrice: req.BasePrice,
				Status:    models.PlayerStatusActive,
				Stats:     req.Stats,
			}
			err := stmt.QueryRowContext(ctx,
				player.ID, player.Name, player.Role, player.BasePrice, player.Status,
				pqtype.NullRawMessage{RawMessage: req.Stats, Valid: len(req.Stats) > 0},
			).Scan(&player.CreatedAt, &player.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert player %q: %w", req.Name, err)
			}
			players = append(players, player)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return players, nil
}

// GetPlayer retrieves a player by ID.
func (r *Repository) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)

	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

// ListPlayers returns players, optionally filtered by status.
func (r *Repository) ListPlayers(ctx context.Context, statuses []models.PlayerStatus) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY name`
	args := []any{}
	if len(statuses) > 0 {
		set := make([]string, len(statuses))
		for i, s := range statuses {
			set[i] = string(s)
		}
		query = `SELECT ` + playerColumns + ` FROM players WHERE status = ANY($1) ORDER BY name`
		args = append(args, pq.Array(set))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *player)
	}
	return players, rows.Err()
}

// UpdatePlayer updates name, role, base price, or stats. Sale fields are
// owned by the auction transactions and not touchable here.
func (r *Repository) UpdatePlayer(ctx context.Context, id uuid.UUID, req UpdatePlayerRequest) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE players
		SET name = COALESCE($2, name),
		    role = COALESCE($3, role),
		    base_price = COALESCE($4, base_price),
		    stats = COALESCE($5, stats),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+playerColumns,
		id,
		sqlutil.ToSqlString(req.Name),
		sqlutil.ToSqlString(req.Role),
		sqlutil.ToSqlInt64(req.BasePrice),
		pqtype.NullRawMessage{RawMessage: req.Stats, Valid: len(req.Stats) > 0})

	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return player, nil
}

// DeletePlayer deletes a player by ID.
func (r *Repository) DeletePlayer(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

func scanPlayer(row interface{ Scan(...any) error }) (*models.Player, error) {
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
		player.Stats = json.RawMessage(stats.RawMessage)
	}
	return &player, nil
}
