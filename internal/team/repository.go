package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/hammerclub/auctiond/internal/sqlutil"
)

const teamColumns = `id, name, budget, remaining_budget, owner_id, created_at, updated_at`

// Repository implements team data access on Postgres. The roster is not a
// separate table: a player belongs to the team named by players.team_id,
// which only the sale transaction writes. Target lists live in team_targets.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new team repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateTeam inserts a team. Remaining budget starts equal to the budget.
func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	team := &models.Team{
		ID:              uuid.New(),
		Name:            req.Name,
		Budget:          req.Budget,
		RemainingBudget: req.Budget,
		OwnerID:         req.OwnerID,
	}

	err := r.db.QueryRowContext(ctx, `INSERT INTO teams (id, name, budget, remaining_budget, owner_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		team.ID, team.Name, team.Budget, team.RemainingBudget,
		sqlutil.ToNullUUID(team.OwnerID),
	).Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetTeam retrieves a team with its roster and target list.
func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)

	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	if team.Players, err = r.rosterIDs(ctx, id); err != nil {
		return nil, err
	}
	if team.Targets, err = r.targetIDs(ctx, id); err != nil {
		return nil, err
	}
	return team, nil
}

// ListTeams returns all teams with rosters and target lists.
func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		if teams[i].Players, err = r.rosterIDs(ctx, teams[i].ID); err != nil {
			return nil, err
		}
		if teams[i].Targets, err = r.targetIDs(ctx, teams[i].ID); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

// UpdateTeam updates name, budget, or owner. Raising or lowering the budget
// moves remaining_budget by the same delta so spend to date is preserved.
func (r *Repository) UpdateTeam(ctx context.Context, id uuid.UUID, req UpdateTeamRequest) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE teams
		SET name = COALESCE($2, name),
		    remaining_budget = remaining_budget + COALESCE($3, budget) - budget,
		    budget = COALESCE($3, budget),
		    owner_id = COALESCE($4, owner_id),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+teamColumns,
		id,
		sqlutil.ToSqlString(req.Name),
		sqlutil.ToSqlInt64(req.Budget),
		sqlutil.ToNullUUID(req.OwnerID))

	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	if team.Players, err = r.rosterIDs(ctx, id); err != nil {
		return nil, err
	}
	if team.Targets, err = r.targetIDs(ctx, id); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam deletes a team. Rostered players are released back to the pool
// in the same transaction.
func (r *Repository) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE players
			SET status = 'active', team_id = NULL, final_price = NULL, updated_at = now()
			WHERE team_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to release roster: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM team_targets WHERE team_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear targets: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrTeamNotFound
		}
		return nil
	})
}

// GetRoster returns the team's players with their sale details.
func (r *Repository) GetRoster(ctx context.Context, id uuid.UUID) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, role, base_price, final_price, team_id, status, stats, created_at, updated_at
		FROM players WHERE team_id = $1 ORDER BY final_price DESC NULLS LAST, name`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var (
			p      models.Player
			price  sql.NullInt64
			teamID uuid.NullUUID
			stats  sql.NullString
		)
		err := rows.Scan(&p.ID, &p.Name, &p.Role, &p.BasePrice, &price, &teamID,
			&p.Status, &stats, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		p.FinalPrice = sqlutil.FromSqlInt64(price)
		p.TeamID = sqlutil.FromNullUUID(teamID)
		if stats.Valid {
			p.Stats = []byte(stats.String)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// AddTarget puts a player on the team's target list. Adding twice is a no-op.
func (r *Repository) AddTarget(ctx context.Context, teamID, playerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO team_targets (team_id, player_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, player_id) DO NOTHING`, teamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to add target: %w", err)
	}
	return nil
}

// RemoveTarget takes a player off the team's target list.
func (r *Repository) RemoveTarget(ctx context.Context, teamID, playerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_targets WHERE team_id = $1 AND player_id = $2`, teamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove target: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTargetNotFound
	}
	return nil
}

func (r *Repository) rosterIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	return r.collectIDs(ctx, `SELECT id FROM players WHERE team_id = $1 ORDER BY updated_at`, teamID)
}

func (r *Repository) targetIDs(ctx context.Context, teamID uuid.UUID) ([]uuid.UUID, error) {
	return r.collectIDs(ctx, `SELECT player_id FROM team_targets WHERE team_id = $1 ORDER BY created_at`, teamID)
}

func (r *Repository) collectIDs(ctx context.Context, query string, teamID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTeam(row interface{ Scan(...any) error }) (*models.Team, error) {
	var (
		team    models.Team
		ownerID uuid.NullUUID
	)
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Budget,
		&team.RemainingBudget,
		&ownerID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	team.OwnerID = sqlutil.FromNullUUID(ownerID)
	return &team, nil
}
