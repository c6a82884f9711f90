package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/hammerclub/auctiond/internal/sqlutil"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, role, team_id, created_at`

// Repository implements user data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new users repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	user := &models.User{
		ID:     uuid.New(),
		Name:   req.Name,
		Role:   req.Role,
		TeamID: req.TeamID,
	}

	err := r.db.QueryRowContext(ctx, `INSERT INTO users (id, name, role, team_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		user.ID, user.Name, user.Role, sqlutil.ToNullUUID(user.TeamID),
	).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateUser updates an existing user
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `UPDATE users
		SET name = COALESCE($2, name),
		    role = COALESCE($3, role),
		    team_id = COALESCE($4, team_id)
		WHERE id = $1
		RETURNING `+userColumns,
		id, sqlutil.ToSqlString(req.Name), roleOrNull(req.Role), sqlutil.ToNullUUID(req.TeamID))

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser deletes a user by ID
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func roleOrNull(role *models.UserRole) sql.NullString {
	if role == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*role), Valid: true}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		user   models.User
		teamID uuid.NullUUID
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Role, &teamID, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.TeamID = sqlutil.FromNullUUID(teamID)
	return &user, nil
}
