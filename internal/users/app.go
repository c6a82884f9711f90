package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hammerclub/auctiond/internal/models"
	"github.com/rs/zerolog/log"
)

// UserRepository defines what the app layer needs from the repository
type UserRepository interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// CreateUserRequest creates a user.
type CreateUserRequest struct {
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
	TeamID *uuid.UUID      `json:"team_id,omitempty"`
}

// UpdateUserRequest updates a user; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name   *string          `json:"name,omitempty"`
	Role   *models.UserRole `json:"role,omitempty"`
	TeamID *uuid.UUID       `json:"team_id,omitempty"`
}

// App handles user business logic
type App struct {
	repo UserRepository
}

// NewApp creates a new users App
func NewApp(repo UserRepository) *App {
	return &App{repo: repo}
}

// CreateUser creates a new user with validation
func (a *App) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("validation failed: name is required")
	}
	if err := validateRole(req.Role); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := a.repo.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().Str("name", user.Name).Str("role", string(user.Role)).Msg("created user")
	return user, nil
}

// GetUser retrieves a user by ID
func (a *App) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return a.repo.GetUser(ctx, id)
}

// ListUsers returns all users.
func (a *App) ListUsers(ctx context.Context) ([]models.User, error) {
	return a.repo.ListUsers(ctx)
}

// UpdateUser updates an existing user with validation
func (a *App) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	if req.Role != nil {
		if err := validateRole(*req.Role); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
	}
	return a.repo.UpdateUser(ctx, id, req)
}

// DeleteUser deletes a user by ID
func (a *App) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return a.repo.DeleteUser(ctx, id)
}

// Capabilities resolves the capability set for a user id.
func (a *App) Capabilities(ctx context.Context, id uuid.UUID) (CapabilitySet, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return CapabilitiesForRole(user.Role), nil
}

func validateRole(role models.UserRole) error {
	switch role {
	case models.UserRoleAdmin, models.UserRoleOwner, models.UserRoleManager:
		return nil
	default:
		return fmt.Errorf("invalid role: %s", role)
	}
}
