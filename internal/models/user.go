package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole defines what a session is allowed to do.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleOwner   UserRole = "owner"
	UserRoleManager UserRole = "manager"
)

// User represents an operator, team owner, or manager session identity.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Role      UserRole   `json:"role"`
	TeamID    *uuid.UUID `json:"team_id,omitempty"` // owners link to their team
	CreatedAt time.Time  `json:"created_at"`
}
