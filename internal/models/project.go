package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within a single project. Roles are unordered; access
// is decided by membership in an explicit RoleSet.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDeveloper:
		return true
	}
	return false
}

// RoleSet is a fixed allow-list of roles.
type RoleSet []Role

func (s RoleSet) Allows(r Role) bool {
	for _, allowed := range s {
		if allowed == r {
			return true
		}
	}
	return false
}

var (
	AdminOnly      = RoleSet{RoleAdmin}
	AdminOrManager = RoleSet{RoleAdmin, RoleManager}
	AnyMember      = RoleSet{RoleAdmin, RoleManager, RoleDeveloper}
)

type Project struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type ProjectMember struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}
