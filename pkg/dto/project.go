package dto

import (
	"time"

	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ProjectResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Role        models.Role `json:"role,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewProjectResponse(p *models.Project, role models.Role) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Role:        role,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type MemberResponse struct {
	UserID   uuid.UUID   `json:"user_id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

func NewMemberResponses(members []models.ProjectMember) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		r := MemberResponse{UserID: m.UserID, Role: m.Role, JoinedAt: m.CreatedAt}
		if m.User != nil {
			r.Email = m.User.Email
			r.Name = m.User.Name
		}
		out = append(out, r)
	}
	return out
}

type ChangeRoleRequest struct {
	Role models.Role `json:"role"`
}
