package middleware

import (
	"context"
	"errors"

	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	ProjectIDKey   = "project_id"
	ProjectRoleKey = "project_role"
)

type RoleResolver interface {
	ResolveRole(ctx context.Context, projectID, userID uuid.UUID) (models.Role, error)
}

// RequireProjectRole resolves the caller's role in the :projectId project and
// rejects roles outside allowed. Non-members get 404, the same as a missing project.
// Routes without a :projectId parameter pass through untouched.
func RequireProjectRole(resolver RoleResolver, allowed models.RoleSet) drift.HandlerFunc {
	return func(c *drift.Context) {
		param := c.Param("projectId")
		if param == "" {
			c.Next()
			return
		}

		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		projectID, err := uuid.Parse(param)
		if err != nil {
			c.BadRequest("invalid project id")
			return
		}

		role, err := resolver.ResolveRole(c.Request.Context(), projectID, userID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.NotFound("project not found")
				return
			}
			logger.Error().Err(err).Str("project_id", projectID.String()).Msg("[Auth] failed to resolve project role")
			c.InternalServerError("failed to resolve project role")
			return
		}
		if !allowed.Allows(role) {
			c.Forbidden("insufficient project role")
			return
		}

		c.Set(ProjectIDKey, projectID)
		c.Set(ProjectRoleKey, role)
		c.Next()
	}
}

func GetProjectID(c *drift.Context) uuid.UUID {
	if v, ok := c.Get(ProjectIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func GetProjectRole(c *drift.Context) models.Role {
	if v, ok := c.Get(ProjectRoleKey); ok {
		if role, ok := v.(models.Role); ok {
			return role
		}
	}
	return ""
}
