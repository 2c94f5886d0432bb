package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MembershipService resolves a user's role within a project.
type MembershipService struct {
	db *database.DB
}

func NewMembershipService(db *database.DB) *MembershipService {
	return &MembershipService{db: db}
}

// ResolveRole returns the user's role in a live project. A missing membership
// and a missing or deleted project both yield ErrProjectNotFound.
func (s *MembershipService) ResolveRole(ctx context.Context, projectID, userID uuid.UUID) (models.Role, error) {
	var role models.Role
	err := s.db.Pool.QueryRow(ctx, `
		SELECT pm.role
		FROM project_members pm
		JOIN projects p ON p.id = pm.project_id
		WHERE pm.project_id = $1 AND pm.user_id = $2 AND p.deleted_at IS NULL
	`, projectID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return role, nil
}

// RequireRole resolves the role and fails with ErrForbidden unless it is in allowed.
func (s *MembershipService) RequireRole(ctx context.Context, projectID, userID uuid.UUID, allowed models.RoleSet) (models.Role, error) {
	role, err := s.ResolveRole(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if !allowed.Allows(role) {
		return role, fmt.Errorf("role %s may not perform this action: %w", role, ErrForbidden)
	}
	return role, nil
}

func (s *MembershipService) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)
	`, projectID, userID).Scan(&exists)
	return exists, err
}

func (s *MembershipService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT pm.id, pm.project_id, pm.user_id, pm.role, pm.created_at,
		       u.id, u.email, u.name, u.created_at, u.updated_at
		FROM project_members pm
		JOIN users u ON pm.user_id = u.id
		WHERE pm.project_id = $1
		ORDER BY pm.created_at
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.ProjectMember
	for rows.Next() {
		var member models.ProjectMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.ProjectID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, rows.Err()
}

// ListUserProjectIDs returns the live projects the user belongs to.
func (s *MembershipService) ListUserProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT pm.project_id
		FROM project_members pm
		JOIN projects p ON p.id = pm.project_id
		WHERE pm.user_id = $1 AND p.deleted_at IS NULL
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMember inserts a membership and reports whether a new row was created.
func (s *MembershipService) AddMember(ctx context.Context, projectID, userID uuid.UUID, role models.Role) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`, projectID, userID, role)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
