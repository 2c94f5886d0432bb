package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const projectColumns = `id, name, description, owner_id, created_at, updated_at`

type ProjectService struct {
	db       *database.DB
	members  *MembershipService
	channels ChannelRegistry
}

func NewProjectService(db *database.DB, members *MembershipService, channels ChannelRegistry) *ProjectService {
	return &ProjectService{db: db, members: members, channels: channels}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the project and makes the creator its admin in one transaction.
func (s *ProjectService) Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if err := checkProjectName(name); err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	project, err := scanProject(tx.QueryRow(ctx, `
		INSERT INTO projects (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING `+projectColumns, name, description, ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
	`, project.ID, ownerID, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to add creator as admin: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.channels != nil {
		s.channels.JoinProject(ownerID, project.ID)
	}
	return project, nil
}

func (s *ProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	project, err := scanProject(s.db.Pool.QueryRow(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE id = $1 AND deleted_at IS NULL
	`, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	return project, err
}

// ListForUser returns the user's live projects with the user's role in each.
func (s *ProjectService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, []models.Role, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.owner_id, p.created_at, p.updated_at, pm.role
		FROM projects p
		JOIN project_members pm ON p.id = pm.project_id
		WHERE pm.user_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var projects []models.Project
	var roles []models.Role
	for rows.Next() {
		var p models.Project
		var role models.Role
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt, &role); err != nil {
			return nil, nil, err
		}
		projects = append(projects, p)
		roles = append(roles, role)
	}
	return projects, roles, rows.Err()
}

func (s *ProjectService) Update(ctx context.Context, projectID, actorID uuid.UUID, name, description *string) (*models.Project, error) {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOrManager); err != nil {
		return nil, err
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, invalidInput("name cannot be empty")
		}
		if err := checkProjectName(trimmed); err != nil {
			return nil, err
		}
		name = &trimmed
	}

	project, err := scanProject(s.db.Pool.QueryRow(ctx, `
		UPDATE projects
		SET name = COALESCE($1, name), description = COALESCE($2, description), updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING `+projectColumns, name, description, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	return project, err
}

// Delete soft-deletes the project. Afterwards every lookup treats it as missing.
func (s *ProjectService) Delete(ctx context.Context, projectID, actorID uuid.UUID) error {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOnly); err != nil {
		return err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE projects SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	if s.channels != nil {
		s.channels.CloseProject(projectID)
	}
	return nil
}

// RemoveMember deletes a membership and evicts the user's live connections from
// the project channel. The last admin cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, actorID, memberID uuid.UUID) error {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOrManager); err != nil {
		return err
	}

	err := s.withMemberLock(ctx, projectID, memberID, func(tx pgx.Tx, current models.Role, admins int) error {
		if current == models.RoleAdmin && admins <= 1 {
			return ErrLastAdmin
		}
		_, err := tx.Exec(ctx, `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, memberID)
		return err
	})
	if err != nil {
		return err
	}

	if s.channels != nil {
		s.channels.LeaveProject(memberID, projectID)
	}
	return nil
}

// ChangeMemberRole sets a member's role. Demoting the last admin is refused.
func (s *ProjectService) ChangeMemberRole(ctx context.Context, projectID, actorID, memberID uuid.UUID, role models.Role) error {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOnly); err != nil {
		return err
	}
	if !role.Valid() {
		return invalidInput("unknown role")
	}

	return s.withMemberLock(ctx, projectID, memberID, func(tx pgx.Tx, current models.Role, admins int) error {
		if current == role {
			return nil
		}
		if current == models.RoleAdmin && admins <= 1 {
			return ErrLastAdmin
		}
		_, err := tx.Exec(ctx, `UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3`, role, projectID, memberID)
		return err
	})
}

// withMemberLock runs fn in a transaction holding the project's admin rows and
// the member's row. Admin rows are always locked first, ordered by user_id.
func (s *ProjectService) withMemberLock(ctx context.Context, projectID, memberID uuid.UUID, fn func(tx pgx.Tx, current models.Role, admins int) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	admins, err := lockAdmins(ctx, tx, projectID)
	if err != nil {
		return err
	}

	var current models.Role
	err = tx.QueryRow(ctx, `
		SELECT role FROM project_members
		WHERE project_id = $1 AND user_id = $2
		FOR UPDATE
	`, projectID, memberID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load member: %w", err)
	}

	if err := fn(tx, current, admins); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func lockAdmins(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) (int, error) {
	rows, err := tx.Query(ctx, `
		SELECT user_id FROM project_members
		WHERE project_id = $1 AND role = $2
		ORDER BY user_id
		FOR UPDATE
	`, projectID, models.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("failed to lock admins: %w", err)
	}
	defer rows.Close()

	admins := 0
	for rows.Next() {
		admins++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to lock admins: %w", err)
	}
	return admins, nil
}

// checkProjectName rejects line breaks, which would otherwise reach the invite mail subject.
func checkProjectName(name string) error {
	if strings.ContainsAny(name, "\r\n") {
		return invalidInput("name cannot contain line breaks")
	}
	return nil
}
