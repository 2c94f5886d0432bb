package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
)

// TaskLogService is the append-only audit trail for task mutations.
// There is deliberately no update or delete method.
type TaskLogService struct {
	db *database.DB
}

func NewTaskLogService(db *database.DB) *TaskLogService {
	return &TaskLogService{db: db}
}

// Record appends entry after checking that its task and author exist.
// Soft-deleted tasks still count as existing.
func (s *TaskLogService) Record(ctx context.Context, entry *models.TaskLog) (*models.TaskLog, error) {
	if err := s.record(ctx, s.db.Pool, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// record runs on q so the orchestrator can append inside its mutation transaction.
func (s *TaskLogService) record(ctx context.Context, q database.Querier, entry *models.TaskLog) error {
	var taskExists, userExists bool
	if err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1),
		       EXISTS(SELECT 1 FROM users WHERE id = $2)
	`, entry.TaskID, entry.ChangedBy).Scan(&taskExists, &userExists); err != nil {
		return fmt.Errorf("failed to check log references: %w", err)
	}
	if !taskExists {
		return ErrTaskNotFound
	}
	if !userExists {
		return ErrUserNotFound
	}

	if len(entry.Changes) == 0 {
		entry.Changes = []byte("{}")
	}

	err := q.QueryRow(ctx, `
		INSERT INTO task_logs (
			task_id, action, previous_status, new_status, previous_priority, new_priority,
			previous_assignee, new_assignee, changed_by, changes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, entry.TaskID, entry.Action, entry.PreviousStatus, entry.NewStatus,
		entry.PreviousPriority, entry.NewPriority, entry.PreviousAssignee, entry.NewAssignee,
		entry.ChangedBy, entry.Changes,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append task log: %w", err)
	}
	return nil
}

// ListForTask returns the task's entries newest-first with the author and
// assignees expanded. The task must belong to projectID.
func (s *TaskLogService) ListForTask(ctx context.Context, projectID, taskID uuid.UUID) ([]models.TaskLog, error) {
	var exists bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1 AND project_id = $2)
	`, taskID, projectID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTaskNotFound
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT l.id, l.task_id, l.action, l.previous_status, l.new_status,
		       l.previous_priority, l.new_priority, l.previous_assignee, l.new_assignee,
		       l.changed_by, l.changes, l.created_at,
		       cb.email, cb.name, pa.email, pa.name, na.email, na.name
		FROM task_logs l
		JOIN users cb ON cb.id = l.changed_by
		LEFT JOIN users pa ON pa.id = l.previous_assignee
		LEFT JOIN users na ON na.id = l.new_assignee
		WHERE l.task_id = $1
		ORDER BY l.created_at DESC, l.id DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.TaskLog{}
	for rows.Next() {
		var l models.TaskLog
		var cbEmail, cbName string
		var paEmail, paName, naEmail, naName *string
		if err := rows.Scan(
			&l.ID, &l.TaskID, &l.Action, &l.PreviousStatus, &l.NewStatus,
			&l.PreviousPriority, &l.NewPriority, &l.PreviousAssignee, &l.NewAssignee,
			&l.ChangedBy, &l.Changes, &l.CreatedAt,
			&cbEmail, &cbName, &paEmail, &paName, &naEmail, &naName,
		); err != nil {
			return nil, err
		}
		l.ChangedByUser = &models.UserSummary{ID: l.ChangedBy, Email: cbEmail, Name: cbName}
		l.PreviousAssigneeUser = summary(l.PreviousAssignee, paEmail, paName)
		l.NewAssigneeUser = summary(l.NewAssignee, naEmail, naName)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func summary(id *uuid.UUID, email, name *string) *models.UserSummary {
	if id == nil || email == nil {
		return nil
	}
	s := &models.UserSummary{ID: *id, Email: *email}
	if name != nil {
		s.Name = *name
	}
	return s
}
