package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/queue"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskSelect = `
	SELECT t.id, t.project_id, t.title, t.description, t.status, t.priority,
	       t.assigned_to, t.created_by, t.created_at, t.updated_at,
	       a.email, a.name, c.email, c.name
	FROM tasks t
	LEFT JOIN users a ON a.id = t.assigned_to
	LEFT JOIN users c ON c.id = t.created_by`

// FanOutEnqueuer hands a notification job to the background workers.
type FanOutEnqueuer interface {
	Enqueue(ctx context.Context, job queue.FanOutJob) error
}

// TaskService runs every task mutation as authorize, load, apply, audit and
// then fan-out. The audit entry is written in the same transaction as the
// change; fan-out happens after commit and its failures are only logged.
type TaskService struct {
	db      *database.DB
	members *MembershipService
	logs    *TaskLogService
	fanout  FanOutEnqueuer
}

func NewTaskService(db *database.DB, members *MembershipService, logs *TaskLogService, fanout FanOutEnqueuer) *TaskService {
	return &TaskService{db: db, members: members, logs: logs, fanout: fanout}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	AssignedTo  *uuid.UUID
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	var email, name, creatorEmail, creatorName *string
	if err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssignedTo, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
		&email, &name, &creatorEmail, &creatorName,
	); err != nil {
		return nil, err
	}
	t.Assignee = summary(t.AssignedTo, email, name)
	t.Creator = summary(&t.CreatedBy, creatorEmail, creatorName)
	return &t, nil
}

func (s *TaskService) GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	task, err := scanTask(s.db.Pool.QueryRow(ctx, taskSelect+`
		WHERE t.id = $1 AND t.project_id = $2 AND t.deleted_at IS NULL
	`, taskID, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

func (s *TaskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	rows, err := s.db.Pool.Query(ctx, taskSelect+`
		WHERE t.project_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.created_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *TaskService) Create(ctx context.Context, projectID, actorID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOrManager); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, invalidInput("unknown priority")
	}
	if input.AssignedTo == nil {
		return nil, invalidInput("assignee is required")
	}
	if err := s.requireAssignee(ctx, projectID, *input.AssignedTo); err != nil {
		return nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task := &models.Task{
		ProjectID:   projectID,
		Title:       title,
		Description: input.Description,
		Status:      models.TaskStatusPending,
		Priority:    priority,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   actorID,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, assigned_to, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, projectID, task.Title, task.Description, task.Status, task.Priority, task.AssignedTo, actorID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	status := task.Status
	entry := &models.TaskLog{
		TaskID:      task.ID,
		Action:      models.TaskActionCreated,
		NewStatus:   &status,
		NewPriority: &priority,
		NewAssignee: task.AssignedTo,
		ChangedBy:   actorID,
		Changes:     snapshot(map[string]any{"title": task.Title, "description": task.Description}),
	}
	if err := s.logs.record(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueFanOut(ctx, projectID, task.ID, entry.Action, actorID)
	return task, nil
}

func (s *TaskService) UpdateDetails(ctx context.Context, projectID, taskID, actorID uuid.UUID, input UpdateTaskInput) (*models.Task, error) {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOrManager); err != nil {
		return nil, err
	}
	if input.Title == nil && input.Description == nil {
		return nil, invalidInput("nothing to update")
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, invalidInput("title cannot be empty")
	}

	return s.mutate(ctx, projectID, taskID, actorID, nil, func(tx pgx.Tx, task *models.Task) (*models.TaskLog, error) {
		changes := map[string]any{}
		if input.Title != nil {
			task.Title = strings.TrimSpace(*input.Title)
			changes["title"] = task.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
			changes["description"] = task.Description
		}

		if err := applyUpdate(ctx, tx, task, `title = $2, description = $3`, task.Title, task.Description); err != nil {
			return nil, err
		}
		return &models.TaskLog{Action: models.TaskActionUpdated, Changes: snapshot(changes)}, nil
	})
}

func (s *TaskService) ChangeStatus(ctx context.Context, projectID, taskID, actorID uuid.UUID, status models.TaskStatus) (*models.Task, error) {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AnyMember); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalidInput("unknown status")
	}

	return s.mutate(ctx, projectID, taskID, actorID, nil, func(tx pgx.Tx, task *models.Task) (*models.TaskLog, error) {
		prev := task.Status
		task.Status = status
		if err := applyUpdate(ctx, tx, task, `status = $2`, status); err != nil {
			return nil, err
		}
		return &models.TaskLog{
			Action:         models.TaskActionStatusChanged,
			PreviousStatus: &prev,
			NewStatus:      &status,
			Changes:        snapshot(map[string]any{"status": status}),
		}, nil
	})
}

func (s *TaskService) ChangePriority(ctx context.Context, projectID, taskID, actorID uuid.UUID, priority models.TaskPriority) (*models.Task, error) {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AnyMember); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, invalidInput("unknown priority")
	}

	return s.mutate(ctx, projectID, taskID, actorID, nil, func(tx pgx.Tx, task *models.Task) (*models.TaskLog, error) {
		prev := task.Priority
		task.Priority = priority
		if err := applyUpdate(ctx, tx, task, `priority = $2`, priority); err != nil {
			return nil, err
		}
		return &models.TaskLog{
			Action:           models.TaskActionPriorityChanged,
			PreviousPriority: &prev,
			NewPriority:      &priority,
			Changes:          snapshot(map[string]any{"priority": priority}),
		}, nil
	})
}

// Reassign moves the task to another assignee, who must already be a member of
// the project; otherwise ErrUserNotFound is returned before anything changes.
func (s *TaskService) Reassign(ctx context.Context, projectID, taskID, actorID uuid.UUID, assignee *uuid.UUID) (*models.Task, error) {
	if _, err := s.members.RequireRole(ctx, projectID, actorID, models.AdminOrManager); err != nil {
		return nil, err
	}
	if assignee == nil {
		return nil, invalidInput("assignee is required")
	}
	if err := s.requireAssignee(ctx, projectID, *assignee); err != nil {
		return nil, err
	}

	return s.mutate(ctx, projectID, taskID, actorID, nil, func(tx pgx.Tx, task *models.Task) (*models.TaskLog, error) {
		prev := task.AssignedTo
		task.AssignedTo = assignee
		task.Assignee = nil
		if err := applyUpdate(ctx, tx, task, `assigned_to = $2`, assignee); err != nil {
			return nil, err
		}
		return &models.TaskLog{
			Action:           models.TaskActionAssigned,
			PreviousAssignee: prev,
			NewAssignee:      assignee,
			Changes:          snapshot(map[string]any{"assigned_to": assignee}),
		}, nil
	})
}

// Delete soft-deletes the task. Its audit trail stays readable.
func (s *TaskService) Delete(ctx context.Context, projectID, taskID, actorID uuid.UUID) error {
	_, err := s.mutate(ctx, projectID, taskID, actorID, models.AdminOrManager, func(tx pgx.Tx, task *models.Task) (*models.TaskLog, error) {
		if _, err := tx.Exec(ctx, `
			UPDATE tasks SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1
		`, task.ID); err != nil {
			return nil, fmt.Errorf("failed to delete task: %w", err)
		}
		return &models.TaskLog{
			Action:  models.TaskActionDeleted,
			Changes: snapshot(map[string]any{"title": task.Title}),
		}, nil
	})
	return err
}

// mutate authorizes the actor (unless allowed is nil, meaning the caller already
// did), locks the task scoped to its project, applies fn and appends the audit
// entry fn returns. Every successful call writes exactly one entry.
func (s *TaskService) mutate(
	ctx context.Context,
	projectID, taskID, actorID uuid.UUID,
	allowed models.RoleSet,
	fn func(tx pgx.Tx, task *models.Task) (*models.TaskLog, error),
) (*models.Task, error) {
	if allowed != nil {
		if _, err := s.members.RequireRole(ctx, projectID, actorID, allowed); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := scanTask(tx.QueryRow(ctx, taskSelect+`
		WHERE t.id = $1 AND t.project_id = $2 AND t.deleted_at IS NULL
		FOR UPDATE OF t
	`, taskID, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	entry, err := fn(tx, task)
	if err != nil {
		return nil, err
	}

	entry.TaskID = task.ID
	entry.ChangedBy = actorID
	if err := s.logs.record(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.enqueueFanOut(ctx, projectID, task.ID, entry.Action, actorID)
	return task, nil
}

func (s *TaskService) requireAssignee(ctx context.Context, projectID, assignee uuid.UUID) error {
	ok, err := s.members.IsMember(ctx, projectID, assignee)
	if err != nil {
		return fmt.Errorf("failed to check assignee: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *TaskService) enqueueFanOut(ctx context.Context, projectID, taskID uuid.UUID, action models.TaskAction, actorID uuid.UUID) {
	if s.fanout == nil {
		return
	}
	job := queue.FanOutJob{ProjectID: projectID, TaskID: &taskID, Action: action, ActorID: actorID}
	if err := s.fanout.Enqueue(ctx, job); err != nil {
		logger.Error().Err(err).
			Str("project_id", projectID.String()).
			Str("task_id", taskID.String()).
			Str("action", string(action)).
			Msg("[Tasks] failed to enqueue fan-out")
	}
}

func applyUpdate(ctx context.Context, tx pgx.Tx, task *models.Task, set string, args ...any) error {
	err := tx.QueryRow(ctx, `
		UPDATE tasks SET `+set+`, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, append([]any{task.ID}, args...)...).Scan(&task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func snapshot(fields map[string]any) json.RawMessage {
	data, err := json.Marshal(fields)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
