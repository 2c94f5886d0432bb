package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/hub"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/queue"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type NotificationService struct {
	db       *database.DB
	members  *MembershipService
	channels ChannelRegistry
}

func NewNotificationService(db *database.DB, members *MembershipService, channels ChannelRegistry) *NotificationService {
	return &NotificationService{db: db, members: members, channels: channels}
}

// FanOut stores one unread notification per current member of the project and
// then publishes a compact event on the project channel. It returns the number
// of rows created.
func (s *NotificationService) FanOut(ctx context.Context, projectID uuid.UUID, taskID *uuid.UUID, action models.TaskAction) (int64, error) {
	members, err := s.members.ListMembers(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list members: %w", err)
	}

	var created int64
	if len(members) > 0 {
		rows := make([][]any, 0, len(members))
		for _, m := range members {
			rows = append(rows, []any{projectID, taskID, m.UserID, action})
		}

		created, err = s.db.Pool.CopyFrom(ctx,
			pgx.Identifier{"notifications"},
			[]string{"project_id", "task_id", "user_id", "action"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert notifications: %w", err)
		}
	}

	if s.channels == nil {
		logger.Debug().Str("project_id", projectID.String()).Msg("[FanOut] no channel registry, skipping publish")
		return created, nil
	}

	s.channels.PublishToProject(projectID, hub.Event{
		Type: hub.EventProjectNotification,
		Data: hub.NotificationData{Project: projectID, Task: taskID, Action: string(action)},
	})
	return created, nil
}

// HandleFanOut adapts FanOut to the queue handler signature.
func (s *NotificationService) HandleFanOut(ctx context.Context, job queue.FanOutJob) error {
	n, err := s.FanOut(ctx, job.ProjectID, job.TaskID, job.Action)
	if err != nil {
		return err
	}
	logger.Debug().
		Str("project_id", job.ProjectID.String()).
		Str("action", string(job.Action)).
		Int64("notifications", n).
		Msg("[FanOut] delivered")
	return nil
}

// notificationSelect expands the project name and task title. Soft-deleted
// projects and tasks still label their notifications.
const notificationSelect = `SELECT n.id, n.project_id, n.task_id, n.user_id, n.action, n.is_read, n.created_at,
		       p.name, t.title
		FROM notifications n
		JOIN projects p ON p.id = n.project_id
		LEFT JOIN tasks t ON t.id = n.task_id`

func (s *NotificationService) ListAll(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.list(ctx, `
		`+notificationSelect+`
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
	`, userID)
}

func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.list(ctx, `
		`+notificationSelect+`
		WHERE n.user_id = $1 AND n.is_read = FALSE
		ORDER BY n.created_at DESC
	`, userID)
}

// MarkAllRead flags every unread notification of the user and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *NotificationService) list(ctx context.Context, query string, userID uuid.UUID) ([]models.Notification, error) {
	rows, err := s.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.ProjectID, &n.TaskID, &n.UserID, &n.Action, &n.IsRead, &n.CreatedAt,
			&n.ProjectName, &n.TaskTitle,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
