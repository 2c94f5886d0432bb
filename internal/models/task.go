package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `json:"id"`
	ProjectID   uuid.UUID    `json:"project_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	AssignedTo  *uuid.UUID   `json:"assigned_to,omitempty"`
	CreatedBy   uuid.UUID    `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assignee    *UserSummary `json:"assignee,omitempty"`
	Creator     *UserSummary `json:"creator,omitempty"`
}

// TaskAction names a state transition recorded in the audit trail and carried
// by notifications.
type TaskAction string

const (
	TaskActionCreated         TaskAction = "created"
	TaskActionUpdated         TaskAction = "updated"
	TaskActionStatusChanged   TaskAction = "status_changed"
	TaskActionPriorityChanged TaskAction = "priority_changed"
	TaskActionAssigned        TaskAction = "assigned"
	TaskActionDeleted         TaskAction = "deleted"
)

// TaskLog is an immutable audit entry. Only the fields relevant to Action are set.
type TaskLog struct {
	ID               uuid.UUID       `json:"id"`
	TaskID           uuid.UUID       `json:"task_id"`
	Action           TaskAction      `json:"action"`
	PreviousStatus   *TaskStatus     `json:"previous_status,omitempty"`
	NewStatus        *TaskStatus     `json:"new_status,omitempty"`
	PreviousPriority *TaskPriority   `json:"previous_priority,omitempty"`
	NewPriority      *TaskPriority   `json:"new_priority,omitempty"`
	PreviousAssignee *uuid.UUID      `json:"previous_assignee_id,omitempty"`
	NewAssignee      *uuid.UUID      `json:"new_assignee_id,omitempty"`
	ChangedBy        uuid.UUID       `json:"changed_by_id"`
	Changes          json.RawMessage `json:"changes"`
	CreatedAt        time.Time       `json:"created_at"`

	ChangedByUser        *UserSummary `json:"changed_by,omitempty"`
	PreviousAssigneeUser *UserSummary `json:"previous_assignee,omitempty"`
	NewAssigneeUser      *UserSummary `json:"new_assignee,omitempty"`
}

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	ProjectID uuid.UUID  `json:"project_id"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	UserID    uuid.UUID  `json:"user_id"`
	Action    TaskAction `json:"action"`
	IsRead    bool       `json:"is_read"`
	CreatedAt time.Time  `json:"created_at"`

	ProjectName string  `json:"project_name"`
	TaskTitle   *string `json:"task_title,omitempty"`
}
