package dto

import (
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	AssignedTo  *uuid.UUID          `json:"assigned_to"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type ChangeStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

type ChangePriorityRequest struct {
	Priority models.TaskPriority `json:"priority"`
}

// ReassignRequest moves the task to AssignedTo, which must be a project member.
type ReassignRequest struct {
	AssignedTo *uuid.UUID `json:"assigned_to"`
}

type TaskLogListResponse struct {
	Logs []models.TaskLog `json:"logs"`
}
