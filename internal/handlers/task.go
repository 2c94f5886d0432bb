package handlers

import (
	"strings"

	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type TaskHandler struct {
	taskService    TaskServiceInterface
	taskLogService TaskLogServiceInterface
}

func NewTaskHandler(taskService TaskServiceInterface, taskLogService TaskLogServiceInterface) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		taskLogService: taskLogService,
	}
}

func taskIDParam(c *drift.Context) (uuid.UUID, bool) {
	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		c.BadRequest("invalid task id")
		return uuid.Nil, false
	}
	return taskID, true
}

func (h *TaskHandler) List(c *drift.Context) {
	tasks, err := h.taskService.ListByProject(c.Request.Context(), middleware.GetProjectID(c))
	if err != nil {
		respondError(c, err, "failed to list tasks")
		return
	}

	_ = c.JSON(200, tasks)
}

func (h *TaskHandler) Get(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(c.Request.Context(), middleware.GetProjectID(c), taskID)
	if err != nil {
		respondError(c, err, "failed to get task")
		return
	}

	_ = c.JSON(200, task)
}

func (h *TaskHandler) Create(c *drift.Context) {
	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		c.BadRequest("title is required")
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.GetProjectID(c), middleware.GetUserID(c), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err, "failed to create task")
		return
	}

	_ = c.JSON(201, task)
}

func (h *TaskHandler) Update(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	task, err := h.taskService.UpdateDetails(c.Request.Context(), middleware.GetProjectID(c), taskID, middleware.GetUserID(c), services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "failed to update task")
		return
	}

	_ = c.JSON(200, task)
}

func (h *TaskHandler) ChangeStatus(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	task, err := h.taskService.ChangeStatus(c.Request.Context(), middleware.GetProjectID(c), taskID, middleware.GetUserID(c), req.Status)
	if err != nil {
		respondError(c, err, "failed to change task status")
		return
	}

	_ = c.JSON(200, task)
}

func (h *TaskHandler) ChangePriority(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req dto.ChangePriorityRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	task, err := h.taskService.ChangePriority(c.Request.Context(), middleware.GetProjectID(c), taskID, middleware.GetUserID(c), req.Priority)
	if err != nil {
		respondError(c, err, "failed to change task priority")
		return
	}

	_ = c.JSON(200, task)
}

func (h *TaskHandler) Reassign(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req dto.ReassignRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	task, err := h.taskService.Reassign(c.Request.Context(), middleware.GetProjectID(c), taskID, middleware.GetUserID(c), req.AssignedTo)
	if err != nil {
		respondError(c, err, "failed to reassign task")
		return
	}

	_ = c.JSON(200, task)
}

func (h *TaskHandler) Delete(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), middleware.GetProjectID(c), taskID, middleware.GetUserID(c)); err != nil {
		respondError(c, err, "failed to delete task")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task deleted"})
}

// Logs returns the audit trail of a task, newest first.
func (h *TaskHandler) Logs(c *drift.Context) {
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	logs, err := h.taskLogService.ListForTask(c.Request.Context(), middleware.GetProjectID(c), taskID)
	if err != nil {
		respondError(c, err, "failed to list task logs")
		return
	}

	_ = c.JSON(200, dto.TaskLogListResponse{Logs: logs})
}
