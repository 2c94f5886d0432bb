package handlers

import (
	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) ListAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notifications, err := h.notificationService.ListAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list notifications")
		return
	}

	_ = c.JSON(200, notificationList(notifications))
}

func (h *NotificationHandler) ListUnread(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notifications, err := h.notificationService.ListUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to list notifications")
		return
	}

	_ = c.JSON(200, notificationList(notifications))
}

func (h *NotificationHandler) MarkAllRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}

	_ = c.JSON(200, dto.MarkReadResponse{Updated: updated})
}

func notificationList(notifications []models.Notification) dto.NotificationListResponse {
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return dto.NotificationListResponse{Notifications: notifications, Count: len(notifications)}
}
