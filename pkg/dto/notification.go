package dto

import "github.com/dimitrije/taskhub-api/internal/models"

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Count         int                   `json:"count"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
