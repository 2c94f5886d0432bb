package services

import (
	"github.com/dimitrije/taskhub-api/internal/hub"
	"github.com/google/uuid"
)

// ChannelRegistry is the live-connection side of the pipeline. A nil registry
// means no real-time delivery is available; callers skip it.
type ChannelRegistry interface {
	PublishToProject(projectID uuid.UUID, event hub.Event)
	JoinProject(userID, projectID uuid.UUID)
	LeaveProject(userID, projectID uuid.UUID)
	CloseProject(projectID uuid.UUID)
}
