package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/taskhub-api/internal/hub"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	Rotate(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateAccessToken(token string) (*services.Claims, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// MembershipServiceInterface defines the methods used by handlers from MembershipService
type MembershipServiceInterface interface {
	ResolveRole(ctx context.Context, projectID, userID uuid.UUID) (models.Role, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error)
	ListUserProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// ProjectServiceInterface defines the methods used by handlers from ProjectService
type ProjectServiceInterface interface {
	Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*models.Project, error)
	GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, []models.Role, error)
	Update(ctx context.Context, projectID, actorID uuid.UUID, name, description *string) (*models.Project, error)
	Delete(ctx context.Context, projectID, actorID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, actorID, memberID uuid.UUID) error
	ChangeMemberRole(ctx context.Context, projectID, actorID, memberID uuid.UUID, role models.Role) error
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	Create(ctx context.Context, projectID, actorID uuid.UUID, input services.CreateTaskInput) (*models.Task, error)
	UpdateDetails(ctx context.Context, projectID, taskID, actorID uuid.UUID, input services.UpdateTaskInput) (*models.Task, error)
	ChangeStatus(ctx context.Context, projectID, taskID, actorID uuid.UUID, status models.TaskStatus) (*models.Task, error)
	ChangePriority(ctx context.Context, projectID, taskID, actorID uuid.UUID, priority models.TaskPriority) (*models.Task, error)
	Reassign(ctx context.Context, projectID, taskID, actorID uuid.UUID, assignee *uuid.UUID) (*models.Task, error)
	Delete(ctx context.Context, projectID, taskID, actorID uuid.UUID) error
}

// TaskLogServiceInterface defines the methods used by handlers from TaskLogService
type TaskLogServiceInterface interface {
	ListForTask(ctx context.Context, projectID, taskID uuid.UUID) ([]models.TaskLog, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	ListAll(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// InviteServiceInterface defines the methods used by handlers from InviteService
type InviteServiceInterface interface {
	Issue(ctx context.Context, projectID, inviterID uuid.UUID, email string, role models.Role) (string, error)
	Redeem(ctx context.Context, token string) (*services.RedeemResult, error)
	AcceptURL(token string) string
}

// HubInterface defines the methods used by the live transports from the Hub
type HubInterface interface {
	Register(client *hub.Client)
	Unregister(client *hub.Client)
	Join(clientID string, projectIDs []uuid.UUID)
}
