package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/taskhub-api/internal/hub"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	args := m.Called(ctx, email, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) Rotate(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, oldHash, newHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateAccessToken(token string) (*services.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Claims), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockMembershipService mocks the MembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) ResolveRole(ctx context.Context, projectID, userID uuid.UUID) (models.Role, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *MockMembershipService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectMember), args.Error(1)
}

func (m *MockMembershipService) ListUserProjectIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockProjectService mocks the ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, name, description, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) GetByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, []models.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]models.Project), args.Get(1).([]models.Role), args.Error(2)
}

func (m *MockProjectService) Update(ctx context.Context, projectID, actorID uuid.UUID, name, description *string) (*models.Project, error) {
	args := m.Called(ctx, projectID, actorID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, projectID, actorID uuid.UUID) error {
	args := m.Called(ctx, projectID, actorID)
	return args.Error(0)
}

func (m *MockProjectService) RemoveMember(ctx context.Context, projectID, actorID, memberID uuid.UUID) error {
	args := m.Called(ctx, projectID, actorID, memberID)
	return args.Error(0)
}

func (m *MockProjectService) ChangeMemberRole(ctx context.Context, projectID, actorID, memberID uuid.UUID, role models.Role) error {
	args := m.Called(ctx, projectID, actorID, memberID, role)
	return args.Error(0)
}

// MockTaskService mocks the TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) task(args mock.Arguments) (*models.Task, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*models.Task, error) {
	return m.task(m.Called(ctx, projectID, taskID))
}

func (m *MockTaskService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, projectID, actorID uuid.UUID, input services.CreateTaskInput) (*models.Task, error) {
	return m.task(m.Called(ctx, projectID, actorID, input))
}

func (m *MockTaskService) UpdateDetails(ctx context.Context, projectID, taskID, actorID uuid.UUID, input services.UpdateTaskInput) (*models.Task, error) {
	return m.task(m.Called(ctx, projectID, taskID, actorID, input))
}

func (m *MockTaskService) ChangeStatus(ctx context.Context, projectID, taskID, actorID uuid.UUID, status models.TaskStatus) (*models.Task, error) {
	return m.task(m.Called(ctx, projectID, taskID, actorID, status))
}

func (m *MockTaskService) ChangePriority(ctx context.Context, projectID, taskID, actorID uuid.UUID, priority models.TaskPriority) (*models.Task, error) {
	return m.task(m.Called(ctx, projectID, taskID, actorID, priority))
}

func (m *MockTaskService) Reassign(ctx context.Context, projectID, taskID, actorID uuid.UUID, assignee *uuid.UUID) (*models.Task, error) {
	return m.task(m.Called(ctx, projectID, taskID, actorID, assignee))
}

func (m *MockTaskService) Delete(ctx context.Context, projectID, taskID, actorID uuid.UUID) error {
	args := m.Called(ctx, projectID, taskID, actorID)
	return args.Error(0)
}

// MockTaskLogService mocks the TaskLogService
type MockTaskLogService struct {
	mock.Mock
}

func (m *MockTaskLogService) ListForTask(ctx context.Context, projectID, taskID uuid.UUID) ([]models.TaskLog, error) {
	args := m.Called(ctx, projectID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TaskLog), args.Error(1)
}

// MockNotificationService mocks the NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListAll(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockInviteService mocks the InviteService
type MockInviteService struct {
	mock.Mock
}

func (m *MockInviteService) Issue(ctx context.Context, projectID, inviterID uuid.UUID, email string, role models.Role) (string, error) {
	args := m.Called(ctx, projectID, inviterID, email, role)
	return args.String(0), args.Error(1)
}

func (m *MockInviteService) Redeem(ctx context.Context, token string) (*services.RedeemResult, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RedeemResult), args.Error(1)
}

func (m *MockInviteService) AcceptURL(token string) string {
	args := m.Called(token)
	return args.String(0)
}

// MockHub mocks the live connection hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Join(clientID string, projectIDs []uuid.UUID) {
	m.Called(clientID, projectIDs)
}
