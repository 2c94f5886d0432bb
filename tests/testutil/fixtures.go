package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plain password of every fixture user.
const DefaultPassword = "password123"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
	hash    string
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

func (f *Fixtures) passwordHash(t *testing.T) string {
	t.Helper()
	if f.hash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		f.hash = string(hash)
	}
	return f.hash
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", f.counter),
		Name:         fmt.Sprintf("Test User %d", f.counter),
		PasswordHash: f.passwordHash(t),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.PasswordHash).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateProject creates a test project with the owner as its admin
func (f *Fixtures) CreateProject(t *testing.T, owner *models.User, opts ...ProjectOption) *models.Project {
	t.Helper()
	f.counter++

	project := &models.Project{
		Name:    fmt.Sprintf("Test Project %d", f.counter),
		OwnerID: owner.ID,
	}

	for _, opt := range opts {
		opt(project)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, project.Name, project.Description, project.OwnerID).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
	`, project.ID, owner.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to add owner as admin: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return project
}

// ProjectOption configures a test project
type ProjectOption func(*models.Project)

// WithProjectName sets the project's name
func WithProjectName(name string) ProjectOption {
	return func(p *models.Project) {
		p.Name = name
	}
}

// AddMember adds a user to a project with the given role
func (f *Fixtures) AddMember(t *testing.T, project *models.Project, user *models.User, role models.Role) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, project.ID, user.ID, role)
	if err != nil {
		t.Fatalf("failed to add project member: %v", err)
	}
}

// CreateTask inserts a pending, medium-priority task without an audit entry
func (f *Fixtures) CreateTask(t *testing.T, project *models.Project, creator *models.User) *models.Task {
	t.Helper()
	f.counter++

	task := &models.Task{
		ProjectID: project.ID,
		Title:     fmt.Sprintf("Test Task %d", f.counter),
		Status:    models.TaskStatusPending,
		Priority:  models.TaskPriorityMedium,
		CreatedBy: creator.ID,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, task.ProjectID, task.Title, task.Description, task.Status, task.Priority, task.CreatedBy).
		Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}
