package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMembershipService(t *testing.T) (*MembershipService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewMembershipService(db), mock
}

// expectRole queues the role lookup issued by ResolveRole/RequireRole.
func expectRole(mock pgxmock.PgxPoolIface, projectID, userID uuid.UUID, role models.Role) {
	mock.ExpectQuery(`SELECT pm.role FROM project_members pm`).
		WithArgs(projectID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(role))
}

func expectNoRole(mock pgxmock.PgxPoolIface, projectID, userID uuid.UUID) {
	mock.ExpectQuery(`SELECT pm.role FROM project_members pm`).
		WithArgs(projectID, userID).
		WillReturnError(pgx.ErrNoRows)
}

func TestMembershipService_ResolveRole(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()

	expectRole(mock, projectID, userID, models.RoleManager)

	role, err := svc.ResolveRole(context.Background(), projectID, userID)

	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipService_ResolveRole_NotMemberOrDeletedProject(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()

	expectNoRole(mock, projectID, userID)

	_, err := svc.ResolveRole(context.Background(), projectID, userID)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipService_ResolveRole_DatabaseError(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT pm.role FROM project_members pm`).
		WithArgs(projectID, userID).
		WillReturnError(assert.AnError)

	_, err := svc.ResolveRole(context.Background(), projectID, userID)

	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMembershipService_RequireRole(t *testing.T) {
	tests := []struct {
		name      string
		role      models.Role
		allowed   models.RoleSet
		forbidden bool
	}{
		{"admin passes admin only", models.RoleAdmin, models.AdminOnly, false},
		{"manager fails admin only", models.RoleManager, models.AdminOnly, true},
		{"manager passes admin or manager", models.RoleManager, models.AdminOrManager, false},
		{"developer fails admin or manager", models.RoleDeveloper, models.AdminOrManager, true},
		{"developer passes any member", models.RoleDeveloper, models.AnyMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock := setupMembershipService(t)
			projectID, userID := uuid.New(), uuid.New()
			expectRole(mock, projectID, userID, tt.role)

			role, err := svc.RequireRole(context.Background(), projectID, userID, tt.allowed)

			if tt.forbidden {
				assert.ErrorIs(t, err, ErrForbidden)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.role, role)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMembershipService_RequireRole_NotMember(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()
	expectNoRole(mock, projectID, userID)

	_, err := svc.RequireRole(context.Background(), projectID, userID, models.AnyMember)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestMembershipService_ListMembers(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID := uuid.New()
	now := time.Now()
	u1, u2 := uuid.New(), uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "project_id", "user_id", "role", "created_at",
		"u_id", "email", "name", "u_created_at", "updated_at",
	}).
		AddRow(uuid.New(), projectID, u1, models.RoleAdmin, now, u1, "a@example.com", "Alice", now, now).
		AddRow(uuid.New(), projectID, u2, models.RoleDeveloper, now, u2, "b@example.com", "Bob", now, now)

	mock.ExpectQuery(`SELECT .+ FROM project_members pm JOIN users u`).
		WithArgs(projectID).
		WillReturnRows(rows)

	members, err := svc.ListMembers(context.Background(), projectID)

	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, models.RoleAdmin, members[0].Role)
	assert.Equal(t, "Bob", members[1].User.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipService_ListUserProjectIDs(t *testing.T) {
	svc, mock := setupMembershipService(t)
	userID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT pm.project_id FROM project_members pm`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"project_id"}).AddRow(p1).AddRow(p2))

	ids, err := svc.ListUserProjectIDs(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p1, p2}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipService_AddMember(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs(projectID, userID, models.RoleDeveloper).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	added, err := svc.AddMember(context.Background(), projectID, userID, models.RoleDeveloper)

	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipService_AddMember_AlreadyMember(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO project_members`).
		WithArgs(projectID, userID, models.RoleManager).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	added, err := svc.AddMember(context.Background(), projectID, userID, models.RoleManager)

	require.NoError(t, err)
	assert.False(t, added)
}

func TestMembershipService_IsMember(t *testing.T) {
	svc, mock := setupMembershipService(t)
	projectID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(projectID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := svc.IsMember(context.Background(), projectID, userID)

	require.NoError(t, err)
	assert.True(t, ok)
}
