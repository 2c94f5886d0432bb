package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// projectEnv serves the project-scoped routes behind the same auth and
// membership middleware the server uses, with every service mocked.
type projectEnv struct {
	t         *testing.T
	app       http.Handler
	members   *testutil.MockMembershipService
	projects  *testutil.MockProjectService
	tasks     *testutil.MockTaskService
	logs      *testutil.MockTaskLogService
	invites   *testutil.MockInviteService
	userID    uuid.UUID
	projectID uuid.UUID
	token     string
}

func newProjectEnv(t *testing.T, role models.Role) *projectEnv {
	t.Helper()
	jwtSvc := testutil.JWTService()
	e := &projectEnv{
		t:         t,
		members:   new(testutil.MockMembershipService),
		projects:  new(testutil.MockProjectService),
		tasks:     new(testutil.MockTaskService),
		logs:      new(testutil.MockTaskLogService),
		invites:   new(testutil.MockInviteService),
		userID:    uuid.New(),
		projectID: uuid.New(),
	}
	e.token = testutil.SessionToken(t, jwtSvc, e.userID, "member@example.com")
	e.members.On("ResolveRole", mock.Anything, e.projectID, e.userID).Return(role, nil)

	projectHandler := NewProjectHandler(e.projects, e.members)
	taskHandler := NewTaskHandler(e.tasks, e.logs)
	inviteHandler := NewInviteHandler(e.invites, 72*time.Hour)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Use(middleware.RequireProjectRole(e.members, models.AnyMember))
	app.Get("/projects/:projectId", projectHandler.Get)
	app.Patch("/projects/:projectId", projectHandler.Update)
	app.Delete("/projects/:projectId", projectHandler.Delete)
	app.Get("/projects/:projectId/members", projectHandler.ListMembers)
	app.Delete("/projects/:projectId/members/:userId", projectHandler.RemoveMember)
	app.Patch("/projects/:projectId/members/:userId", projectHandler.ChangeMemberRole)
	app.Post("/projects/:projectId/invites", inviteHandler.Create)
	app.Get("/projects/:projectId/tasks", taskHandler.List)
	app.Post("/projects/:projectId/tasks", taskHandler.Create)
	app.Get("/projects/:projectId/tasks/:taskId", taskHandler.Get)
	app.Patch("/projects/:projectId/tasks/:taskId", taskHandler.Update)
	app.Delete("/projects/:projectId/tasks/:taskId", taskHandler.Delete)
	app.Patch("/projects/:projectId/tasks/:taskId/status", taskHandler.ChangeStatus)
	app.Patch("/projects/:projectId/tasks/:taskId/priority", taskHandler.ChangePriority)
	app.Patch("/projects/:projectId/tasks/:taskId/assignee", taskHandler.Reassign)
	app.Get("/projects/:projectId/tasks/:taskId/logs", taskHandler.Logs)
	e.app = app

	return e
}

func (e *projectEnv) path(suffix string) string {
	return "/projects/" + e.projectID.String() + suffix
}

func (e *projectEnv) do(method, suffix string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	return testutil.DoJSON(e.t, e.app, method, e.path(suffix), e.token, body)
}

func (e *projectEnv) assertExpectations() {
	e.projects.AssertExpectations(e.t)
	e.tasks.AssertExpectations(e.t)
	e.logs.AssertExpectations(e.t)
	e.invites.AssertExpectations(e.t)
}

func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
