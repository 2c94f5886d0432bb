package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/dimitrije/taskhub-api/tests/testutil"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInviteHandler_Create(t *testing.T) {
	e := newProjectEnv(t, models.RoleManager)
	e.invites.On("Issue", mock.Anything, e.projectID, e.userID, "u2@example.com", models.RoleDeveloper).Return("tok", nil)
	e.invites.On("AcceptURL", "tok").Return("http://api.local/api/v1/invites/tok/accept")

	rec := e.do(http.MethodPost, "/invites", dto.CreateInviteRequest{Email: "u2@example.com", Role: models.RoleDeveloper})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.InviteResponse
	testutil.DecodeJSON(t, rec, &resp)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "http://api.local/api/v1/invites/tok/accept", resp.AcceptURL)
	assert.Equal(t, int64(72*3600), resp.ExpiresIn)
	e.assertExpectations()
}

func TestInviteHandler_Create_DeveloperForbidden(t *testing.T) {
	e := newProjectEnv(t, models.RoleDeveloper)
	e.invites.On("Issue", mock.Anything, e.projectID, e.userID, "u2@example.com", models.RoleDeveloper).
		Return("", services.ErrForbidden)

	rec := e.do(http.MethodPost, "/invites", dto.CreateInviteRequest{Email: "u2@example.com", Role: models.RoleDeveloper})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func setupPublicInviteTest(t *testing.T) (*testutil.MockInviteService, http.Handler) {
	t.Helper()
	invites := new(testutil.MockInviteService)
	handler := NewInviteHandler(invites, 0)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Post("/invites/redeem", handler.Redeem)
	app.Get("/invites/:token/accept", handler.Accept)
	return invites, app
}

func TestInviteHandler_Redeem(t *testing.T) {
	tests := []struct {
		name     string
		result   *services.RedeemResult
		err      error
		wantCode int
		wantBody string
	}{
		{"accepted", &services.RedeemResult{Accepted: true}, nil, http.StatusOK, `{"accepted":true,"requires_registration":false}`},
		{"needs registration", &services.RedeemResult{RequiresRegistration: true}, nil, http.StatusOK, `{"accepted":false,"requires_registration":true}`},
		{"expired", nil, services.ErrInvalidToken, http.StatusBadRequest, ""},
		{"project gone", nil, services.ErrProjectNotFound, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invites, app := setupPublicInviteTest(t)
			invites.On("Redeem", mock.Anything, "tok").Return(tt.result, tt.err)

			rec := testutil.DoJSON(t, app, http.MethodPost, "/invites/redeem", "", dto.RedeemInviteRequest{Token: "tok"})

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestInviteHandler_Redeem_MissingToken(t *testing.T) {
	invites, app := setupPublicInviteTest(t)

	rec := testutil.DoJSON(t, app, http.MethodPost, "/invites/redeem", "", dto.RedeemInviteRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	invites.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything)
}

func TestInviteHandler_Accept(t *testing.T) {
	tests := []struct {
		name     string
		result   *services.RedeemResult
		err      error
		wantCode int
		wantText string
	}{
		{"joined", &services.RedeemResult{Accepted: true}, nil, http.StatusOK, "You have joined the project!"},
		{"register first", &services.RedeemResult{RequiresRegistration: true}, nil, http.StatusOK, "Create an account"},
		{"invalid", nil, services.ErrInvalidToken, http.StatusBadRequest, "invalid or has expired"},
		{"project gone", nil, services.ErrProjectNotFound, http.StatusBadRequest, "no longer exists"},
		{"store failure", nil, errors.New("boom"), http.StatusBadRequest, "Failed to accept invite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invites, app := setupPublicInviteTest(t)
			invites.On("Redeem", mock.Anything, "tok").Return(tt.result, tt.err)

			rec := testutil.DoJSON(t, app, http.MethodGet, "/invites/tok/accept", "", nil)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		})
	}
}
