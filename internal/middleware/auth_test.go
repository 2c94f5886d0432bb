package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedApp(jwtSvc *services.JWTService, handler drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Auth(jwtSvc))
	if handler == nil {
		handler = func(c *drift.Context) {
			_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		}
	}
	app.Get("/protected", handler)
	return app
}

func TestAuth_RejectsBadHeaders(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing", "", "missing authorization header"},
		{"wrong scheme", "Token some-token", "invalid authorization header format"},
		{"scheme only", "Bearer", "invalid authorization header format"},
		{"garbage token", "Bearer invalid-token", "invalid or expired token"},
	}

	app := protectedApp(testutil.JWTService(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	jwtSvc := services.NewJWTService("test-secret-key", time.Millisecond, 24*time.Hour)
	token := testutil.SessionToken(t, jwtSvc, uuid.New(), "test@example.com")
	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedApp(jwtSvc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_WrongSecret(t *testing.T) {
	token := testutil.SessionToken(t, services.NewJWTService("secret-1", time.Minute, time.Hour), uuid.New(), "a@example.com")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedApp(services.NewJWTService("secret-2", time.Minute, time.Hour), nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InviteTokenIsNotASession(t *testing.T) {
	invites := services.NewInviteTokenService("test-secret-key", time.Hour)
	token, err := invites.Generate(uuid.New(), "u2@example.com", "developer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protectedApp(testutil.JWTService(), nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := testutil.JWTService()
	userID := uuid.New()
	token := testutil.SessionToken(t, jwtSvc, userID, "test@example.com")

	var gotID uuid.UUID
	var gotEmail string
	app := protectedApp(jwtSvc, func(c *drift.Context) {
		gotID = GetUserID(c)
		gotEmail = GetUserEmail(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		t.Run(scheme, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", scheme+" "+token)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, userID, gotID)
			assert.Equal(t, "test@example.com", gotEmail)
		})
	}
}

func TestGetUserID_NotSet(t *testing.T) {
	app := drift.New()

	gotID := uuid.New()
	gotEmail := "unset"
	app.Get("/test", func(c *drift.Context) {
		gotID = GetUserID(c)
		gotEmail = GetUserEmail(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, uuid.Nil, gotID)
	assert.Empty(t, gotEmail)
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = BearerToken("")
	assert.Error(t, err)
	_, err = BearerToken("Basic abc")
	assert.Error(t, err)
}
