package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenService(t *testing.T) (*TokenService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewTokenService(db), mock
}

func TestTokenService_StoreRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "hash", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.StoreRefreshToken(context.Background(), userID, "hash", expiresAt)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ValidateRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("hash").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))

	got, err := svc.ValidateRefreshToken(context.Background(), "hash")

	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenService_ValidateRefreshToken_Unknown(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs("hash").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.ValidateRefreshToken(context.Background(), "hash")

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Rotate(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("old", userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, "new", expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := svc.Rotate(context.Background(), userID, "old", "new", expiresAt)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_Rotate_ReusedToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs("old", userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := svc.Rotate(context.Background(), userID, "old", "new", time.Now())

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RevokeAllUserTokens(t *testing.T) {
	svc, mock := setupTokenService(t)
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, svc.RevokeAllUserTokens(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_CleanupExpired(t *testing.T) {
	svc, mock := setupTokenService(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	n, err := svc.CleanupExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
