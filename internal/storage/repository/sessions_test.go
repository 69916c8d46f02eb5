package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairaware/fair-aware/internal/models"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return &Storage{DB: db}, mock
}

func TestStorage_GetSessionWithUser_Mapping(t *testing.T) {
	storage, mock := newMockStorage(t)

	sessionColumns := []string{
		"id", "user_id", "secret_hash", "last_verified_at", "created_at",
		"email", "name", "role", "status",
	}

	tests := []struct {
		name      string
		sessionID string
		rows      *sqlmock.Rows
		wantErr   error
		wantName  *string
		check     func(t *testing.T, got *models.SessionUser)
	}{
		{
			name:      "maps joined row",
			sessionID: "abcdefghijkmnpqrstuvwxyz",
			rows: sqlmock.NewRows(sessionColumns).AddRow(
				"abcdefghijkmnpqrstuvwxyz", "9b2f2f4e-0000-0000-0000-000000000001",
				[]byte{1, 2, 3}, int64(1000), int64(900),
				"admin@example.com", "Alex", models.RoleAdmin, models.StatusActive,
			),
			check: func(t *testing.T, got *models.SessionUser) {
				assert.Equal(t, "abcdefghijkmnpqrstuvwxyz", got.Session.ID)
				assert.Equal(t, got.Session.UserID, got.User.ID)
				assert.Equal(t, []byte{1, 2, 3}, got.Session.SecretHash)
				assert.Equal(t, int64(1000), got.Session.LastVerifiedAt)
				require.NotNil(t, got.User.Name)
				assert.Equal(t, "Alex", *got.User.Name)
			},
		},
		{
			name:      "null name stays nil",
			sessionID: "abcdefghijkmnpqrstuvwxyz",
			rows: sqlmock.NewRows(sessionColumns).AddRow(
				"abcdefghijkmnpqrstuvwxyz", "9b2f2f4e-0000-0000-0000-000000000001",
				[]byte{1}, int64(1000), int64(900),
				"admin@example.com", nil, models.RoleAdmin, models.StatusActive,
			),
			check: func(t *testing.T, got *models.SessionUser) {
				assert.Nil(t, got.User.Name)
			},
		},
		{
			name:      "missing row maps to ErrNotFound",
			sessionID: "zzzzzzzzzzzzzzzzzzzzzzzz",
			rows:      sqlmock.NewRows(sessionColumns),
			wantErr:   ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.ExpectQuery("SELECT s.id, s.user_id, s.secret_hash").
				WithArgs(tt.sessionID).
				WillReturnRows(tt.rows)

			got, err := storage.GetSessionWithUser(context.Background(), tt.sessionID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStorage_CreateSession(t *testing.T) {
	storage, mock := newMockStorage(t)

	session := models.Session{
		ID:             "abcdefghijkmnpqrstuvwxyz",
		UserID:         "9b2f2f4e-0000-0000-0000-000000000001",
		SecretHash:     []byte{1, 2, 3},
		LastVerifiedAt: 1000,
		CreatedAt:      1000,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_sessions`)).
		WithArgs(session.ID, session.UserID, session.SecretHash,
			session.LastVerifiedAt, session.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, storage.CreateSession(context.Background(), session))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_CreateSession_CancelledContext(t *testing.T) {
	storage, _ := newMockStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := storage.CreateSession(ctx, models.Session{ID: "abcdefghijkmnpqrstuvwxyz"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStorage_UpdateSessionLastVerified(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE user_sessions SET last_verified_at = $1 WHERE id = $2`)).
		WithArgs(int64(2000), "abcdefghijkmnpqrstuvwxyz").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := storage.UpdateSessionLastVerified(context.Background(), "abcdefghijkmnpqrstuvwxyz", 2000)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_DeleteSession_NoRowsIsOK(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_sessions WHERE id = $1`)).
		WithArgs("zzzzzzzzzzzzzzzzzzzzzzzz").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := storage.DeleteSession(context.Background(), "zzzzzzzzzzzzzzzzzzzzzzzz")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_DeleteSessionsByUser(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_sessions WHERE user_id = $1`)).
		WithArgs("9b2f2f4e-0000-0000-0000-000000000001").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := storage.DeleteSessionsByUser(context.Background(), "9b2f2f4e-0000-0000-0000-000000000001")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
