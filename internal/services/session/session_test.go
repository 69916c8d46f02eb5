package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairaware/fair-aware/internal/lib/token"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateSession(ctx context.Context, session models.Session) error {
	return m.Called(ctx, session).Error(0)
}
func (m *RepoMock) GetSessionWithUser(ctx context.Context, sessionID string) (*models.SessionUser, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionUser), args.Error(1)
}
func (m *RepoMock) UpdateSessionLastVerified(ctx context.Context, sessionID string, timestamp int64) error {
	return m.Called(ctx, sessionID, timestamp).Error(0)
}
func (m *RepoMock) DeleteSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}
func (m *RepoMock) DeleteSessionsByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func newTestService(repo *RepoMock, now int64) *Service {
	svc := New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() int64 { return now }
	return svc
}

func storedSession(t *testing.T, compositeToken string, lastVerifiedAt int64) *models.SessionUser {
	t.Helper()
	id, secret, ok := splitToken(compositeToken)
	require.True(t, ok)
	return &models.SessionUser{
		Session: models.Session{
			ID:             id,
			UserID:         "user-1",
			SecretHash:     token.HashSecret(secret),
			LastVerifiedAt: lastVerifiedAt,
			CreatedAt:      lastVerifiedAt,
		},
		User: models.User{
			ID:     "user-1",
			Email:  "admin@example.com",
			Role:   models.RoleAdmin,
			Status: models.StatusActive,
		},
	}
}

func TestService_Create(t *testing.T) {
	repo := new(RepoMock)
	svc := newTestService(repo, 5000)

	var saved models.Session
	repo.On("CreateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
		saved = s
		return s.UserID == "user-1"
	})).Return(nil)

	compositeToken, err := svc.Create(context.Background(), "user-1")
	require.NoError(t, err)

	id, secret, found := strings.Cut(compositeToken, ".")
	require.True(t, found)
	assert.Len(t, id, token.SessionIDLength)
	assert.Len(t, secret, token.SessionIDLength)

	assert.Equal(t, id, saved.ID)
	assert.Equal(t, token.HashSecret(secret), saved.SecretHash)
	assert.Equal(t, int64(5000), saved.LastVerifiedAt)
	assert.Equal(t, int64(5000), saved.CreatedAt)
	repo.AssertExpectations(t)
}

func TestService_Validate(t *testing.T) {
	validToken := strings.Repeat("a", token.SessionIDLength) + "." + strings.Repeat("b", token.SessionIDLength)
	sessionID := strings.Repeat("a", token.SessionIDLength)

	tests := []struct {
		name    string
		token   string
		now     int64
		setup   func(repo *RepoMock, t *testing.T)
		wantErr error
		check   func(t *testing.T, got *models.SessionUser)
	}{
		{
			name:  "valid session without refresh",
			token: validToken,
			now:   1000 + RefreshInterval - 1,
			setup: func(repo *RepoMock, t *testing.T) {
				repo.On("GetSessionWithUser", mock.Anything, sessionID).
					Return(storedSession(t, validToken, 1000), nil)
			},
			check: func(t *testing.T, got *models.SessionUser) {
				assert.Equal(t, "admin@example.com", got.User.Email)
				assert.Equal(t, int64(1000), got.Session.LastVerifiedAt)
			},
		},
		{
			name:  "refresh after interval",
			token: validToken,
			now:   1000 + RefreshInterval,
			setup: func(repo *RepoMock, t *testing.T) {
				repo.On("GetSessionWithUser", mock.Anything, sessionID).
					Return(storedSession(t, validToken, 1000), nil)
				repo.On("UpdateSessionLastVerified", mock.Anything, sessionID, int64(1000+RefreshInterval)).
					Return(nil)
			},
			check: func(t *testing.T, got *models.SessionUser) {
				assert.Equal(t, int64(1000+RefreshInterval), got.Session.LastVerifiedAt)
			},
		},
		{
			name:  "refresh failure is not fatal",
			token: validToken,
			now:   1000 + RefreshInterval,
			setup: func(repo *RepoMock, t *testing.T) {
				repo.On("GetSessionWithUser", mock.Anything, sessionID).
					Return(storedSession(t, validToken, 1000), nil)
				repo.On("UpdateSessionLastVerified", mock.Anything, sessionID, mock.Anything).
					Return(errors.New("db down"))
			},
			check: func(t *testing.T, got *models.SessionUser) {
				assert.Equal(t, int64(1000), got.Session.LastVerifiedAt)
			},
		},
		{
			name:  "expired session is deleted",
			token: validToken,
			now:   1000 + InactivityTimeout,
			setup: func(repo *RepoMock, t *testing.T) {
				repo.On("GetSessionWithUser", mock.Anything, sessionID).
					Return(storedSession(t, validToken, 1000), nil)
				repo.On("DeleteSession", mock.Anything, sessionID).Return(nil)
			},
			wantErr: ErrInvalidSession,
		},
		{
			name:  "secret mismatch",
			token: sessionID + "." + strings.Repeat("c", token.SessionIDLength),
			now:   2000,
			setup: func(repo *RepoMock, t *testing.T) {
				repo.On("GetSessionWithUser", mock.Anything, sessionID).
					Return(storedSession(t, validToken, 1000), nil)
			},
			wantErr: ErrInvalidSession,
		},
		{
			name:    "unknown session",
			token:   validToken,
			now:     2000,
			setup: func(repo *RepoMock, t *testing.T) {
				repo.On("GetSessionWithUser", mock.Anything, sessionID).
					Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrInvalidSession,
		},
		{
			name:    "malformed token without separator",
			token:   strings.Repeat("a", 48),
			now:     2000,
			setup:   func(repo *RepoMock, t *testing.T) {},
			wantErr: ErrInvalidSession,
		},
		{
			name:    "malformed token with short secret",
			token:   sessionID + ".short",
			now:     2000,
			setup:   func(repo *RepoMock, t *testing.T) {},
			wantErr: ErrInvalidSession,
		},
		{
			name:    "empty token",
			token:   "",
			now:     2000,
			setup:   func(repo *RepoMock, t *testing.T) {},
			wantErr: ErrInvalidSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setup(repo, t)
			svc := newTestService(repo, tt.now)

			got, err := svc.Validate(context.Background(), tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.check(t, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Validate_ExpiryBoundary(t *testing.T) {
	validToken := strings.Repeat("a", token.SessionIDLength) + "." + strings.Repeat("b", token.SessionIDLength)
	sessionID := strings.Repeat("a", token.SessionIDLength)

	// За секунду до порога сессия еще жива.
	repo := new(RepoMock)
	repo.On("GetSessionWithUser", mock.Anything, sessionID).
		Return(storedSession(t, validToken, 1000), nil)
	repo.On("UpdateSessionLastVerified", mock.Anything, sessionID, mock.Anything).Return(nil)

	svc := newTestService(repo, 1000+InactivityTimeout-1)
	_, err := svc.Validate(context.Background(), validToken)
	require.NoError(t, err)
	repo.AssertNotCalled(t, "DeleteSession", mock.Anything, mock.Anything)
}

func TestService_Invalidate(t *testing.T) {
	validToken := strings.Repeat("a", token.SessionIDLength) + "." + strings.Repeat("b", token.SessionIDLength)
	sessionID := strings.Repeat("a", token.SessionIDLength)

	t.Run("deletes session by token", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("DeleteSession", mock.Anything, sessionID).Return(nil)

		svc := newTestService(repo, 1000)
		require.NoError(t, svc.Invalidate(context.Background(), validToken))
		repo.AssertExpectations(t)
	})

	t.Run("malformed token is a no-op", func(t *testing.T) {
		repo := new(RepoMock)
		svc := newTestService(repo, 1000)

		require.NoError(t, svc.Invalidate(context.Background(), "not-a-token"))
		repo.AssertNotCalled(t, "DeleteSession", mock.Anything, mock.Anything)
	})
}

func TestService_InvalidateAllForUser(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeleteSessionsByUser", mock.Anything, "user-1").Return(nil)

	svc := newTestService(repo, 1000)
	require.NoError(t, svc.InvalidateAllForUser(context.Background(), "user-1"))
	repo.AssertExpectations(t)
}
