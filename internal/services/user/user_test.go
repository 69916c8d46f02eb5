package user

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairaware/fair-aware/internal/lib/password"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUser(ctx context.Context, user models.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) UpdateLastLogin(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *RepoMock) UpdateUserStatus(ctx context.Context, userID, status string) error {
	return m.Called(ctx, userID, status).Error(0)
}
func (m *RepoMock) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *RepoMock) ListUsers(ctx context.Context, activeAfter int64) ([]models.UserListItem, error) {
	args := m.Called(ctx, activeAfter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserListItem), args.Error(1)
}
func (m *RepoMock) ListUserCourseCodes(ctx context.Context, userID string) ([]models.UserCourseCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserCourseCode), args.Error(1)
}

type SessionsMock struct{ mock.Mock }

func (m *SessionsMock) InvalidateAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func newTestService(repo *RepoMock, sessions *SessionsMock) *Service {
	return New(repo, sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func activeUser(t *testing.T, rawPassword string) *models.User {
	t.Helper()
	hash, err := password.GetHash(rawPassword)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "trainer@example.com",
		PasswordHash: &hash,
		Role:         models.RoleTrainer,
		Status:       models.StatusActive,
	}
}

func TestService_Authenticate(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").
			Return(activeUser(t, "correct horse"), nil)
		repo.On("UpdateLastLogin", mock.Anything, "user-1").Return(nil)

		svc := newTestService(repo, new(SessionsMock))
		usr, err := svc.Authenticate(context.Background(), "trainer@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "user-1", usr.ID)
		repo.AssertExpectations(t)
	})

	t.Run("email is normalized", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").
			Return(activeUser(t, "correct horse"), nil)
		repo.On("UpdateLastLogin", mock.Anything, "user-1").Return(nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "  Trainer@Example.COM ", "correct horse")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").
			Return(activeUser(t, "correct horse"), nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "trainer@example.com", "wrong horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.ErrNotFound)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("pending user without password gets no status hint", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "pending@example.com").
			Return(&models.User{ID: "user-2", Status: models.StatusPending}, nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "pending@example.com", "whatever1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("pending user with password and correct password", func(t *testing.T) {
		repo := new(RepoMock)
		usr := activeUser(t, "correct horse")
		usr.Status = models.StatusPending
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").Return(usr, nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "trainer@example.com", "correct horse")
		assert.ErrorIs(t, err, ErrUserPending)
	})

	t.Run("disabled user with correct password", func(t *testing.T) {
		repo := new(RepoMock)
		usr := activeUser(t, "correct horse")
		usr.Status = models.StatusDisabled
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").Return(usr, nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "trainer@example.com", "correct horse")
		assert.ErrorIs(t, err, ErrUserDisabled)
	})

	t.Run("disabled user with wrong password gets no status hint", func(t *testing.T) {
		repo := new(RepoMock)
		usr := activeUser(t, "correct horse")
		usr.Status = models.StatusDisabled
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").Return(usr, nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "trainer@example.com", "wrong horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("last login failure is not fatal", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "trainer@example.com").
			Return(activeUser(t, "correct horse"), nil)
		repo.On("UpdateLastLogin", mock.Anything, "user-1").Return(assert.AnError)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Authenticate(context.Background(), "trainer@example.com", "correct horse")
		require.NoError(t, err)
	})
}

func TestService_Invite(t *testing.T) {
	t.Run("creates pending user", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)

		var created models.User
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			created = u
			return u.Email == "new@example.com"
		})).Return(nil)

		svc := newTestService(repo, new(SessionsMock))
		usr, err := svc.Invite(context.Background(), "New@Example.com", models.RoleTrainer)
		require.NoError(t, err)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, models.StatusPending, created.Status)
		assert.Nil(t, created.PasswordHash)
	})

	t.Run("taken email", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Invite(context.Background(), "taken@example.com", models.RoleTrainer)
		assert.ErrorIs(t, err, ErrEmailExists)
		repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("unknown role falls back to trainer", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleTrainer
		})).Return(nil)

		svc := newTestService(repo, new(SessionsMock))
		_, err := svc.Invite(context.Background(), "new@example.com", "superuser")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestService_SetStatus(t *testing.T) {
	t.Run("disable drops sessions", func(t *testing.T) {
		repo := new(RepoMock)
		sessions := new(SessionsMock)
		repo.On("UpdateUserStatus", mock.Anything, "user-1", models.StatusDisabled).Return(nil)
		sessions.On("InvalidateAllForUser", mock.Anything, "user-1").Return(nil)

		svc := newTestService(repo, sessions)
		require.NoError(t, svc.SetStatus(context.Background(), "user-1", models.StatusDisabled))
		sessions.AssertExpectations(t)
	})

	t.Run("enable keeps sessions", func(t *testing.T) {
		repo := new(RepoMock)
		sessions := new(SessionsMock)
		repo.On("UpdateUserStatus", mock.Anything, "user-1", models.StatusActive).Return(nil)

		svc := newTestService(repo, sessions)
		require.NoError(t, svc.SetStatus(context.Background(), "user-1", models.StatusActive))
		sessions.AssertNotCalled(t, "InvalidateAllForUser", mock.Anything, mock.Anything)
	})

	t.Run("unsupported status", func(t *testing.T) {
		svc := newTestService(new(RepoMock), new(SessionsMock))
		err := svc.SetStatus(context.Background(), "user-1", "banned")
		assert.Error(t, err)
	})
}

func TestService_Delete(t *testing.T) {
	repo := new(RepoMock)
	repo.On("DeleteUser", mock.Anything, "user-1").Return(nil)

	svc := newTestService(repo, new(SessionsMock))
	require.NoError(t, svc.Delete(context.Background(), "user-1"))
	repo.AssertExpectations(t)
}
