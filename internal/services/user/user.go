// Package user реализует управление учётными записями админ-панели:
// вход по паролю, приглашение новых пользователей, смена статуса.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairaware/fair-aware/internal/lib/password"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

var (
	// ErrInvalidCredentials возвращается при неизвестной почте или
	// неверном пароле, не различая эти случаи.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserPending возвращается при входе до активации учётной записи.
	ErrUserPending = errors.New("account is not activated yet")
	// ErrUserDisabled возвращается при входе в отключённую учётную запись.
	ErrUserDisabled = errors.New("account is disabled")
	// ErrEmailExists возвращается при приглашении на занятую почту.
	ErrEmailExists = errors.New("email already registered")
	// ErrUserNotFound возвращается для неизвестного пользователя.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdateUserStatus(ctx context.Context, userID, status string) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context, activeAfter int64) ([]models.UserListItem, error)
	ListUserCourseCodes(ctx context.Context, userID string) ([]models.UserCourseCode, error)
}

// SessionInvalidator отзывает сессии пользователя при смене статуса.
type SessionInvalidator interface {
	InvalidateAllForUser(ctx context.Context, userID string) error
}

// Service управляет учётными записями.
type Service struct {
	repo     UserRepository
	sessions SessionInvalidator
	log      *slog.Logger
	now      func() int64
}

// New создает новый экземпляр Service.
func New(repo UserRepository, sessions SessionInvalidator, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		log:      log,
		now:      func() int64 { return time.Now().Unix() },
	}
}

// Authenticate проверяет почту и пароль, возвращая пользователя при
// успехе. Статус учётной записи сообщается только после верного
// пароля, иначе по одной почте можно узнать состояние аккаунта.
// Метка последнего входа обновляется по возможности.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*models.User, error) {
	const op = "user.Authenticate"

	usr, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if usr.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := password.CompareHash(*usr.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	switch usr.Status {
	case models.StatusPending:
		return nil, ErrUserPending
	case models.StatusDisabled:
		return nil, ErrUserDisabled
	}

	if err := s.repo.UpdateLastLogin(ctx, usr.ID); err != nil {
		s.log.Warn("failed to update last login", slog.String("user_id", usr.ID), sl.Err(err))
	}
	return usr, nil
}

// Invite создает нового пользователя в статусе ожидания активации.
func (s *Service) Invite(ctx context.Context, email, role string) (*models.User, error) {
	const op = "user.Invite"

	email = normalizeEmail(email)
	if role != models.RoleAdmin && role != models.RoleTrainer {
		role = models.RoleTrainer
	}

	taken, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		return nil, ErrEmailExists
	}

	usr := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		Status:    models.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, usr); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user invited", slog.String("email", email), slog.String("role", role))
	return &usr, nil
}

// Get возвращает пользователя по ID.
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	const op = "user.Get"

	usr, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return usr, nil
}

// List возвращает пользователей с признаком живой сессии. Живой
// считается сессия, проверявшаяся в пределах срока неактивности.
func (s *Service) List(ctx context.Context, inactivityTimeout int64) ([]models.UserListItem, error) {
	const op = "user.List"

	users, err := s.repo.ListUsers(ctx, s.now()-inactivityTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// CourseCodes возвращает коды курса, созданные пользователем.
func (s *Service) CourseCodes(ctx context.Context, userID string) ([]models.UserCourseCode, error) {
	const op = "user.CourseCodes"

	codes, err := s.repo.ListUserCourseCodes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return codes, nil
}

// SetStatus меняет статус учётной записи. Отключение немедленно
// отзывает все сессии пользователя.
func (s *Service) SetStatus(ctx context.Context, userID, status string) error {
	const op = "user.SetStatus"

	if status != models.StatusActive && status != models.StatusDisabled {
		return fmt.Errorf("%s: unsupported status %q", op, status)
	}
	if err := s.repo.UpdateUserStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if status == models.StatusDisabled {
		if err := s.sessions.InvalidateAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("user status changed", slog.String("user_id", userID), slog.String("status", status))
	return nil
}

// Delete удаляет учётную запись; сессии и приглашения уходят каскадом,
// созданные пользователем коды курса остаются без владельца.
func (s *Service) Delete(ctx context.Context, userID string) error {
	const op = "user.Delete"

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted", slog.String("user_id", userID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
