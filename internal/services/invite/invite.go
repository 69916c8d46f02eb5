// Package invite реализует приглашения новых пользователей админ-панели:
// выдача одноразового токена и активация учётной записи по нему.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairaware/fair-aware/internal/lib/password"
	"github.com/fairaware/fair-aware/internal/lib/token"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

var (
	// ErrInvalidInvite возвращается для неизвестного токена или токена
	// пользователя, который уже не ожидает активации.
	ErrInvalidInvite = errors.New("invalid invitation")
	// ErrInviteExpired возвращается для просроченного приглашения.
	ErrInviteExpired = errors.New("invitation expired")
	// ErrPasswordTooShort возвращается для слишком короткого пароля.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", password.MinLength)
	// ErrPasswordMismatch возвращается при несовпадении паролей.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Lifetime — срок действия приглашения, секунды.
const Lifetime = 86400

// InvitationRepository описывает контракт хранилища приглашений.
type InvitationRepository interface {
	ReplaceInvitation(ctx context.Context, userID string, tokenHash []byte, expiresAt int64) error
	GetInvitationByTokenHash(ctx context.Context, tokenHash []byte) (*models.Invitation, error)
	DeleteInvitationsByUser(ctx context.Context, userID string) error
}

// UserRepository описывает операции над пользователями, нужные для активации.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetUserPassword(ctx context.Context, userID, passwordHash string, name *string) error
}

// Service управляет жизненным циклом приглашений.
type Service struct {
	invitations InvitationRepository
	users       UserRepository
	log         *slog.Logger
	now         func() int64
}

// New создает новый экземпляр Service.
func New(invitations InvitationRepository, users UserRepository, log *slog.Logger) *Service {
	return &Service{
		invitations: invitations,
		users:       users,
		log:         log,
		now:         func() int64 { return time.Now().Unix() },
	}
}

// Issue выдает пользователю новое приглашение, отзывая прежнее, и
// возвращает одноразовый токен. В хранилище попадает только его SHA-256.
// Приглашение можно выдать только пользователю в статусе ожидания.
func (s *Service) Issue(ctx context.Context, userID string) (string, error) {
	const op = "invite.Issue"

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.Status != models.StatusPending {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidInvite)
	}

	rawToken, err := token.GenerateSecureRandomString(token.InviteTokenLength)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := s.now() + Lifetime
	if err := s.invitations.ReplaceInvitation(ctx, userID, token.HashSecret(rawToken), expiresAt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("invitation issued", slog.String("user_id", userID))
	return rawToken, nil
}

// Check проверяет токен приглашения, не расходуя его. Возвращает
// приглашение, чтобы страница настройки могла показать, кому оно выдано.
func (s *Service) Check(ctx context.Context, rawToken string) (*models.Invitation, error) {
	const op = "invite.Check"

	if len(rawToken) != token.InviteTokenLength {
		return nil, ErrInvalidInvite
	}

	inv, err := s.invitations.GetInvitationByTokenHash(ctx, token.HashSecret(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInvite
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.now() > inv.ExpiresAt {
		return nil, ErrInviteExpired
	}
	if inv.UserStatus != models.StatusPending {
		return nil, ErrInvalidInvite
	}
	return inv, nil
}

// Redeem активирует учётную запись по токену приглашения: задает имя и
// пароль, переводит пользователя в активный статус и отзывает все его
// приглашения. Возвращает ID активированного пользователя.
func (s *Service) Redeem(ctx context.Context, rawToken, name, rawPassword, confirm string) (string, error) {
	const op = "invite.Redeem"

	inv, err := s.Check(ctx, rawToken)
	if err != nil {
		return "", err
	}

	if len(rawPassword) < password.MinLength {
		return "", ErrPasswordTooShort
	}
	if rawPassword != confirm {
		return "", ErrPasswordMismatch
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	if err := s.users.SetUserPassword(ctx, inv.UserID, hashed, namePtr); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.invitations.DeleteInvitationsByUser(ctx, inv.UserID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account activated", slog.String("user_id", inv.UserID))
	return inv.UserID, nil
}
