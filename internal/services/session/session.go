// Package session реализует бизнес-логику сессий админ-панели: выдача
// составного токена, проверка с продлением и отзыв.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/lib/token"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

// ErrInvalidSession возвращается для любого непригодного токена: неверный
// формат, несуществующая сессия, несовпавший секрет или истёкший срок.
// Причина не раскрывается, чтобы ответ не подсказывал перебор.
var ErrInvalidSession = errors.New("invalid session")

const (
	// InactivityTimeout — срок жизни сессии без активности, секунды.
	InactivityTimeout = 864000
	// RefreshInterval — минимальный интервал между продлениями, секунды.
	RefreshInterval = 3600
)

// SessionRepository описывает контракт хранилища сессий.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSessionWithUser(ctx context.Context, sessionID string) (*models.SessionUser, error)
	UpdateSessionLastVerified(ctx context.Context, sessionID string, timestamp int64) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteSessionsByUser(ctx context.Context, userID string) error
}

// Service управляет жизненным циклом сессий.
type Service struct {
	repo SessionRepository
	log  *slog.Logger
	now  func() int64
}

// New создает новый экземпляр Service.
func New(repo SessionRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  func() int64 { return time.Now().Unix() },
	}
}

// Create выдает пользователю новую сессию и возвращает составной токен
// вида "идентификатор.секрет". Секрет хранится только в виде SHA-256.
func (s *Service) Create(ctx context.Context, userID string) (string, error) {
	const op = "session.Create"

	id, err := token.GenerateSecureRandomString(token.SessionIDLength)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	secret, err := token.GenerateSecureRandomString(token.SessionIDLength)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if err := s.repo.CreateSession(ctx, models.Session{
		ID:             id,
		UserID:         userID,
		SecretHash:     token.HashSecret(secret),
		LastVerifiedAt: now,
		CreatedAt:      now,
	}); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("session created", slog.String("user_id", userID))
	return id + "." + secret, nil
}

// Validate проверяет составной токен и возвращает сессию вместе с её
// владельцем. Сессия, неактивная дольше InactivityTimeout, удаляется.
// Метка активности продлевается не чаще раза в RefreshInterval; сбой
// продления не считается ошибкой проверки.
func (s *Service) Validate(ctx context.Context, compositeToken string) (*models.SessionUser, error) {
	const op = "session.Validate"

	id, secret, ok := splitToken(compositeToken)
	if !ok {
		return nil, ErrInvalidSession
	}

	result, err := s.repo.GetSessionWithUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !token.ConstantTimeEqual(token.HashSecret(secret), result.Session.SecretHash) {
		s.log.Warn("session secret mismatch", slog.String("session_id", id))
		return nil, ErrInvalidSession
	}

	now := s.now()
	if now-result.Session.LastVerifiedAt >= InactivityTimeout {
		if err := s.repo.DeleteSession(ctx, id); err != nil {
			s.log.Error("failed to delete expired session", sl.Err(err))
		}
		return nil, ErrInvalidSession
	}

	if now-result.Session.LastVerifiedAt >= RefreshInterval {
		if err := s.repo.UpdateSessionLastVerified(ctx, id, now); err != nil {
			s.log.Warn("failed to refresh session", slog.String("session_id", id), sl.Err(err))
		} else {
			result.Session.LastVerifiedAt = now
		}
	}

	return result, nil
}

// Invalidate отзывает сессию по токену. Токен с неверным форматом или
// уже удалённая сессия не считаются ошибкой.
func (s *Service) Invalidate(ctx context.Context, compositeToken string) error {
	const op = "session.Invalidate"

	id, _, ok := splitToken(compositeToken)
	if !ok {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InvalidateAllForUser отзывает все сессии пользователя.
func (s *Service) InvalidateAllForUser(ctx context.Context, userID string) error {
	const op = "session.InvalidateAllForUser"

	if err := s.repo.DeleteSessionsByUser(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// splitToken разбирает составной токен на идентификатор и секрет.
func splitToken(compositeToken string) (id, secret string, ok bool) {
	id, secret, found := strings.Cut(compositeToken, ".")
	if !found || len(id) != token.SessionIDLength || len(secret) != token.SessionIDLength {
		return "", "", false
	}
	return id, secret, true
}
