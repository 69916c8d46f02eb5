package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairaware/fair-aware/internal/models"
)

// CreateSession сохраняет новую сессионную строку.
func (s *Storage) CreateSession(ctx context.Context, session models.Session) error {
	const op = "storage.CreateSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_sessions (id, user_id, secret_hash, last_verified_at, created_at)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query,
		session.ID, session.UserID, session.SecretHash,
		session.LastVerifiedAt, session.CreatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSessionWithUser возвращает сессию по идентификатору вместе с её
// владельцем одним запросом. Возвращает ErrNotFound, если строки нет.
func (s *Storage) GetSessionWithUser(ctx context.Context, sessionID string) (*models.SessionUser, error) {
	const op = "storage.GetSessionWithUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_id, s.secret_hash, s.last_verified_at, s.created_at,
			      u.email, u.name, u.role, u.status
			  FROM user_sessions s
			  JOIN authorized_users u ON s.user_id = u.id
			  WHERE s.id = $1`
	var result models.SessionUser
	var name sql.NullString
	row := s.DB.QueryRowContext(ctx, query, sessionID)
	if err := row.Scan(&result.Session.ID, &result.Session.UserID, &result.Session.SecretHash,
		&result.Session.LastVerifiedAt, &result.Session.CreatedAt,
		&result.User.Email, &name, &result.User.Role, &result.User.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result.User.ID = result.Session.UserID
	if name.Valid {
		result.User.Name = &name.String
	}
	return &result, nil
}

// UpdateSessionLastVerified обновляет метку последней проверки сессии.
func (s *Storage) UpdateSessionLastVerified(ctx context.Context, sessionID string, timestamp int64) error {
	const op = "storage.UpdateSessionLastVerified"

	query := `UPDATE user_sessions SET last_verified_at = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, timestamp, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteSession удаляет сессию по идентификатору. Повторный вызов
// для того же идентификатора безопасен и ничего не делает.
func (s *Storage) DeleteSession(ctx context.Context, sessionID string) error {
	const op = "storage.DeleteSession"

	query := `DELETE FROM user_sessions WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteSessionsByUser удаляет все сессии пользователя (принудительный
// выход, отключение или удаление учётной записи).
func (s *Storage) DeleteSessionsByUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteSessionsByUser"

	query := `DELETE FROM user_sessions WHERE user_id = $1`
	if _, err := s.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
