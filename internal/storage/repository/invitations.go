package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fairaware/fair-aware/internal/models"
)

// ReplaceInvitation удаляет все приглашения пользователя и вставляет
// новое в одной транзакции, гарантируя не более одного живого
// приглашения на пользователя.
func (s *Storage) ReplaceInvitation(ctx context.Context, userID string, tokenHash []byte, expiresAt int64) error {
	const op = "storage.ReplaceInvitation"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM user_invitations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO user_invitations (user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		userID, tokenHash, expiresAt, time.Now().Unix()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetInvitationByTokenHash возвращает приглашение по хэшу токена вместе
// со статусом владельца. Возвращает ErrNotFound, если хэш неизвестен.
func (s *Storage) GetInvitationByTokenHash(ctx context.Context, tokenHash []byte) (*models.Invitation, error) {
	const op = "storage.GetInvitationByTokenHash"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT i.id, i.user_id, i.token_hash, i.expires_at, i.created_at,
			      u.status AS user_status
			  FROM user_invitations i
			  JOIN authorized_users u ON i.user_id = u.id
			  WHERE i.token_hash = $1`
	inv := &models.Invitation{}
	row := s.DB.QueryRowContext(ctx, query, tokenHash)
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.TokenHash,
		&inv.ExpiresAt, &inv.CreatedAt, &inv.UserStatus); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}

// DeleteInvitationsByUser удаляет все приглашения пользователя.
func (s *Storage) DeleteInvitationsByUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteInvitationsByUser"

	query := `DELETE FROM user_invitations WHERE user_id = $1`
	if _, err := s.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
