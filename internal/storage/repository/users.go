package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairaware/fair-aware/internal/models"
)

const userColumns = `id, email, name, password_hash, role, status, last_login_at, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var name, passwordHash sql.NullString
	var lastLoginAt sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &name, &passwordHash,
		&u.Role, &u.Status, &lastLoginAt, &u.CreatedAt); err != nil {
		return nil, err
	}
	if name.Valid {
		u.Name = &name.String
	}
	if passwordHash.Valid {
		u.PasswordHash = &passwordHash.String
	}
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя админ-панели.
func (s *Storage) CreateUser(ctx context.Context, user models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO authorized_users (id, email, name, password_hash, role, status)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.Status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM authorized_users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM authorized_users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// EmailExists проверяет, занят ли адрес почты.
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"

	var count int
	query := `SELECT COUNT(*) FROM authorized_users WHERE email = $1`
	if err := s.DB.QueryRowContext(ctx, query, email).Scan(&count); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// UpdateLastLogin обновляет метку последнего входа пользователя.
func (s *Storage) UpdateLastLogin(ctx context.Context, userID string) error {
	const op = "storage.UpdateLastLogin"

	query := `UPDATE authorized_users SET last_login_at = NOW() WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateUserStatus переводит пользователя в указанный статус.
func (s *Storage) UpdateUserStatus(ctx context.Context, userID, status string) error {
	const op = "storage.UpdateUserStatus"

	query := `UPDATE authorized_users SET status = $1 WHERE id = $2`
	if _, err := s.DB.ExecContext(ctx, query, status, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetUserPassword задаёт хэш пароля, отображаемое имя и одновременно
// активирует учётную запись: все поля меняются одним UPDATE. Нулевое
// имя оставляет прежнее значение.
func (s *Storage) SetUserPassword(ctx context.Context, userID, passwordHash string, name *string) error {
	const op = "storage.SetUserPassword"

	query := `UPDATE authorized_users
			  SET password_hash = $1, name = COALESCE($2, name), status = 'active'
			  WHERE id = $3`
	if _, err := s.DB.ExecContext(ctx, query, passwordHash, name, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteUser удаляет пользователя; сессии и приглашения удаляются
// каскадом по внешним ключам.
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	const op = "storage.DeleteUser"

	query := `DELETE FROM authorized_users WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUsers возвращает всех пользователей с признаком живой сессии:
// живой считается сессия, проверявшаяся не раньше activeAfter.
func (s *Storage) ListUsers(ctx context.Context, activeAfter int64) ([]models.UserListItem, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.id, u.email, u.name, u.role, u.status, u.last_login_at, u.created_at,
			      EXISTS (
			          SELECT 1 FROM user_sessions s
			          WHERE s.user_id = u.id AND s.last_verified_at >= $1
			      ) AS has_active_session
			  FROM authorized_users u
			  ORDER BY u.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, activeAfter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UserListItem
	for rows.Next() {
		var item models.UserListItem
		var name sql.NullString
		var lastLoginAt sql.NullTime
		if err = rows.Scan(&item.ID, &item.Email, &name, &item.Role, &item.Status,
			&lastLoginAt, &item.CreatedAt, &item.HasActiveSession); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if name.Valid {
			item.Name = &name.String
		}
		if lastLoginAt.Valid {
			item.LastLoginAt = &lastLoginAt.Time
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUserCourseCodes возвращает коды курса пользователя с количеством
// привязанных к каждому анкет.
func (s *Storage) ListUserCourseCodes(ctx context.Context, userID string) ([]models.UserCourseCode, error) {
	const op = "storage.ListUserCourseCodes"

	query := `SELECT cc.code, cc.created_at, COUNT(aa.id) AS submission_count
			  FROM course_codes cc
			  LEFT JOIN assessment_answers aa ON aa.cq1 = cc.code
			  WHERE cc.created_by = $1
			  GROUP BY cc.id, cc.code, cc.created_at
			  ORDER BY cc.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UserCourseCode
	for rows.Next() {
		var item models.UserCourseCode
		if err = rows.Scan(&item.Code, &item.CreatedAt, &item.SubmissionCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
