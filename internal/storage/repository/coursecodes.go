package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairaware/fair-aware/internal/models"
)

// ListCourseCodes возвращает коды курса с агрегатами (число анкет,
// средний FAIR-балл) и данными автора. createdBy == nil — все коды,
// иначе только принадлежащие указанному пользователю.
func (s *Storage) ListCourseCodes(ctx context.Context, createdBy *string) ([]models.CourseCode, error) {
	const op = "storage.ListCourseCodes"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      cc.id, cc.code, cc.created_by, cc.created_at,
			      COALESCE(stats.submission_count, 0) AS submission_count,
			      stats.avg_fair_score,
			      u.name AS creator_name,
			      u.email AS creator_email
			  FROM course_codes cc
			  LEFT JOIN authorized_users u ON cc.created_by = u.id
			  LEFT JOIN (
			      SELECT cq1,
			          COUNT(*) AS submission_count,
			          AVG(` + fairScoreSQL + `) AS avg_fair_score
			      FROM assessment_answers
			      WHERE cq1 IS NOT NULL AND cq1 != ''
			      GROUP BY cq1
			  ) stats ON stats.cq1 = cc.code
			  WHERE ($1::uuid IS NULL OR cc.created_by = $1::uuid)
			  ORDER BY cc.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, createdBy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.CourseCode
	for rows.Next() {
		var cc models.CourseCode
		var avgScore sql.NullFloat64
		if err = rows.Scan(&cc.ID, &cc.Code, &cc.CreatedBy, &cc.CreatedAt,
			&cc.SubmissionCount, &avgScore, &cc.CreatorName, &cc.CreatorEmail); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if avgScore.Valid {
			cc.AvgFairScore = &avgScore.Float64
		}
		result = append(result, cc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCourseCodeByCode возвращает код курса с данными автора.
func (s *Storage) GetCourseCodeByCode(ctx context.Context, code string) (*models.CourseCode, error) {
	const op = "storage.GetCourseCodeByCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT cc.id, cc.code, cc.created_by, cc.created_at,
			      u.name AS creator_name, u.email AS creator_email
			  FROM course_codes cc
			  LEFT JOIN authorized_users u ON cc.created_by = u.id
			  WHERE cc.code = $1`
	cc := &models.CourseCode{}
	row := s.DB.QueryRowContext(ctx, query, code)
	if err := row.Scan(&cc.ID, &cc.Code, &cc.CreatedBy, &cc.CreatedAt,
		&cc.CreatorName, &cc.CreatorEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cc, nil
}

// CreateCourseCode сохраняет новый код курса и возвращает его ID.
func (s *Storage) CreateCourseCode(ctx context.Context, code, createdBy string) (int64, error) {
	const op = "storage.CreateCourseCode"

	var newID int64
	query := `INSERT INTO course_codes (code, created_by) VALUES ($1, $2) RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, code, createdBy).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// IsOwnedCourseCode проверяет, принадлежит ли код курса пользователю.
func (s *Storage) IsOwnedCourseCode(ctx context.Context, code, userID string) (bool, error) {
	const op = "storage.IsOwnedCourseCode"

	var count int
	query := `SELECT COUNT(*) FROM course_codes WHERE code = $1 AND created_by = $2`
	if err := s.DB.QueryRowContext(ctx, query, code, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return count > 0, nil
}

// CountCourseCodes возвращает число кодов курса для дашборда:
// для тренера — количество его собственных кодов, для администратора
// (createdBy == nil) — количество различных кодов среди анкет.
func (s *Storage) CountCourseCodes(ctx context.Context, createdBy *string) (int, error) {
	const op = "storage.CountCourseCodes"

	var count int
	var err error
	if createdBy != nil {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM course_codes WHERE created_by = $1`, *createdBy).Scan(&count)
	} else {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(DISTINCT cq1) FROM assessment_answers
			 WHERE cq1 IS NOT NULL AND cq1 != ''`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
