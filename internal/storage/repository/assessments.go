package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fairaware/fair-aware/internal/lib/fairscore"
	"github.com/fairaware/fair-aware/internal/models"
)

// fairScoreSQL — SQL-выражение итогового FAIR-балла анкеты, собирается
// из списка оцениваемых вопросов. Имена колонок фиксированы миграцией.
var fairScoreSQL = func() string {
	parts := make([]string, len(fairscore.Questions))
	for i, q := range fairscore.Questions {
		parts[i] = fmt.Sprintf("(CASE WHEN LOWER(%s) = 'yes' THEN 1 ELSE 0 END)", q.Key)
	}
	return strings.Join(parts, " + ")
}()

// unaffiliatedWhere отбирает анкеты, не привязанные ни к одному коду курса.
const unaffiliatedWhere = "(cq1 IS NULL OR cq1 = '')"

const answerColumns = `cq1, yq1, yq2, yq3,
	fq1, fq1i, fq2, fq2i, fq3, fq3i,
	aq1, aq1i, aq2, aq2i,
	iq1, iq1i,
	rq1, rq1i, rq2, rq2i, rq3, rq3i, rq4, rq4i,
	qq1, qq2, qq3, qq4`

const summaryColumns = `id, COALESCE(cq1, ''), submission_date,
	COALESCE(fq1, ''), COALESCE(fq2, ''), COALESCE(fq3, ''),
	COALESCE(aq1, ''), COALESCE(aq2, ''), COALESCE(iq1, ''),
	COALESCE(rq1, ''), COALESCE(rq2, ''), COALESCE(rq3, ''), COALESCE(rq4, '')`

func answerScanTargets(a *models.Answers) []any {
	return []any{
		&a.CQ1, &a.YQ1, &a.YQ2, &a.YQ3,
		&a.FQ1, &a.FQ1i, &a.FQ2, &a.FQ2i, &a.FQ3, &a.FQ3i,
		&a.AQ1, &a.AQ1i, &a.AQ2, &a.AQ2i,
		&a.IQ1, &a.IQ1i,
		&a.RQ1, &a.RQ1i, &a.RQ2, &a.RQ2i, &a.RQ3, &a.RQ3i, &a.RQ4, &a.RQ4i,
		&a.QQ1, &a.QQ2, &a.QQ3, &a.QQ4,
	}
}

func scanSummary(rows *sql.Rows) (models.SubmissionSummary, error) {
	var sm models.SubmissionSummary
	err := rows.Scan(&sm.ID, &sm.CQ1, &sm.SubmissionDate,
		&sm.FQ1, &sm.FQ2, &sm.FQ3, &sm.AQ1, &sm.AQ2, &sm.IQ1,
		&sm.RQ1, &sm.RQ2, &sm.RQ3, &sm.RQ4)
	return sm, err
}

// InsertSubmission сохраняет новую анкету с серверной меткой времени
// и возвращает её ID.
func (s *Storage) InsertSubmission(ctx context.Context, host string, a models.Answers) (int64, error) {
	const op = "storage.InsertSubmission"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO assessment_answers (
			      host, submission_date, ` + answerColumns + `
			  ) VALUES ($1, NOW(), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			      $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23,
			      $24, $25, $26, $27, $28, $29)
			  RETURNING id`
	values := []any{
		host,
		a.CQ1, a.YQ1, a.YQ2, a.YQ3,
		a.FQ1, a.FQ1i, a.FQ2, a.FQ2i, a.FQ3, a.FQ3i,
		a.AQ1, a.AQ1i, a.AQ2, a.AQ2i,
		a.IQ1, a.IQ1i,
		a.RQ1, a.RQ1i, a.RQ2, a.RQ2i, a.RQ3, a.RQ3i, a.RQ4, a.RQ4i,
		a.QQ1, a.QQ2, a.QQ3, a.QQ4,
	}

	var newID int64
	if err := s.DB.QueryRowContext(ctx, query, values...).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetSubmissionByID возвращает анкету целиком.
func (s *Storage) GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error) {
	const op = "storage.GetSubmissionByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, host, submission_date, ` + coalescedAnswerColumns() + `
			  FROM assessment_answers WHERE id = $1`
	sub := &models.Submission{}
	targets := append([]any{&sub.ID, &sub.Host, &sub.SubmissionDate}, answerScanTargets(&sub.Answers)...)
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(targets...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func coalescedAnswerColumns() string {
	cols := strings.Split(answerColumns, ",")
	for i, c := range cols {
		c = strings.TrimSpace(c)
		cols[i] = fmt.Sprintf("COALESCE(%s, '')", c)
	}
	return strings.Join(cols, ", ")
}

func (s *Storage) querySubmissions(ctx context.Context, op, whereSQL, orderSQL string, args ...any) ([]models.Submission, error) {
	query := `SELECT id, host, submission_date, ` + coalescedAnswerColumns() + `
			  FROM assessment_answers ` + whereSQL + ` ` + orderSQL
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Submission
	for rows.Next() {
		var sub models.Submission
		targets := append([]any{&sub.ID, &sub.Host, &sub.SubmissionDate}, answerScanTargets(&sub.Answers)...)
		if err = rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAnswers возвращает анкеты для публичного скачивания. Пустой код или
// спецкод downloadall отдаёт все анкеты, непустой host ограничивает выборку
// инстансом сервиса.
func (s *Storage) ListAnswers(ctx context.Context, code, host string) ([]models.Submission, error) {
	const op = "storage.ListAnswers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := []string{"1=1"}
	var args []any
	if host != "" {
		args = append(args, host)
		where = append(where, fmt.Sprintf("host = $%d", len(args)))
	}
	if code != "downloadall" && code != "" {
		args = append(args, code)
		where = append(where, fmt.Sprintf("cq1 = $%d", len(args)))
	}
	whereSQL := "WHERE " + strings.Join(where, " AND ")
	return s.querySubmissions(ctx, op, whereSQL, "ORDER BY submission_date DESC", args...)
}

// SubmissionsForDownload возвращает все анкеты кода курса для CSV-выгрузки.
func (s *Storage) SubmissionsForDownload(ctx context.Context, code string) ([]models.Submission, error) {
	const op = "storage.SubmissionsForDownload"
	return s.querySubmissions(ctx, op, "WHERE cq1 = $1", "ORDER BY submission_date DESC", code)
}

// AllSubmissionsForDownload возвращает анкеты для сводной CSV-выгрузки:
// для тренера — только по его кодам, для администратора — все.
func (s *Storage) AllSubmissionsForDownload(ctx context.Context, createdBy *string) ([]models.Submission, error) {
	const op = "storage.AllSubmissionsForDownload"
	if createdBy != nil {
		return s.querySubmissions(ctx, op,
			"WHERE cq1 IN (SELECT code FROM course_codes WHERE created_by = $1)",
			"ORDER BY submission_date DESC", *createdBy)
	}
	return s.querySubmissions(ctx, op, "", "ORDER BY submission_date DESC")
}

// UnaffiliatedSubmissionsForDownload возвращает анкеты без кода курса.
func (s *Storage) UnaffiliatedSubmissionsForDownload(ctx context.Context) ([]models.Submission, error) {
	const op = "storage.UnaffiliatedSubmissionsForDownload"
	return s.querySubmissions(ctx, op, "WHERE "+unaffiliatedWhere, "ORDER BY submission_date DESC")
}

// CountSubmissions возвращает общее число анкет, для тренера — только
// по его кодам курса.
func (s *Storage) CountSubmissions(ctx context.Context, createdBy *string) (int, error) {
	const op = "storage.CountSubmissions"

	var count int
	var err error
	if createdBy != nil {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM assessment_answers
			 WHERE cq1 IN (SELECT code FROM course_codes WHERE created_by = $1)`,
			*createdBy).Scan(&count)
	} else {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM assessment_answers`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountMonthlySubmissions возвращает число анкет с начала текущего месяца.
func (s *Storage) CountMonthlySubmissions(ctx context.Context, createdBy *string) (int, error) {
	const op = "storage.CountMonthlySubmissions"

	var count int
	var err error
	if createdBy != nil {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM assessment_answers
			 WHERE submission_date >= date_trunc('month', NOW())
			   AND cq1 IN (SELECT code FROM course_codes WHERE created_by = $1)`,
			*createdBy).Scan(&count)
	} else {
		err = s.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM assessment_answers
			 WHERE submission_date >= date_trunc('month', NOW())`).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (s *Storage) querySummaries(ctx context.Context, op, whereSQL string, args ...any) ([]models.SubmissionSummary, error) {
	query := `SELECT ` + summaryColumns + `
			  FROM assessment_answers ` + whereSQL
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.SubmissionSummary
	for rows.Next() {
		sm, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sm)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RecentSubmissions возвращает последние анкеты для дашборда.
func (s *Storage) RecentSubmissions(ctx context.Context, limit int, createdBy *string) ([]models.SubmissionSummary, error) {
	const op = "storage.RecentSubmissions"
	if createdBy != nil {
		return s.querySummaries(ctx, op,
			`WHERE cq1 IN (SELECT code FROM course_codes WHERE created_by = $1)
			 ORDER BY submission_date DESC LIMIT $2`, *createdBy, limit)
	}
	return s.querySummaries(ctx, op, `ORDER BY submission_date DESC LIMIT $1`, limit)
}

// SubmissionsByCode возвращает страницу анкет кода курса.
func (s *Storage) SubmissionsByCode(ctx context.Context, code string, limit, offset int) ([]models.SubmissionSummary, error) {
	const op = "storage.SubmissionsByCode"
	return s.querySummaries(ctx, op,
		`WHERE cq1 = $1 ORDER BY submission_date DESC LIMIT $2 OFFSET $3`,
		code, limit, offset)
}

// UnaffiliatedSubmissions возвращает страницу анкет без кода курса.
func (s *Storage) UnaffiliatedSubmissions(ctx context.Context, limit, offset int) ([]models.SubmissionSummary, error) {
	const op = "storage.UnaffiliatedSubmissions"
	return s.querySummaries(ctx, op,
		`WHERE `+unaffiliatedWhere+` ORDER BY submission_date DESC LIMIT $1 OFFSET $2`,
		limit, offset)
}

// CountSubmissionsByCode возвращает число анкет кода курса.
func (s *Storage) CountSubmissionsByCode(ctx context.Context, code string) (int, error) {
	const op = "storage.CountSubmissionsByCode"

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assessment_answers WHERE cq1 = $1`, code).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountUnaffiliatedSubmissions возвращает число анкет без кода курса.
func (s *Storage) CountUnaffiliatedSubmissions(ctx context.Context) (int, error) {
	const op = "storage.CountUnaffiliatedSubmissions"

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assessment_answers WHERE `+unaffiliatedWhere).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

func (s *Storage) queryHosts(ctx context.Context, op, whereSQL string, args ...any) ([]string, error) {
	query := `SELECT DISTINCT host FROM assessment_answers ` + whereSQL + ` ORDER BY host`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var host string
		if err = rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, host)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// HostsByCode возвращает инстансы сервиса, с которых приходили анкеты кода.
func (s *Storage) HostsByCode(ctx context.Context, code string) ([]string, error) {
	const op = "storage.HostsByCode"
	return s.queryHosts(ctx, op, "WHERE cq1 = $1", code)
}

// UnaffiliatedHosts возвращает инстансы анкет без кода курса.
func (s *Storage) UnaffiliatedHosts(ctx context.Context) ([]string, error) {
	const op = "storage.UnaffiliatedHosts"
	return s.queryHosts(ctx, op, "WHERE "+unaffiliatedWhere)
}

func (s *Storage) queryStats(ctx context.Context, op, whereSQL string, args ...any) (*models.CourseCodeStats, error) {
	query := `SELECT
			      COUNT(*) AS total,
			      AVG(` + fairScoreSQL + `) AS avg_score,
			      COALESCE(SUM(CASE WHEN (` + fairScoreSQL + `) < 6 THEN 1 ELSE 0 END), 0) AS low_count,
			      COALESCE(SUM(CASE WHEN (` + fairScoreSQL + `) BETWEEN 6 AND 7 THEN 1 ELSE 0 END), 0) AS moderate_count,
			      COALESCE(SUM(CASE WHEN (` + fairScoreSQL + `) >= 8 THEN 1 ELSE 0 END), 0) AS high_count
			  FROM assessment_answers ` + whereSQL
	stats := &models.CourseCodeStats{}
	var avgScore sql.NullFloat64
	row := s.DB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&stats.Total, &avgScore, &stats.Low, &stats.Moderate, &stats.High); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if avgScore.Valid {
		stats.AvgScore = &avgScore.Float64
	}
	return stats, nil
}

// CourseCodeStats возвращает распределение FAIR-баллов по коду курса.
func (s *Storage) CourseCodeStats(ctx context.Context, code string) (*models.CourseCodeStats, error) {
	const op = "storage.CourseCodeStats"
	return s.queryStats(ctx, op, "WHERE cq1 = $1", code)
}

// UnaffiliatedStats возвращает распределение FAIR-баллов анкет без кода.
func (s *Storage) UnaffiliatedStats(ctx context.Context) (*models.CourseCodeStats, error) {
	const op = "storage.UnaffiliatedStats"
	return s.queryStats(ctx, op, "WHERE "+unaffiliatedWhere)
}

func (s *Storage) queryQuestionBreakdown(ctx context.Context, op, whereSQL string, args ...any) ([]models.QuestionStats, error) {
	var selects []string
	for _, q := range fairscore.Questions {
		selects = append(selects,
			fmt.Sprintf("SUM(CASE WHEN LOWER(%s) = 'yes' THEN 1 ELSE 0 END)", q.Key),
			fmt.Sprintf("AVG(CASE WHEN LOWER(%s) = 'yes' THEN NULLIF(%si, '')::numeric END)", q.Key, q.Key),
			fmt.Sprintf("SUM(CASE WHEN LOWER(%s) = 'no' THEN 1 ELSE 0 END)", q.Key),
			fmt.Sprintf("AVG(CASE WHEN LOWER(%s) = 'no' THEN NULLIF(%si, '')::numeric END)", q.Key, q.Key),
		)
	}
	query := `SELECT ` + strings.Join(selects, ",\n\t\t\t") + `
			  FROM assessment_answers ` + whereSQL

	yes := make([]sql.NullInt64, len(fairscore.Questions))
	yesAvg := make([]sql.NullFloat64, len(fairscore.Questions))
	no := make([]sql.NullInt64, len(fairscore.Questions))
	noAvg := make([]sql.NullFloat64, len(fairscore.Questions))
	var targets []any
	for i := range fairscore.Questions {
		targets = append(targets, &yes[i], &yesAvg[i], &no[i], &noAvg[i])
	}

	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(targets...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.QuestionStats, len(fairscore.Questions))
	for i, q := range fairscore.Questions {
		result[i] = models.QuestionStats{
			Question: q.Key,
			Label:    q.Label,
			Yes:      int(yes[i].Int64),
			No:       int(no[i].Int64),
		}
		if yesAvg[i].Valid {
			result[i].YesAvgLikelihood = &yesAvg[i].Float64
		}
		if noAvg[i].Valid {
			result[i].NoAvgLikelihood = &noAvg[i].Float64
		}
	}
	return result, nil
}

// QuestionBreakdown возвращает разбивку ответов по FAIR-вопросам для кода курса.
func (s *Storage) QuestionBreakdown(ctx context.Context, code string) ([]models.QuestionStats, error) {
	const op = "storage.QuestionBreakdown"
	return s.queryQuestionBreakdown(ctx, op, "WHERE cq1 = $1", code)
}

// UnaffiliatedQuestionBreakdown возвращает разбивку ответов анкет без кода.
func (s *Storage) UnaffiliatedQuestionBreakdown(ctx context.Context) ([]models.QuestionStats, error) {
	const op = "storage.UnaffiliatedQuestionBreakdown"
	return s.queryQuestionBreakdown(ctx, op, "WHERE "+unaffiliatedWhere)
}
