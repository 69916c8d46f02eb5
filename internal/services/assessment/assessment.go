// Package assessment реализует работу с анкетами и кодами курса: приём
// ответов публичной формы, агрегаты для дашборда и выгрузки.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/fairaware/fair-aware/internal/lib/fairscore"
	"github.com/fairaware/fair-aware/internal/lib/metrics"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

var (
	// ErrCodeExists возвращается при создании уже занятого кода курса.
	ErrCodeExists = errors.New("course code already exists")
	// ErrCodeNotFound возвращается для неизвестного кода курса.
	ErrCodeNotFound = errors.New("course code not found")
	// ErrForbidden возвращается при обращении тренера к чужому коду.
	ErrForbidden = errors.New("access denied")
	// ErrInvalidCode возвращается для кода курса недопустимого формата.
	ErrInvalidCode = errors.New("invalid course code format")
	// ErrSubmissionNotFound возвращается для неизвестной анкеты.
	ErrSubmissionNotFound = errors.New("submission not found")
)

const (
	// PageSize — размер страницы списков анкет.
	PageSize = 25
	// RecentLimit — число последних анкет на дашборде.
	RecentLimit = 10

	dashboardCacheTTL = 60 * time.Second

	// dashboardCachePrefix объединяет ключи дашборда всех пользователей.
	dashboardCachePrefix = "dashboard:"
)

// codePattern ограничивает формат кода курса: буквы, цифры, дефис и
// подчёркивание, от 3 до 64 символов.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)

// Repository описывает контракт хранилища анкет и кодов курса.
type Repository interface {
	InsertSubmission(ctx context.Context, host string, a models.Answers) (int64, error)
	GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error)
	ListAnswers(ctx context.Context, code, host string) ([]models.Submission, error)

	CountSubmissions(ctx context.Context, createdBy *string) (int, error)
	CountMonthlySubmissions(ctx context.Context, createdBy *string) (int, error)
	RecentSubmissions(ctx context.Context, limit int, createdBy *string) ([]models.SubmissionSummary, error)

	ListCourseCodes(ctx context.Context, createdBy *string) ([]models.CourseCode, error)
	GetCourseCodeByCode(ctx context.Context, code string) (*models.CourseCode, error)
	CreateCourseCode(ctx context.Context, code, createdBy string) (int64, error)
	IsOwnedCourseCode(ctx context.Context, code, userID string) (bool, error)
	CountCourseCodes(ctx context.Context, createdBy *string) (int, error)

	SubmissionsByCode(ctx context.Context, code string, limit, offset int) ([]models.SubmissionSummary, error)
	CountSubmissionsByCode(ctx context.Context, code string) (int, error)
	HostsByCode(ctx context.Context, code string) ([]string, error)
	CourseCodeStats(ctx context.Context, code string) (*models.CourseCodeStats, error)
	QuestionBreakdown(ctx context.Context, code string) ([]models.QuestionStats, error)

	UnaffiliatedSubmissions(ctx context.Context, limit, offset int) ([]models.SubmissionSummary, error)
	CountUnaffiliatedSubmissions(ctx context.Context) (int, error)
	UnaffiliatedHosts(ctx context.Context) ([]string, error)
	UnaffiliatedStats(ctx context.Context) (*models.CourseCodeStats, error)
	UnaffiliatedQuestionBreakdown(ctx context.Context) ([]models.QuestionStats, error)

	SubmissionsForDownload(ctx context.Context, code string) ([]models.Submission, error)
	AllSubmissionsForDownload(ctx context.Context, createdBy *string) ([]models.Submission, error)
	UnaffiliatedSubmissionsForDownload(ctx context.Context) ([]models.Submission, error)
}

// Cache описывает методы для кэширования агрегатов дашборда.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// ScoredSummary — строка анкеты с вычисленным FAIR-баллом.
type ScoredSummary struct {
	models.SubmissionSummary
	Score int
	Label string
}

// CourseCodeDetail — агрегаты страницы кода курса.
type CourseCodeDetail struct {
	Code        string
	Owned       bool
	Stats       models.CourseCodeStats
	Questions   []models.QuestionStats
	Submissions []ScoredSummary
	Hosts       []string
	Page        int
	TotalPages  int
}

// Dashboard — агрегаты главной страницы админ-панели.
type Dashboard struct {
	Stats  models.DashboardStats
	Recent []ScoredSummary
}

// Service реализует бизнес-логику анкет и кодов курса.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Submit принимает ответы публичной формы и возвращает ID анкеты.
func (s *Service) Submit(ctx context.Context, host string, answers models.Answers) (int64, error) {
	const op = "assessment.Submit"

	id, err := s.repo.InsertSubmission(ctx, host, answers)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SubmissionsTotal.Inc()

	if err := s.cache.InvalidatePrefix(ctx, dashboardCachePrefix); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", sl.Err(err))
	}

	s.log.Info("submission accepted",
		slog.Int64("id", id),
		slog.String("host", host),
		slog.Int("score", fairscore.Score(answers)))
	return id, nil
}

// PublicList возвращает анкеты для публичного скачивания.
func (s *Service) PublicList(ctx context.Context, code, host string) ([]models.Submission, error) {
	const op = "assessment.PublicList"

	result, err := s.repo.ListAnswers(ctx, code, host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Detail возвращает анкету по ID вместе с её FAIR-баллом. Тренеру
// доступны только анкеты с его собственным кодом курса.
func (s *Service) Detail(ctx context.Context, usr *models.User, id int64) (*models.Submission, int, error) {
	const op = "assessment.Detail"

	sub, err := s.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrSubmissionNotFound
		}
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if usr.Role != models.RoleAdmin {
		if sub.CQ1 == "" {
			return nil, 0, ErrForbidden
		}
		if err := s.checkCodeAccess(ctx, usr, sub.CQ1); err != nil {
			return nil, 0, err
		}
	}
	return sub, fairscore.Score(sub.Answers), nil
}

// GetDashboard собирает агрегаты для главной страницы. Результат
// кэшируется: у администраторов общий ключ, у тренеров персональный.
func (s *Service) GetDashboard(ctx context.Context, usr *models.User) (*Dashboard, error) {
	const op = "assessment.GetDashboard"

	scope := scopeOf(usr)
	cacheKey := dashboardCacheKey(scope)

	var cached Dashboard
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("dashboard cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	total, err := s.repo.CountSubmissions(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	monthly, err := s.repo.CountMonthlySubmissions(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	codes, err := s.repo.CountCourseCodes(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	recent, err := s.repo.RecentSubmissions(ctx, RecentLimit, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dashboard := &Dashboard{
		Stats: models.DashboardStats{
			TotalSubmissions:   total,
			MonthlySubmissions: monthly,
			CourseCodeCount:    codes,
			Recent:             recent,
		},
		Recent: scoreSummaries(recent),
	}

	if err := s.cache.Set(ctx, cacheKey, dashboard, dashboardCacheTTL); err != nil {
		s.log.Warn("dashboard cache write failed", sl.Err(err))
	}
	return dashboard, nil
}

// ListCourseCodes возвращает коды курса со статистикой: тренеру — свои,
// администратору — все.
func (s *Service) ListCourseCodes(ctx context.Context, usr *models.User) ([]models.CourseCode, error) {
	const op = "assessment.ListCourseCodes"

	codes, err := s.repo.ListCourseCodes(ctx, scopeOf(usr))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return codes, nil
}

// CreateCourseCode создает новый код курса за пользователем.
func (s *Service) CreateCourseCode(ctx context.Context, usr *models.User, code string) error {
	const op = "assessment.CreateCourseCode"

	if !codePattern.MatchString(code) {
		return ErrInvalidCode
	}

	if _, err := s.repo.GetCourseCodeByCode(ctx, code); err == nil {
		return ErrCodeExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.repo.CreateCourseCode(ctx, code, usr.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("course code created", slog.String("code", code), slog.String("user_id", usr.ID))
	return nil
}

// CodeExists проверяет существование кода курса для публичной формы.
func (s *Service) CodeExists(ctx context.Context, code string) (bool, error) {
	const op = "assessment.CodeExists"

	if _, err := s.repo.GetCourseCodeByCode(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// CourseCodeDetail собирает страницу кода курса. Тренеру доступны
// только собственные коды.
func (s *Service) CourseCodeDetail(ctx context.Context, usr *models.User, code string, page int) (*CourseCodeDetail, error) {
	const op = "assessment.CourseCodeDetail"

	if _, err := s.repo.GetCourseCodeByCode(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.checkCodeAccess(ctx, usr, code); err != nil {
		return nil, err
	}

	stats, err := s.repo.CourseCodeStats(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	questions, err := s.repo.QuestionBreakdown(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hosts, err := s.repo.HostsByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page = normalizePage(page)
	summaries, err := s.repo.SubmissionsByCode(ctx, code, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &CourseCodeDetail{
		Code:        code,
		Owned:       true,
		Stats:       *stats,
		Questions:   questions,
		Submissions: scoreSummaries(summaries),
		Hosts:       hosts,
		Page:        page,
		TotalPages:  totalPages(stats.Total),
	}, nil
}

// UnaffiliatedDetail собирает страницу анкет без кода курса.
// Доступна только администраторам.
func (s *Service) UnaffiliatedDetail(ctx context.Context, usr *models.User, page int) (*CourseCodeDetail, error) {
	const op = "assessment.UnaffiliatedDetail"

	if usr.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	stats, err := s.repo.UnaffiliatedStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	questions, err := s.repo.UnaffiliatedQuestionBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	hosts, err := s.repo.UnaffiliatedHosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page = normalizePage(page)
	summaries, err := s.repo.UnaffiliatedSubmissions(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &CourseCodeDetail{
		Stats:       *stats,
		Questions:   questions,
		Submissions: scoreSummaries(summaries),
		Hosts:       hosts,
		Page:        page,
		TotalPages:  totalPages(stats.Total),
	}, nil
}

// DownloadByCode возвращает анкеты кода курса для CSV-выгрузки.
func (s *Service) DownloadByCode(ctx context.Context, usr *models.User, code string) ([]models.Submission, error) {
	const op = "assessment.DownloadByCode"

	if err := s.checkCodeAccess(ctx, usr, code); err != nil {
		return nil, err
	}
	result, err := s.repo.SubmissionsForDownload(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DownloadAll возвращает анкеты для сводной CSV-выгрузки: тренеру — по
// его кодам, администратору — все.
func (s *Service) DownloadAll(ctx context.Context, usr *models.User) ([]models.Submission, error) {
	const op = "assessment.DownloadAll"

	result, err := s.repo.AllSubmissionsForDownload(ctx, scopeOf(usr))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DownloadUnaffiliated возвращает анкеты без кода курса; только для
// администраторов.
func (s *Service) DownloadUnaffiliated(ctx context.Context, usr *models.User) ([]models.Submission, error) {
	const op = "assessment.DownloadUnaffiliated"

	if usr.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	result, err := s.repo.UnaffiliatedSubmissionsForDownload(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) checkCodeAccess(ctx context.Context, usr *models.User, code string) error {
	const op = "assessment.checkCodeAccess"

	if usr.Role == models.RoleAdmin {
		return nil
	}
	owned, err := s.repo.IsOwnedCourseCode(ctx, code, usr.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !owned {
		return ErrForbidden
	}
	return nil
}

// scopeOf возвращает фильтр владельца: nil для администратора.
func scopeOf(usr *models.User) *string {
	if usr.Role == models.RoleAdmin {
		return nil
	}
	return &usr.ID
}

func scoreSummaries(summaries []models.SubmissionSummary) []ScoredSummary {
	result := make([]ScoredSummary, len(summaries))
	for i, sm := range summaries {
		score := fairscore.ScoreSummary(sm)
		result[i] = ScoredSummary{
			SubmissionSummary: sm,
			Score:             score,
			Label:             fairscore.ScoreLabel(score),
		}
	}
	return result
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func totalPages(total int) int {
	pages := (total + PageSize - 1) / PageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func dashboardCacheKey(scope *string) string {
	if scope == nil {
		return dashboardCachePrefix + "admin"
	}
	return dashboardCachePrefix + *scope
}
