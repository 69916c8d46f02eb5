package assessment

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) InsertSubmission(ctx context.Context, host string, a models.Answers) (int64, error) {
	args := m.Called(ctx, host, a)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetSubmissionByID(ctx context.Context, id int64) (*models.Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}
func (m *RepoMock) ListAnswers(ctx context.Context, code, host string) ([]models.Submission, error) {
	args := m.Called(ctx, code, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}
func (m *RepoMock) CountSubmissions(ctx context.Context, createdBy *string) (int, error) {
	args := m.Called(ctx, createdBy)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) CountMonthlySubmissions(ctx context.Context, createdBy *string) (int, error) {
	args := m.Called(ctx, createdBy)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) RecentSubmissions(ctx context.Context, limit int, createdBy *string) ([]models.SubmissionSummary, error) {
	args := m.Called(ctx, limit, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubmissionSummary), args.Error(1)
}
func (m *RepoMock) ListCourseCodes(ctx context.Context, createdBy *string) ([]models.CourseCode, error) {
	args := m.Called(ctx, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CourseCode), args.Error(1)
}
func (m *RepoMock) GetCourseCodeByCode(ctx context.Context, code string) (*models.CourseCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourseCode), args.Error(1)
}
func (m *RepoMock) CreateCourseCode(ctx context.Context, code, createdBy string) (int64, error) {
	args := m.Called(ctx, code, createdBy)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) IsOwnedCourseCode(ctx context.Context, code, userID string) (bool, error) {
	args := m.Called(ctx, code, userID)
	return args.Bool(0), args.Error(1)
}
func (m *RepoMock) CountCourseCodes(ctx context.Context, createdBy *string) (int, error) {
	args := m.Called(ctx, createdBy)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) SubmissionsByCode(ctx context.Context, code string, limit, offset int) ([]models.SubmissionSummary, error) {
	args := m.Called(ctx, code, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubmissionSummary), args.Error(1)
}
func (m *RepoMock) CountSubmissionsByCode(ctx context.Context, code string) (int, error) {
	args := m.Called(ctx, code)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) HostsByCode(ctx context.Context, code string) ([]string, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *RepoMock) CourseCodeStats(ctx context.Context, code string) (*models.CourseCodeStats, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourseCodeStats), args.Error(1)
}
func (m *RepoMock) QuestionBreakdown(ctx context.Context, code string) ([]models.QuestionStats, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuestionStats), args.Error(1)
}
func (m *RepoMock) UnaffiliatedSubmissions(ctx context.Context, limit, offset int) ([]models.SubmissionSummary, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SubmissionSummary), args.Error(1)
}
func (m *RepoMock) CountUnaffiliatedSubmissions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) UnaffiliatedHosts(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *RepoMock) UnaffiliatedStats(ctx context.Context) (*models.CourseCodeStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CourseCodeStats), args.Error(1)
}
func (m *RepoMock) UnaffiliatedQuestionBreakdown(ctx context.Context) ([]models.QuestionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuestionStats), args.Error(1)
}
func (m *RepoMock) SubmissionsForDownload(ctx context.Context, code string) ([]models.Submission, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}
func (m *RepoMock) AllSubmissionsForDownload(ctx context.Context, createdBy *string) ([]models.Submission, error) {
	args := m.Called(ctx, createdBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}
func (m *RepoMock) UnaffiliatedSubmissionsForDownload(ctx context.Context) ([]models.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Submission), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
func (m *CacheMock) InvalidatePrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

func newTestService(repo *RepoMock, cache *CacheMock) *Service {
	return New(repo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func adminUser() *models.User {
	return &models.User{ID: "admin-1", Role: models.RoleAdmin, Status: models.StatusActive}
}

func trainerUser() *models.User {
	return &models.User{ID: "trainer-1", Role: models.RoleTrainer, Status: models.StatusActive}
}

func TestService_Submit(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	answers := models.Answers{CQ1: "FAIR2026", YQ1: "researcher", YQ2: "life sciences", YQ3: "europe"}

	repo.On("InsertSubmission", mock.Anything, "aware.example.org", answers).Return(int64(42), nil)
	cache.On("InvalidatePrefix", mock.Anything, "dashboard:").Return(nil)

	svc := newTestService(repo, cache)
	id, err := svc.Submit(context.Background(), "aware.example.org", answers)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_Detail(t *testing.T) {
	t.Run("admin sees any submission", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubmissionByID", mock.Anything, int64(7)).
			Return(&models.Submission{ID: 7, Answers: models.Answers{FQ1: "yes", AQ1: "Yes"}}, nil)

		svc := newTestService(repo, new(CacheMock))
		sub, score, err := svc.Detail(context.Background(), adminUser(), 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), sub.ID)
		assert.Equal(t, 2, score)
	})

	t.Run("trainer sees submissions of their own codes", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubmissionByID", mock.Anything, int64(8)).
			Return(&models.Submission{ID: 8, Answers: models.Answers{CQ1: "FAIR2026"}}, nil)
		repo.On("IsOwnedCourseCode", mock.Anything, "FAIR2026", "trainer-1").Return(true, nil)

		svc := newTestService(repo, new(CacheMock))
		_, _, err := svc.Detail(context.Background(), trainerUser(), 8)
		require.NoError(t, err)
	})

	t.Run("trainer cannot open a foreign or unaffiliated submission", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubmissionByID", mock.Anything, int64(9)).
			Return(&models.Submission{ID: 9, Answers: models.Answers{CQ1: "FOREIGN1"}}, nil)
		repo.On("IsOwnedCourseCode", mock.Anything, "FOREIGN1", "trainer-1").Return(false, nil)
		repo.On("GetSubmissionByID", mock.Anything, int64(10)).
			Return(&models.Submission{ID: 10}, nil)

		svc := newTestService(repo, new(CacheMock))
		_, _, err := svc.Detail(context.Background(), trainerUser(), 9)
		assert.ErrorIs(t, err, ErrForbidden)
		_, _, err = svc.Detail(context.Background(), trainerUser(), 10)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetSubmissionByID", mock.Anything, int64(404)).Return(nil, repository.ErrNotFound)

		svc := newTestService(repo, new(CacheMock))
		_, _, err := svc.Detail(context.Background(), adminUser(), 404)
		assert.ErrorIs(t, err, ErrSubmissionNotFound)
	})
}

func TestService_GetDashboard(t *testing.T) {
	t.Run("admin sees the whole instance", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)

		cache.On("Get", mock.Anything, "dashboard:admin", mock.Anything).Return(false, nil)
		repo.On("CountSubmissions", mock.Anything, (*string)(nil)).Return(120, nil)
		repo.On("CountMonthlySubmissions", mock.Anything, (*string)(nil)).Return(7, nil)
		repo.On("CountCourseCodes", mock.Anything, (*string)(nil)).Return(5, nil)
		repo.On("RecentSubmissions", mock.Anything, RecentLimit, (*string)(nil)).
			Return([]models.SubmissionSummary{{ID: 1, FQ1: "yes", FQ2: "yes"}}, nil)
		cache.On("Set", mock.Anything, "dashboard:admin", mock.Anything, dashboardCacheTTL).Return(nil)

		svc := newTestService(repo, cache)
		dashboard, err := svc.GetDashboard(context.Background(), adminUser())
		require.NoError(t, err)
		assert.Equal(t, 120, dashboard.Stats.TotalSubmissions)
		assert.Equal(t, 7, dashboard.Stats.MonthlySubmissions)
		require.Len(t, dashboard.Recent, 1)
		assert.Equal(t, 2, dashboard.Recent[0].Score)
		assert.Equal(t, "Low", dashboard.Recent[0].Label)
	})

	t.Run("trainer scope is their own codes", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		trainer := trainerUser()

		scoped := mock.MatchedBy(func(createdBy *string) bool {
			return createdBy != nil && *createdBy == trainer.ID
		})
		cache.On("Get", mock.Anything, "dashboard:trainer-1", mock.Anything).Return(false, nil)
		repo.On("CountSubmissions", mock.Anything, scoped).Return(12, nil)
		repo.On("CountMonthlySubmissions", mock.Anything, scoped).Return(2, nil)
		repo.On("CountCourseCodes", mock.Anything, scoped).Return(1, nil)
		repo.On("RecentSubmissions", mock.Anything, RecentLimit, scoped).
			Return([]models.SubmissionSummary{}, nil)
		cache.On("Set", mock.Anything, "dashboard:trainer-1", mock.Anything, dashboardCacheTTL).Return(nil)

		svc := newTestService(repo, cache)
		dashboard, err := svc.GetDashboard(context.Background(), trainer)
		require.NoError(t, err)
		assert.Equal(t, 12, dashboard.Stats.TotalSubmissions)
	})

	t.Run("cache failure falls through to storage", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)

		cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, assert.AnError)
		repo.On("CountSubmissions", mock.Anything, (*string)(nil)).Return(1, nil)
		repo.On("CountMonthlySubmissions", mock.Anything, (*string)(nil)).Return(1, nil)
		repo.On("CountCourseCodes", mock.Anything, (*string)(nil)).Return(0, nil)
		repo.On("RecentSubmissions", mock.Anything, RecentLimit, (*string)(nil)).
			Return([]models.SubmissionSummary{}, nil)
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		svc := newTestService(repo, cache)
		_, err := svc.GetDashboard(context.Background(), adminUser())
		require.NoError(t, err)
	})
}

func TestService_CreateCourseCode(t *testing.T) {
	t.Run("creates free code", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetCourseCodeByCode", mock.Anything, "FAIR2026").Return(nil, repository.ErrNotFound)
		repo.On("CreateCourseCode", mock.Anything, "FAIR2026", "trainer-1").Return(int64(1), nil)

		svc := newTestService(repo, new(CacheMock))
		require.NoError(t, svc.CreateCourseCode(context.Background(), trainerUser(), "FAIR2026"))
		repo.AssertExpectations(t)
	})

	t.Run("taken code", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetCourseCodeByCode", mock.Anything, "FAIR2026").
			Return(&models.CourseCode{Code: "FAIR2026"}, nil)

		svc := newTestService(repo, new(CacheMock))
		err := svc.CreateCourseCode(context.Background(), trainerUser(), "FAIR2026")
		assert.ErrorIs(t, err, ErrCodeExists)
	})

	t.Run("rejects bad format", func(t *testing.T) {
		svc := newTestService(new(RepoMock), new(CacheMock))
		for _, code := range []string{"", "ab", "has space", "semi;colon", strings.Repeat("x", 65)} {
			assert.ErrorIs(t, svc.CreateCourseCode(context.Background(), trainerUser(), code), ErrInvalidCode)
		}
	})
}

func TestService_CourseCodeDetail(t *testing.T) {
	t.Run("trainer cannot open foreign code", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetCourseCodeByCode", mock.Anything, "FOREIGN1").
			Return(&models.CourseCode{Code: "FOREIGN1"}, nil)
		repo.On("IsOwnedCourseCode", mock.Anything, "FOREIGN1", "trainer-1").Return(false, nil)

		svc := newTestService(repo, new(CacheMock))
		_, err := svc.CourseCodeDetail(context.Background(), trainerUser(), "FOREIGN1", 1)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown code", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetCourseCodeByCode", mock.Anything, "MISSING1").Return(nil, repository.ErrNotFound)

		svc := newTestService(repo, new(CacheMock))
		_, err := svc.CourseCodeDetail(context.Background(), adminUser(), "MISSING1", 1)
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("admin gets full detail with paging", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetCourseCodeByCode", mock.Anything, "FAIR2026").
			Return(&models.CourseCode{Code: "FAIR2026"}, nil)
		repo.On("CourseCodeStats", mock.Anything, "FAIR2026").
			Return(&models.CourseCodeStats{Total: 60, Low: 20, Moderate: 20, High: 20}, nil)
		repo.On("QuestionBreakdown", mock.Anything, "FAIR2026").Return([]models.QuestionStats{}, nil)
		repo.On("HostsByCode", mock.Anything, "FAIR2026").Return([]string{"aware.example.org"}, nil)
		repo.On("SubmissionsByCode", mock.Anything, "FAIR2026", PageSize, PageSize).
			Return([]models.SubmissionSummary{{ID: 26}}, nil)

		svc := newTestService(repo, new(CacheMock))
		detail, err := svc.CourseCodeDetail(context.Background(), adminUser(), "FAIR2026", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, detail.Page)
		assert.Equal(t, 3, detail.TotalPages)
		assert.Equal(t, 60, detail.Stats.Total)
	})
}

func TestService_Downloads(t *testing.T) {
	t.Run("unaffiliated is admin only", func(t *testing.T) {
		svc := newTestService(new(RepoMock), new(CacheMock))
		_, err := svc.DownloadUnaffiliated(context.Background(), trainerUser())
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("trainer download by own code", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("IsOwnedCourseCode", mock.Anything, "FAIR2026", "trainer-1").Return(true, nil)
		repo.On("SubmissionsForDownload", mock.Anything, "FAIR2026").
			Return([]models.Submission{{ID: 1}}, nil)

		svc := newTestService(repo, new(CacheMock))
		result, err := svc.DownloadByCode(context.Background(), trainerUser(), "FAIR2026")
		require.NoError(t, err)
		assert.Len(t, result, 1)
	})

	t.Run("download all is scoped for trainer", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("AllSubmissionsForDownload", mock.Anything, mock.MatchedBy(func(createdBy *string) bool {
			return createdBy != nil && *createdBy == "trainer-1"
		})).Return([]models.Submission{}, nil)

		svc := newTestService(repo, new(CacheMock))
		_, err := svc.DownloadAll(context.Background(), trainerUser())
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestService_CodeExists(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetCourseCodeByCode", mock.Anything, "FAIR2026").
		Return(&models.CourseCode{Code: "FAIR2026"}, nil)
	repo.On("GetCourseCodeByCode", mock.Anything, "MISSING1").Return(nil, repository.ErrNotFound)

	svc := newTestService(repo, new(CacheMock))

	exists, err := svc.CodeExists(context.Background(), "FAIR2026")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.CodeExists(context.Background(), "MISSING1")
	require.NoError(t, err)
	assert.False(t, exists)
}
