package assessments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/lib/fairscore"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/assessment"
	"github.com/fairaware/fair-aware/internal/web"
)

// Handler отдаёт страницу одной анкеты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение анкеты с проверкой доступа.
type Service interface {
	Detail(ctx context.Context, usr *models.User, id int64) (*models.Submission, int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

type detailData struct {
	Sub   *models.Submission
	Score int
	Label string
	Rows  []fairscore.QuestionAnswer
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.assessments"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sub, score, err := h.service.Detail(r.Context(), usr, id)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrSubmissionNotFound):
			http.NotFound(w, r)
		case errors.Is(err, assessment.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			log.Error("failed to load submission", sl.Err(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	page := web.PageFor("Assessment #"+strconv.FormatInt(id, 10), usr)
	page.Data = detailData{
		Sub:   sub,
		Score: score,
		Label: fairscore.ScoreLabel(score),
		Rows:  fairscore.QuestionAnswers(sub.Answers),
	}
	_ = web.Render(w, "assessment_detail", page)
}
