package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/assessment"
	"github.com/fairaware/fair-aware/internal/web"
)

// Handler отдаёт главную страницу админ-панели.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение агрегатов главной страницы.
type Service interface {
	GetDashboard(ctx context.Context, usr *models.User) (*assessment.Dashboard, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	dash, err := h.service.GetDashboard(r.Context(), usr)
	if err != nil {
		log.Error("failed to load dashboard", sl.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	page := web.PageFor("Dashboard", usr)
	page.Data = dash
	_ = web.Render(w, "dashboard", page)
}
