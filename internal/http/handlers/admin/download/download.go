// Package download реализует выгрузку анкет в CSV из админ-панели.
package download

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/http/response"
	"github.com/fairaware/fair-aware/internal/lib/csvexport"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/assessment"
)

// Handler управляет HTTP-запросами CSV-выгрузки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выборки анкет для выгрузки с проверкой доступа.
type Service interface {
	DownloadAll(ctx context.Context, usr *models.User) ([]models.Submission, error)
	DownloadByCode(ctx context.Context, usr *models.User, code string) ([]models.Submission, error)
	DownloadUnaffiliated(ctx context.Context, usr *models.User) ([]models.Submission, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary      Выгрузка анкет в CSV
// @Description  Отдаёт анкеты области scope=all|code|unaffiliated файлом CSV
// @Tags         admin
// @Produce      text/csv
// @Param        scope query string true  "Область выгрузки" Enums(all, code, unaffiliated)
// @Param        code  query string false "Код курса для scope=code"
// @Success      200 {string} string
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /admin/api/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.download"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	usr, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}

	scope := r.URL.Query().Get("scope")
	code := r.URL.Query().Get("code")

	var (
		subs []models.Submission
		err  error
		name string
	)
	switch scope {
	case "all":
		subs, err = h.service.DownloadAll(r.Context(), usr)
		name = "all"
	case "code":
		if code == "" {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("code parameter is required for scope=code"))
			return
		}
		subs, err = h.service.DownloadByCode(r.Context(), usr, code)
		name = code
	case "unaffiliated":
		subs, err = h.service.DownloadUnaffiliated(r.Context(), usr)
		name = "unaffiliated"
	default:
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unsupported scope"))
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrCodeNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("course code not found"))
		case errors.Is(err, assessment.ErrForbidden):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("access denied"))
		default:
			log.Error("failed to collect submissions", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+csvexport.Filename(name, time.Now())+`"`)
	if err := csvexport.Write(w, subs); err != nil {
		// заголовки уже ушли, остаётся залогировать
		log.Error("failed to stream csv", sl.Err(err))
	}
}
