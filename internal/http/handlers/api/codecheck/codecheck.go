// Package codecheck реализует проверку кода курса для публичной формы:
// форма подсказывает участнику, что введённый код существует.
package codecheck

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fairaware/fair-aware/internal/http/response"
	"github.com/fairaware/fair-aware/internal/lib/sl"
)

// Handler управляет HTTP-запросами проверки кода курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики проверки кода.
type Service interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверить код курса
// @Description Сообщает, существует ли код курса. Используется публичной формой до отправки анкеты.
// @Tags Public
// @Produce  json
// @Param code path string true "Код курса"
// @Success 200 {object} response.Response "Признак существования кода"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/course-code/{code} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.codecheck"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	code := chi.URLParam(r, "code")

	exists, err := h.service.CodeExists(r.Context(), code)
	if err != nil {
		log.Error("failed to check course code", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to check course code"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{"exists": exists}))
}
