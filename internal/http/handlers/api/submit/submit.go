// Package submit реализует HTTP-обработчик приёма заполненной анкеты
// с публичной формы.
//
// Handler принимает JSON с ответами, валидирует их и сохраняет анкету
// через сервис, возвращая ID созданной записи.
package submit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/fairaware/fair-aware/internal/http/response"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
)

// Handler управляет HTTP-запросами приёма анкет.
type Handler struct {
	log      *slog.Logger
	service  Service
	host     string // имя инстанса, записывается в каждую анкету
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики приёма анкеты.
type Service interface {
	Submit(ctx context.Context, host string, answers models.Answers) (int64, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, host string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		host:     host,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Принять заполненную анкету
// @Description Сохраняет ответы публичной формы FAIR-Aware. Возвращает ID созданной анкеты.
// @Tags Public
// @Accept  json
// @Produce  json
// @Param request body models.Answers true "Ответы анкеты"
// @Success 200 {object} response.Response "Анкета принята"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/assessment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.Answers
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Submit(r.Context(), h.host, req)
	if err != nil {
		log.Error("failed to store submission", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to store submission"))
		return
	}

	log.Info("submission stored", slog.Int64("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"id": id}))
}
