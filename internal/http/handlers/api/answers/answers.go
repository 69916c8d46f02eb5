// Package answers реализует публичную выгрузку анкет в JSON. Выгрузка
// требует почту и пароль активного пользователя админ-панели.
package answers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/fairaware/fair-aware/internal/http/response"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/user"
)

// Handler управляет HTTP-запросами публичной выгрузки анкет.
type Handler struct {
	log      *slog.Logger
	service  Service
	users    UserService
	host     string // инстанс сервиса, выгружаются только его анкеты
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики выгрузки анкет.
type Service interface {
	PublicList(ctx context.Context, code, host string) ([]models.Submission, error)
}

// UserService описывает проверку пароля пользователя.
type UserService interface {
	Authenticate(ctx context.Context, email, rawPassword string) (*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, users UserService, host string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		users:    users,
		host:     host,
		validate: validator.New(),
	}
}

// Request — тело запроса выгрузки.
type Request struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
	Code     string `json:"code" validate:"required,max=255"`
}

// ServeHTTP godoc
// @Summary Выгрузить анкеты
// @Description Возвращает анкеты по коду курса, спецзначение downloadall отдаёт все анкеты инстанса. Требуются почта и пароль активного пользователя админ-панели.
// @Tags Public
// @Accept  json
// @Produce  json
// @Param request body Request true "Почта, пароль и код курса"
// @Success 200 {object} response.Response "Список анкет"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 404 {object} response.ErrorResponse "Анкет по коду нет"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/download [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.api.answers"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
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

	if _, err := h.users.Authenticate(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) ||
			errors.Is(err, user.ErrUserPending) ||
			errors.Is(err, user.ErrUserDisabled) {
			log.Warn("download rejected", slog.String("email", req.Email))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("authentication failed"))
			return
		}
		log.Error("failed to authenticate", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list answers"))
		return
	}

	result, err := h.service.PublicList(r.Context(), req.Code, h.host)
	if err != nil {
		log.Error("failed to list answers", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list answers"))
		return
	}

	if len(result) == 0 {
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("no submissions found for this code"))
		return
	}

	log.Info("answers listed", slog.Int("count", len(result)), slog.String("code", req.Code))
	render.JSON(w, r, response.StatusOKWithData(result))
}
