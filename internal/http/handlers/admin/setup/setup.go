// Package setup реализует активацию аккаунта по пригласительной ссылке:
// показ формы и установку пароля.
package setup

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/invite"
	"github.com/fairaware/fair-aware/internal/web"
)

// Handler управляет HTTP-запросами активации аккаунта.
type Handler struct {
	log     *slog.Logger
	invites InviteService
}

// InviteService описывает проверку и погашение пригласительного токена.
type InviteService interface {
	Check(ctx context.Context, rawToken string) (*models.Invitation, error)
	Redeem(ctx context.Context, rawToken, name, rawPassword, confirm string) (string, error)
}

// New создает новый Handler с переданными логгером и сервисом приглашений.
func New(log *slog.Logger, invites InviteService) *Handler {
	return &Handler{log: log, invites: invites}
}

type formData struct {
	Token string
}

// Show проверяет токен из query-строки и отдаёт форму установки пароля.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.setup.Show"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if _, err := h.invites.Check(r.Context(), token); err != nil {
		h.renderRejection(w, log, err)
		return
	}

	_ = web.Render(w, "setup", web.PageData{
		Title: "Set up your account",
		Data:  formData{Token: token},
	})
}

// Submit устанавливает пароль и активирует аккаунт. Токен одноразовый:
// после успеха приглашение удаляется, пользователя ведут на страницу входа.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.setup.Submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	token := r.URL.Query().Get("token")
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, token, "Could not read the form, please try again.")
		return
	}

	userID, err := h.invites.Redeem(r.Context(),
		token,
		r.PostFormValue("name"),
		r.PostFormValue("password"),
		r.PostFormValue("password_confirm"),
	)
	if err != nil {
		switch {
		case errors.Is(err, invite.ErrPasswordTooShort):
			h.renderForm(w, token, "Password must be at least 8 characters long.")
		case errors.Is(err, invite.ErrPasswordMismatch):
			h.renderForm(w, token, "Passwords do not match.")
		case errors.Is(err, invite.ErrInvalidInvite), errors.Is(err, invite.ErrInviteExpired):
			h.renderRejection(w, log, err)
		default:
			log.Error("failed to redeem invitation", sl.Err(err))
			h.renderForm(w, token, "Something went wrong, please try again.")
		}
		return
	}

	log.Info("account activated", slog.String("user_id", userID))
	_ = web.Render(w, "login", web.PageData{
		Title: "Sign in",
		Flash: "Your account is ready. Sign in with your new password.",
	})
}

func (h *Handler) renderForm(w http.ResponseWriter, token, errMsg string) {
	_ = web.Render(w, "setup", web.PageData{
		Title: "Set up your account",
		Error: errMsg,
		Data:  formData{Token: token},
	})
}

func (h *Handler) renderRejection(w http.ResponseWriter, log *slog.Logger, err error) {
	msg := "This invitation link is not valid."
	switch {
	case errors.Is(err, invite.ErrInviteExpired):
		msg = "This invitation link has expired. Ask an administrator to send a new one."
	case errors.Is(err, invite.ErrInvalidInvite):
	default:
		log.Error("failed to check invitation", sl.Err(err))
		msg = "Something went wrong, please try again."
	}

	w.WriteHeader(http.StatusForbidden)
	_ = web.Render(w, "login", web.PageData{
		Title: "Sign in",
		Error: msg,
	})
}
