// Package login реализует форму входа в админ-панель: показ страницы и
// проверку пароля с выдачей сессионной куки.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/lib/metrics"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/user"
	"github.com/fairaware/fair-aware/internal/web"
)

// Handler управляет HTTP-запросами входа в админ-панель.
type Handler struct {
	log           *slog.Logger
	users         UserService
	sessions      SessionService
	secureCookies bool
}

// UserService описывает проверку пароля пользователя.
type UserService interface {
	Authenticate(ctx context.Context, email, rawPassword string) (*models.User, error)
}

// SessionService описывает выдачу и проверку сессий.
type SessionService interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, compositeToken string) (*models.SessionUser, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, users UserService, sessions SessionService, secureCookies bool) *Handler {
	return &Handler{
		log:           log,
		users:         users,
		sessions:      sessions,
		secureCookies: secureCookies,
	}
}

// Show отдаёт страницу входа. Пользователя с живой сессией сразу
// отправляет на панель.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middlewarectx.SessionCookieName); err == nil {
		if _, err := h.sessions.Validate(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
			return
		}
	}
	h.renderForm(w, "")
}

// Submit проверяет пароль и выдаёт сессионную куку. Причина отказа не
// уточняется: и неизвестная почта, и неверный пароль дают один ответ.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseForm(); err != nil {
		h.renderForm(w, "Could not read the form, please try again.")
		return
	}
	email := r.PostFormValue("email")
	rawPassword := r.PostFormValue("password")

	usr, err := h.users.Authenticate(r.Context(), email, rawPassword)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			log.Warn("login rejected", slog.String("email", email))
			h.renderForm(w, "Invalid email or password.")
		case errors.Is(err, user.ErrUserPending):
			metrics.LoginAttemptsTotal.WithLabelValues("pending").Inc()
			h.renderForm(w, "This account is not activated yet. Use your invitation link first.")
		case errors.Is(err, user.ErrUserDisabled):
			metrics.LoginAttemptsTotal.WithLabelValues("disabled").Inc()
			h.renderForm(w, "This account has been disabled.")
		default:
			log.Error("login failed", sl.Err(err))
			h.renderForm(w, "Something went wrong, please try again.")
		}
		return
	}

	token, err := h.sessions.Create(r.Context(), usr.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		h.renderForm(w, "Something went wrong, please try again.")
		return
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info("login succeeded", slog.String("user_id", usr.ID))
	middlewarectx.SetSessionCookie(w, token, h.secureCookies)
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, errMsg string) {
	_ = web.Render(w, "login", web.PageData{
		Title: "Sign in",
		Error: errMsg,
	})
}
