package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	"github.com/fairaware/fair-aware/internal/lib/sl"
)

// Handler завершает сессию администратора.
type Handler struct {
	log           *slog.Logger
	sessions      SessionService
	secureCookies bool
}

// SessionService описывает отзыв одной сессии по токену.
type SessionService interface {
	Invalidate(ctx context.Context, token string) error
}

// New создает новый Handler с переданными логгером и сервисом сессий.
func New(log *slog.Logger, sessions SessionService, secureCookies bool) *Handler {
	return &Handler{log: log, sessions: sessions, secureCookies: secureCookies}
}

// ServeHTTP удаляет сессию на сервере и гасит куку. Отказ хранилища не
// мешает выходу: кука в любом случае сбрасывается.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if c, err := r.Cookie(middlewarectx.SessionCookieName); err == nil {
		if err := h.sessions.Invalidate(r.Context(), c.Value); err != nil {
			log.Error("failed to invalidate session", sl.Err(err))
		}
	}

	middlewarectx.ClearSessionCookie(w, h.secureCookies)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
