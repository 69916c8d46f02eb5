// Package middlewarectx содержит HTTP middleware админ-панели.
//
// SessionAuthMiddleware проверяет сессионную куку через сервис сессий
// и кладёт пользователя в контекст запроса. Запросы JSON-API получают
// 401 с телом ошибки, страницы перенаправляются на форму входа.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/fairaware/fair-aware/internal/http/response"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/services/session"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserKey — ключ для аутентифицированного пользователя в контексте.
const UserKey Key = "session_user"

// apiPrefix отделяет JSON-API от страниц админ-панели.
const apiPrefix = "/admin/api/"

// SessionValidator описывает интерфейс сервиса сессий для проверки
// токена и отзыва сессии, владелец которой потерял доступ.
type SessionValidator interface {
	Validate(ctx context.Context, compositeToken string) (*models.SessionUser, error)
	Invalidate(ctx context.Context, compositeToken string) error
}

// UserFromContext возвращает пользователя, положенного SessionAuthMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	usr, ok := ctx.Value(UserKey).(*models.User)
	return usr, ok
}

// SessionAuthMiddleware возвращает middleware, которое проверяет
// сессионную куку. Логика работы:
//  1. Считывает куку admin_session.
//  2. Валидирует составной токен через сервис сессий.
//  3. Повторно проверяет статус владельца: сессия не-активного
//     пользователя отзывается и доступ теряется немедленно.
//  4. Кладёт пользователя в контекст запроса.
func SessionAuthMiddleware(sessions SessionValidator, log *slog.Logger, secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionAuthMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				deny(w, r, secureCookies)
				return
			}

			result, err := sessions.Validate(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrInvalidSession) {
					log.Error("session validation failed", sl.Err(err))
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, response.Error("internal service error"))
					return
				}
				deny(w, r, secureCookies)
				return
			}

			if result.User.Status != models.StatusActive {
				log.Warn("session of non-active user rejected",
					slog.String("user_id", result.User.ID),
					slog.String("status", result.User.Status))
				if err := sessions.Invalidate(r.Context(), cookie.Value); err != nil {
					log.Error("failed to invalidate session of non-active user", sl.Err(err))
				}
				deny(w, r, secureCookies)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, &result.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminMiddleware пропускает только администраторов. Ставится
// после SessionAuthMiddleware.
func RequireAdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			usr, ok := UserFromContext(r.Context())
			if !ok || usr.Role != models.RoleAdmin {
				log.Warn("admin-only path denied", slog.String("path", r.URL.Path))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// deny гасит куку и отвечает согласно типу запроса: JSON-API получает
// 401, страницы — перенаправление на форму входа.
func deny(w http.ResponseWriter, r *http.Request, secureCookies bool) {
	ClearSessionCookie(w, secureCookies)
	if strings.HasPrefix(r.URL.Path, apiPrefix) {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication required"))
		return
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
