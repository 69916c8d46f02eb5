// Package fairaware предоставляет маршруты сервиса FAIR-Aware.
package fairaware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/fairaware/fair-aware/internal/config"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/assessments"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/checksession"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/coursecodes"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/dashboard"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/download"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/login"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/logout"
	"github.com/fairaware/fair-aware/internal/http/handlers/admin/setup"
	adminusers "github.com/fairaware/fair-aware/internal/http/handlers/admin/users"
	"github.com/fairaware/fair-aware/internal/http/handlers/api/answers"
	"github.com/fairaware/fair-aware/internal/http/handlers/api/codecheck"
	"github.com/fairaware/fair-aware/internal/http/handlers/api/health"
	"github.com/fairaware/fair-aware/internal/http/handlers/api/submit"
	"github.com/fairaware/fair-aware/internal/http/middlewarectx"
	assessmentservice "github.com/fairaware/fair-aware/internal/services/assessment"
	inviteservice "github.com/fairaware/fair-aware/internal/services/invite"
	mailerservice "github.com/fairaware/fair-aware/internal/services/mailer"
	sessionservice "github.com/fairaware/fair-aware/internal/services/session"
	userservice "github.com/fairaware/fair-aware/internal/services/user"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

// publicRateLimit ограничивает публичный API по адресу клиента: анкеты
// прилетают из браузерного виджета, всплесков больше burst с одного
// адреса быть не должно.
var publicRateLimit = middlewarectx.NewPerIPRateLimiter(rate.Limit(20), 40)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	cfg *config.Config,
	db *repository.Storage,
	assessmentSvc *assessmentservice.Service,
	sessionSvc *sessionservice.Service,
	inviteSvc *inviteservice.Service,
	userSvc *userservice.Service,
	invitationMailer *mailerservice.Service,
) {
	secureCookies := cfg.IsProduction()

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Публичный JSON API виджета опроса
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(publicRateLimit, logger))
		r.Post("/assessment", submit.New(logger, assessmentSvc, cfg.HostInstance).ServeHTTP)
		r.Post("/download", answers.New(logger, assessmentSvc, userSvc, cfg.HostInstance).ServeHTTP)
		r.Get("/course-code/{code}", codecheck.New(logger, assessmentSvc).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)
	})

	// Админ-панель
	r.Route("/admin", func(r chi.Router) {
		r.Use(
			middlewarectx.SecureHeadersMiddleware,
			middlewarectx.NoStoreMiddleware,
			middlewarectx.CSRFProtectMiddleware(cfg.PublicBaseURL, logger),
		)

		// Вход и активация доступны без сессии
		loginHandler := login.New(logger, userSvc, sessionSvc, secureCookies)
		r.Get("/login", loginHandler.Show)
		r.Post("/login", loginHandler.Submit)

		setupHandler := setup.New(logger, inviteSvc)
		r.Get("/setup", setupHandler.Show)
		r.Post("/setup", setupHandler.Submit)

		// Всё остальное за сессионной кукой
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionAuthMiddleware(sessionSvc, logger, secureCookies))

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
			})
			r.Get("/dashboard", dashboard.New(logger, assessmentSvc).ServeHTTP)
			r.Post("/logout", logout.New(logger, sessionSvc, secureCookies).ServeHTTP)

			codesHandler := coursecodes.New(logger, assessmentSvc)
			r.Get("/course-codes", codesHandler.List)
			r.Post("/course-codes", codesHandler.Create)
			r.Get("/course-codes/unaffiliated", codesHandler.Unaffiliated)
			r.Get("/course-codes/{code}", codesHandler.Detail)

			r.Get("/assessments/{id}", assessments.New(logger, assessmentSvc).ServeHTTP)

			// Управление пользователями только для администраторов
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAdminMiddleware(logger))

				var m adminusers.Mailer
				if invitationMailer != nil {
					m = invitationMailer
				}
				usersHandler := adminusers.New(logger, userSvc, inviteSvc, sessionSvc, m, cfg.PublicBaseURL)
				r.Get("/users", usersHandler.List)
				r.Post("/users", usersHandler.Invite)
				r.Get("/users/{id}", usersHandler.Detail)
				r.Post("/users/{id}/reinvite", usersHandler.Reinvite)
				r.Post("/users/{id}/status", usersHandler.SetStatus)
				r.Post("/users/{id}/logout", usersHandler.ForceLogout)
				r.Post("/users/{id}/delete", usersHandler.Delete)
			})

			// JSON API админ-панели
			r.Get("/api/check-session", checksession.New().ServeHTTP)
			r.Get("/api/download", download.New(logger, assessmentSvc).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
