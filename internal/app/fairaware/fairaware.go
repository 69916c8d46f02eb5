// Package fairaware собирает сервис опроса FAIR-Aware: хранилище,
// кэш, бизнес-сервисы, маршруты и HTTP-сервер.
package fairaware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/fairaware/fair-aware/internal/cache"
	"github.com/fairaware/fair-aware/internal/config"
	"github.com/fairaware/fair-aware/internal/lib/smtp"
	"github.com/fairaware/fair-aware/internal/migrations"
	assessmentservice "github.com/fairaware/fair-aware/internal/services/assessment"
	inviteservice "github.com/fairaware/fair-aware/internal/services/invite"
	mailerservice "github.com/fairaware/fair-aware/internal/services/mailer"
	sessionservice "github.com/fairaware/fair-aware/internal/services/session"
	userservice "github.com/fairaware/fair-aware/internal/services/user"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

// App держит собранный HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New инициализирует хранилище с миграциями, кэш и все сервисы,
// регистрирует маршруты и возвращает готовое к запуску приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	sessions := sessionservice.New(db, logger)
	invites := inviteservice.New(db, db, logger)
	users := userservice.New(db, sessions, logger)
	assessments := assessmentservice.New(db, cacheRedis, logger)

	var invitationMailer *mailerservice.Service
	if cfg.SMTP.MailEnabled() {
		invitationMailer = mailerservice.New(smtp.NewTransport(cfg.SMTP, logger), logger)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, assessments, sessions, invites, users, invitationMailer)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до его остановки или отмены
// контекста. При отмене сервер завершается мягко.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
