// Бутстрап-утилита: создание первой учётной записи администратора.
// Дальше администраторов приглашают через саму панель, но первого
// кто-то должен завести.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairaware/fair-aware/internal/config"
	"github.com/fairaware/fair-aware/internal/lib/password"
	"github.com/fairaware/fair-aware/internal/lib/sl"
	"github.com/fairaware/fair-aware/internal/models"
	"github.com/fairaware/fair-aware/internal/storage/repository"
)

func main() {
	email := flag.String("email", "", "email of the admin account")
	rawPassword := flag.String("password", "", "password of the admin account")
	name := flag.String("name", "", "display name (optional)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *email == "" || *rawPassword == "" {
		logger.Error("both -email and -password are required")
		os.Exit(1)
	}
	if !strings.Contains(*email, "@") {
		logger.Error("email does not look like an address", slog.String("email", *email))
		os.Exit(1)
	}
	if len(*rawPassword) < password.MinLength {
		logger.Error("password is too short", slog.Int("min_length", password.MinLength))
		os.Exit(1)
	}

	cfg := config.MustLoad()
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()

	ctx := context.Background()
	taken, err := db.EmailExists(ctx, *email)
	if err != nil {
		logger.Error("failed to check email", sl.Err(err))
		os.Exit(1)
	}
	if taken {
		logger.Error("a user with this email already exists", slog.String("email", *email))
		os.Exit(1)
	}

	hash, err := password.GetHash(*rawPassword)
	if err != nil {
		logger.Error("failed to hash password", sl.Err(err))
		os.Exit(1)
	}

	usr := models.User{
		ID:           uuid.NewString(),
		Email:        *email,
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
		PasswordHash: &hash,
		CreatedAt:    time.Now().UTC(),
	}
	if *name != "" {
		usr.Name = name
	}

	if err := db.CreateUser(ctx, usr); err != nil {
		logger.Error("failed to create admin", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("admin account created", slog.String("email", *email), slog.String("id", usr.ID))
}
