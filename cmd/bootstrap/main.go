// Package main implements a standalone bootstrap tool that provisions the
// initial administrator account. It applies the schema migrations and then
// creates a user holding the admin role, so a fresh deployment has a way to
// sign in and manage roles and permissions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/config"
	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/repository/postgres"
	"github.com/crudkit/identity/migrations"
	"github.com/crudkit/identity/pkg/database"
	"github.com/crudkit/identity/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("identity-bootstrap", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	users := postgres.NewUserRepository(pool)
	roles := postgres.NewRoleRepository(pool)

	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin email: %w", err)
	}
	if exists {
		log.Info("admin account already exists, nothing to do", slog.String("email", email))
		return nil
	}

	if err := auth.ValidateStrength(password); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}
	hash, err := auth.NewPasswordHasher().Hash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	adminRole, err := roles.GetByName(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("look up admin role: %w", err)
	}

	admin := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		IsActive:     true,
		RoleID:       adminRole.ID,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Info("admin account created",
		slog.Int64("user_id", admin.ID),
		slog.String("email", email),
	)
	return nil
}
