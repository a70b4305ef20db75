package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"kaskecil/internal/config"
	"kaskecil/internal/database"
	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/logger"
	"kaskecil/internal/services"
	"kaskecil/pkg/lifecycle"
)

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|version|seed> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dbConfig := database.NewConfig(cfg)

	command := os.Args[1]
	if command == "seed" {
		return seed(cfg, dbConfig)
	}

	m, err := database.NewMigrate(dbConfig.URL())
	if err != nil {
		return err
	}
	defer database.CloseMigrate(m)

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Get().Info("Migrations applied successfully")

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil {
				return fmt.Errorf("invalid step count: %w", err)
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)

	default:
		return fmt.Errorf("unknown command: %s (use up, down, version, or seed)", command)
	}

	return nil
}

// seed creates the first super admin from ADMIN_EMAIL, ADMIN_PASSWORD and
// ADMIN_NAME. Running it again is a no-op.
func seed(cfg *config.Config, dbConfig *database.Config) error {
	if len(cfg.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}

	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.RunMigrations(); err != nil {
		return err
	}

	users := services.NewUserService(manager.DB())
	user, err := users.CreateUser(services.Actor{Role: lifecycle.RoleSuperAdmin}, services.UserInput{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
		Role:     lifecycle.RoleSuperAdmin,
	})
	if errors.Is(err, apperrors.ErrDuplicateEmail) {
		logger.Get().Infof("Super admin %s already exists", cfg.AdminEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	logger.Get().Infow("Super admin created", "email", user.Email, "id", user.ID)
	return nil
}
