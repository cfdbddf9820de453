package main

import (
	"flag"
	"time"

	"github.com/google/uuid"

	"agrimarket/internal/config"
	"agrimarket/internal/model"
	"agrimarket/internal/repository"
	"agrimarket/pkg/database"
	"agrimarket/pkg/logger"
)

func main() {
	email := flag.String("email", "admin@smartfarm.com", "account to reset")
	newPassword := flag.String("password", "admin123", "new password (min 6 characters)")
	flag.Parse()

	// 1. Load config
	cfg := config.Load()
	if len(*newPassword) < 6 {
		logger.Fatal("Password must be at least 6 characters", nil)
	}

	// 2. Setup Database
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}
	db, err := database.Open(database.Options{Driver: cfg.DBDriver, DSN: dsn})
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]any{"error": err.Error()})
	}
	users := repository.NewUserRepo(db)

	// 3. Find account
	user, err := users.FindByEmail(*email)
	if err != nil {
		logger.Fatal("User not found", map[string]any{"email": *email, "error": err.Error()})
	}

	// 4. Hash and store the new password
	hashed := &model.User{}
	if err := hashed.SetPassword(*newPassword); err != nil {
		logger.Fatal("Failed to hash password", map[string]any{"error": err.Error()})
	}
	if err := users.UpdatePassword(user.ID, hashed.Password); err != nil {
		logger.Fatal("Failed to update password", map[string]any{"error": err.Error()})
	}

	// 5. End existing sessions
	if err := users.UpdateSession(user.ID, uuid.NewString(), time.Now()); err != nil {
		logger.Warn("Failed to revoke sessions", map[string]any{"error": err.Error()})
	}

	logger.Info("Password reset", map[string]any{"email": user.Email, "role": user.Role})
}
