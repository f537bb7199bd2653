package main

import (
	"context"
	"time"

	"artastic/internal/config"
	"artastic/internal/database"
	"artastic/internal/logger"
	"artastic/internal/migrations"

	"go.uber.org/zap"
)

// Prepares the schema and the operator account without starting the server.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabaseURL, cfg.DBLogLevel, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := migrations.RunMigrations(ctx, db, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}
	log.Info("database initialization completed", zap.String("admin_email", cfg.AdminEmail))
}
