package migrations

import (
	"context"
	"fmt"

	"artastic/internal/models"
	"artastic/internal/repository"
	"artastic/internal/services"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table in creation order. Items follow their orders.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Piece{},
		&models.Filament{},
		&models.Client{},
		&models.Order{},
		&models.OrderItem{},
	}
}

// RunMigrations brings the schema up to date and creates default data.
// Existing rows are never dropped.
func RunMigrations(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string, logger *zap.Logger) error {
	logger.Info("running database migrations")

	if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Warn("could not ensure pgcrypto extension", zap.Error(err))
	}

	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createDefaultData(ctx, db, adminEmail, adminPassword, logger); err != nil {
		logger.Warn("failed to create default data", zap.Error(err))
	}

	logger.Info("database migrations completed")
	return nil
}

// createDefaultData seeds the operator account.
func createDefaultData(ctx context.Context, db *gorm.DB, adminEmail, adminPassword string, logger *zap.Logger) error {
	userService := services.NewUserService(repository.NewUserRepository(db), logger)
	_, err := userService.EnsureAdmin(ctx, adminEmail, adminPassword)
	return err
}
