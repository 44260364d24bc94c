package db

import (
	"fmt"

	"portal_gateway/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate runs database migrations for all models
func Migrate(gdb *gorm.DB, logger *logrus.Entry) error {
	logger.Info("Starting database migration...")

	models := []interface{}{
		&model.MerchantSite{},
	}

	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Infof("Database migration completed (%d tables)", len(models))
	return nil
}
