package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"gatebot/internal/models"
)

// Migrate ensures the required tables exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Channel{}, &models.AccessLink{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
