package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quickorder/internal/config"
	"quickorder/internal/models"
)

var DB *gorm.DB

// Init connects to Postgres, migrates and installs the handle in DB. It
// exits the process when the database is unreachable.
func Init(cfg *config.Config) {
	if _, err := Open(postgres.Open(cfg.DatabaseDSN)); err != nil {
		logrus.WithError(err).Fatal("database initialisation failed")
	}
	logrus.Info("database connected, migration complete")
}

// Open connects through dialector, migrates and installs the handle in DB.
// Tests pass an in-memory sqlite dialector.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Profile{},
		&models.Vendor{},
		&models.GroceryItem{},
		&models.Order{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
