package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sitepanel/internal/models"
)

var DB *gorm.DB

// InitDB opens the journal database at dbPath and stores it in DB.
func InitDB(dbPath string, logger *zap.Logger) error {
	db, err := Open(dbPath, logger)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open opens and migrates a sqlite database. Use ":memory:" in tests.
func Open(dbPath string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	logger.Info("migrating database", zap.String("path", dbPath))
	if err := db.AutoMigrate(&models.Activity{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
