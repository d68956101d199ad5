package database

import (
	"fmt"

	"github.com/nexusforge/console/pkg/common/config"
	"github.com/nexusforge/console/pkg/common/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenPostgres connects to the database holding console sessions.
func OpenPostgres(cfg *config.Config) (*gorm.DB, error) {
	return OpenPostgresDSN(cfg.PostgresDSN())
}

func OpenPostgresDSN(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Log.WithError(err).Error("Failed to connect to PostgreSQL")
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	logger.Log.Debug("Connected to PostgreSQL")
	return db, nil
}

func ClosePostgres(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
