package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// entities to auto-migrate, ordered parents first.
var entities = []any{
	&domain.Asteroid{},
	&domain.CloseApproach{},
	&domain.ThreatAssessment{},
}

// Open connects to PostgreSQL and runs auto-migration for the three
// entity tables.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(entities...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
