package database

import (
	"fmt"

	"github.com/RandomUserLabs/persondb/internal/person"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite establishes the SQLite connection and ensures the three tables
// exist. Table creation is idempotent; existing rows are never touched.
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if log != nil {
		log.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

// Migrate creates any missing tables for the three entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&person.Login{}, &person.Location{}, &person.Person{})
}

// Reset drops and recreates all three tables. Destructive and irreversible;
// callers opt in explicitly.
func Reset(db *gorm.DB, log *zap.Logger) error {
	if err := db.Migrator().DropTable(&person.Person{}, &person.Login{}, &person.Location{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if err := Migrate(db); err != nil {
		return fmt.Errorf("recreate tables: %w", err)
	}
	if log != nil {
		log.Info("database reset, tables recreated")
	}
	return nil
}
