package database

import (
	"path/filepath"
	"testing"

	"github.com/RandomUserLabs/persondb/internal/person"
	"go.uber.org/zap"
)

func TestOpenSQLiteCreatesTables(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "persons.db")

	db, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	for _, table := range []string{"logins", "locations", "persons"} {
		if !db.Migrator().HasTable(table) {
			testContext.Fatalf("expected table %q to exist", table)
		}
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected error for empty database path")
	}
}

func TestOpenSQLiteIsIdempotent(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "persons.db")

	db, err := OpenSQLite(databasePath, nil)
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Create(&person.Login{Username: "survivor", UUID: "u", Password: "p"}).Error; err != nil {
		testContext.Fatalf("failed to insert login: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		testContext.Fatalf("failed to unwrap connection: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		testContext.Fatalf("failed to close connection: %v", err)
	}

	reopened, err := OpenSQLite(databasePath, nil)
	if err != nil {
		testContext.Fatalf("failed to reopen sqlite: %v", err)
	}
	var count int64
	if err := reopened.Model(&person.Login{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count logins: %v", err)
	}
	if count != 1 {
		testContext.Fatalf("expected existing row to survive reopen, got %d rows", count)
	}
}

func TestResetDropsExistingRows(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "persons.db")

	db, err := OpenSQLite(databasePath, nil)
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Create(&person.Login{Username: "doomed", UUID: "u", Password: "p"}).Error; err != nil {
		testContext.Fatalf("failed to insert login: %v", err)
	}

	if err := Reset(db, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to reset database: %v", err)
	}

	var count int64
	if err := db.Model(&person.Login{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count logins: %v", err)
	}
	if count != 0 {
		testContext.Fatalf("expected empty table after reset, got %d rows", count)
	}
}
