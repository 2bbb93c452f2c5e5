// Package testutil provides shared helpers for service and handler tests:
// an in-memory database, model fixtures, and error assertions.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"papertrade/internal/models"
)

// allModels lists every model migrated into the test database.
var allModels = []interface{}{
	&models.User{},
	&models.Portfolio{},
	&models.Holding{},
	&models.Transaction{},
	&models.Subscription{},
}

// SetupTestDB creates an in-memory SQLite database with the full schema.
// Fixtures generate unique identifiers, so tests sharing the cache stay
// independent.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// TeardownTestDB closes the underlying connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("failed to close test database: %v", err)
	}
}
