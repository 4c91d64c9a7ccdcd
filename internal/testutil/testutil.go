// Package testutil provides database fixtures for package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/internal/domain"
	"github.com/Alexcat84/GemStoneNFTManager-PC-sub000/pkg/database"
)

// DB returns a migrated, private in-memory SQLite database that is closed
// when the test ends.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := database.New(&database.Config{
		Driver:   "sqlite",
		FilePath: "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000",
		LogLevel: "silent",
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	tb.Cleanup(func() {
		_ = database.Close(db)
	})

	if err := database.AutoMigrate(db, domain.Models()...); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}
