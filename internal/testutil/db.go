// Package testutil holds helpers shared by storage-backed tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/inote-dev/inote/db"
	"github.com/inote-dev/inote/internal/config"
	"github.com/inote-dev/inote/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database in a per-test temp directory.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.ConnectDatabase(config.DriverSQLite, filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("ConnectDatabase() failed: %v", err)
	}
	if err := db.MigrateDatabase(gdb); err != nil {
		t.Fatalf("MigrateDatabase() failed: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return gdb
}

// CreateUser inserts a user row directly, bypassing password hashing.
func CreateUser(t *testing.T, gdb *gorm.DB, name string) models.User {
	t.Helper()

	user := models.User{Name: name, Email: name + "@example.com", PasswordHash: "x"}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user %q: %v", name, err)
	}
	return user
}
