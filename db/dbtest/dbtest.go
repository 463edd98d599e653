// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/KAsare1/Yatube-server/cmd/config"
	"github.com/KAsare1/Yatube-server/db"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated SQLite database living in t.TempDir().
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBURL:    filepath.Join(t.TempDir(), "test.db"),
	}
	database, err := db.NewStorage(cfg)
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	database.Logger = logger.Discard
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}
