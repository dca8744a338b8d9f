// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/benflix/benflix/lib/config"
	"github.com/benflix/benflix/lib/db"
	"gorm.io/gorm"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New returns a migrated SQLite database that lives until the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, Logger())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.RunMigrations(context.Background(), gormDB, Logger()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}
