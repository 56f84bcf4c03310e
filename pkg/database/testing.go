package database

import (
	"context"
	"path/filepath"
	"testing"

	"adoptm3/pkg/config"

	"gorm.io/gorm"
)

// OpenTest opens a migrated sqlite database in a per-test temp dir.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	gdb, err := Open(config.Database{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = Close(gdb) })
	if err := Migrate(context.Background(), gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
