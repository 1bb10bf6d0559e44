// Package dbtest opens throwaway SQLite databases for service tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh in-memory SQLite database with models migrated. The
// pool holds a single connection, so writers are serialized the way a row
// lock would serialize them.
func Open(t testing.TB, models ...any) *gorm.DB {
	t.Helper()
	return open(t, "file::memory:", 1, models)
}

// OpenFile returns a file-backed SQLite database in WAL mode shared by up to
// conns connections, for tests that need transactions to really overlap.
// A writer blocked by another waits on busy_timeout instead of failing.
func OpenFile(t testing.TB, conns int, models ...any) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	return open(t, dsn, conns, models)
}

func open(t testing.TB, dsn string, conns int, models []any) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}
	return db
}
