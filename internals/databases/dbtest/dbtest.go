// Package dbtest membuka database sqlite sementara yang sudah dimigrasi, untuk test.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"automark_backend/internals/configs"
	database "automark_backend/internals/databases"
	"automark_backend/internals/databases/migrations"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "automark_test.db")
	db, err := database.Open(configs.DatabaseConfig{URL: url})
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("dbtest: migrate: %v", err)
	}
	return db
}
