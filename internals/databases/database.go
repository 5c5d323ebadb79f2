package database

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"automark_backend/internals/configs"
)

// Open membuka koneksi sesuai skema DATABASE_URL:
//   - postgres://... / postgresql://...  → gorm postgres (pgx)
//   - sqlite://path → glebarez sqlite (pure Go)
func Open(cfg configs.DatabaseConfig) (*gorm.DB, error) {
	dialector, kind, err := dialectorFor(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Printf("🔌 Koneksi ke database (%s)...", kind)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 configs.NewGormLogger(cfg.LogSQL),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("gagal konek DB: %w", err)
	}

	if kind == "sqlite" {
		// sqlite: satu writer
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	} else {
		TunePool(db, cfg)
	}

	log.Println("✅ DB connected.")
	return db, nil
}

func dialectorFor(url string) (gorm.Dialector, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true, // aman untuk PgBouncer (transaction pooling)
		}), "postgres", nil
	case strings.HasPrefix(url, "sqlite://"):
		path := strings.TrimPrefix(url, "sqlite://")
		if path == "" {
			return nil, "", errors.New("sqlite path kosong")
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		return sqlite.Open(path), "sqlite", nil
	default:
		return nil, "", fmt.Errorf("DATABASE_URL tidak didukung: %q", url)
	}
}

func TunePool(db *gorm.DB, cfg configs.DatabaseConfig) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// IsUniqueViolation: 23505 di Postgres, "UNIQUE constraint failed" di sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") || strings.Contains(low, "duplicate key")
}
