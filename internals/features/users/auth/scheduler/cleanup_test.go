package scheduler

import (
	"context"
	"testing"
	"time"

	"automark_backend/internals/databases/dbtest"
	authModel "automark_backend/internals/features/users/auth/model"
)

func TestRunBlacklistCleanupRespectsRetention(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	rows := []authModel.TokenBlacklist{
		{Token: "old", ExpiredAt: now.Add(-10 * 24 * time.Hour)},
		{Token: "recent", ExpiredAt: now.Add(-2 * 24 * time.Hour)},
		{Token: "live", ExpiredAt: now.Add(time.Hour)},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := RunBlacklistCleanup(context.Background(), db, 7, now)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted row, got %d", n)
	}
	var left int64
	db.Model(&authModel.TokenBlacklist{}).Count(&left)
	if left != 2 {
		t.Fatalf("expected 2 rows left, got %d", left)
	}
}
