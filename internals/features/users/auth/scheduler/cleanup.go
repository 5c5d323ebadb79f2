package scheduler

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	authRepo "automark_backend/internals/features/users/auth/repository"
)

const (
	cleanupBatch    = 500
	cleanupInterval = 24 * time.Hour
)

// RunBlacklistCleanup menghapus token yang sudah lewat expired_at + retainDays. Satu putaran.
func RunBlacklistCleanup(ctx context.Context, db *gorm.DB, retainDays int, now time.Time) (int64, error) {
	if retainDays < 0 {
		retainDays = 0
	}
	deleteBefore := now.Add(-time.Duration(retainDays) * 24 * time.Hour)

	var total int64
	for {
		n, err := authRepo.CleanupExpiredBlacklist(ctx, db, deleteBefore, cleanupBatch)
		if err != nil {
			return total, err
		}
		total += n
		if n < cleanupBatch {
			return total, nil
		}
	}
}

// StartBlacklistCleanupScheduler jalan tiap 24 jam sampai ctx dibatalkan.
func StartBlacklistCleanupScheduler(ctx context.Context, db *gorm.DB, retainDays int) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			log.Println("[CLEANUP] Menjalankan pembersihan token_blacklist...")
			n, err := RunBlacklistCleanup(ctx, db, retainDays, time.Now().UTC())
			switch {
			case err != nil:
				log.Printf("[CLEANUP ERROR] Gagal hapus token: %v", err)
			case n > 0:
				log.Printf("[CLEANUP] %d token kadaluarsa dihapus", n)
			default:
				log.Println("[CLEANUP] Tidak ada token yang memenuhi syarat dihapus")
			}

			select {
			case <-ctx.Done():
				log.Println("[CLEANUP] scheduler berhenti")
				return
			case <-ticker.C:
			}
		}
	}()
}
