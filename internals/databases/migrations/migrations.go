// Package migrations: daftar model untuk AutoMigrate (dipakai CLI migrate, serve, dan test).
package migrations

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"automark_backend/internals/constants"
	examModel "automark_backend/internals/features/exams/exams/model"
	submissionModel "automark_backend/internals/features/exams/submissions/model"
	subscriptionModel "automark_backend/internals/features/finance/subscriptions/model"
	authModel "automark_backend/internals/features/users/auth/model"
	userModel "automark_backend/internals/features/users/user/model"
)

// Models: urutan mengikuti foreign key.
func Models() []any {
	return []any{
		&userModel.UserModel{},
		&authModel.TokenBlacklist{},
		&examModel.ExamModel{},
		&submissionModel.SubmissionModel{},
		&subscriptionModel.SubscriptionModel{},
	}
}

// liveSubmissionIndex: maksimal satu submission live per (student, exam).
// Partial index didukung postgres dan sqlite.
var liveSubmissionIndex = fmt.Sprintf(
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_submissions_live_per_exam
	ON submissions (student_id, exam_id) WHERE status <> '%s'`,
	constants.SubmissionGradingFailed,
)

func Run(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	if err := db.Exec(liveSubmissionIndex).Error; err != nil {
		return fmt.Errorf("create live submission index: %w", err)
	}
	log.Printf("[INFO] migrasi selesai (%d tabel)", len(Models()))
	return nil
}
