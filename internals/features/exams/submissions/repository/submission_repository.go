package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	examModel "automark_backend/internals/features/exams/exams/model"
	subModel "automark_backend/internals/features/exams/submissions/model"
)

func Create(ctx context.Context, db *gorm.DB, s *subModel.SubmissionModel) error {
	return db.WithContext(ctx).Create(s).Error
}

// FindByID ikut memuat Exam + Student.
func FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*subModel.SubmissionModel, error) {
	var s subModel.SubmissionModel
	if err := db.WithContext(ctx).
		Preload("Exam").
		Preload("Student").
		First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// HasLiveSubmission: grading_failed tidak dihitung.
func HasLiveSubmission(ctx context.Context, db *gorm.DB, studentID, examID uuid.UUID) (bool, error) {
	return countLive(ctx, db, studentID, examID, uuid.Nil)
}

// HasOtherLiveSubmission: sama, tapi baris exceptID sendiri tidak dihitung.
func HasOtherLiveSubmission(ctx context.Context, db *gorm.DB, studentID, examID, exceptID uuid.UUID) (bool, error) {
	return countLive(ctx, db, studentID, examID, exceptID)
}

func countLive(ctx context.Context, db *gorm.DB, studentID, examID, exceptID uuid.UUID) (bool, error) {
	var n int64
	q := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Where("student_id = ? AND exam_id = ? AND status <> ?", studentID, examID, constants.SubmissionGradingFailed)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// SaveGrading menulis hasil grading, hanya selama baris masih submitted dan belum
// dipublish. Edit manual teacher di tengah grading menang.
func SaveGrading(ctx context.Context, db *gorm.DB, id uuid.UUID, status, grade string, meta subModel.GradingMeta, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Where("id = ? AND is_published = ? AND status = ?", id, false, constants.SubmissionSubmitted).
		Updates(map[string]any{
			"status":       status,
			"grade":        grade,
			"grading_meta": datatypes.NewJSONType(meta),
			"graded_at":    at,
		})
	return res.RowsAffected > 0, res.Error
}

// ClaimForRegrade: from → submitted, hanya kalau status belum berubah dan belum dipublish.
func ClaimForRegrade(ctx context.Context, db *gorm.DB, id uuid.UUID, from string) (bool, error) {
	res := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Where("id = ? AND is_published = ? AND status = ?", id, false, from).
		Update("status", constants.SubmissionSubmitted)
	return res.RowsAffected > 0, res.Error
}

// Publish: false → true hanya sekali, dan hanya dari status graded.
func Publish(ctx context.Context, db *gorm.DB, id uuid.UUID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Where("id = ? AND is_published = ? AND status = ?", id, false, constants.SubmissionGraded).
		Updates(map[string]any{
			"is_published": true,
			"status":       constants.SubmissionPublished,
			"published_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// UpdateGrade: edit manual teacher. Status dihitung di SQL supaya publish yang
// commit duluan tetap published; selain itu → graded.
func UpdateGrade(ctx context.Context, db *gorm.DB, id uuid.UUID, grade string, meta subModel.GradingMeta, at time.Time) error {
	res := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"grade":        grade,
			"status":       gorm.Expr("CASE WHEN is_published THEN status ELSE ? END", constants.SubmissionGraded),
			"grading_meta": datatypes.NewJSONType(meta),
			"graded_at":    gorm.Expr("COALESCE(graded_at, ?)", at),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsTeacherArtifact: url adalah paper/rubric exam milik teacher, atau answer
// sheet submission ke exam tersebut.
func IsTeacherArtifact(ctx context.Context, db *gorm.DB, teacherID uuid.UUID, url string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&examModel.ExamModel{}).
		Where("teacher_id = ? AND (rubric_url = ? OR question_paper_url = ?)", teacherID, url, url).
		Count(&n).Error
	if err != nil || n > 0 {
		return n > 0, err
	}
	err = db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Joins("JOIN exams ON exams.id = submissions.exam_id").
		Where("exams.teacher_id = ? AND submissions.answer_sheet_url = ?", teacherID, url).
		Count(&n).Error
	return n > 0, err
}

func ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]subModel.SubmissionModel, error) {
	var list []subModel.SubmissionModel
	err := db.WithContext(ctx).
		Preload("Exam").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&list).Error
	return list, err
}

type TeacherFilter struct {
	TeacherID uuid.UUID
	ExamID    *uuid.UUID
	Status    string
	Offset    int
	Limit     int
}

// ListByTeacher: semua submission untuk exam milik teacher, terbaru dulu.
func ListByTeacher(ctx context.Context, db *gorm.DB, f TeacherFilter) ([]subModel.SubmissionModel, int64, error) {
	q := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Joins("JOIN exams ON exams.id = submissions.exam_id").
		Where("exams.teacher_id = ?", f.TeacherID)
	if f.ExamID != nil {
		q = q.Where("submissions.exam_id = ?", *f.ExamID)
	}
	if f.Status != "" {
		q = q.Where("submissions.status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []subModel.SubmissionModel
	err := q.Preload("Exam").Preload("Student").
		Order("submissions.submitted_at DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&list).Error
	return list, total, err
}

// StatusCount: satu baris per (exam, status), dipakai CLI stats.
type StatusCount struct {
	ExamCode  string
	ExamTitle string
	Status    string
	Total     int64
}

func CountByExamAndStatus(ctx context.Context, db *gorm.DB) ([]StatusCount, error) {
	var rows []StatusCount
	err := db.WithContext(ctx).Model(&subModel.SubmissionModel{}).
		Select("exams.exam_code AS exam_code, exams.title AS exam_title, submissions.status AS status, COUNT(*) AS total").
		Joins("JOIN exams ON exams.id = submissions.exam_id").
		Group("exams.exam_code, exams.title, submissions.status").
		Order("exams.exam_code, submissions.status").
		Scan(&rows).Error
	return rows, err
}
