package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	examModel "automark_backend/internals/features/exams/exams/model"
)

func CreateExam(ctx context.Context, db *gorm.DB, exam *examModel.ExamModel) error {
	return db.WithContext(ctx).Create(exam).Error
}

func FindByCode(ctx context.Context, db *gorm.DB, code string) (*examModel.ExamModel, error) {
	var exam examModel.ExamModel
	if err := db.WithContext(ctx).Where("exam_code = ?", code).First(&exam).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*examModel.ExamModel, error) {
	var exam examModel.ExamModel
	if err := db.WithContext(ctx).First(&exam, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func CountByTeacher(ctx context.Context, db *gorm.DB, teacherID uuid.UUID) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&examModel.ExamModel{}).
		Where("teacher_id = ?", teacherID).
		Count(&n).Error
	return n, err
}

// ListByTeacher: terbaru dulu.
func ListByTeacher(ctx context.Context, db *gorm.DB, teacherID uuid.UUID, offset, limit int) ([]examModel.ExamModel, int64, error) {
	q := db.WithContext(ctx).Model(&examModel.ExamModel{}).
		Where("teacher_id = ?", teacherID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []examModel.ExamModel
	if err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
