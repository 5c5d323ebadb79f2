package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	userModel "automark_backend/internals/features/users/user/model"
)

const (
	ExamCodeLength   = 6
	ExamCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ExamTitleMax     = 100
)

// ExamModel: soal + rubric milik satu teacher. Immutable setelah dibuat.
type ExamModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"size:100;not null" json:"title"`
	TeacherID        uuid.UUID `gorm:"type:uuid;not null;index" json:"teacher_id"`
	QuestionPaperURL string    `gorm:"type:text;not null" json:"question_paper_url"`
	RubricURL        string    `gorm:"type:text;not null" json:"rubric_url"`
	ExamCode         string    `gorm:"size:10;not null;uniqueIndex" json:"exam_code"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`

	Teacher *userModel.UserModel `gorm:"foreignKey:TeacherID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (ExamModel) TableName() string {
	return "exams"
}

func (e *ExamModel) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
