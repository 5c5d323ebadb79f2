package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	examModel "automark_backend/internals/features/exams/exams/model"
	userModel "automark_backend/internals/features/users/user/model"
)

// GradingMeta disimpan sebagai JSON di kolom grading_meta.
type GradingMeta struct {
	Model      string `json:"model,omitempty"`
	Mode       string `json:"mode,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	Error      string `json:"error,omitempty"`
	// EditedBy diisi kalau grade diubah manual oleh teacher.
	EditedBy string `json:"edited_by,omitempty"`
}

type SubmissionModel struct {
	ID             uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID      uuid.UUID                       `gorm:"type:uuid;not null;index:idx_submissions_student_exam" json:"student_id"`
	ExamID         uuid.UUID                       `gorm:"type:uuid;not null;index:idx_submissions_student_exam;index" json:"exam_id"`
	AnswerSheetURL string                          `gorm:"type:text;not null" json:"answer_sheet_url"`
	Grade          *string                         `gorm:"type:text" json:"grade"`
	Status         string                          `gorm:"size:20;not null;default:'submitted';index" json:"status"`
	IsPublished    bool                            `gorm:"not null;default:false" json:"is_published"`
	GradingMeta    datatypes.JSONType[GradingMeta] `json:"grading_meta"`

	SubmittedAt time.Time  `gorm:"not null" json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Student *userModel.UserModel `gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT" json:"-"`
	Exam    *examModel.ExamModel `gorm:"foreignKey:ExamID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (SubmissionModel) TableName() string {
	return "submissions"
}

func (s *SubmissionModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = constants.SubmissionSubmitted
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	return nil
}

// Live: submission yang menghalangi submit ulang untuk exam yang sama.
func (s *SubmissionModel) Live() bool {
	return s.Status != constants.SubmissionGradingFailed
}

func (s *SubmissionModel) GradeText() string {
	if s.Grade == nil {
		return ""
	}
	return *s.Grade
}
