package dto

import (
	"time"

	"github.com/google/uuid"

	examModel "automark_backend/internals/features/exams/exams/model"
)

type ExamResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	TeacherID        uuid.UUID `json:"teacher_id"`
	ExamCode         string    `json:"exam_code"`
	QuestionPaperURL string    `json:"question_paper_url"`
	RubricURL        string    `json:"rubric_url"`
	CreatedAt        time.Time `json:"created_at"`
}

func FromModel(m *examModel.ExamModel) ExamResponse {
	return ExamResponse{
		ID:               m.ID,
		Title:            m.Title,
		TeacherID:        m.TeacherID,
		ExamCode:         m.ExamCode,
		QuestionPaperURL: m.QuestionPaperURL,
		RubricURL:        m.RubricURL,
		CreatedAt:        m.CreatedAt,
	}
}

func FromModels(list []examModel.ExamModel) []ExamResponse {
	out := make([]ExamResponse, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}

// PublicExamResponse: yang boleh dilihat student saat lookup kode (tanpa rubric).
type PublicExamResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	ExamCode         string    `json:"exam_code"`
	QuestionPaperURL string    `json:"question_paper_url"`
}

func ToPublic(m *examModel.ExamModel) PublicExamResponse {
	return PublicExamResponse{ID: m.ID, Title: m.Title, ExamCode: m.ExamCode, QuestionPaperURL: m.QuestionPaperURL}
}
