package dto

import (
	"time"

	"github.com/google/uuid"

	"automark_backend/internals/constants"
	subModel "automark_backend/internals/features/exams/submissions/model"
)

/* ========== REQUEST ========== */

type UpdateGradeRequest struct {
	Grade string `json:"grade"`
}

type TestGradingRequest struct {
	StudentResponse string `json:"student_response"`
	Rubric          string `json:"rubric"`
}

/* ========== RESPONSE ========== */

// StudentSubmission: grade disembunyikan sampai dipublish.
type StudentSubmission struct {
	ID             uuid.UUID `json:"id"`
	ExamTitle      string    `json:"exam_title"`
	ExamCode       string    `json:"exam_code"`
	SubmittedAt    time.Time `json:"submitted_at"`
	Status         string    `json:"status"`
	IsPublished    bool      `json:"is_published"`
	Grade          *string   `json:"grade"`
	AnswerSheetURL string    `json:"answer_sheet_url"`
}

type TeacherSubmission struct {
	ID             uuid.UUID            `json:"id"`
	StudentName    string               `json:"student_name"`
	ExamTitle      string               `json:"exam_title"`
	ExamCode       string               `json:"exam_code"`
	SubmittedAt    time.Time            `json:"submitted_at"`
	Status         string               `json:"status"`
	IsPublished    bool                 `json:"is_published"`
	Grade          *string              `json:"grade"`
	AnswerSheetURL string               `json:"answer_sheet_url"`
	GradedAt       *time.Time           `json:"graded_at,omitempty"`
	GradingMeta    subModel.GradingMeta `json:"grading_meta"`
}

// visibleStatus: student tidak perlu tahu detail graded vs grading_failed sebelum publish.
func visibleStatus(s *subModel.SubmissionModel) string {
	if s.IsPublished {
		return constants.SubmissionPublished
	}
	return constants.SubmissionSubmitted
}

func ToStudent(s *subModel.SubmissionModel) StudentSubmission {
	out := StudentSubmission{
		ID:             s.ID,
		SubmittedAt:    s.SubmittedAt,
		Status:         visibleStatus(s),
		IsPublished:    s.IsPublished,
		AnswerSheetURL: s.AnswerSheetURL,
	}
	if s.IsPublished {
		out.Grade = s.Grade
	}
	if s.Exam != nil {
		out.ExamTitle = s.Exam.Title
		out.ExamCode = s.Exam.ExamCode
	}
	return out
}

func ToTeacher(s *subModel.SubmissionModel) TeacherSubmission {
	out := TeacherSubmission{
		ID:             s.ID,
		SubmittedAt:    s.SubmittedAt,
		Status:         s.Status,
		IsPublished:    s.IsPublished,
		Grade:          s.Grade,
		AnswerSheetURL: s.AnswerSheetURL,
		GradedAt:       s.GradedAt,
		GradingMeta:    s.GradingMeta.Data(),
	}
	if s.Student != nil {
		out.StudentName = s.Student.UserName
	}
	if s.Exam != nil {
		out.ExamTitle = s.Exam.Title
		out.ExamCode = s.Exam.ExamCode
	}
	return out
}

func ToStudentList(list []subModel.SubmissionModel) []StudentSubmission {
	out := make([]StudentSubmission, 0, len(list))
	for i := range list {
		out = append(out, ToStudent(&list[i]))
	}
	return out
}

func ToTeacherList(list []subModel.SubmissionModel) []TeacherSubmission {
	out := make([]TeacherSubmission, 0, len(list))
	for i := range list {
		out = append(out, ToTeacher(&list[i]))
	}
	return out
}
