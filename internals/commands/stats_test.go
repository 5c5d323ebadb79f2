package commands

import (
	"context"
	"strings"
	"testing"

	"automark_backend/internals/constants"
	"automark_backend/internals/databases/dbtest"
	examModel "automark_backend/internals/features/exams/exams/model"
	subModel "automark_backend/internals/features/exams/submissions/model"
	userModel "automark_backend/internals/features/users/user/model"
)

func TestStatsTableCountsPerStatus(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	if out, err := statsTable(ctx, db); err != nil || out != "No submissions yet." {
		t.Fatalf("empty stats: %q %v", out, err)
	}

	teacher := userModel.UserModel{UserName: "teacher", Password: "x", Role: constants.RoleTeacher}
	student := userModel.UserModel{UserName: "student", Password: "x", Role: constants.RoleStudent}
	db.Create(&teacher)
	db.Create(&student)
	exam := examModel.ExamModel{Title: "Physics", TeacherID: teacher.ID, QuestionPaperURL: "q", RubricURL: "r", ExamCode: "AB12CD"}
	if err := db.Create(&exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	for _, status := range []string{constants.SubmissionGraded, constants.SubmissionGraded, constants.SubmissionGradingFailed} {
		s := subModel.SubmissionModel{StudentID: student.ID, ExamID: exam.ID, AnswerSheetURL: "a", Status: status}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed submission: %v", err)
		}
	}

	out, err := statsTable(ctx, db)
	if err != nil {
		t.Fatalf("statsTable: %v", err)
	}
	var line string
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "AB12CD") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("exam row missing:\n%s", out)
	}
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == '│' || r == '|' })
	var cells []string
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			cells = append(cells, s)
		}
	}
	// Code, Title, submitted, graded, grading_failed, published, Total
	want := []string{"AB12CD", "Physics", "0", "2", "1", "0", "3"}
	if strings.Join(cells, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected row %v\n%s", cells, out)
	}
}
