package exams

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	examModel "automark_backend/internals/features/exams/exams/model"
	examRepo "automark_backend/internals/features/exams/exams/repository"
	userModel "automark_backend/internals/features/users/user/model"
	"automark_backend/internals/helpers/pdfdoc/pdftest"
	"automark_backend/internals/helpers/storage"
)

const DemoExamCode = "TEST123"

type Putter interface {
	Put(ctx context.Context, data []byte, hint storage.Hint) (storage.Object, error)
}

// samplePDF: pakai file di sampleDir kalau ada, selain itu PDF placeholder.
func samplePDF(sampleDir, name string, placeholder ...string) ([]byte, error) {
	if sampleDir != "" {
		data, err := os.ReadFile(filepath.Join(sampleDir, name))
		if err == nil {
			log.Printf("📄 Memakai sample %s", name)
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	log.Printf("⚠️ %s tidak ditemukan, memakai placeholder", name)
	return pdftest.Build(placeholder...), nil
}

// SeedDemoExam membuat exam TEST123 milik teacherName. Dilewati kalau kodenya sudah ada.
func SeedDemoExam(ctx context.Context, db *gorm.DB, store Putter, sampleDir, teacherName string) (bool, error) {
	if _, err := examRepo.FindByCode(ctx, db, DemoExamCode); err == nil {
		log.Printf("ℹ️ Exam %s sudah ada, dilewati.", DemoExamCode)
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	var teacher userModel.UserModel
	if err := db.WithContext(ctx).Where("user_name = ?", teacherName).First(&teacher).Error; err != nil {
		return false, fmt.Errorf("teacher %s: %w", teacherName, err)
	}

	paper, err := samplePDF(sampleDir, "question_paper.pdf",
		"Q1. State Newton's second law. (2 marks)",
		"Q2. A 2 kg mass accelerates at 3 m/s^2. Find the force. (3 marks)")
	if err != nil {
		return false, err
	}
	rubric, err := samplePDF(sampleDir, "rubric.pdf",
		"Q1: F = m a, force equals mass times acceleration. 2 marks.",
		"Q2: F = 2 x 3 = 6 N. 1 mark formula, 1 mark substitution, 1 mark unit.")
	if err != nil {
		return false, err
	}

	paperObj, err := store.Put(ctx, paper, storage.Hint{Dir: "exams/question-papers", Filename: "question_paper.pdf", ContentType: "application/pdf"})
	if err != nil {
		return false, err
	}
	rubricObj, err := store.Put(ctx, rubric, storage.Hint{Dir: "exams/rubrics", Filename: "rubric.pdf", ContentType: "application/pdf"})
	if err != nil {
		return false, err
	}

	exam := &examModel.ExamModel{
		Title:            "Demo Physics Test",
		TeacherID:        teacher.ID,
		QuestionPaperURL: paperObj.URL,
		RubricURL:        rubricObj.URL,
		ExamCode:         DemoExamCode,
	}
	if err := examRepo.CreateExam(ctx, db, exam); err != nil {
		return false, err
	}
	log.Printf("✅ Exam demo %s dibuat", DemoExamCode)
	return true, nil
}
