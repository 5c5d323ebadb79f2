package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	database "automark_backend/internals/databases"
	examModel "automark_backend/internals/features/exams/exams/model"
	examRepo "automark_backend/internals/features/exams/exams/repository"
	"automark_backend/internals/helpers/pdfdoc"
	"automark_backend/internals/helpers/storage"
)

var (
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title is too long")
	ErrInvalidPDF         = errors.New("file is not a readable PDF")
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamLimitReached   = errors.New("free plan exam limit reached")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique exam code")
)

const codeAttempts = 8

// ArtifactStore: storage.Store di production, fake di test.
type ArtifactStore interface {
	Put(ctx context.Context, data []byte, hint storage.Hint) (storage.Object, error)
}

// PlanChecker: subscription aktif mengangkat batas exam plan free.
type PlanChecker interface {
	HasPaidPlan(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Service struct {
	db            *gorm.DB
	store         ArtifactStore
	plans         PlanChecker
	freeExamLimit int
	newCode       func() (string, error)
}

func NewService(db *gorm.DB, store ArtifactStore, plans PlanChecker, freeExamLimit int) *Service {
	return &Service{db: db, store: store, plans: plans, freeExamLimit: freeExamLimit, newCode: GenerateExamCode}
}

// WithCodeGenerator dipakai test untuk memaksa tabrakan kode.
func (s *Service) WithCodeGenerator(gen func() (string, error)) *Service {
	s.newCode = gen
	return s
}

// GenerateExamCode: 6 karakter A-Z0-9.
func GenerateExamCode() (string, error) {
	alphabet := examModel.ExamCodeAlphabet
	base := big.NewInt(int64(len(alphabet)))
	var sb strings.Builder
	for i := 0; i < examModel.ExamCodeLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeCode: kode dari input user (trim + upper).
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type CreateInput struct {
	TeacherID     uuid.UUID
	Title         string
	QuestionPaper *storage.Upload
	Rubric        *storage.Upload
}

func (s *Service) CreateExam(ctx context.Context, in CreateInput) (*examModel.ExamModel, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > examModel.ExamTitleMax {
		return nil, ErrTitleTooLong
	}
	for _, up := range []*storage.Upload{in.QuestionPaper, in.Rubric} {
		if up == nil {
			return nil, storage.ErrNoFile
		}
		if _, err := pdfdoc.PageCount(up.Data); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPDF, up.Filename)
		}
	}
	if err := s.checkLimit(ctx, in.TeacherID); err != nil {
		return nil, err
	}

	paper, err := s.store.Put(ctx, in.QuestionPaper.Data, storage.Hint{
		Dir: "exams/question-papers", Filename: in.QuestionPaper.Filename, ContentType: in.QuestionPaper.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload question paper: %w", err)
	}
	rubric, err := s.store.Put(ctx, in.Rubric.Data, storage.Hint{
		Dir: "exams/rubrics", Filename: in.Rubric.Filename, ContentType: in.Rubric.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload rubric: %w", err)
	}

	for attempt := 1; attempt <= codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		exam := &examModel.ExamModel{
			Title:            title,
			TeacherID:        in.TeacherID,
			QuestionPaperURL: paper.URL,
			RubricURL:        rubric.URL,
			ExamCode:         code,
		}
		err = examRepo.CreateExam(ctx, s.db, exam)
		if err == nil {
			log.Printf("[INFO] exam %s dibuat oleh %s", exam.ExamCode, in.TeacherID)
			return exam, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		log.Printf("[WARN] kode exam %s bentrok, coba lagi (%d/%d)", code, attempt, codeAttempts)
	}
	return nil, ErrCodeSpaceExhausted
}

func (s *Service) checkLimit(ctx context.Context, teacherID uuid.UUID) error {
	if s.freeExamLimit <= 0 {
		return nil
	}
	n, err := examRepo.CountByTeacher(ctx, s.db, teacherID)
	if err != nil {
		return err
	}
	if n < int64(s.freeExamLimit) {
		return nil
	}
	if s.plans != nil {
		paid, err := s.plans.HasPaidPlan(ctx, teacherID)
		if err != nil {
			return err
		}
		if paid {
			return nil
		}
	}
	return ErrExamLimitReached
}

func (s *Service) ListExams(ctx context.Context, teacherID uuid.UUID, offset, limit int) ([]examModel.ExamModel, int64, error) {
	return examRepo.ListByTeacher(ctx, s.db, teacherID, offset, limit)
}

// FindByCode: ErrExamNotFound kalau kode tidak dikenal.
func (s *Service) FindByCode(ctx context.Context, code string) (*examModel.ExamModel, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrExamNotFound
	}
	exam, err := examRepo.FindByCode(ctx, s.db, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExamNotFound
	}
	return exam, err
}
