package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	database "automark_backend/internals/databases"
	examRepo "automark_backend/internals/features/exams/exams/repository"
	gradingService "automark_backend/internals/features/exams/grading/service"
	subModel "automark_backend/internals/features/exams/submissions/model"
	subRepo "automark_backend/internals/features/exams/submissions/repository"
	"automark_backend/internals/helpers/pdfdoc"
	"automark_backend/internals/helpers/storage"
)

var (
	ErrExamCodeRequired    = errors.New("exam code is required")
	ErrInvalidExamCode     = errors.New("invalid exam code")
	ErrInvalidPDF          = errors.New("file is not a readable PDF")
	ErrAlreadySubmitted    = errors.New("answer already submitted for this exam")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrNotOwner            = errors.New("not allowed to access this submission")
	ErrNotGraded           = errors.New("submission has no reviewed grade yet")
	ErrAlreadyPublished    = errors.New("grade already published")
	ErrEmptyGrade          = errors.New("no grade content provided")
	ErrMissingGradingInput = errors.New("student_response and rubric are required")
	ErrForeignArtifact     = errors.New("url is not an artifact of the teacher's exams")
	ErrSubmissionChanged   = errors.New("submission changed while processing")
	ErrSuperseded          = errors.New("student already has a newer live submission for this exam")
)

const answerSheetDir = "submissions/answer-sheets"

// ArtifactStore: upload answer sheet + baca ulang untuk grading/preview.
type ArtifactStore interface {
	Put(ctx context.Context, data []byte, hint storage.Hint) (storage.Object, error)
	Open(ctx context.Context, url string) ([]byte, error)
}

type Service struct {
	db     *gorm.DB
	store  ArtifactStore
	grader gradingService.Grader
	now    func() time.Time
}

func NewService(db *gorm.DB, store ArtifactStore, grader gradingService.Grader) *Service {
	return &Service{db: db, store: store, grader: grader, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

/* ==================== SUBMIT ==================== */

type SubmitInput struct {
	StudentID   uuid.UUID
	ExamCode    string
	AnswerSheet *storage.Upload
}

// Submit menyimpan answer sheet lalu langsung grading (sinkron).
// Kegagalan grading tidak mengembalikan error; hasilnya ada di grade.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*subModel.SubmissionModel, error) {
	if in.AnswerSheet == nil {
		return nil, storage.ErrNoFile
	}
	code := strings.ToUpper(strings.TrimSpace(in.ExamCode))
	if code == "" {
		return nil, ErrExamCodeRequired
	}
	exam, err := examRepo.FindByCode(ctx, s.db, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidExamCode
	}
	if err != nil {
		return nil, err
	}
	if _, err := pdfdoc.PageCount(in.AnswerSheet.Data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPDF, in.AnswerSheet.Filename)
	}

	// cek awal sebelum upload
	live, err := subRepo.HasLiveSubmission(ctx, s.db, in.StudentID, exam.ID)
	if err != nil {
		return nil, err
	}
	if live {
		return nil, ErrAlreadySubmitted
	}

	obj, err := s.store.Put(ctx, in.AnswerSheet.Data, storage.Hint{
		Dir:         answerSheetDir,
		Filename:    in.AnswerSheet.Filename,
		ContentType: in.AnswerSheet.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload answer sheet: %w", err)
	}

	sub := &subModel.SubmissionModel{
		StudentID:      in.StudentID,
		ExamID:         exam.ID,
		AnswerSheetURL: obj.URL,
		Status:         constants.SubmissionSubmitted,
		SubmittedAt:    s.now(),
	}
	// balapan dua submit ditahan unique index uq_submissions_live_per_exam
	if err := subRepo.Create(ctx, s.db, sub); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}
	log.Printf("[INFO] submission %s untuk exam %s (backend=%s)", sub.ID, exam.ExamCode, obj.Backend)

	sub.Exam = exam
	return s.GradeSubmission(ctx, sub), nil
}

/* ==================== GRADING ==================== */

// GradeSubmission tidak pernah mengembalikan error: kegagalan model
// disimpan sebagai grade error dengan status grading_failed.
func (s *Service) GradeSubmission(ctx context.Context, sub *subModel.SubmissionModel) *subModel.SubmissionModel {
	rubricURL := ""
	if sub.Exam != nil {
		rubricURL = sub.Exam.RubricURL
	}

	started := s.now()
	res, err := s.grade(ctx, rubricURL, sub.AnswerSheetURL)
	meta := subModel.GradingMeta{
		Model:      res.Model,
		Mode:       res.Mode,
		Attempts:   res.Attempts,
		DurationMS: res.Duration.Milliseconds(),
	}
	if meta.DurationMS == 0 {
		meta.DurationMS = s.now().Sub(started).Milliseconds()
	}

	status, grade := constants.SubmissionGraded, res.Grade
	if err != nil {
		log.Printf("[GRADING] submission %s gagal: %v", sub.ID, err)
		status = constants.SubmissionGradingFailed
		grade = gradingService.ErrorGrade(err)
		meta.Error = err.Error()
	}

	at := s.now()
	// ctx request bisa sudah habis setelah grading lama; simpan tetap jalan
	saveCtx := context.WithoutCancel(ctx)
	ok, dbErr := subRepo.SaveGrading(saveCtx, s.db, sub.ID, status, grade, meta, at)
	if dbErr != nil {
		log.Printf("[ERROR] simpan grade submission %s: %v", sub.ID, dbErr)
		return sub
	}
	if !ok {
		log.Printf("[WARN] submission %s sudah dipublish/diedit, hasil grading dibuang", sub.ID)
		if fresh, err := s.load(saveCtx, sub.ID); err == nil {
			return fresh
		}
		return sub
	}

	sub.Status = status
	sub.Grade = &grade
	sub.GradedAt = &at
	sub.GradingMeta = datatypes.NewJSONType(meta)
	return sub
}

func (s *Service) grade(ctx context.Context, rubricURL, answerURL string) (res gradingService.Result, err error) {
	if s.grader == nil {
		return res, errors.New("grader is not configured")
	}
	if rubricURL == "" {
		return res, errors.New("exam has no rubric")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("grader panic: %v", r)
		}
	}()
	return s.grader.Grade(ctx, rubricURL, answerURL)
}

// TestGrading: jalankan grader langsung pada dua URL, tanpa menyimpan apa pun.
// Kedua URL harus artefak exam milik teacher (paper, rubric, atau answer sheet).
func (s *Service) TestGrading(ctx context.Context, teacherID uuid.UUID, studentResponseURL, rubricURL string) (string, error) {
	studentResponseURL = strings.TrimSpace(studentResponseURL)
	rubricURL = strings.TrimSpace(rubricURL)
	if studentResponseURL == "" || rubricURL == "" {
		return "", ErrMissingGradingInput
	}
	for _, u := range []string{studentResponseURL, rubricURL} {
		ok, err := subRepo.IsTeacherArtifact(ctx, s.db, teacherID, u)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrForeignArtifact
		}
	}
	res, err := s.grade(ctx, rubricURL, studentResponseURL)
	if err != nil {
		return "", err
	}
	return res.Grade, nil
}

/* ==================== LISTING ==================== */

func (s *Service) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]subModel.SubmissionModel, error) {
	return subRepo.ListByStudent(ctx, s.db, studentID)
}

func (s *Service) ListForTeacher(ctx context.Context, f subRepo.TeacherFilter) ([]subModel.SubmissionModel, int64, error) {
	return subRepo.ListByTeacher(ctx, s.db, f)
}

/* ==================== TEACHER ACTIONS ==================== */

// loadOwned: 404 kalau tidak ada, 403 kalau exam bukan milik teacher.
func (s *Service) loadOwned(ctx context.Context, id, teacherID uuid.UUID) (*subModel.SubmissionModel, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Exam == nil || sub.Exam.TeacherID != teacherID {
		return nil, ErrNotOwner
	}
	return sub, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*subModel.SubmissionModel, error) {
	sub, err := subRepo.FindByID(ctx, s.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	return sub, err
}

// Publish: graded → published, sekali saja.
func (s *Service) Publish(ctx context.Context, id, teacherID uuid.UUID) (*subModel.SubmissionModel, error) {
	sub, err := s.loadOwned(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if sub.IsPublished {
		return nil, ErrAlreadyPublished
	}
	if sub.Status != constants.SubmissionGraded {
		return nil, ErrNotGraded
	}

	at := s.now()
	ok, err := subRepo.Publish(ctx, s.db, sub.ID, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		// kalah balapan dengan publish/edit lain
		fresh, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if fresh.IsPublished {
			return nil, ErrAlreadyPublished
		}
		return nil, ErrNotGraded
	}
	sub.IsPublished = true
	sub.Status = constants.SubmissionPublished
	sub.PublishedAt = &at
	log.Printf("[INFO] grade submission %s dipublish oleh %s", sub.ID, teacherID)
	return sub, nil
}

// UpdateGrade: edit manual. Boleh setelah publish; status published tetap.
func (s *Service) UpdateGrade(ctx context.Context, id, teacherID uuid.UUID, editor, grade string) (*subModel.SubmissionModel, error) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return nil, ErrEmptyGrade
	}
	sub, err := s.loadOwned(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCanRevive(ctx, sub); err != nil {
		return nil, err
	}

	meta := sub.GradingMeta.Data()
	meta.EditedBy = editor
	if err := subRepo.UpdateGrade(ctx, s.db, sub.ID, grade, meta, s.now()); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSuperseded
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return s.load(ctx, sub.ID)
}

// Regrade menjalankan grader ulang untuk submission milik teacher.
func (s *Service) Regrade(ctx context.Context, id, teacherID uuid.UUID) (*subModel.SubmissionModel, error) {
	sub, err := s.loadOwned(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	return s.regrade(ctx, sub)
}

// RegradeByID: tanpa cek kepemilikan, untuk CLI operator.
func (s *Service) RegradeByID(ctx context.Context, id uuid.UUID) (*subModel.SubmissionModel, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.regrade(ctx, sub)
}

// regrade: klaim baris kembali ke submitted, lalu grading ulang.
func (s *Service) regrade(ctx context.Context, sub *subModel.SubmissionModel) (*subModel.SubmissionModel, error) {
	if sub.IsPublished {
		return nil, ErrAlreadyPublished
	}
	if err := s.ensureCanRevive(ctx, sub); err != nil {
		return nil, err
	}
	ok, err := subRepo.ClaimForRegrade(ctx, s.db, sub.ID, sub.Status)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	if !ok {
		fresh, err := s.load(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		if fresh.IsPublished {
			return nil, ErrAlreadyPublished
		}
		return nil, ErrSubmissionChanged
	}
	sub.Status = constants.SubmissionSubmitted
	return s.GradeSubmission(ctx, sub), nil
}

// ensureCanRevive: baris grading_failed hanya boleh hidup lagi kalau student
// belum punya submission live lain untuk exam yang sama.
func (s *Service) ensureCanRevive(ctx context.Context, sub *subModel.SubmissionModel) error {
	if sub.Live() {
		return nil
	}
	other, err := subRepo.HasOtherLiveSubmission(ctx, s.db, sub.StudentID, sub.ExamID, sub.ID)
	if err != nil {
		return err
	}
	if other {
		return ErrSuperseded
	}
	return nil
}

/* ==================== PREVIEW ==================== */

type Viewer struct {
	UserID uuid.UUID
	Role   string
}

// Preview: student pemilik atau teacher pemilik exam.
func (s *Service) Preview(ctx context.Context, id uuid.UUID, v Viewer, page, width int) ([]byte, error) {
	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(sub, v) {
		return nil, ErrNotOwner
	}
	data, err := s.store.Open(ctx, sub.AnswerSheetURL)
	if err != nil {
		return nil, fmt.Errorf("open answer sheet: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if width <= 0 {
		width = pdfdoc.DefaultPreviewWidth
	}
	if width > pdfdoc.MaxPreviewWidth {
		width = pdfdoc.MaxPreviewWidth
	}
	return pdfdoc.PreviewPage(data, page, width)
}

func canView(sub *subModel.SubmissionModel, v Viewer) bool {
	switch v.Role {
	case constants.RoleStudent:
		return sub.StudentID == v.UserID
	case constants.RoleTeacher:
		return sub.Exam != nil && sub.Exam.TeacherID == v.UserID
	}
	return false
}
