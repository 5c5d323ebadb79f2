package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"automark_backend/internals/constants"
	database "automark_backend/internals/databases"
	"automark_backend/internals/databases/dbtest"
	examModel "automark_backend/internals/features/exams/exams/model"
	gradingService "automark_backend/internals/features/exams/grading/service"
	"automark_backend/internals/features/exams/submissions/dto"
	subModel "automark_backend/internals/features/exams/submissions/model"
	subRepo "automark_backend/internals/features/exams/submissions/repository"
	"automark_backend/internals/features/exams/submissions/service"
	userModel "automark_backend/internals/features/users/user/model"
	"automark_backend/internals/helpers/httpx"
	"automark_backend/internals/helpers/pdfdoc/pdftest"
	"automark_backend/internals/helpers/storage"
)

type fixture struct {
	svc     *service.Service
	db      *gorm.DB
	exam    *examModel.ExamModel
	teacher userModel.UserModel
	other   userModel.UserModel
	student userModel.UserModel
	calls   *int32
}

func newUser(t *testing.T, db *gorm.DB, name, role string) userModel.UserModel {
	t.Helper()
	u := userModel.UserModel{UserName: name, Password: "x", Role: role, IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return u
}

func setup(t *testing.T, grade func(ctx context.Context, rubricURL, answerURL string) (gradingService.Result, error)) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	local, err := storage.NewLocalBackend(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("local backend: %v", err)
	}
	store := storage.NewStore(httpx.DefaultPolicy(), nil, local)

	f := &fixture{db: db, calls: new(int32)}
	f.teacher = newUser(t, db, "teacher", constants.RoleTeacher)
	f.other = newUser(t, db, "other", constants.RoleTeacher)
	f.student = newUser(t, db, "student", constants.RoleStudent)

	f.exam = &examModel.ExamModel{
		Title:            "Physics",
		TeacherID:        f.teacher.ID,
		QuestionPaperURL: "http://files.test/uploads/exams/question-papers/p.pdf",
		RubricURL:        "http://files.test/uploads/exams/rubrics/r.pdf",
		ExamCode:         "AB12CD",
	}
	if err := db.Create(f.exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	grader := &gradingService.FuncGrader{GradeFunc: func(ctx context.Context, rubricURL, answerURL string) (gradingService.Result, error) {
		atomic.AddInt32(f.calls, 1)
		return grade(ctx, rubricURL, answerURL)
	}}
	f.svc = service.NewService(db, store, grader)
	return f
}

func okGrade(_ context.Context, _, _ string) (gradingService.Result, error) {
	return gradingService.Result{Grade: "<p>Total: 8/10</p>", Model: "gemini-test", Mode: "inline", Attempts: 1}, nil
}

func failGrade(_ context.Context, _, _ string) (gradingService.Result, error) {
	return gradingService.Result{}, errors.New("model unavailable")
}

func (f *fixture) submit(t *testing.T, code string) *subModel.SubmissionModel {
	t.Helper()
	sub, err := f.svc.Submit(context.Background(), service.SubmitInput{
		StudentID:   f.student.ID,
		ExamCode:    code,
		AnswerSheet: &storage.Upload{Filename: "answer.pdf", ContentType: "application/pdf", Data: pdftest.Build("Q1: 4")},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return sub
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *subModel.SubmissionModel {
	t.Helper()
	sub, err := subRepo.FindByID(context.Background(), f.db, id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return sub
}

func TestSubmitGradesInline(t *testing.T) {
	f := setup(t, okGrade)
	sub := f.submit(t, " ab12cd ")

	got := f.reload(t, sub.ID)
	if got.Status != constants.SubmissionGraded || got.GradeText() != "<p>Total: 8/10</p>" {
		t.Fatalf("unexpected state: status=%s grade=%q", got.Status, got.GradeText())
	}
	if got.GradedAt == nil || got.IsPublished {
		t.Fatalf("expected graded, unpublished: %+v", got)
	}
	meta := got.GradingMeta.Data()
	if meta.Model != "gemini-test" || meta.Mode != "inline" || meta.Attempts != 1 || meta.Error != "" {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if !strings.HasPrefix(got.AnswerSheetURL, "http://files.test/uploads/submissions/answer-sheets/") {
		t.Fatalf("unexpected answer sheet url %q", got.AnswerSheetURL)
	}
}

// exam AB12CD, grader gagal: grade berisi error, tidak dipublish, tetap bisa di-query.
func TestFailedGradingIsStoredAndQueryable(t *testing.T) {
	f := setup(t, failGrade)
	sub := f.submit(t, "AB12CD")

	got := f.reload(t, sub.ID)
	if got.Grade == nil || !strings.Contains(*got.Grade, "Error during grading: model unavailable") {
		t.Fatalf("expected error marker, got %v", got.Grade)
	}
	if got.IsPublished || got.Status != constants.SubmissionGradingFailed {
		t.Fatalf("unexpected state: %s published=%v", got.Status, got.IsPublished)
	}
	if got.GradingMeta.Data().Error != "model unavailable" {
		t.Fatalf("meta error not recorded: %+v", got.GradingMeta.Data())
	}

	list, total, err := f.svc.ListForTeacher(context.Background(), subRepo.TeacherFilter{TeacherID: f.teacher.ID, Limit: 10})
	if err != nil || total != 1 || len(list) != 1 || list[0].ID != sub.ID {
		t.Fatalf("teacher list: total=%d err=%v", total, err)
	}
	if list[0].Student == nil || list[0].Student.UserName != "student" || list[0].Exam.ExamCode != "AB12CD" {
		t.Fatalf("relations not loaded: %+v", list[0])
	}

	// teacher lain tidak melihat apa pun
	_, total, _ = f.svc.ListForTeacher(context.Background(), subRepo.TeacherFilter{TeacherID: f.other.ID, Limit: 10})
	if total != 0 {
		t.Fatalf("other teacher sees %d submissions", total)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	pdf := &storage.Upload{Filename: "a.pdf", Data: pdftest.Build("x")}

	cases := []struct {
		name string
		in   service.SubmitInput
		want error
	}{
		{"no file", service.SubmitInput{StudentID: f.student.ID, ExamCode: "AB12CD"}, storage.ErrNoFile},
		{"no code", service.SubmitInput{StudentID: f.student.ID, ExamCode: "  ", AnswerSheet: pdf}, service.ErrExamCodeRequired},
		{"unknown code", service.SubmitInput{StudentID: f.student.ID, ExamCode: "ZZZZZZ", AnswerSheet: pdf}, service.ErrInvalidExamCode},
		{"corrupt pdf", service.SubmitInput{StudentID: f.student.ID, ExamCode: "AB12CD",
			AnswerSheet: &storage.Upload{Filename: "a.pdf", Data: []byte("%PDF-1.4 nope")}}, service.ErrInvalidPDF},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Submit(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if n := atomic.LoadInt32(f.calls); n != 0 {
		t.Fatalf("grader called %d times for invalid input", n)
	}
}

func TestOneLiveSubmissionPerExam(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	f := setup(t, func(ctx context.Context, r, a string) (gradingService.Result, error) {
		if fail.Load() {
			return failGrade(ctx, r, a)
		}
		return okGrade(ctx, r, a)
	})

	// grading_failed tidak menghalangi submit ulang
	f.submit(t, "AB12CD")
	fail.Store(false)
	f.submit(t, "AB12CD")

	_, err := f.svc.Submit(context.Background(), service.SubmitInput{
		StudentID:   f.student.ID,
		ExamCode:    "AB12CD",
		AnswerSheet: &storage.Upload{Filename: "again.pdf", Data: pdftest.Build("again")},
	})
	if !errors.Is(err, service.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestPublishIsOwnedAndOneWay(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")

	if _, err := f.svc.Publish(ctx, sub.ID, f.other.ID); !errors.Is(err, service.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if got := f.reload(t, sub.ID); got.IsPublished || got.Status != constants.SubmissionGraded {
		t.Fatalf("non-owner changed state: %+v", got)
	}

	published, err := f.svc.Publish(ctx, sub.ID, f.teacher.ID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !published.IsPublished || published.PublishedAt == nil {
		t.Fatalf("not published: %+v", published)
	}
	if _, err := f.svc.Publish(ctx, sub.ID, f.teacher.ID); !errors.Is(err, service.ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
	if _, err := f.svc.Regrade(ctx, sub.ID, f.teacher.ID); !errors.Is(err, service.ErrAlreadyPublished) {
		t.Fatalf("regrade after publish: %v", err)
	}

	// edit setelah publish tetap published
	edited, err := f.svc.UpdateGrade(ctx, sub.ID, f.teacher.ID, "teacher", "<p>Total: 9/10</p>")
	if err != nil {
		t.Fatalf("UpdateGrade: %v", err)
	}
	got := f.reload(t, edited.ID)
	if !got.IsPublished || got.Status != constants.SubmissionPublished || got.GradeText() != "<p>Total: 9/10</p>" {
		t.Fatalf("unexpected state after edit: %+v", got)
	}
	if got.GradingMeta.Data().EditedBy != "teacher" {
		t.Fatalf("editor not recorded: %+v", got.GradingMeta.Data())
	}

	if _, err := f.svc.Publish(ctx, uuid.New(), f.teacher.ID); !errors.Is(err, service.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestFailedGradeNeedsEditBeforePublish(t *testing.T) {
	f := setup(t, failGrade)
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")

	if _, err := f.svc.Publish(ctx, sub.ID, f.teacher.ID); !errors.Is(err, service.ErrNotGraded) {
		t.Fatalf("expected ErrNotGraded, got %v", err)
	}
	if _, err := f.svc.UpdateGrade(ctx, sub.ID, f.teacher.ID, "teacher", "   "); !errors.Is(err, service.ErrEmptyGrade) {
		t.Fatalf("expected ErrEmptyGrade, got %v", err)
	}
	if _, err := f.svc.UpdateGrade(ctx, sub.ID, f.other.ID, "other", "<p>7</p>"); !errors.Is(err, service.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := f.svc.UpdateGrade(ctx, sub.ID, f.teacher.ID, "teacher", "<p>7/10</p>"); err != nil {
		t.Fatalf("UpdateGrade: %v", err)
	}
	if got := f.reload(t, sub.ID); got.Status != constants.SubmissionGraded {
		t.Fatalf("edit should move to graded, got %s", got.Status)
	}
	if _, err := f.svc.Publish(ctx, sub.ID, f.teacher.ID); err != nil {
		t.Fatalf("Publish after edit: %v", err)
	}
}

func TestRegradeRecoversFailedSubmission(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	f := setup(t, func(ctx context.Context, r, a string) (gradingService.Result, error) {
		if fail.Load() {
			return failGrade(ctx, r, a)
		}
		return okGrade(ctx, r, a)
	})
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")

	fail.Store(false)
	if _, err := f.svc.Regrade(ctx, sub.ID, f.other.ID); !errors.Is(err, service.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	regraded, err := f.svc.Regrade(ctx, sub.ID, f.teacher.ID)
	if err != nil {
		t.Fatalf("Regrade: %v", err)
	}
	if regraded.Status != constants.SubmissionGraded || regraded.GradeText() != "<p>Total: 8/10</p>" {
		t.Fatalf("unexpected regrade result: %s %q", regraded.Status, regraded.GradeText())
	}
	if n := atomic.LoadInt32(f.calls); n != 2 {
		t.Fatalf("expected 2 grader calls, got %d", n)
	}
}

func TestStudentViewHidesUnpublishedGrade(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")

	list, err := f.svc.ListForStudent(ctx, f.student.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListForStudent: %v (%d)", err, len(list))
	}
	view := dto.ToStudent(&list[0])
	if view.Grade != nil || view.ExamCode != "AB12CD" || view.ExamTitle != "Physics" {
		t.Fatalf("unexpected student view: %+v", view)
	}

	if _, err := f.svc.Publish(ctx, sub.ID, f.teacher.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	list, _ = f.svc.ListForStudent(ctx, f.student.ID)
	view = dto.ToStudent(&list[0])
	if view.Grade == nil || *view.Grade != "<p>Total: 8/10</p>" || !view.IsPublished {
		t.Fatalf("published grade not visible: %+v", view)
	}
}

func TestPreviewAccess(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")
	stranger := newUser(t, f.db, "stranger", constants.RoleStudent)

	for _, v := range []service.Viewer{
		{UserID: f.student.ID, Role: constants.RoleStudent},
		{UserID: f.teacher.ID, Role: constants.RoleTeacher},
	} {
		img, err := f.svc.Preview(ctx, sub.ID, v, 1, 200)
		if err != nil {
			t.Fatalf("Preview as %s: %v", v.Role, err)
		}
		if !bytes.HasPrefix(img, []byte("RIFF")) || !bytes.Contains(img[:16], []byte("WEBP")) {
			t.Fatalf("not a webp image")
		}
	}

	for _, v := range []service.Viewer{
		{UserID: stranger.ID, Role: constants.RoleStudent},
		{UserID: f.other.ID, Role: constants.RoleTeacher},
	} {
		if _, err := f.svc.Preview(ctx, sub.ID, v, 1, 200); !errors.Is(err, service.ErrNotOwner) {
			t.Fatalf("expected ErrNotOwner for %s, got %v", v.UserID, err)
		}
	}
}

func TestTestGradingOnlyAcceptsOwnArtifacts(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")

	if _, err := f.svc.TestGrading(ctx, f.teacher.ID, "", f.exam.RubricURL); !errors.Is(err, service.ErrMissingGradingInput) {
		t.Fatalf("expected ErrMissingGradingInput, got %v", err)
	}
	grade, err := f.svc.TestGrading(ctx, f.teacher.ID, sub.AnswerSheetURL, f.exam.RubricURL)
	if err != nil || grade != "<p>Total: 8/10</p>" {
		t.Fatalf("TestGrading: %q %v", grade, err)
	}
	calls := atomic.LoadInt32(f.calls)

	cases := []struct {
		name    string
		teacher uuid.UUID
		answer  string
		rubric  string
	}{
		{"internal address", f.teacher.ID, "http://169.254.169.254/latest/meta-data", f.exam.RubricURL},
		{"unknown upload", f.teacher.ID, sub.AnswerSheetURL, "http://files.test/uploads/exams/rubrics/someone-else.pdf"},
		{"other teacher", f.other.ID, sub.AnswerSheetURL, f.exam.RubricURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.TestGrading(ctx, tc.teacher, tc.answer, tc.rubric); !errors.Is(err, service.ErrForeignArtifact) {
				t.Fatalf("expected ErrForeignArtifact, got %v", err)
			}
		})
	}
	if n := atomic.LoadInt32(f.calls); n != calls {
		t.Fatalf("grader called for rejected urls: %d -> %d", calls, n)
	}
}

// baris grading_failed tidak boleh hidup lagi kalau student sudah submit ulang.
func TestFailedSubmissionCannotBeRevivedAfterResubmit(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	f := setup(t, func(ctx context.Context, r, a string) (gradingService.Result, error) {
		if fail.Load() {
			return failGrade(ctx, r, a)
		}
		return okGrade(ctx, r, a)
	})
	ctx := context.Background()

	first := f.submit(t, "AB12CD")
	fail.Store(false)
	second := f.submit(t, "AB12CD")

	if _, err := f.svc.Regrade(ctx, first.ID, f.teacher.ID); !errors.Is(err, service.ErrSuperseded) {
		t.Fatalf("regrade old failed row: expected ErrSuperseded, got %v", err)
	}
	if _, err := f.svc.RegradeByID(ctx, first.ID); !errors.Is(err, service.ErrSuperseded) {
		t.Fatalf("cli regrade old failed row: expected ErrSuperseded, got %v", err)
	}
	if _, err := f.svc.UpdateGrade(ctx, first.ID, f.teacher.ID, "teacher", "<p>5/10</p>"); !errors.Is(err, service.ErrSuperseded) {
		t.Fatalf("edit old failed row: expected ErrSuperseded, got %v", err)
	}
	if got := f.reload(t, first.ID); got.Status != constants.SubmissionGradingFailed {
		t.Fatalf("old row revived: %s", got.Status)
	}
	if _, err := f.svc.Publish(ctx, first.ID, f.teacher.ID); !errors.Is(err, service.ErrNotGraded) {
		t.Fatalf("publish old row: expected ErrNotGraded, got %v", err)
	}
	if _, err := f.svc.Publish(ctx, second.ID, f.teacher.ID); err != nil {
		t.Fatalf("publish newer row: %v", err)
	}
}

func TestLiveSubmissionIndex(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	row := func(status string) *subModel.SubmissionModel {
		return &subModel.SubmissionModel{StudentID: f.student.ID, ExamID: f.exam.ID, AnswerSheetURL: "http://files.test/uploads/a.pdf", Status: status}
	}

	for _, st := range []string{constants.SubmissionGradingFailed, constants.SubmissionGradingFailed, constants.SubmissionGraded} {
		if err := subRepo.Create(ctx, f.db, row(st)); err != nil {
			t.Fatalf("create %s: %v", st, err)
		}
	}
	err := subRepo.Create(ctx, f.db, row(constants.SubmissionSubmitted))
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for second live row, got %v", err)
	}
}

// racingStore menyisipkan submission live lain selama upload, seperti submit paralel.
type racingStore struct {
	service.ArtifactStore
	db      *gorm.DB
	student uuid.UUID
	exam    uuid.UUID
}

func (r *racingStore) Put(ctx context.Context, data []byte, hint storage.Hint) (storage.Object, error) {
	obj, err := r.ArtifactStore.Put(ctx, data, hint)
	if err != nil {
		return obj, err
	}
	rival := &subModel.SubmissionModel{StudentID: r.student, ExamID: r.exam, AnswerSheetURL: obj.URL}
	return obj, subRepo.Create(ctx, r.db, rival)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	f := setup(t, okGrade)
	local, err := storage.NewLocalBackend(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("local backend: %v", err)
	}
	store := &racingStore{
		ArtifactStore: storage.NewStore(httpx.DefaultPolicy(), nil, local),
		db:            f.db,
		student:       f.student.ID,
		exam:          f.exam.ID,
	}
	svc := service.NewService(f.db, store, &gradingService.FuncGrader{GradeFunc: okGrade})

	_, err = svc.Submit(context.Background(), service.SubmitInput{
		StudentID:   f.student.ID,
		ExamCode:    "AB12CD",
		AnswerSheet: &storage.Upload{Filename: "a.pdf", Data: pdftest.Build("4")},
	})
	if !errors.Is(err, service.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	var n int64
	f.db.Model(&subModel.SubmissionModel{}).Where("student_id = ?", f.student.ID).Count(&n)
	if n != 1 {
		t.Fatalf("expected only the rival row, got %d rows", n)
	}
}

// edit teacher saat grading masih jalan tidak ditimpa hasil model.
func TestManualEditWinsOverInFlightGrading(t *testing.T) {
	var f *fixture
	f = setup(t, func(ctx context.Context, rubricURL, answerURL string) (gradingService.Result, error) {
		var sub subModel.SubmissionModel
		if err := f.db.Where("answer_sheet_url = ?", answerURL).First(&sub).Error; err != nil {
			return gradingService.Result{}, err
		}
		if _, err := f.svc.UpdateGrade(ctx, sub.ID, f.teacher.ID, "teacher", "<p>manual 9/10</p>"); err != nil {
			return gradingService.Result{}, err
		}
		return okGrade(ctx, rubricURL, answerURL)
	})

	sub := f.submit(t, "AB12CD")
	got := f.reload(t, sub.ID)
	if got.Status != constants.SubmissionGraded || got.GradeText() != "<p>manual 9/10</p>" {
		t.Fatalf("model result overwrote manual edit: %s %q", got.Status, got.GradeText())
	}
	if sub.GradeText() != "<p>manual 9/10</p>" {
		t.Fatalf("Submit returned stale grade %q", sub.GradeText())
	}
}

// publish yang commit di antara load dan update tetap published.
func TestUpdateGradeKeepsConcurrentPublish(t *testing.T) {
	f := setup(t, okGrade)
	ctx := context.Background()
	sub := f.submit(t, "AB12CD")

	stale := f.reload(t, sub.ID)
	if ok, err := subRepo.Publish(ctx, f.db, sub.ID, time.Now()); err != nil || !ok {
		t.Fatalf("Publish: %v %v", ok, err)
	}
	if err := subRepo.UpdateGrade(ctx, f.db, stale.ID, "<p>edited</p>", stale.GradingMeta.Data(), time.Now()); err != nil {
		t.Fatalf("UpdateGrade: %v", err)
	}
	got := f.reload(t, sub.ID)
	if !got.IsPublished || got.Status != constants.SubmissionPublished || got.GradeText() != "<p>edited</p>" {
		t.Fatalf("inconsistent state: published=%v status=%s grade=%q", got.IsPublished, got.Status, got.GradeText())
	}
	if got.GradedAt == nil || stale.GradedAt == nil || !got.GradedAt.Equal(*stale.GradedAt) {
		t.Fatalf("graded_at should keep first grading time: %v vs %v", got.GradedAt, stale.GradedAt)
	}
}
