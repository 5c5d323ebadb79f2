package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"automark_backend/internals/constants"
	"automark_backend/internals/features/exams/submissions/dto"
	subRepo "automark_backend/internals/features/exams/submissions/repository"
	"automark_backend/internals/features/exams/submissions/service"
	helper "automark_backend/internals/helpers"
	helperAuth "automark_backend/internals/helpers/auth"
	"automark_backend/internals/helpers/pdfdoc"
	"automark_backend/internals/helpers/storage"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type SubmissionController struct {
	svc            *service.Service
	maxUploadBytes int64
}

func NewSubmissionController(svc *service.Service, maxUploadBytes int64) *SubmissionController {
	return &SubmissionController{svc: svc, maxUploadBytes: maxUploadBytes}
}

/* ==================== STUDENT ==================== */

// POST /api/submit-answer (multipart: answer_sheet, exam_code)
func (sc *SubmissionController) SubmitAnswer(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	sheet, err := storage.FormPDF(c, "answer_sheet", sc.maxUploadBytes)
	if err != nil {
		if errors.Is(err, storage.ErrNoFile) {
			return helper.JsonError(c, fiber.StatusBadRequest, "No file uploaded!")
		}
		return submissionError(c, err)
	}

	sub, err := sc.svc.Submit(c.UserContext(), service.SubmitInput{
		StudentID:   studentID,
		ExamCode:    c.FormValue("exam_code"),
		AnswerSheet: sheet,
	})
	if err != nil {
		return submissionError(c, err)
	}
	return helper.JsonCreated(c, "Answer submitted successfully!", fiber.Map{
		"submission_id": sub.ID,
		"submission":    dto.ToStudent(sub),
	})
}

// GET /api/submissions
func (sc *SubmissionController) ListMine(c *fiber.Ctx) error {
	studentID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	list, err := sc.svc.ListForStudent(c.UserContext(), studentID)
	if err != nil {
		return submissionError(c, err)
	}
	return helper.JsonOK(c, "", fiber.Map{"submissions": dto.ToStudentList(list)})
}

/* ==================== TEACHER ==================== */

// GET /api/teacher/submissions?exam_id=&status=&page=&per_page=
func (sc *SubmissionController) ListForTeacher(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	examID, err := helper.QueryUUID(c, "exam_id")
	if err != nil {
		return err
	}
	status := c.Query("status")
	switch status {
	case "", constants.SubmissionSubmitted, constants.SubmissionGraded,
		constants.SubmissionGradingFailed, constants.SubmissionPublished:
	default:
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid status filter")
	}

	p := helper.ResolvePaging(c, defaultPerPage, maxPerPage)
	list, total, err := sc.svc.ListForTeacher(c.UserContext(), subRepo.TeacherFilter{
		TeacherID: teacherID,
		ExamID:    examID,
		Status:    status,
		Offset:    p.Offset,
		Limit:     p.Limit,
	})
	if err != nil {
		return submissionError(c, err)
	}
	return helper.JsonList(c, "", "submissions", dto.ToTeacherList(list), helper.BuildPagination(total, p))
}

// POST /api/publish_grade/:id
func (sc *SubmissionController) PublishGrade(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	sub, err := sc.svc.Publish(c.UserContext(), id, teacherID)
	if err != nil {
		return submissionError(c, err)
	}
	return helper.JsonOK(c, "Grade published successfully!", fiber.Map{"submission": dto.ToTeacher(sub)})
}

// POST /api/update_grade/:id  JSON {grade}
func (sc *SubmissionController) UpdateGrade(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateGradeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	sub, err := sc.svc.UpdateGrade(c.UserContext(), id, teacherID, helperAuth.GetUserName(c), req.Grade)
	if err != nil {
		return submissionError(c, err)
	}
	return helper.JsonUpdated(c, "Grade updated successfully!", fiber.Map{"submission": dto.ToTeacher(sub)})
}

// POST /api/regrade/:id
func (sc *SubmissionController) Regrade(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	sub, err := sc.svc.Regrade(c.UserContext(), id, teacherID)
	if err != nil {
		return submissionError(c, err)
	}
	msg := "Submission regraded successfully!"
	if sub.Status == constants.SubmissionGradingFailed {
		msg = "Regrading failed, see grade for details"
	}
	return helper.JsonOK(c, msg, fiber.Map{"submission": dto.ToTeacher(sub)})
}

// POST /api/test-grading  JSON {student_response, rubric}
func (sc *SubmissionController) TestGrading(c *fiber.Ctx) error {
	var req dto.TestGradingRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	grade, err := sc.svc.TestGrading(c.UserContext(), teacherID, req.StudentResponse, req.Rubric)
	if errors.Is(err, service.ErrMissingGradingInput) {
		return helper.JsonError(c, fiber.StatusBadRequest, "Both student_response and rubric are required")
	}
	if errors.Is(err, service.ErrForeignArtifact) {
		return helper.JsonError(c, fiber.StatusForbidden, "URLs must point to files of your own exams")
	}
	if err != nil {
		log.Printf("[GRADING] test-grading gagal: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Error during grading: "+err.Error())
	}
	return helper.JsonOK(c, "", fiber.Map{"grade": grade})
}

/* ==================== PREVIEW ==================== */

// GET /api/submissions/:id/preview?page=1&width=1000
func (sc *SubmissionController) Preview(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	img, err := sc.svc.Preview(c.UserContext(), id,
		service.Viewer{UserID: userID, Role: helperAuth.GetRole(c)},
		c.QueryInt("page", 1), c.QueryInt("width", pdfdoc.DefaultPreviewWidth))
	if err != nil {
		return submissionError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/webp")
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(img)
}

func submissionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrExamCodeRequired):
		return helper.JsonError(c, fiber.StatusBadRequest, "Exam code is required!")
	case errors.Is(err, service.ErrInvalidExamCode):
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid exam code")
	case errors.Is(err, service.ErrInvalidPDF), storage.IsUploadError(err):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEmptyGrade):
		return helper.JsonError(c, fiber.StatusBadRequest, "No grade content provided")
	case errors.Is(err, service.ErrAlreadySubmitted):
		return helper.JsonError(c, fiber.StatusConflict, "You have already submitted an answer for this exam")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Submission not found")
	case errors.Is(err, service.ErrNotOwner):
		return helper.JsonError(c, fiber.StatusForbidden, "You are not allowed to access this submission")
	case errors.Is(err, service.ErrAlreadyPublished):
		return helper.JsonError(c, fiber.StatusConflict, "Grade already published")
	case errors.Is(err, service.ErrSuperseded):
		return helper.JsonError(c, fiber.StatusConflict, "Student already has a newer submission for this exam")
	case errors.Is(err, service.ErrSubmissionChanged):
		return helper.JsonError(c, fiber.StatusConflict, "Submission changed, please reload and try again")
	case errors.Is(err, service.ErrNotGraded):
		return helper.JsonError(c, fiber.StatusConflict, "Submission must be graded (or edited) before publishing")
	case errors.Is(err, pdfdoc.ErrPageOutOfRange):
		return helper.JsonError(c, fiber.StatusBadRequest, "Page out of range")
	case errors.Is(err, storage.ErrAllBackendsFailed):
		return helper.JsonError(c, fiber.StatusInternalServerError, "Error uploading file")
	}
	return helper.FromFiberError(c, err)
}
