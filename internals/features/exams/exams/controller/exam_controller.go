package controller

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"automark_backend/internals/features/exams/exams/dto"
	"automark_backend/internals/features/exams/exams/service"
	helper "automark_backend/internals/helpers"
	helperAuth "automark_backend/internals/helpers/auth"
	"automark_backend/internals/helpers/storage"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type ExamController struct {
	svc            *service.Service
	maxUploadBytes int64
}

func NewExamController(svc *service.Service, maxUploadBytes int64) *ExamController {
	return &ExamController{svc: svc, maxUploadBytes: maxUploadBytes}
}

// POST /api/create-exam (multipart: question_paper, rubric_file, title)
func (ec *ExamController) CreateExam(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	paper, err := storage.FormPDF(c, "question_paper", ec.maxUploadBytes)
	if err != nil {
		return uploadError(c, err)
	}
	rubric, err := storage.FormPDF(c, "rubric_file", ec.maxUploadBytes)
	if err != nil {
		return uploadError(c, err)
	}

	exam, err := ec.svc.CreateExam(c.UserContext(), service.CreateInput{
		TeacherID:     teacherID,
		Title:         c.FormValue("title"),
		QuestionPaper: paper,
		Rubric:        rubric,
	})
	if err != nil {
		return examError(c, err)
	}

	return helper.JsonCreated(c,
		fmt.Sprintf("Exam created successfully! Exam Code: %s", exam.ExamCode),
		fiber.Map{"exam": dto.FromModel(exam)},
	)
}

// GET /api/exams
func (ec *ExamController) ListExams(c *fiber.Ctx) error {
	teacherID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	p := helper.ResolvePaging(c, defaultPerPage, maxPerPage)
	list, total, err := ec.svc.ListExams(c.UserContext(), teacherID, p.Offset, p.Limit)
	if err != nil {
		return examError(c, err)
	}
	return helper.JsonList(c, "", "exams", dto.FromModels(list), helper.BuildPagination(total, p))
}

// GET /api/exams/code/:code
func (ec *ExamController) GetByCode(c *fiber.Ctx) error {
	exam, err := ec.svc.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return examError(c, err)
	}
	return helper.JsonOK(c, "", fiber.Map{"exam": dto.ToPublic(exam)})
}

func uploadError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrNoFile):
		return helper.JsonError(c, fiber.StatusBadRequest, "Both files are required!")
	case storage.IsUploadError(err):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	return helper.FromFiberError(c, err)
}

func examError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTitleRequired):
		return helper.JsonError(c, fiber.StatusBadRequest, "Title is required!")
	case errors.Is(err, service.ErrTitleTooLong):
		return helper.JsonError(c, fiber.StatusBadRequest, "Title must be at most 100 characters")
	case errors.Is(err, service.ErrInvalidPDF):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case storage.IsUploadError(err):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExamNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Exam not found")
	case errors.Is(err, service.ErrExamLimitReached):
		return helper.JsonError(c, fiber.StatusPaymentRequired, "Free plan exam limit reached. Upgrade your subscription to create more exams.")
	case errors.Is(err, storage.ErrAllBackendsFailed):
		return helper.JsonError(c, fiber.StatusInternalServerError, "Error uploading files")
	}
	return helper.FromFiberError(c, err)
}
