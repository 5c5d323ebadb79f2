package route

import (
	"github.com/gofiber/fiber/v2"

	"automark_backend/internals/constants"
	"automark_backend/internals/features/exams/exams/controller"
	authMiddleware "automark_backend/internals/middlewares/auth"
)

// ExamRoutes: api sudah di belakang AuthJWT.
func ExamRoutes(api fiber.Router, ctrl *controller.ExamController) {
	teacherOnly := authMiddleware.OnlyRoles(constants.RoleErrorTeacher("exams"), constants.TeacherOnly...)

	api.Post("/create-exam", teacherOnly, ctrl.CreateExam)
	api.Get("/exams", teacherOnly, ctrl.ListExams)
	api.Get("/exams/code/:code", ctrl.GetByCode)
}
