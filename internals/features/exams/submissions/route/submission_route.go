package route

import (
	"github.com/gofiber/fiber/v2"

	"automark_backend/internals/constants"
	"automark_backend/internals/features/exams/submissions/controller"
	"automark_backend/internals/middlewares"
	authMiddleware "automark_backend/internals/middlewares/auth"
)

// SubmissionRoutes: api sudah di belakang AuthJWT.
func SubmissionRoutes(api fiber.Router, ctrl *controller.SubmissionController, limit bool) {
	studentOnly := authMiddleware.OnlyRoles(constants.RoleErrorStudent("submissions"), constants.StudentOnly...)
	teacherOnly := authMiddleware.OnlyRoles(constants.RoleErrorTeacher("submissions"), constants.TeacherOnly...)

	grading := func(c *fiber.Ctx) error { return c.Next() }
	if limit {
		grading = middlewares.GradingRateLimiter()
	}

	// student
	api.Post("/submit-answer", studentOnly, grading, ctrl.SubmitAnswer)
	api.Get("/submissions", studentOnly, ctrl.ListMine)

	// teacher
	api.Get("/teacher/submissions", teacherOnly, ctrl.ListForTeacher)
	api.Post("/publish_grade/:id", teacherOnly, ctrl.PublishGrade)
	api.Post("/update_grade/:id", teacherOnly, ctrl.UpdateGrade)
	api.Post("/regrade/:id", teacherOnly, grading, ctrl.Regrade)
	api.Post("/test-grading", teacherOnly, grading, ctrl.TestGrading)

	// pemilik (student / teacher) dicek di service
	api.Get("/submissions/:id/preview", ctrl.Preview)
}
