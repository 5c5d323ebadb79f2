package route

import (
	"github.com/gofiber/fiber/v2"

	"automark_backend/internals/constants"
	"automark_backend/internals/features/finance/subscriptions/controller"
	authMiddleware "automark_backend/internals/middlewares/auth"
)

// SubscriptionPublicRoutes: webhook, tanpa auth.
func SubscriptionPublicRoutes(api fiber.Router, ctrl *controller.SubscriptionController) {
	api.Post("/subscriptions/notification", ctrl.Notification)
}

// SubscriptionRoutes: api sudah di belakang AuthJWT.
func SubscriptionRoutes(api fiber.Router, ctrl *controller.SubscriptionController) {
	teacherOnly := authMiddleware.OnlyRoles(constants.RoleErrorTeacher("subscriptions"), constants.TeacherOnly...)

	api.Get("/subscriptions/me", ctrl.Me)
	api.Post("/subscriptions/checkout", teacherOnly, ctrl.Checkout)
}
