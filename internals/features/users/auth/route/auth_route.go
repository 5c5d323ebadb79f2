// file: internals/features/users/auth/route/auth_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	controller "automark_backend/internals/features/users/auth/controller"
	rateLimiter "automark_backend/internals/middlewares"
)

// AuthRoutes: base /api
func AuthRoutes(api fiber.Router, authController *controller.AuthController, requireAuth, optionalAuth fiber.Handler, limit bool) {
	loginLimit, registerLimit := pass, pass
	if limit {
		loginLimit, registerLimit = rateLimiter.LoginRateLimiter(), rateLimiter.RegisterRateLimiter()
	}

	// 🔓 Public
	api.Post("/login", loginLimit, authController.Login)
	api.Post("/login-google", loginLimit, authController.LoginGoogle)
	api.Post("/register", registerLimit, authController.Register)
	api.Post("/logout", authController.Logout)
	api.Get("/check-session", optionalAuth, authController.CheckSession)

	// 🔒 Protected
	api.Post("/change-password", requireAuth, authController.ChangePassword)
}

func pass(c *fiber.Ctx) error { return c.Next() }
