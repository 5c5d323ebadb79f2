package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"automark_backend/internals/configs"
	databases "automark_backend/internals/databases"
)

func BaseRoutes(app *fiber.App, db *gorm.DB, cfg *configs.Config, startTime time.Time) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("AutoMark API is running 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if err := databases.Ping(db); err != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    cfg.AppEnv,
		})
	})

	// artefak lokal (fallback storage)
	app.Static("/uploads", cfg.Upload.Dir, fiber.Static{ByteRange: true})
}
