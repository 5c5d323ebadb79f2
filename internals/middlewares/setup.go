package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"automark_backend/internals/configs"
	"automark_backend/internals/middlewares/logger"
)

// requestTimeout harus lebih lama dari grading inline (retry model + unduh artefak).
const requestTimeout = 4 * time.Minute

func SetupMiddlewares(app *fiber.App, cfg *configs.Config) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestContext(requestTimeout))
	if !cfg.IsTest() {
		app.Use(logger.LoggerMiddleware())
		app.Use(GlobalRateLimiter())
	}
	app.Use(CorsMiddleware(cfg.CORS.Origins))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
}
