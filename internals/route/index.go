package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	examController "automark_backend/internals/features/exams/exams/controller"
	examRoute "automark_backend/internals/features/exams/exams/route"
	examService "automark_backend/internals/features/exams/exams/service"
	subController "automark_backend/internals/features/exams/submissions/controller"
	subRoute "automark_backend/internals/features/exams/submissions/route"
	subService "automark_backend/internals/features/exams/submissions/service"
	subsController "automark_backend/internals/features/finance/subscriptions/controller"
	subsRoute "automark_backend/internals/features/finance/subscriptions/route"
	subsService "automark_backend/internals/features/finance/subscriptions/service"
	authController "automark_backend/internals/features/users/auth/controller"
	authRepo "automark_backend/internals/features/users/auth/repository"
	authRoute "automark_backend/internals/features/users/auth/route"
	authService "automark_backend/internals/features/users/auth/service"
	authMiddleware "automark_backend/internals/middlewares/auth"
)

func SetupRoutes(app *fiber.App, d *Deps) {
	cfg, db := d.Cfg, d.DB
	limit := !cfg.IsTest()

	BaseRoutes(app, db, cfg, time.Now())

	// ===================== SERVICES =====================
	blacklist := authRepo.NewBlacklist(db, d.Redis)
	authSvc := authService.NewService(db, cfg.Auth, blacklist)
	subsSvc := subsService.NewService(db, cfg.Midtrans, d.Snap)
	examSvc := examService.NewService(db, d.Store, subsSvc, cfg.Midtrans.FreeExamLimit)
	subSvc := subService.NewService(db, d.Store, d.Grader)

	requireAuth := authMiddleware.AuthJWT(cfg.Auth.JWTSecret, authSvc)
	optionalAuth := authMiddleware.OptionalAuth(cfg.Auth.JWTSecret, authSvc)

	api := app.Group("/api")

	// ===================== PUBLIC =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	authRoute.AuthRoutes(api, authController.NewAuthController(authSvc, cfg.Auth), requireAuth, optionalAuth, limit)

	subsCtrl := subsController.NewSubscriptionController(db, subsSvc)
	subsRoute.SubscriptionPublicRoutes(api, subsCtrl)

	// ===================== PRIVATE =====================
	// harus didaftarkan setelah semua route publik di /api
	log.Println("[INFO] Setting up PRIVATE group...")
	private := api.Group("", requireAuth)

	examRoute.ExamRoutes(private, examController.NewExamController(examSvc, cfg.Upload.MaxBytes))
	subRoute.SubmissionRoutes(private, subController.NewSubmissionController(subSvc, cfg.Upload.MaxBytes), limit)
	subsRoute.SubscriptionRoutes(private, subsCtrl)
}
