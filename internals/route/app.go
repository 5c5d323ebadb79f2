package routes

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"automark_backend/internals/configs"
	gradingService "automark_backend/internals/features/exams/grading/service"
	subsService "automark_backend/internals/features/finance/subscriptions/service"
	authRepo "automark_backend/internals/features/users/auth/repository"
	helper "automark_backend/internals/helpers"
	"automark_backend/internals/helpers/httpx"
	"automark_backend/internals/helpers/storage"
	"automark_backend/internals/middlewares"
)

// Deps: semua dependency yang dibutuhkan router. Test mengisi versi palsunya.
type Deps struct {
	Cfg    *configs.Config
	DB     *gorm.DB
	Store  *storage.Store
	Grader gradingService.Grader
	Redis  *redis.Client
	Snap   subsService.SnapGateway
}

// BuildDeps membangun dependency production dari config + DB yang sudah terbuka.
func BuildDeps(ctx context.Context, cfg *configs.Config, db *gorm.DB) (*Deps, error) {
	fetcher := httpx.NewFromConfig(cfg.HTTP)
	store, err := storage.NewFromConfig(ctx, cfg, fetcher)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	rdb, err := authRepo.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	d := &Deps{
		Cfg:    cfg,
		DB:     db,
		Store:  store,
		Grader: gradingService.NewGeminiGrader(cfg.Grading, fetcher, store),
		Redis:  rdb,
	}
	if cfg.Midtrans.ServerKey != "" {
		d.Snap = subsService.NewSnapClient(cfg.Midtrans)
	}
	return d, nil
}

// NewApp: fiber app lengkap dengan middleware + routes.
func NewApp(d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ErrorHandler:          helper.ErrorHandler,
		// dua PDF per request + sedikit ruang untuk field form
		BodyLimit:   int(2*d.Cfg.Upload.MaxBytes) + 1<<20,
		ProxyHeader: fiber.HeaderXForwardedFor,
	})

	middlewares.SetupMiddlewares(app, d.Cfg)
	SetupRoutes(app, d)
	return app
}
