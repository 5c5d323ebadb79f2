package commands

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"automark_backend/internals/databases/migrations"
	subsScheduler "automark_backend/internals/features/finance/subscriptions/scheduler"
	subsService "automark_backend/internals/features/finance/subscriptions/service"
	authScheduler "automark_backend/internals/features/users/auth/scheduler"
	routes "automark_backend/internals/route"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not AutoMigrate on startup")
	return cmd
}

func runServe(parent context.Context, cc *commandContext, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := cc.deps(ctx)
	if err != nil {
		return err
	}
	if migrate {
		if err := migrations.Run(d.DB); err != nil {
			return err
		}
	}
	log.Printf("[INFO] storage backends: %v", d.Store.BackendNames())

	// ⏱ scheduler setelah DB siap
	authScheduler.StartBlacklistCleanupScheduler(ctx, d.DB, d.Cfg.Auth.BlacklistRetainDays)
	subsScheduler.StartExpiryScheduler(ctx, subsService.NewService(d.DB, d.Cfg.Midtrans, d.Snap))

	app := routes.NewApp(d)

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 60 * time.Second
	app.Server().WriteTimeout = 5 * time.Minute
	app.Server().IdleTimeout = 90 * time.Second

	errCh := make(chan error, 1)
	go func() {
		log.Printf("✅ Listening on :%s", d.Cfg.Port)
		errCh <- app.Listen("0.0.0.0:" + d.Cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	log.Println("👋 server berhenti")
	return nil
}
