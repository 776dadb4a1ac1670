package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func main() {
	cfg := config.Load()

	logger, err := applog.NewLogger(cfg.ServiceName, cfg.Env, cfg.LogFile)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	store, err := repos.Open(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db_open_failed", zap.String("dsn", cfg.DBDSN), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("db_close_failed", zap.Error(err))
		}
	}()

	ctx := context.Background()
	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, store.DB()); err != nil {
			logger.Fatal("seed_failed", zap.Error(err))
		}
	}

	// Auth wiring
	authSvc := services.NewAuthService(store.Users, cfg.SessionTTL)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		admin, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Fatal("admin_seed_failed", zap.String("email", cfg.AdminEmail), zap.Error(err))
		}
		logger.Info("admin_ready", zap.String("user_id", admin.ID))
	}

	files, err := media.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("upload_dir_failed", zap.String("dir", cfg.UploadDir), zap.Error(err))
	}

	deps := handlers.NewDeps(store, cfg, authSvc, files, metrics.New())
	app := handlers.NewApp(deps)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start", zap.String("port", cfg.Port), zap.String("uploads", cfg.UploadDir))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("http_server_error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}
