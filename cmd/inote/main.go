package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inote-dev/inote/db"
	"github.com/inote-dev/inote/internal/auth"
	"github.com/inote-dev/inote/internal/config"
	"github.com/inote-dev/inote/internal/content"
	"github.com/inote-dev/inote/internal/groups"
	"github.com/inote-dev/inote/internal/handlers"
	"github.com/inote-dev/inote/internal/identity"
	"github.com/inote-dev/inote/internal/logger"
	"github.com/inote-dev/inote/internal/realtime"
	"github.com/inote-dev/inote/internal/router"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Development())

	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		return err
	}

	gdb, err := db.ConnectDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, zlog)

	if err != nil {
		return err
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		return err
	}

	identitySvc := identity.NewService(gdb, cfg.TokenTTL)

	h := &handlers.Handler{
		Identity: identitySvc,
		Groups:   groups.NewService(gdb),
		Notes:    content.NewNoteRepository(gdb),
		Tasks:    content.NewTaskRepository(gdb),
		Hub:      realtime.NewHub(cfg.AllowedOrigins, zlog.Named("realtime")),
		Log:      zlog,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(cfg, h, identitySvc, zlog.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.DatabaseDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := gdb.DB(); err == nil {
		return sqlDB.Close()
	}

	return nil
}
