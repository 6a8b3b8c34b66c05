package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tentworks/tentflow/internal/config"
	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/invoice"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/domain/project"
	"github.com/tentworks/tentflow/internal/server"
	"github.com/tentworks/tentflow/internal/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	memberRepo := sqlite.NewMembershipRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	invoiceRepo := sqlite.NewInvoiceRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	notifyRepo := sqlite.NewNotificationRepository(db)

	members := membership.NewResolver(memberRepo, logger)
	activities := activity.NewService(activityRepo, logger)
	notifier := notify.NewDispatcher(notifyRepo, logger)
	projects := project.NewService(projectRepo, members, activities, notifier, logger)
	invoices := invoice.NewService(invoiceRepo, projectRepo, members, activities, logger)

	srv := server.New(projects, invoices, members, notifier, activities, logger)

	go func() {
		logger.Info("server listening", "addr", cfg.Addr())
		if err := srv.Start(cfg.Addr()); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
