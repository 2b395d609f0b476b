package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"perfeval/internal/platform/blob"
	"perfeval/internal/platform/config"
	"perfeval/internal/platform/db"
	"perfeval/internal/platform/jobs"
)

const shutdownTimeout = 15 * time.Second

// Run serves the API until SIGINT or SIGTERM, then drains in-flight requests.
func Run() error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := db.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docs.Close(closeCtx); err != nil {
			slog.Warn("store close failed", "err", err)
		}
	}()

	if cfg.RunSeed {
		result, err := db.Seed(ctx, docs, cfg)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		slog.Info("seed complete", "companyId", result.CompanyID, "adminCreated", result.AdminCreated, "criteriaCreated", result.CriteriaCreated)
	}

	blobs, err := blob.Open(cfg)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	services, err := NewServices(cfg, docs, blobs)
	if err != nil {
		return err
	}
	if retention := services.RetentionJob(); retention != nil {
		services.Jobs.Schedule(jobs.JobAuditRetention, cfg.RetentionInterval, retention)
	}
	services.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "driver", cfg.DocstoreDriver, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
