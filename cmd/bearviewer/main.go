package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bearwatch/internal/app"
	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/storage"
	"bearwatch/internal/logging"
	"bearwatch/internal/matcher"
	"bearwatch/internal/usecase"
	"bearwatch/internal/viewer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if err := run(cfg, logger); err != nil {
		logger.Error("viewer stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	// The manual-scrape trigger reuses the same cycle wiring as the
	// scraper binary.
	cycle := usecase.NewCycle(usecase.CycleDeps{
		Registry: app.NewScraperRegistry(cfg, logger),
		Store:    store,
		Matcher:  matcher.New(cfg.Keywords),
		Sources:  cfg.EnabledSources(),
		Logger:   logger.With("component", "cycle"),
	})

	server := viewer.NewServer(store, cycle, cfg.Viewer.PageSize, logger.With("component", "viewer"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("viewer listening", "addr", cfg.Viewer.Addr)
		errCh <- server.Start(cfg.Viewer.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
