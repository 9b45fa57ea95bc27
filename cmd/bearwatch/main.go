package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"bearwatch/internal/app"
	"bearwatch/internal/config"
	"bearwatch/internal/logging"
)

func main() {
	daemon := flag.Bool("daemon", false, "keep running and scrape on the configured cron schedule")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(app.ExitFailure)
	}

	ctx := context.Background()
	var code int
	if *daemon {
		code = application.RunDaemon(ctx)
	} else {
		code = application.RunOnce(ctx)
	}

	if err := application.Close(); err != nil {
		logger.Warn("close store", "error", err)
	}
	os.Exit(code)
}
