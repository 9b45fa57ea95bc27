package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bearwatch/internal/config"
	"bearwatch/internal/infrastructure/fetch"
	"bearwatch/internal/infrastructure/scheduler"
	"bearwatch/internal/infrastructure/sites"
	"bearwatch/internal/infrastructure/storage"
	"bearwatch/internal/logging"
	"bearwatch/internal/matcher"
	"bearwatch/internal/source"
	"bearwatch/internal/usecase"
)

// Exit codes mirror the scrape outcome: partial means some sources failed
// while others produced articles; failure means nothing succeeded or the
// store was unavailable.
const (
	ExitOK      = 0
	ExitPartial = 1
	ExitFailure = 2
)

// Application wires configs to the scrape use case and lifecycle handling.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.SQLiteStore
	cycle  *usecase.Cycle
}

// New builds a runnable application instance. The store is opened here;
// failure to open it is fatal.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	cycle := usecase.NewCycle(usecase.CycleDeps{
		Registry: NewScraperRegistry(cfg, baseLogger),
		Store:    store,
		Matcher:  matcher.New(cfg.Keywords),
		Sources:  cfg.EnabledSources(),
		Logger:   baseLogger.With("component", "cycle"),
	})

	return &Application{cfg: cfg, logger: baseLogger, store: store, cycle: cycle}, nil
}

// NewScraperRegistry registers every site strategy against one shared
// polite HTTP client.
func NewScraperRegistry(cfg config.Config, baseLogger *slog.Logger) *source.Registry {
	client := fetch.NewClient(cfg.Scraper, nil, baseLogger.With("component", "fetch"))

	registry := source.NewRegistry()
	registry.Register(sites.NewNRL(client, baseLogger.With("component", "sites.nrl")))
	registry.Register(sites.NewTheRoar(client, baseLogger.With("component", "sites.theroar")))
	registry.Register(sites.NewSevenWest(client, baseLogger.With("component", "sites.sevenwest")))
	registry.Register(sites.NewNine(client, baseLogger.With("component", "sites.nine")))
	registry.Register(sites.NewFoxSports(client, baseLogger.With("component", "sites.foxsports")))
	registry.Register(sites.NewCodeSports(client, baseLogger.With("component", "sites.codesports")))
	registry.Register(sites.NewNewsNow(client, baseLogger.With("component", "sites.newsnow")))
	registry.Register(sites.NewRSS(client, baseLogger.With("component", "sites.rss")))
	return registry
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

// RunOnce executes a single scrape cycle and returns the process exit code.
func (a *Application) RunOnce(ctx context.Context) int {
	summary, err := a.cycle.Run(ctx)
	if err != nil {
		a.logger.Error("cycle aborted", "error", err)
		return ExitFailure
	}

	failed := summary.Failed()
	for _, report := range failed {
		a.logger.Warn("source failed", "source", report.Source, "error", report.Err)
	}

	switch {
	case len(failed) > 0 && summary.Saved == 0:
		return ExitFailure
	case len(failed) > 0:
		return ExitPartial
	default:
		return ExitOK
	}
}

// RunDaemon runs cycles on the configured cron schedule until the process
// receives SIGINT or SIGTERM.
func (a *Application) RunDaemon(ctx context.Context) int {
	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, a.cycle, a.logger.With("component", "scheduler"))

	if err := sched.Start(ctx); err != nil {
		a.logger.Error("scheduler start failed", "error", err)
		return ExitFailure
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		a.logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := sched.Stop(context.Background()); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	return ExitOK
}
