package usecase

import (
	"context"
	"log/slog"
	"time"

	"bearwatch/internal/ports"
)

// Scheduler wires the cron driver with the scrape cycle.
type Scheduler struct {
	driver ports.Scheduler
	cycle  ports.CycleRunner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, cycle ports.CycleRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, cycle: cycle, logger: logger}
}

// Start registers the cycle with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.cycle.Run(ctx); err != nil && s.logger != nil {
			s.logger.Error("scheduled cycle failed", "trigger", trigger, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
