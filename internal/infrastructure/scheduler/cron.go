package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"bearwatch/internal/ports"
)

// CronScheduler runs the job on a cron expression in the configured
// timezone.
type CronScheduler struct {
	spec     string
	location *time.Location
	cron     *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for a standard 5-field cron spec.
func NewCronScheduler(spec string, location *time.Location) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location}
}

// Start registers the job and begins the cron loop. The job also fires once
// immediately so a daemon restart does not wait a full interval. At most one
// execution runs at a time: the startup run and every cron tick go through
// the same skip-if-still-running chain, so a trigger arriving mid-cycle is
// dropped rather than overlapped.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.cron != nil {
		return nil
	}

	runner := cron.New(cron.WithLocation(c.location))
	guarded := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(
		cron.FuncJob(func() { job(time.Now().In(c.location)) }))
	if _, err := runner.AddJob(c.spec, guarded); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}

	c.cron = runner
	runner.Start()
	go guarded.Run()

	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (c *CronScheduler) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}

	stopCtx := c.cron.Stop()
	c.cron = nil

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
