package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fd1az/flashroute/internal/apperror"
	"github.com/fd1az/flashroute/internal/logger"
)

// Refresher reloads the universe on a cron schedule, independently of
// the cycle loop.
type Refresher struct {
	universe *Universe
	schedule string
	timeout  time.Duration
	logger   logger.LoggerInterface
	cron     *cron.Cron
}

// NewRefresher validates schedule, a standard five-field cron spec in UTC.
func NewRefresher(u *Universe, schedule string, timeout time.Duration, log logger.LoggerInterface) (*Refresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("tokens.refresh_schedule"))
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Refresher{
		universe: u,
		schedule: schedule,
		timeout:  timeout,
		logger:   log,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}, nil
}

// Start schedules the refresh job. Jobs stop when ctx is done or Stop
// is called.
func (r *Refresher) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.schedule, func() { r.run(ctx) }); err != nil {
		return apperror.Wrap(err, apperror.CodeConfigurationError, "schedule token refresh")
	}
	r.cron.Start()

	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	r.logger.Info(ctx, "token refresher started", "schedule", r.schedule)
	return nil
}

func (r *Refresher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.universe.Refresh(ctx); err != nil {
		r.logger.Warn(ctx, "token refresh failed, keeping current universe", "error", err)
		return
	}
	r.logger.Info(ctx, "token universe refreshed", "count", len(r.universe.Intermediates()))
}

// Stop waits for a running job to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
