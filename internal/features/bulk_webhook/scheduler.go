package bulk_webhook

import (
	"context"
	"fmt"
	"time"

	"bulk-webhook/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the daily and monthly send jobs on cron schedules
type Scheduler struct {
	cron     *cron.Cron
	service  BulkWebhookService
	logger   *zap.Logger
	location *time.Location
	daily    string
	monthly  string
	timeout  time.Duration
}

func NewScheduler(cfg *config.Config, service BulkWebhookService, logger *zap.Logger) *Scheduler {
	loc := cfg.Location()
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		service:  service,
		logger:   logger,
		location: loc,
		daily:    cfg.DailySchedule,
		monthly:  cfg.MonthlySchedule,
		timeout:  time.Hour,
	}
}

// Start registers both jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.daily, s.job("send_daily", s.service.SendDaily)); err != nil {
		return fmt.Errorf("invalid daily schedule %q: %w", s.daily, err)
	}
	if _, err := s.cron.AddFunc(s.monthly, s.job("send_monthly", s.service.SendMonthly)); err != nil {
		return fmt.Errorf("invalid monthly schedule %q: %w", s.monthly, err)
	}

	s.cron.Start()
	s.logger.Info("Bulk webhook scheduler started",
		zap.String("daily", s.daily),
		zap.String("monthly", s.monthly),
		zap.String("timezone", s.location.String()))
	return nil
}

// Stop waits for running jobs or until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) job(name string, run func(context.Context, time.Time) JobSummary) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		started := time.Now()
		summary := run(ctx, started.In(s.location))
		s.logger.Info("Scheduled job finished",
			zap.String("job", name),
			zap.Int("considered", summary.Considered),
			zap.Int("sent", summary.Sent),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
			zap.Duration("took", time.Since(started)))
	}
}
