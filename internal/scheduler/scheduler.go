package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/skimeister/internal/ingest"
)

// Runner is satisfied by *ingest.Pipeline.
type Runner interface {
	Run(ctx context.Context, country string, limit int) (ingest.Report, error)
}

// Scheduler periodically refreshes resort data for the configured countries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	countries []string
	limit     int
	interval  time.Duration
	// jobTimeout bounds one refresh of all countries.
	jobTimeout time.Duration
	log        *slog.Logger
}

// New creates a new Scheduler.
func New(runner Runner, countries []string, limit int, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		runner:     runner,
		countries:  countries,
		limit:      limit,
		interval:   interval,
		jobTimeout: 2 * time.Hour,
		log:        log,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A zero interval or an empty country list schedules nothing.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("scheduler disabled", "interval", s.interval)
		return nil
	}
	if len(s.countries) == 0 {
		s.log.Info("scheduler: no countries configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "every", time.Duration(minutes)*time.Minute, "countries", s.countries)
	return nil
}

// RunOnce refreshes every configured country sequentially, sharing the
// pipeline's fetcher and therefore its rate limit.
func (s *Scheduler) RunOnce(ctx context.Context) []ingest.Report {
	s.log.Info("scheduler: running refresh job")
	reports := make([]ingest.Report, 0, len(s.countries))
	for _, country := range s.countries {
		if ctx.Err() != nil {
			break
		}
		report, err := s.runner.Run(ctx, country, s.limit)
		if err != nil {
			s.log.Error("scheduler: refresh failed", "country", country, "error", err)
		}
		reports = append(reports, report)
	}
	s.log.Info("scheduler: completed refresh job", "countries", len(reports))
	return reports
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
