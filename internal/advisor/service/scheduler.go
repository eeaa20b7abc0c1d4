package service

import (
	"context"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/strategy"
	"golang-stock-advisor/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the periodic monitoring, tracking, and ingestion passes.
type Scheduler struct {
	cfg        *config.Config
	log        *logger.Logger
	cron       *cron.Cron
	monitoring PositionMonitoringService
	tracker    PerformanceTrackerService
	newsIngest *strategy.NewsIngestStrategy
}

func NewScheduler(cfg *config.Config, log *logger.Logger,
	monitoring PositionMonitoringService,
	tracker PerformanceTrackerService,
	newsIngest *strategy.NewsIngestStrategy) *Scheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cfg:        cfg,
		log:        log,
		cron:       cron.New(cron.WithParser(parser)),
		monitoring: monitoring,
		tracker:    tracker,
		newsIngest: newsIngest,
	}
}

// Start registers the configured schedules and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if spec := s.cfg.Monitoring.CronSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() {
			s.monitoring.RunPass(ctx)
		}); err != nil {
			return err
		}
		s.log.Info("Scheduled position monitoring", logger.StringField("cron_spec", spec))
	}

	if spec := s.cfg.Performance.CronSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() {
			s.tracker.UpdateAll(ctx)
		}); err != nil {
			return err
		}
		s.log.Info("Scheduled performance tracker updates", logger.StringField("cron_spec", spec))
	}

	if spec := s.cfg.News.CronSpec; spec != "" {
		if _, err := s.cron.AddFunc(spec, func() {
			if err := s.newsIngest.Execute(ctx); err != nil {
				s.log.Error("News ingestion failed", logger.ErrorField(err))
			}
		}); err != nil {
			return err
		}
		s.log.Info("Scheduled news ingestion", logger.StringField("cron_spec", spec))
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop, waiting for running jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
