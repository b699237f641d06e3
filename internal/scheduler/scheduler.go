package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/aquafarm/internal/config"
	"github.com/mamadbah2/aquafarm/internal/service/alerts"
	"github.com/mamadbah2/aquafarm/internal/service/reporting"
)

// Scheduler manages scheduled tasks: the end-of-day farm report and the
// low-stock warehouse scan.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	alertsSvc    *alerts.Service
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. The cron runs in the
// configured farm timezone so "20:00" means 20:00 at the ponds.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, alertsSvc *alerts.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		reportingSvc: reportingSvc,
		alertsSvc:    alertsSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.runDailyReport); err != nil {
		s.logger.Error("failed to schedule daily report", zap.Error(err))
	}

	// Low-stock scan every morning so replenishment transfers can go out
	// with the day's first truck.
	if _, err := s.cron.AddFunc("0 7 * * *", s.runLowStockScan); err != nil {
		s.logger.Error("failed to schedule low-stock scan", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.reportingSvc.GenerateDailyReport(ctx, time.Now()); err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}
	s.logger.Info("daily report completed")
}

func (s *Scheduler) runLowStockScan() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	low, err := s.alertsSvc.ScanLowStock(ctx)
	if err != nil {
		s.logger.Error("low-stock scan failed", zap.Error(err))
		return
	}
	s.logger.Info("low-stock scan completed", zap.Int("warehouses_below_threshold", len(low)))
}
