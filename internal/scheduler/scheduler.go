package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/fournil/internal/config"
	"github.com/mamadbah2/fournil/internal/domain/models"
	"github.com/mamadbah2/fournil/internal/service/reporting"
	"github.com/mamadbah2/fournil/internal/service/whatsapp"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	messagingSvc whatsapp.MessagingService
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, messagingSvc whatsapp.MessagingService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// robfig/cron/v3 default parser is standard 5-field cron.
	c := cron.New()

	return &Scheduler{
		cron:         c,
		reportingSvc: reportingSvc,
		messagingSvc: messagingSvc,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the daily summary job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	_, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.sendDailySummary)
	if err != nil {
		s.logger.Error("failed to schedule daily summary", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) sendDailySummary() {
	s.logger.Info("generating daily production summary")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reportingSvc.GenerateDailySummary(ctx)
	if err != nil {
		s.logger.Error("failed to generate daily summary", zap.Error(err))
		return
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.WhatsApp.SupervisorID,
		Message: report,
	}

	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		s.logger.Error("failed to send daily summary", zap.Error(err))
	} else {
		s.logger.Info("daily summary sent successfully")
	}
}
