package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/service"
)

// Scheduler refreshes cached reference data in the background so
// request paths rarely pay the upstream fetch.
type Scheduler struct {
	cron     *cron.Cron
	currency service.CurrencyService
	bases    func(ctx context.Context) []string
	logger   *zap.Logger
}

// New creates a scheduler. bases supplies the company currencies whose
// rate tables should be kept warm.
func New(currency service.CurrencyService, bases func(ctx context.Context) []string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		currency: currency,
		bases:    bases,
		logger:   logger,
	}
}

// Start registers the refresh jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1h", s.refreshRates); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 24h", s.refreshCountries); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) refreshRates() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, base := range s.bases(ctx) {
		if err := s.currency.RefreshRates(ctx, base); err != nil {
			s.logger.Warn("Scheduled rate refresh failed",
				zap.String("base", base),
				zap.Error(err))
		}
	}
}

func (s *Scheduler) refreshCountries() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.currency.RefreshCountries(ctx); err != nil {
		s.logger.Warn("Scheduled country refresh failed", zap.Error(err))
	}
}
