package scraping

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// schedulerConcurrency bounds how many tenants scrape at once. Each run is
// already rate limited per site; this caps the process wide fan out.
const schedulerConcurrency = 4

// Scheduler drives the automatic scrape cadence. Start runs the ticker loop;
// RunDue performs a single pass and is what tests exercise.
type Scheduler struct {
	logger  *zap.Logger
	repo    ScrapeRepo
	service ScrapingService
}

func NewScheduler(repo ScrapeRepo, service ScrapingService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger:  logger,
		repo:    repo,
		service: service,
	}
}

// Start ticks until the context is cancelled. Meant to be launched from main
// as its own goroutine when the scheduler is enabled.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("Scrape scheduler started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scrape scheduler stopped")
			return
		case <-ticker.C:
			s.RunDue(ctx)
		}
	}
}

// RunDue scrapes every active config whose next sync time has passed.
// Tenants are isolated: one failing or gated tenant never cancels the pass,
// so every error is swallowed into a log line.
func (s *Scheduler) RunDue(ctx context.Context) {
	configs, err := s.repo.ListDue(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to list due scrape configs", zap.Error(err))
		return
	}
	if len(configs) == 0 {
		return
	}
	s.logger.Info("Running scheduled scrapes", zap.Int("due", len(configs)))

	g := new(errgroup.Group)
	g.SetLimit(schedulerConcurrency)
	for _, cfg := range configs {
		cfg := cfg
		g.Go(func() error {
			result, err := s.service.RunScrape(ctx, cfg.DealershipID, cfg.MaxVehicles)
			if err != nil {
				// Expired trials land here via the feature gate; that is the
				// schedule working as intended, not a fault.
				s.logger.Warn("Scheduled scrape skipped",
					zap.String("dealershipID", cfg.DealershipID.String()),
					zap.Error(err))
				return nil
			}
			s.logger.Info("Scheduled scrape finished",
				zap.String("dealershipID", cfg.DealershipID.String()),
				zap.Int("scraped", result.ScrapedCount),
				zap.Int("errors", result.ErrorCount))
			return nil
		})
	}
	_ = g.Wait()
}
