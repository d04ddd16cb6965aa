package scraping

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

var _ ScrapingService = (*ScrapingServiceImpl)(nil)

// FeatureChecker is the slice of the subscription service the scraper needs.
type FeatureChecker interface {
	CheckFeatureAccess(ctx context.Context, dealershipID uuid.UUID, feature models.Feature) (bool, error)
}

// PlatformDetection resolves what CMS runs a site. Implemented by
// PlatformDetector.
type PlatformDetection interface {
	Detect(ctx context.Context, rawURL string) models.WebsitePlatform
}

// SiteScraper runs one full site scrape. Implemented by ScrapeOrchestrator.
type SiteScraper interface {
	Run(ctx context.Context, dealershipID uuid.UUID, websiteURL string, maxVehicles int) models.ScrapeResult
}

// ScrapingService is the tenant facing surface over the scrape pipeline:
// setup, manual runs, status and scheduling.
type ScrapingService interface {
	// SetupScraping validates the site URL, detects its platform and stores
	// the dealership's scrape configuration.
	SetupScraping(ctx context.Context, dealershipID uuid.UUID, websiteURL string) (*models.ScrapeConfig, error)
	// RunScrape executes a scrape now. Gated on the website_scraping feature.
	RunScrape(ctx context.Context, dealershipID uuid.UUID, maxVehicles int) (*models.ScrapeResult, error)
	GetScrapeStatus(ctx context.Context, dealershipID uuid.UUID) (*models.ScrapeConfig, error)
	UpdateSchedule(ctx context.Context, dealershipID uuid.UUID, req *models.UpdateScheduleRequest) (*models.ScrapeConfig, error)
}

type ScrapingServiceImpl struct {
	logger       *zap.Logger
	cfg          config.ScraperConfig
	repo         ScrapeRepo
	features     FeatureChecker
	detector     PlatformDetection
	orchestrator SiteScraper
}

func NewScrapingService(
	repo ScrapeRepo,
	features FeatureChecker,
	detector PlatformDetection,
	orchestrator SiteScraper,
	cfg config.ScraperConfig,
	logger *zap.Logger,
) *ScrapingServiceImpl {
	return &ScrapingServiceImpl{
		logger:       logger,
		cfg:          cfg,
		repo:         repo,
		features:     features,
		detector:     detector,
		orchestrator: orchestrator,
	}
}

// validateWebsiteURL accepts absolute http(s) URLs with a host.
func validateWebsiteURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid website url %q: %w", raw, models.ErrValidation)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("website url must be absolute http or https: %w", models.ErrValidation)
	}
	return nil
}

func (s *ScrapingServiceImpl) SetupScraping(ctx context.Context, dealershipID uuid.UUID, websiteURL string) (*models.ScrapeConfig, error) {
	l := s.logger.With(zap.String("method", "SetupScraping"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("url", websiteURL))

	tracer := otel.Tracer("ScrapingService")
	ctx, span := tracer.Start(ctx, "ScrapingService.SetupScraping", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	if err := validateWebsiteURL(websiteURL); err != nil {
		span.SetStatus(codes.Error, "Invalid website URL")
		return nil, err
	}

	// Best effort: an unreachable site still gets configured, it just stays
	// platform unknown until the first successful run.
	platform := s.detector.Detect(ctx, websiteURL)

	now := time.Now().UTC()
	nextSync := models.ScheduleWeekly.NextRun(now)
	cfg := &models.ScrapeConfig{
		DealershipID:      dealershipID,
		WebsiteURL:        strings.TrimSpace(websiteURL),
		DetectedPlatform:  platform,
		Status:            models.ScrapeConfigured,
		ScheduleFrequency: models.ScheduleWeekly,
		IsActive:          true,
		MaxVehicles:       s.cfg.DefaultMaxVehicles,
		NextSyncAt:        &nextSync,
	}

	saved, err := s.repo.UpsertConfig(ctx, cfg)
	if err != nil {
		l.Error("Failed to save scrape config", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Config persistence failed")
		return nil, err
	}

	l.Info("Scraping configured", zap.String("platform", string(platform)))
	span.SetStatus(codes.Ok, "Scraping configured")
	return saved, nil
}

func (s *ScrapingServiceImpl) RunScrape(ctx context.Context, dealershipID uuid.UUID, maxVehicles int) (*models.ScrapeResult, error) {
	l := s.logger.With(zap.String("method", "RunScrape"), zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("ScrapingService")
	ctx, span := tracer.Start(ctx, "ScrapingService.RunScrape", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	allowed, err := s.features.CheckFeatureAccess(ctx, dealershipID, models.FeatureWebsiteScraping)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Feature check failed")
		return nil, err
	}
	if !allowed {
		span.SetStatus(codes.Error, "Feature denied")
		return nil, fmt.Errorf("website scraping requires an active subscription: %w", models.ErrForbidden)
	}

	cfg, err := s.repo.GetConfig(ctx, dealershipID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Config lookup failed")
		return nil, err
	}
	if maxVehicles <= 0 {
		maxVehicles = cfg.MaxVehicles
	}

	startedAt := time.Now().UTC()
	result := s.orchestrator.Run(ctx, dealershipID, cfg.WebsiteURL, maxVehicles)

	if err := s.repo.RecordRun(ctx, dealershipID, &result, startedAt); err != nil {
		l.Warn("Failed to record scrape run", zap.Error(err))
	}

	// A run that saved nothing and hit errors flags the config so the
	// dashboard surfaces the failure; partial success stays configured.
	status := models.ScrapeConfigured
	lastError := ""
	if result.ScrapedCount == 0 && result.ErrorCount > 0 {
		status = models.ScrapeError
		lastError = result.Errors[0]
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateRunOutcome(ctx, dealershipID, status, lastError, now, cfg.ScheduleFrequency.NextRun(now)); err != nil {
		l.Warn("Failed to update scrape outcome", zap.Error(err))
	}

	l.Info("Scrape run completed",
		zap.Int("scraped", result.ScrapedCount),
		zap.Int("errors", result.ErrorCount),
		zap.String("platform", string(result.DetectedPlatform)))
	span.SetStatus(codes.Ok, "Scrape run completed")
	return &result, nil
}

func (s *ScrapingServiceImpl) GetScrapeStatus(ctx context.Context, dealershipID uuid.UUID) (*models.ScrapeConfig, error) {
	return s.repo.GetConfig(ctx, dealershipID)
}

func (s *ScrapingServiceImpl) UpdateSchedule(ctx context.Context, dealershipID uuid.UUID, req *models.UpdateScheduleRequest) (*models.ScrapeConfig, error) {
	l := s.logger.With(zap.String("method", "UpdateSchedule"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("frequency", string(req.Frequency)))

	frequency := req.Frequency
	switch frequency {
	case models.ScheduleDaily, models.ScheduleWeekly, models.ScheduleMonthly:
	default:
		// Unknown cadences quietly become weekly, matching NextRun.
		frequency = models.ScheduleWeekly
	}

	now := time.Now().UTC()
	cfg, err := s.repo.UpdateSchedule(ctx, dealershipID, frequency, req.IsActive, frequency.NextRun(now))
	if err != nil {
		l.Error("Failed to update schedule", zap.Error(err))
		return nil, err
	}

	l.Info("Scrape schedule updated", zap.Bool("active", cfg.IsActive), zap.Timep("nextSyncAt", cfg.NextSyncAt))
	return cfg, nil
}
