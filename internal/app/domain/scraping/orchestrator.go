package scraping

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/app/observability/metrics"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

// VehicleUpserter persists accepted listings as inventory rows. Implemented
// by the inventory service.
type VehicleUpserter interface {
	UpsertFromListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (*models.Vehicle, error)
}

// ListingIngestor downloads and stores a listing's photos, best effort. The
// error return is reserved for storage being unavailable; per image failures
// come back as strings.
type ListingIngestor interface {
	IngestListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (int, []string, error)
}

// ScrapeOrchestrator drives a full site scrape: platform detection, inventory
// page discovery, listing extraction, vehicle upserts and image ingestion.
// It is deliberately forgiving: every failure below the run itself degrades
// into an error string on the result and the run keeps going.
type ScrapeOrchestrator struct {
	logger    *zap.Logger
	cfg       config.ScraperConfig
	fetcher   *PageFetcher
	detector  *PlatformDetector
	finder    *InventoryPageFinder
	extractor *ListingExtractor
	inventory VehicleUpserter
	ingestor  ListingIngestor
}

func NewScrapeOrchestrator(
	cfg config.ScraperConfig,
	fetcher *PageFetcher,
	detector *PlatformDetector,
	finder *InventoryPageFinder,
	extractor *ListingExtractor,
	inventory VehicleUpserter,
	ingestor ListingIngestor,
	logger *zap.Logger,
) *ScrapeOrchestrator {
	return &ScrapeOrchestrator{
		logger:    logger,
		cfg:       cfg,
		fetcher:   fetcher,
		detector:  detector,
		finder:    finder,
		extractor: extractor,
		inventory: inventory,
		ingestor:  ingestor,
	}
}

// Run scrapes one dealership site end to end and always hands back a result,
// never an error. ScrapedCount counts saved images across the whole run. A
// systemic failure collapses to {0, 1, [message], unknown}.
func (o *ScrapeOrchestrator) Run(ctx context.Context, dealershipID uuid.UUID, websiteURL string, maxVehicles int) (result models.ScrapeResult) {
	l := o.logger.With(zap.String("method", "Run"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("url", websiteURL))

	tracer := otel.Tracer("ScrapeOrchestrator")
	ctx, span := tracer.Start(ctx, "ScrapeOrchestrator.Run", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("scrape.url", websiteURL),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			l.Error("Scrape run panicked", zap.Any("panic", r))
			span.SetStatus(codes.Error, "Scrape run panicked")
			result = models.ScrapeResult{
				ErrorCount:       1,
				Errors:           []string{fmt.Sprintf("Website scraping error: %v", r)},
				DetectedPlatform: models.PlatformUnknown,
			}
		}
		metrics.Get().ScrapeRunsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("platform", string(result.DetectedPlatform)),
		))
	}()

	if maxVehicles <= 0 {
		maxVehicles = o.cfg.DefaultMaxVehicles
	}

	result.DetectedPlatform = o.detector.Detect(ctx, websiteURL)
	span.SetAttributes(attribute.String("scrape.platform", string(result.DetectedPlatform)))

	pages := o.finder.FindInventoryPages(ctx, websiteURL)
	if len(pages) == 0 {
		// Deliberate fallback, not an error: plenty of dealer sites keep the
		// inventory right on the homepage.
		pages = []string{websiteURL}
	}
	if len(pages) > o.cfg.MaxPages {
		pages = pages[:o.cfg.MaxPages]
	}

	for _, pageURL := range pages {
		if ctx.Err() != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Website scraping error: %v", ctx.Err()))
			break
		}

		o.scrapePage(ctx, dealershipID, pageURL, maxVehicles, &result)
		sleepCtx(ctx, o.cfg.PageDelay)
	}

	l.Info("Scrape run finished",
		zap.String("platform", string(result.DetectedPlatform)),
		zap.Int("scraped", result.ScrapedCount),
		zap.Int("errors", result.ErrorCount))
	span.SetStatus(codes.Ok, "Scrape run finished")
	return result
}

// scrapePage processes one inventory page into the shared result. A page
// that cannot be fetched or parsed contributes a single tagged error and the
// run moves on.
func (o *ScrapeOrchestrator) scrapePage(ctx context.Context, dealershipID uuid.UUID, pageURL string, maxVehicles int, result *models.ScrapeResult) {
	start := time.Now()
	defer func() {
		metrics.Get().ScrapePageDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("platform", string(result.DetectedPlatform)),
		))
	}()

	doc, err := o.fetcher.Document(ctx, pageURL)
	if err != nil {
		result.ErrorCount++
		result.Errors = append(result.Errors, fmt.Sprintf("Page scraping error for %s: %v", pageURL, err))
		return
	}

	listings := o.extractor.Extract(doc, pageURL)
	if len(listings) > maxVehicles {
		listings = listings[:maxVehicles]
	}

	for _, listing := range listings {
		if _, err := o.inventory.UpsertFromListing(ctx, dealershipID, listing); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Vehicle processing error: %v", err))
			continue
		}

		saved, errs, err := o.ingestor.IngestListing(ctx, dealershipID, listing)
		result.ScrapedCount += saved
		result.ErrorCount += len(errs)
		result.Errors = append(result.Errors, errs...)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Vehicle processing error: %v", err))
			continue
		}

		sleepCtx(ctx, o.cfg.VehicleDelay)
	}
}

// sleepCtx pauses between network bursts without outliving cancellation.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
