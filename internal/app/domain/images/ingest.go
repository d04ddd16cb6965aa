package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

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

// Downloader fetches image bytes over HTTP. Satisfied by the scraping page
// fetcher built with the longer image timeout.
type Downloader interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// Ingestor turns a listing's photo URLs into stored, normalized image
// records stamped with the configured source. The scrape pipeline and the
// DMS sync run separate instances over the same fetcher and repo.
type Ingestor struct {
	logger        *zap.Logger
	uploads       config.UploadsConfig
	source        models.ImageSource
	maxPerListing int
	fetcher       Downloader
	repo          ImageRepo
}

func NewIngestor(fetcher Downloader, repo ImageRepo, source models.ImageSource, uploads config.UploadsConfig, maxPerListing int, logger *zap.Logger) *Ingestor {
	if maxPerListing <= 0 {
		maxPerListing = 5
	}
	return &Ingestor{
		logger:        logger,
		uploads:       uploads,
		source:        source,
		maxPerListing: maxPerListing,
		fetcher:       fetcher,
		repo:          repo,
	}
}

// IngestListing downloads, normalizes and stores a listing's photos, capped
// per listing. Individual photo failures come back as strings and the batch
// keeps going; the error return fires only when the image store itself
// refuses writes. The first photo that makes it to disk and database becomes
// the listing's primary image, regardless of how many URLs failed before it.
func (ing *Ingestor) IngestListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (int, []string, error) {
	l := ing.logger.With(zap.String("method", "IngestListing"),
		zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("Ingestor")
	ctx, span := tracer.Start(ctx, "Ingestor.IngestListing", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.Int("listing.image_urls", len(listing.ImageURLs)),
	))
	defer span.End()

	urls := listing.ImageURLs
	if len(urls) > ing.maxPerListing {
		urls = urls[:ing.maxPerListing]
	}

	saved := 0
	var errs []string
	for i, imageURL := range urls {
		skip, err := ing.ingestOne(ctx, dealershipID, listing, imageURL, i, saved == 0)
		if err != nil {
			l.Error("Image store unavailable", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Image store unavailable")
			return saved, errs, err
		}
		if skip != "" {
			errs = append(errs, skip)
			continue
		}
		saved++
		metrics.Get().ImagesSavedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", string(ing.source)),
		))
	}

	l.Debug("Listing photos ingested", zap.Int("saved", saved), zap.Int("skipped", len(errs)))
	span.SetStatus(codes.Ok, "Listing photos ingested")
	return saved, errs, nil
}

// ingestOne handles a single photo URL. A non-empty skip string means this
// URL was dropped and the batch should continue; a non-nil error means the
// store is down and the batch should stop.
func (ing *Ingestor) ingestOne(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing, imageURL string, index int, primary bool) (skip string, err error) {
	resp, err := ing.fetcher.Get(ctx, imageURL)
	if err != nil {
		return fmt.Sprintf("download failed for %s: %v", imageURL, err), nil
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, ing.uploads.MaxFileSize+1))
	if err != nil {
		return fmt.Sprintf("download failed for %s: %v", imageURL, err), nil
	}

	name := filenameFromURL(imageURL, index)
	if err := validateFile(name, int64(len(data)), ing.uploads.MaxFileSize); err != nil {
		return fmt.Sprintf("image %d from %s: %v", index+1, imageURL, err), nil
	}

	processed, err := normalizeImage(data, extOf(name), ing.uploads)
	if err != nil {
		return fmt.Sprintf("image %d from %s: %v", index+1, imageURL, err), nil
	}

	filename := uniqueFilename(processed.ext)
	path, err := writeImageFile(ing.uploads.BaseDir, ing.subdir(), filename, processed.data)
	if err != nil {
		return "", err
	}

	rec := &models.ImageRecord{
		DealershipID:     dealershipID,
		Filename:         filename,
		OriginalFilename: name,
		FilePath:         path,
		FileSize:         int64(len(processed.data)),
		MimeType:         processed.mime,
		Width:            processed.width,
		Height:           processed.height,
		SourceType:       ing.source,
		SourceURL:        imageURL,
		VehicleYear:      listing.Year,
		VehicleMake:      listing.Make,
		VehicleModel:     listing.Model,
		VehicleVIN:       listing.VIN,
		VehicleStockNum:  listing.StockNumber,
		AltText:          ingestAltText(ing.source, listing),
		Tags:             ingestTags(ing.source, listing),
		IsPrimary:        primary,
		IsActive:         true,
	}

	if _, err := ing.repo.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("storing image record: %w", err)
	}
	return "", nil
}

// filenameFromURL takes the last path segment, falling back to a synthetic
// name when the URL ends in a slash.
func filenameFromURL(rawURL string, index int) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		segments := strings.Split(u.Path, "/")
		name = segments[len(segments)-1]
	}
	if name == "" {
		name = fmt.Sprintf("scraped_image_%d.jpg", index+1)
	}
	return name
}

func (ing *Ingestor) subdir() string {
	if ing.source == models.ImageSourceDMS {
		return dmsSubdir
	}
	return scrapedSubdir
}

func ingestAltText(source models.ImageSource, listing models.VehicleListing) string {
	var parts []string
	if source == models.ImageSourceScraping {
		parts = append(parts, "Scraped")
	}
	if listing.Year != 0 {
		parts = append(parts, strconv.Itoa(listing.Year))
	}
	if listing.Make != "" {
		parts = append(parts, listing.Make)
	}
	if listing.Model != "" {
		parts = append(parts, listing.Model)
	}
	return strings.Join(parts, " ")
}

func ingestTags(source models.ImageSource, listing models.VehicleListing) []string {
	if source == models.ImageSourceDMS {
		var tags []string
		if listing.Make != "" {
			tags = append(tags, strings.ToLower(listing.Make))
		}
		if listing.Model != "" {
			tags = append(tags, strings.ToLower(listing.Model))
		}
		return append(tags, "dms-sync")
	}
	tags := []string{"scraped", "website"}
	if listing.Make != "" {
		tags = append(tags, strings.ToLower(listing.Make))
	}
	return tags
}
