package images

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

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

// ImageService is the image management surface behind the API.
type ImageService interface {
	Upload(ctx context.Context, dealershipID uuid.UUID, file *multipart.FileHeader, identity models.VehicleIdentity, altText string, tags []string) (*models.ImageRecord, error)
	Get(ctx context.Context, dealershipID, imageID uuid.UUID) (*models.ImageRecord, error)
	List(ctx context.Context, dealershipID uuid.UUID, filter *models.ImageFilter) ([]models.ImageRecord, error)
	SetPrimary(ctx context.Context, dealershipID, imageID uuid.UUID) error
	SoftDelete(ctx context.Context, dealershipID, imageID uuid.UUID) error
	UpdateMetadata(ctx context.Context, dealershipID, imageID uuid.UUID, update *models.ImageMetadataUpdate) (*models.ImageRecord, error)
}

type ImageServiceImpl struct {
	logger  *zap.Logger
	uploads config.UploadsConfig
	repo    ImageRepo
}

var _ ImageService = (*ImageServiceImpl)(nil)

func NewImageService(repo ImageRepo, uploads config.UploadsConfig, logger *zap.Logger) *ImageServiceImpl {
	return &ImageServiceImpl{
		logger:  logger,
		uploads: uploads,
		repo:    repo,
	}
}

// Upload validates, normalizes and stores one multipart file. Uploads are
// never primary on arrival; that happens through SetPrimary.
func (s *ImageServiceImpl) Upload(ctx context.Context, dealershipID uuid.UUID, file *multipart.FileHeader, identity models.VehicleIdentity, altText string, tags []string) (*models.ImageRecord, error) {
	l := s.logger.With(zap.String("method", "Upload"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("filename", file.Filename))

	tracer := otel.Tracer("ImageService")
	ctx, span := tracer.Start(ctx, "ImageService.Upload", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	if err := validateFile(file.Filename, file.Size, s.uploads.MaxFileSize); err != nil {
		l.Warn("Upload rejected", zap.Error(err))
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.uploads.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.uploads.MaxFileSize {
		return nil, fmt.Errorf("file too large, maximum size %dMB: %w",
			s.uploads.MaxFileSize/(1024*1024), models.ErrValidation)
	}

	processed, err := normalizeImage(data, extOf(file.Filename), s.uploads)
	if err != nil {
		l.Warn("Upload failed to decode", zap.Error(err))
		return nil, fmt.Errorf("unreadable image file: %w", models.ErrValidation)
	}

	filename := uniqueFilename(processed.ext)
	path, err := writeImageFile(s.uploads.BaseDir, uploadSubdir, filename, processed.data)
	if err != nil {
		l.Error("Failed to store upload", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store upload")
		return nil, err
	}

	rec := &models.ImageRecord{
		DealershipID:     dealershipID,
		Filename:         filename,
		OriginalFilename: filepath.Base(file.Filename),
		FilePath:         path,
		FileSize:         int64(len(processed.data)),
		MimeType:         processed.mime,
		Width:            processed.width,
		Height:           processed.height,
		SourceType:       models.ImageSourceUpload,
		VehicleYear:      identity.Year,
		VehicleMake:      identity.Make,
		VehicleModel:     identity.Model,
		VehicleVIN:       identity.VIN,
		VehicleStockNum:  identity.StockNumber,
		AltText:          altText,
		Tags:             tags,
		IsActive:         true,
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist upload")
		return nil, err
	}

	metrics.Get().ImagesSavedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", string(models.ImageSourceUpload)),
	))

	l.Info("Image uploaded", zap.String("imageID", created.ID.String()))
	span.SetStatus(codes.Ok, "Image uploaded")
	return created, nil
}

func (s *ImageServiceImpl) Get(ctx context.Context, dealershipID, imageID uuid.UUID) (*models.ImageRecord, error) {
	tracer := otel.Tracer("ImageService")
	ctx, span := tracer.Start(ctx, "ImageService.Get", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("image.id", imageID.String()),
	))
	defer span.End()

	return s.repo.GetByID(ctx, dealershipID, imageID)
}

func (s *ImageServiceImpl) List(ctx context.Context, dealershipID uuid.UUID, filter *models.ImageFilter) ([]models.ImageRecord, error) {
	tracer := otel.Tracer("ImageService")
	ctx, span := tracer.Start(ctx, "ImageService.List", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	return s.repo.List(ctx, dealershipID, filter)
}

func (s *ImageServiceImpl) SetPrimary(ctx context.Context, dealershipID, imageID uuid.UUID) error {
	l := s.logger.With(zap.String("method", "SetPrimary"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("imageID", imageID.String()))

	tracer := otel.Tracer("ImageService")
	ctx, span := tracer.Start(ctx, "ImageService.SetPrimary", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("image.id", imageID.String()),
	))
	defer span.End()

	if err := s.repo.SetPrimary(ctx, dealershipID, imageID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to change primary image")
		return err
	}

	l.Info("Primary image changed")
	span.SetStatus(codes.Ok, "Primary image changed")
	return nil
}

// SoftDelete deactivates the record and removes the file best effort. The
// row going inactive is what matters; a missing file is not an error.
func (s *ImageServiceImpl) SoftDelete(ctx context.Context, dealershipID, imageID uuid.UUID) error {
	l := s.logger.With(zap.String("method", "SoftDelete"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("imageID", imageID.String()))

	tracer := otel.Tracer("ImageService")
	ctx, span := tracer.Start(ctx, "ImageService.SoftDelete", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("image.id", imageID.String()),
	))
	defer span.End()

	rec, err := s.repo.GetByID(ctx, dealershipID, imageID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, dealershipID, imageID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete image")
		return err
	}

	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			l.Warn("Could not remove image file", zap.Error(err), zap.String("path", rec.FilePath))
		}
	}

	l.Info("Image deleted")
	span.SetStatus(codes.Ok, "Image deleted")
	return nil
}

func (s *ImageServiceImpl) UpdateMetadata(ctx context.Context, dealershipID, imageID uuid.UUID, update *models.ImageMetadataUpdate) (*models.ImageRecord, error) {
	tracer := otel.Tracer("ImageService")
	ctx, span := tracer.Start(ctx, "ImageService.UpdateMetadata", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("image.id", imageID.String()),
	))
	defer span.End()

	rec, err := s.repo.UpdateMetadata(ctx, dealershipID, imageID, update)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update image metadata")
		return nil, err
	}

	span.SetStatus(codes.Ok, "Image metadata updated")
	return rec, nil
}
