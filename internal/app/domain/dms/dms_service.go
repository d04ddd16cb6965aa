package dms

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

var _ DMSService = (*DMSServiceImpl)(nil)

// FeatureChecker is the slice of the subscription service the DMS link needs.
type FeatureChecker interface {
	CheckFeatureAccess(ctx context.Context, dealershipID uuid.UUID, feature models.Feature) (bool, error)
}

// VehicleUpserter lands synced records in inventory. Implemented by the
// inventory service.
type VehicleUpserter interface {
	Upsert(ctx context.Context, dealershipID uuid.UUID, incoming *models.Vehicle) (*models.Vehicle, bool, error)
}

// ImageIngestor pulls a record's photos through the shared image pipeline.
// Implemented by the DMS flavored images ingestor.
type ImageIngestor interface {
	IngestListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (int, []string, error)
}

// DMSService manages the simulated dealer management system link: one
// connection per dealership, synced against a canned provider feed.
type DMSService interface {
	// Connect links the dealership to a provider. Gated on the
	// dms_integration feature.
	Connect(ctx context.Context, dealershipID uuid.UUID, provider models.DMSProvider) (*models.DMSConnection, error)
	// Sync pulls the provider's inventory feed into vehicles and images.
	Sync(ctx context.Context, dealershipID uuid.UUID) (*models.DMSSyncResult, error)
	GetConnection(ctx context.Context, dealershipID uuid.UUID) (*models.DMSConnection, error)
	Disconnect(ctx context.Context, dealershipID uuid.UUID) error
}

type DMSServiceImpl struct {
	logger    *zap.Logger
	repo      DMSRepo
	features  FeatureChecker
	inventory VehicleUpserter
	ingestor  ImageIngestor
}

func NewDMSService(
	repo DMSRepo,
	features FeatureChecker,
	inventory VehicleUpserter,
	ingestor ImageIngestor,
	logger *zap.Logger,
) *DMSServiceImpl {
	return &DMSServiceImpl{
		logger:    logger,
		repo:      repo,
		features:  features,
		inventory: inventory,
		ingestor:  ingestor,
	}
}

func (s *DMSServiceImpl) Connect(ctx context.Context, dealershipID uuid.UUID, provider models.DMSProvider) (*models.DMSConnection, error) {
	l := s.logger.With(zap.String("method", "Connect"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("provider", string(provider)))

	tracer := otel.Tracer("DMSService")
	ctx, span := tracer.Start(ctx, "DMSService.Connect", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("dms.provider", string(provider)),
	))
	defer span.End()

	allowed, err := s.features.CheckFeatureAccess(ctx, dealershipID, models.FeatureDMSIntegration)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Feature check failed")
		return nil, err
	}
	if !allowed {
		span.SetStatus(codes.Error, "Feature denied")
		return nil, fmt.Errorf("DMS integration requires a paid plan: %w", models.ErrForbidden)
	}

	if !KnownProvider(provider) {
		span.SetStatus(codes.Error, "Unknown provider")
		return nil, fmt.Errorf("unsupported DMS provider %q: %w", provider, models.ErrBadRequest)
	}

	conn, err := s.repo.UpsertConnection(ctx, dealershipID, provider)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Connection persistence failed")
		return nil, err
	}

	l.Info("DMS connected", zap.String("providerName", ProviderName(provider)))
	span.SetStatus(codes.Ok, "DMS connected")
	return conn, nil
}

// Sync pulls the canned feed for the connected provider. Every record lands
// through the inventory upsert with source=dms, then its photos go through
// the image pipeline. Per record failures collect in Errors and the pull
// keeps going.
func (s *DMSServiceImpl) Sync(ctx context.Context, dealershipID uuid.UUID) (*models.DMSSyncResult, error) {
	l := s.logger.With(zap.String("method", "Sync"), zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("DMSService")
	ctx, span := tracer.Start(ctx, "DMSService.Sync", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	conn, err := s.repo.GetConnection(ctx, dealershipID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Connection lookup failed")
		return nil, err
	}
	if conn.Status == models.DMSDisconnected {
		span.SetStatus(codes.Error, "Disconnected")
		return nil, fmt.Errorf("DMS connection is disconnected, reconnect first: %w", models.ErrBadRequest)
	}

	feed := sampleInventory(conn.Provider)
	result := &models.DMSSyncResult{
		Provider:     conn.Provider,
		VehiclesSeen: len(feed),
		SyncedAt:     time.Now().UTC(),
	}

	for _, unit := range feed {
		vehicle := unit.vehicle(dealershipID)
		_, inserted, err := s.inventory.Upsert(ctx, dealershipID, vehicle)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Vehicle %s: %v", unit.StockNumber, err))
			continue
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}

		_, imageErrs, err := s.ingestor.IngestListing(ctx, dealershipID, unit.listing())
		result.Errors = append(result.Errors, imageErrs...)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Image sync for %s: %v", unit.StockNumber, err))
		}
	}

	// A pull that landed nothing flags the connection; partial success still
	// counts as a sync.
	if result.Created+result.Updated == 0 {
		if err := s.repo.UpdateStatus(ctx, dealershipID, models.DMSError); err != nil {
			l.Warn("Failed to flag DMS connection", zap.Error(err))
		}
	} else if err := s.repo.RecordSync(ctx, dealershipID, result.SyncedAt, result.Created+result.Updated); err != nil {
		l.Warn("Failed to record DMS sync", zap.Error(err))
	}

	l.Info("DMS sync completed",
		zap.String("provider", string(conn.Provider)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)))
	span.SetStatus(codes.Ok, "DMS sync completed")
	return result, nil
}

func (s *DMSServiceImpl) GetConnection(ctx context.Context, dealershipID uuid.UUID) (*models.DMSConnection, error) {
	return s.repo.GetConnection(ctx, dealershipID)
}

func (s *DMSServiceImpl) Disconnect(ctx context.Context, dealershipID uuid.UUID) error {
	l := s.logger.With(zap.String("method", "Disconnect"), zap.String("dealershipID", dealershipID.String()))

	if err := s.repo.UpdateStatus(ctx, dealershipID, models.DMSDisconnected); err != nil {
		return err
	}
	l.Info("DMS disconnected")
	return nil
}
