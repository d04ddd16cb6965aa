package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// InventoryService owns the vehicle rows that scraping, DMS syncs and the
// API all write into.
type InventoryService interface {
	UpsertFromListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (*models.Vehicle, error)
	// Upsert reports whether a new row was inserted (true) or an existing
	// one refreshed (false).
	Upsert(ctx context.Context, dealershipID uuid.UUID, incoming *models.Vehicle) (*models.Vehicle, bool, error)
	Search(ctx context.Context, dealershipID uuid.UUID, filter *models.VehicleFilter) ([]models.Vehicle, error)
	Get(ctx context.Context, dealershipID, vehicleID uuid.UUID) (*models.Vehicle, error)
	UpdateStatus(ctx context.Context, dealershipID, vehicleID uuid.UUID, status models.VehicleStatus) (*models.Vehicle, error)
	Delete(ctx context.Context, dealershipID, vehicleID uuid.UUID) error
	Stats(ctx context.Context, dealershipID uuid.UUID) (*models.InventoryStats, error)
}

type InventoryServiceImpl struct {
	logger *zap.Logger
	repo   VehicleRepo
}

var _ InventoryService = (*InventoryServiceImpl)(nil)

func NewInventoryService(repo VehicleRepo, logger *zap.Logger) *InventoryServiceImpl {
	return &InventoryServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// UpsertFromListing converts an accepted scrape listing into an inventory
// row. New rows arrive available; rescraped rows keep their status and
// origin and only refresh the listing data.
func (s *InventoryServiceImpl) UpsertFromListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (*models.Vehicle, error) {
	if !listing.Valid() {
		return nil, fmt.Errorf("listing missing year or photos: %w", models.ErrValidation)
	}

	incoming := &models.Vehicle{
		DealershipID: dealershipID,
		Year:         listing.Year,
		Make:         listing.Make,
		Model:        listing.Model,
		Price:        listing.Price,
		Mileage:      listing.Mileage,
		VIN:          listing.VIN,
		StockNumber:  listing.StockNumber,
		Status:       models.VehicleAvailable,
		Source:       models.SourceScraping,
		DetailURL:    listing.DetailURL,
	}
	v, _, err := s.Upsert(ctx, dealershipID, incoming)
	return v, err
}

// Upsert deduplicates by VIN, then stock number, then year/make/model, and
// merges into the matched row or inserts a new one.
func (s *InventoryServiceImpl) Upsert(ctx context.Context, dealershipID uuid.UUID, incoming *models.Vehicle) (*models.Vehicle, bool, error) {
	l := s.logger.With(zap.String("method", "Upsert"),
		zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("InventoryService")
	ctx, span := tracer.Start(ctx, "InventoryService.Upsert", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.Int("vehicle.year", incoming.Year),
		attribute.String("vehicle.make", incoming.Make),
	))
	defer span.End()

	incoming.DealershipID = dealershipID
	if incoming.Status == "" {
		incoming.Status = models.VehicleAvailable
	}
	if incoming.Source == "" {
		incoming.Source = models.SourceManual
	}

	existing, err := s.repo.FindByIdentity(ctx, dealershipID, incoming)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to match vehicle")
			return nil, false, err
		}

		created, err := s.repo.Create(ctx, incoming)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to create vehicle")
			return nil, false, err
		}
		l.Debug("Vehicle created",
			zap.String("vehicleID", created.ID.String()),
			zap.String("source", string(created.Source)))
		span.SetStatus(codes.Ok, "Vehicle created")
		return created, true, nil
	}

	merged := mergeVehicle(existing, incoming)
	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update vehicle")
		return nil, false, err
	}
	l.Debug("Vehicle refreshed", zap.String("vehicleID", updated.ID.String()))
	span.SetStatus(codes.Ok, "Vehicle refreshed")
	return updated, false, nil
}

// mergeVehicle refreshes listing data on an existing row. Status and source
// stay as they are: a sold car does not come back available because the site
// still shows it, and origin records how the row first arrived. Incoming
// zero values never blank stored fields.
func mergeVehicle(existing, incoming *models.Vehicle) *models.Vehicle {
	merged := *existing
	merged.Year = incoming.Year
	merged.Make = incoming.Make
	merged.Model = incoming.Model
	if incoming.Trim != "" {
		merged.Trim = incoming.Trim
	}
	if incoming.Price > 0 {
		merged.Price = incoming.Price
	}
	if incoming.Mileage > 0 {
		merged.Mileage = incoming.Mileage
	}
	if incoming.VIN != "" {
		merged.VIN = incoming.VIN
	}
	if incoming.StockNumber != "" {
		merged.StockNumber = incoming.StockNumber
	}
	if incoming.ExteriorColor != "" {
		merged.ExteriorColor = incoming.ExteriorColor
	}
	if incoming.DetailURL != "" {
		merged.DetailURL = incoming.DetailURL
	}
	return &merged
}

func (s *InventoryServiceImpl) Search(ctx context.Context, dealershipID uuid.UUID, filter *models.VehicleFilter) ([]models.Vehicle, error) {
	tracer := otel.Tracer("InventoryService")
	ctx, span := tracer.Start(ctx, "InventoryService.Search", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	return s.repo.Search(ctx, dealershipID, filter)
}

func (s *InventoryServiceImpl) Get(ctx context.Context, dealershipID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	tracer := otel.Tracer("InventoryService")
	ctx, span := tracer.Start(ctx, "InventoryService.Get", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("vehicle.id", vehicleID.String()),
	))
	defer span.End()

	return s.repo.GetByID(ctx, dealershipID, vehicleID)
}

func (s *InventoryServiceImpl) UpdateStatus(ctx context.Context, dealershipID, vehicleID uuid.UUID, status models.VehicleStatus) (*models.Vehicle, error) {
	l := s.logger.With(zap.String("method", "UpdateStatus"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("vehicleID", vehicleID.String()))

	tracer := otel.Tracer("InventoryService")
	ctx, span := tracer.Start(ctx, "InventoryService.UpdateStatus", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("vehicle.id", vehicleID.String()),
		attribute.String("vehicle.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("unknown vehicle status %q: %w", status, models.ErrValidation)
	}

	v, err := s.repo.UpdateStatus(ctx, dealershipID, vehicleID, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update vehicle status")
		return nil, err
	}

	l.Info("Vehicle status changed", zap.String("status", string(status)))
	span.SetStatus(codes.Ok, "Vehicle status changed")
	return v, nil
}

func (s *InventoryServiceImpl) Delete(ctx context.Context, dealershipID, vehicleID uuid.UUID) error {
	l := s.logger.With(zap.String("method", "Delete"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("vehicleID", vehicleID.String()))

	tracer := otel.Tracer("InventoryService")
	ctx, span := tracer.Start(ctx, "InventoryService.Delete", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("vehicle.id", vehicleID.String()),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, dealershipID, vehicleID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete vehicle")
		return err
	}

	l.Info("Vehicle deleted")
	span.SetStatus(codes.Ok, "Vehicle deleted")
	return nil
}

func (s *InventoryServiceImpl) Stats(ctx context.Context, dealershipID uuid.UUID) (*models.InventoryStats, error) {
	tracer := otel.Tracer("InventoryService")
	ctx, span := tracer.Start(ctx, "InventoryService.Stats", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	return s.repo.Stats(ctx, dealershipID)
}
