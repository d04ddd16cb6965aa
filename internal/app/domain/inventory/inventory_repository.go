package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// VehicleRepo is the persistence boundary for inventory rows.
type VehicleRepo interface {
	Create(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error)
	Update(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error)
	FindByIdentity(ctx context.Context, dealershipID uuid.UUID, candidate *models.Vehicle) (*models.Vehicle, error)
	GetByID(ctx context.Context, dealershipID, vehicleID uuid.UUID) (*models.Vehicle, error)
	Search(ctx context.Context, dealershipID uuid.UUID, filter *models.VehicleFilter) ([]models.Vehicle, error)
	UpdateStatus(ctx context.Context, dealershipID, vehicleID uuid.UUID, status models.VehicleStatus) (*models.Vehicle, error)
	Delete(ctx context.Context, dealershipID, vehicleID uuid.UUID) error
	Stats(ctx context.Context, dealershipID uuid.UUID) (*models.InventoryStats, error)
}

type PostgresVehicleRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

var _ VehicleRepo = (*PostgresVehicleRepo)(nil)

func NewPostgresVehicleRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresVehicleRepo {
	return &PostgresVehicleRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const vehicleColumns = `id, dealership_id, year, make, model, trim, price, mileage, vin,
	stock_number, exterior_color, status, source, detail_url, created_at, updated_at`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(
		&v.ID, &v.DealershipID, &v.Year, &v.Make, &v.Model, &v.Trim, &v.Price,
		&v.Mileage, &v.VIN, &v.StockNumber, &v.ExteriorColor, &v.Status,
		&v.Source, &v.DetailURL, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresVehicleRepo) Create(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	query := `
		INSERT INTO vehicles (dealership_id, year, make, model, trim, price, mileage,
			vin, stock_number, exterior_color, status, source, detail_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + vehicleColumns

	created, err := scanVehicle(r.pgpool.QueryRow(ctx, query,
		v.DealershipID, v.Year, v.Make, v.Model, v.Trim, v.Price, v.Mileage,
		v.VIN, v.StockNumber, v.ExteriorColor, v.Status, v.Source, v.DetailURL))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating vehicle",
			slog.Any("error", err),
			slog.String("dealership_id", v.DealershipID.String()))
		return nil, fmt.Errorf("database error creating vehicle: %w", err)
	}
	return created, nil
}

func (r *PostgresVehicleRepo) Update(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	query := `
		UPDATE vehicles SET
			year = $3, make = $4, model = $5, trim = $6, price = $7, mileage = $8,
			vin = $9, stock_number = $10, exterior_color = $11, status = $12,
			source = $13, detail_url = $14, updated_at = now()
		WHERE id = $1 AND dealership_id = $2
		RETURNING ` + vehicleColumns

	updated, err := scanVehicle(r.pgpool.QueryRow(ctx, query,
		v.ID, v.DealershipID, v.Year, v.Make, v.Model, v.Trim, v.Price,
		v.Mileage, v.VIN, v.StockNumber, v.ExteriorColor, v.Status, v.Source,
		v.DetailURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", v.ID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating vehicle",
			slog.Any("error", err),
			slog.String("vehicle_id", v.ID.String()))
		return nil, fmt.Errorf("database error updating vehicle: %w", err)
	}
	return updated, nil
}

// FindByIdentity looks for an existing row matching the candidate: VIN first,
// then stock number, then exact year/make/model. ErrNotFound means the
// candidate is new.
func (r *PostgresVehicleRepo) FindByIdentity(ctx context.Context, dealershipID uuid.UUID, candidate *models.Vehicle) (*models.Vehicle, error) {
	builder := sq.Select(vehicleColumns).From("vehicles").
		Where(sq.Eq{"dealership_id": dealershipID}).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(sq.Dollar)

	switch {
	case candidate.VIN != "":
		builder = builder.Where(sq.Eq{"vin": candidate.VIN})
	case candidate.StockNumber != "":
		builder = builder.Where(sq.Eq{"stock_number": candidate.StockNumber})
	default:
		builder = builder.Where(sq.Eq{
			"year":  candidate.Year,
			"make":  candidate.Make,
			"model": candidate.Model,
		})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building vehicle identity query: %w", err)
	}

	found, err := scanVehicle(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle: %w", models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error matching vehicle identity",
			slog.Any("error", err),
			slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error matching vehicle: %w", err)
	}
	return found, nil
}

func (r *PostgresVehicleRepo) GetByID(ctx context.Context, dealershipID, vehicleID uuid.UUID) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 AND dealership_id = $2`

	v, err := scanVehicle(r.pgpool.QueryRow(ctx, query, vehicleID, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", vehicleID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching vehicle",
			slog.Any("error", err),
			slog.String("vehicle_id", vehicleID.String()))
		return nil, fmt.Errorf("database error fetching vehicle: %w", err)
	}
	return v, nil
}

func (r *PostgresVehicleRepo) Search(ctx context.Context, dealershipID uuid.UUID, filter *models.VehicleFilter) ([]models.Vehicle, error) {
	if filter == nil {
		filter = &models.VehicleFilter{}
	}

	builder := sq.Select(vehicleColumns).From("vehicles").
		Where(sq.Eq{"dealership_id": dealershipID}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Make != "" {
		builder = builder.Where(sq.Eq{"make": filter.Make})
	}
	if filter.Model != "" {
		builder = builder.Where(sq.Eq{"model": filter.Model})
	}
	if filter.YearMin != 0 {
		builder = builder.Where(sq.GtOrEq{"year": filter.YearMin})
	}
	if filter.YearMax != 0 {
		builder = builder.Where(sq.LtOrEq{"year": filter.YearMax})
	}
	if filter.PriceMin != 0 {
		builder = builder.Where(sq.GtOrEq{"price": filter.PriceMin})
	}
	if filter.PriceMax != 0 {
		builder = builder.Where(sq.LtOrEq{"price": filter.PriceMax})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Source != "" {
		builder = builder.Where(sq.Eq{"source": filter.Source})
	}

	limit := filter.Limit
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	builder = builder.Limit(uint64(limit))
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building vehicle search query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error searching vehicles",
			slog.Any("error", err),
			slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error searching vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (r *PostgresVehicleRepo) UpdateStatus(ctx context.Context, dealershipID, vehicleID uuid.UUID, status models.VehicleStatus) (*models.Vehicle, error) {
	query := `
		UPDATE vehicles SET status = $3, updated_at = now()
		WHERE id = $1 AND dealership_id = $2
		RETURNING ` + vehicleColumns

	v, err := scanVehicle(r.pgpool.QueryRow(ctx, query, vehicleID, dealershipID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", vehicleID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating vehicle status",
			slog.Any("error", err),
			slog.String("vehicle_id", vehicleID.String()))
		return nil, fmt.Errorf("database error updating vehicle status: %w", err)
	}
	return v, nil
}

func (r *PostgresVehicleRepo) Delete(ctx context.Context, dealershipID, vehicleID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM vehicles WHERE id = $1 AND dealership_id = $2`,
		vehicleID, dealershipID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting vehicle",
			slog.Any("error", err),
			slog.String("vehicle_id", vehicleID.String()))
		return fmt.Errorf("database error deleting vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %s: %w", vehicleID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresVehicleRepo) Stats(ctx context.Context, dealershipID uuid.UUID) (*models.InventoryStats, error) {
	query := `
		SELECT count(*),
			count(*) FILTER (WHERE status = 'available'),
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'sold'),
			COALESCE(avg(price) FILTER (WHERE price > 0), 0)
		FROM vehicles
		WHERE dealership_id = $1`

	var stats models.InventoryStats
	err := r.pgpool.QueryRow(ctx, query, dealershipID).Scan(
		&stats.Total, &stats.Available, &stats.Pending, &stats.Sold, &stats.AveragePrice)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error computing inventory stats",
			slog.Any("error", err),
			slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error computing inventory stats: %w", err)
	}
	return &stats, nil
}
