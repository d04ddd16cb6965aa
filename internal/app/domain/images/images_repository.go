package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// DB is the pgx surface the repository uses. *pgxpool.Pool satisfies it in
// production, pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ImageRepo is the persistence boundary for stored photos.
type ImageRepo interface {
	Create(ctx context.Context, rec *models.ImageRecord) (*models.ImageRecord, error)
	GetByID(ctx context.Context, dealershipID, imageID uuid.UUID) (*models.ImageRecord, error)
	List(ctx context.Context, dealershipID uuid.UUID, filter *models.ImageFilter) ([]models.ImageRecord, error)
	SetPrimary(ctx context.Context, dealershipID, imageID uuid.UUID) error
	SoftDelete(ctx context.Context, dealershipID, imageID uuid.UUID) error
	UpdateMetadata(ctx context.Context, dealershipID, imageID uuid.UUID, update *models.ImageMetadataUpdate) (*models.ImageRecord, error)
}

type PostgresImageRepo struct {
	logger *slog.Logger
	pgpool DB
}

var _ ImageRepo = (*PostgresImageRepo)(nil)

func NewPostgresImageRepo(pgpool DB, logger *slog.Logger) *PostgresImageRepo {
	return &PostgresImageRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const imageColumns = `id, dealership_id, filename, original_filename, file_path, file_size,
	mime_type, width, height, source_type, source_url, vehicle_year, vehicle_make,
	vehicle_model, vehicle_vin, vehicle_stock_number, alt_text, tags, is_primary,
	is_active, created_at, updated_at`

func scanImage(row pgx.Row) (*models.ImageRecord, error) {
	var rec models.ImageRecord
	err := row.Scan(
		&rec.ID, &rec.DealershipID, &rec.Filename, &rec.OriginalFilename,
		&rec.FilePath, &rec.FileSize, &rec.MimeType, &rec.Width, &rec.Height,
		&rec.SourceType, &rec.SourceURL, &rec.VehicleYear, &rec.VehicleMake,
		&rec.VehicleModel, &rec.VehicleVIN, &rec.VehicleStockNum, &rec.AltText,
		&rec.Tags, &rec.IsPrimary, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PostgresImageRepo) Create(ctx context.Context, rec *models.ImageRecord) (*models.ImageRecord, error) {
	query := `
		INSERT INTO images (dealership_id, filename, original_filename, file_path,
			file_size, mime_type, width, height, source_type, source_url,
			vehicle_year, vehicle_make, vehicle_model, vehicle_vin,
			vehicle_stock_number, alt_text, tags, is_primary, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING ` + imageColumns

	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}

	created, err := scanImage(r.pgpool.QueryRow(ctx, query,
		rec.DealershipID, rec.Filename, rec.OriginalFilename, rec.FilePath,
		rec.FileSize, rec.MimeType, rec.Width, rec.Height, rec.SourceType,
		rec.SourceURL, rec.VehicleYear, rec.VehicleMake, rec.VehicleModel,
		rec.VehicleVIN, rec.VehicleStockNum, rec.AltText, tags, rec.IsPrimary,
		rec.IsActive))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating image record",
			slog.Any("error", err),
			slog.String("dealership_id", rec.DealershipID.String()))
		return nil, fmt.Errorf("database error creating image: %w", err)
	}
	return created, nil
}

func (r *PostgresImageRepo) GetByID(ctx context.Context, dealershipID, imageID uuid.UUID) (*models.ImageRecord, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1 AND dealership_id = $2 AND is_active`

	rec, err := scanImage(r.pgpool.QueryRow(ctx, query, imageID, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching image",
			slog.Any("error", err),
			slog.String("image_id", imageID.String()))
		return nil, fmt.Errorf("database error fetching image: %w", err)
	}
	return rec, nil
}

func (r *PostgresImageRepo) List(ctx context.Context, dealershipID uuid.UUID, filter *models.ImageFilter) ([]models.ImageRecord, error) {
	if filter == nil {
		filter = &models.ImageFilter{}
	}

	builder := sq.Select(imageColumns).From("images").
		Where(sq.Eq{"dealership_id": dealershipID, "is_active": true}).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Year != 0 {
		builder = builder.Where(sq.Eq{"vehicle_year": filter.Year})
	}
	if filter.Make != "" {
		builder = builder.Where(sq.Eq{"vehicle_make": filter.Make})
	}
	if filter.Model != "" {
		builder = builder.Where(sq.Eq{"vehicle_model": filter.Model})
	}
	if filter.VIN != "" {
		builder = builder.Where(sq.Eq{"vehicle_vin": filter.VIN})
	}
	if filter.StockNumber != "" {
		builder = builder.Where(sq.Eq{"vehicle_stock_number": filter.StockNumber})
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
		return nil, fmt.Errorf("building image list query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing images",
			slog.Any("error", err),
			slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error listing images: %w", err)
	}
	defer rows.Close()

	var records []models.ImageRecord
	for rows.Next() {
		rec, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning image: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// SetPrimary promotes one photo and demotes its siblings in a single
// transaction. Siblings are found by vehicle identity: VIN, then stock
// number, then year/make/model.
func (r *PostgresImageRepo) SetPrimary(ctx context.Context, dealershipID, imageID uuid.UUID) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("database error starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	target, err := scanImage(tx.QueryRow(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = $1 AND dealership_id = $2 AND is_active FOR UPDATE`,
		imageID, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching image for primary change",
			slog.Any("error", err),
			slog.String("image_id", imageID.String()))
		return fmt.Errorf("database error fetching image: %w", err)
	}

	demote := sq.Update("images").
		Set("is_primary", false).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"dealership_id": dealershipID, "is_primary": true}).
		PlaceholderFormat(sq.Dollar)

	switch {
	case target.VehicleVIN != "":
		demote = demote.Where(sq.Eq{"vehicle_vin": target.VehicleVIN})
	case target.VehicleStockNum != "":
		demote = demote.Where(sq.Eq{"vehicle_stock_number": target.VehicleStockNum})
	default:
		demote = demote.Where(sq.Eq{
			"vehicle_year":  target.VehicleYear,
			"vehicle_make":  target.VehicleMake,
			"vehicle_model": target.VehicleModel,
		})
	}

	query, args, err := demote.ToSql()
	if err != nil {
		return fmt.Errorf("building primary demote query: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		r.logger.ErrorContext(ctx, "Error clearing primary flags",
			slog.Any("error", err),
			slog.String("image_id", imageID.String()))
		return fmt.Errorf("database error clearing primary flags: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE images SET is_primary = TRUE, updated_at = now() WHERE id = $1`,
		imageID); err != nil {
		r.logger.ErrorContext(ctx, "Error setting primary flag",
			slog.Any("error", err),
			slog.String("image_id", imageID.String()))
		return fmt.Errorf("database error setting primary flag: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("database error committing primary change: %w", err)
	}
	return nil
}

// SoftDelete flips is_active off. The primary flag is left as is: a deleted
// primary simply means the vehicle has no primary until one is set again.
func (r *PostgresImageRepo) SoftDelete(ctx context.Context, dealershipID, imageID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE images SET is_active = FALSE, updated_at = now() WHERE id = $1 AND dealership_id = $2 AND is_active`,
		imageID, dealershipID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error deleting image",
			slog.Any("error", err),
			slog.String("image_id", imageID.String()))
		return fmt.Errorf("database error deleting image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
	}
	return nil
}

// UpdateMetadata applies only the fields the caller set. Nil pointers become
// NULL parameters and COALESCE keeps the stored value.
func (r *PostgresImageRepo) UpdateMetadata(ctx context.Context, dealershipID, imageID uuid.UUID, update *models.ImageMetadataUpdate) (*models.ImageRecord, error) {
	query := `
		UPDATE images SET
			alt_text = COALESCE($3, alt_text),
			tags = COALESCE($4, tags),
			vehicle_year = COALESCE($5, vehicle_year),
			vehicle_make = COALESCE($6, vehicle_make),
			vehicle_model = COALESCE($7, vehicle_model),
			vehicle_vin = COALESCE($8, vehicle_vin),
			vehicle_stock_number = COALESCE($9, vehicle_stock_number),
			updated_at = now()
		WHERE id = $1 AND dealership_id = $2 AND is_active
		RETURNING ` + imageColumns

	rec, err := scanImage(r.pgpool.QueryRow(ctx, query, imageID, dealershipID,
		update.AltText, update.Tags, update.VehicleYear, update.VehicleMake,
		update.VehicleModel, update.VehicleVIN, update.VehicleStockNum))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", imageID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating image metadata",
			slog.Any("error", err),
			slog.String("image_id", imageID.String()))
		return nil, fmt.Errorf("database error updating image: %w", err)
	}
	return rec, nil
}
