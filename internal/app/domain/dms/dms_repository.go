package dms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

var _ DMSRepo = (*PostgresDMSRepo)(nil)

// DMSRepo persists the single DMS connection a dealership holds.
type DMSRepo interface {
	UpsertConnection(ctx context.Context, dealershipID uuid.UUID, provider models.DMSProvider) (*models.DMSConnection, error)
	GetConnection(ctx context.Context, dealershipID uuid.UUID) (*models.DMSConnection, error)
	RecordSync(ctx context.Context, dealershipID uuid.UUID, syncedAt time.Time, vehicleCount int) error
	UpdateStatus(ctx context.Context, dealershipID uuid.UUID, status models.DMSConnectionStatus) error
}

type PostgresDMSRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresDMSRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresDMSRepo {
	return &PostgresDMSRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const dmsConnectionColumns = `id, dealership_id, provider, status,
	last_sync_at, vehicle_count, created_at, updated_at`

func scanDMSConnection(row pgx.Row) (*models.DMSConnection, error) {
	var conn models.DMSConnection
	err := row.Scan(
		&conn.ID, &conn.DealershipID, &conn.Provider, &conn.Status,
		&conn.LastSyncAt, &conn.VehicleCount, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// UpsertConnection writes the connection row. Reconnecting to a different
// provider replaces the old one and resets the sync counters.
func (r *PostgresDMSRepo) UpsertConnection(ctx context.Context, dealershipID uuid.UUID, provider models.DMSProvider) (*models.DMSConnection, error) {
	query := `INSERT INTO dms_connections (dealership_id, provider, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (dealership_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			status = EXCLUDED.status,
			last_sync_at = NULL,
			vehicle_count = 0,
			updated_at = now()
		RETURNING ` + dmsConnectionColumns

	conn, err := scanDMSConnection(r.pgpool.QueryRow(ctx, query, dealershipID, provider, models.DMSConnected))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting DMS connection", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error upserting DMS connection: %w", err)
	}
	return conn, nil
}

func (r *PostgresDMSRepo) GetConnection(ctx context.Context, dealershipID uuid.UUID) (*models.DMSConnection, error) {
	query := `SELECT ` + dmsConnectionColumns + ` FROM dms_connections WHERE dealership_id = $1`

	conn, err := scanDMSConnection(r.pgpool.QueryRow(ctx, query, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("DMS connection for dealership %s not found: %w", dealershipID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching DMS connection", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error fetching DMS connection: %w", err)
	}
	return conn, nil
}

// RecordSync stamps a completed pull and restores connected status after a
// previous error.
func (r *PostgresDMSRepo) RecordSync(ctx context.Context, dealershipID uuid.UUID, syncedAt time.Time, vehicleCount int) error {
	query := `UPDATE dms_connections SET
		status = $2, last_sync_at = $3, vehicle_count = $4, updated_at = now()
		WHERE dealership_id = $1`

	tag, err := r.pgpool.Exec(ctx, query, dealershipID, models.DMSConnected, syncedAt, vehicleCount)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error recording DMS sync", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return fmt.Errorf("database error recording DMS sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DMS connection for dealership %s not found: %w", dealershipID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresDMSRepo) UpdateStatus(ctx context.Context, dealershipID uuid.UUID, status models.DMSConnectionStatus) error {
	query := `UPDATE dms_connections SET status = $2, updated_at = now() WHERE dealership_id = $1`

	tag, err := r.pgpool.Exec(ctx, query, dealershipID, status)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating DMS status", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return fmt.Errorf("database error updating DMS status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DMS connection for dealership %s not found: %w", dealershipID, models.ErrNotFound)
	}
	return nil
}
