package statistics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ StatsRepo = (*PostgresStatsRepo)(nil)

// StatsRepo reads the per tenant usage counters behind the dashboard. Each
// method is a single aggregate query so the service can fan them out
// concurrently.
type StatsRepo interface {
	VehicleCount(ctx context.Context, dealershipID uuid.UUID) (int64, error)
	ImageCount(ctx context.Context, dealershipID uuid.UUID) (int64, error)
	PostActivity(ctx context.Context, dealershipID uuid.UUID, since time.Time) (int64, *time.Time, error)
	ScrapeActivity(ctx context.Context, dealershipID uuid.UUID) (int64, *time.Time, error)
}

type PostgresStatsRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresStatsRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresStatsRepo {
	return &PostgresStatsRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresStatsRepo) VehicleCount(ctx context.Context, dealershipID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM vehicles WHERE dealership_id = $1`

	var count int64
	if err := r.pgpool.QueryRow(ctx, query, dealershipID).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Error counting vehicles", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return 0, fmt.Errorf("database error counting vehicles: %w", err)
	}
	return count, nil
}

// ImageCount counts active rows only. Soft deleted images release their slot
// against the plan quota.
func (r *PostgresStatsRepo) ImageCount(ctx context.Context, dealershipID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM images WHERE dealership_id = $1 AND is_active`

	var count int64
	if err := r.pgpool.QueryRow(ctx, query, dealershipID).Scan(&count); err != nil {
		r.logger.ErrorContext(ctx, "Error counting images", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return 0, fmt.Errorf("database error counting images: %w", err)
	}
	return count, nil
}

// PostActivity returns how many posts were generated since the given instant
// and when the most recent post of any age was created.
func (r *PostgresStatsRepo) PostActivity(ctx context.Context, dealershipID uuid.UUID, since time.Time) (int64, *time.Time, error) {
	query := `SELECT COUNT(*) FILTER (WHERE created_at >= $2), MAX(created_at)
		FROM generated_posts WHERE dealership_id = $1`

	var count int64
	var last *time.Time
	if err := r.pgpool.QueryRow(ctx, query, dealershipID, since).Scan(&count, &last); err != nil {
		r.logger.ErrorContext(ctx, "Error reading post activity", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return 0, nil, fmt.Errorf("database error reading post activity: %w", err)
	}
	return count, last, nil
}

// ScrapeActivity returns the lifetime run count and the start of the most
// recent run.
func (r *PostgresStatsRepo) ScrapeActivity(ctx context.Context, dealershipID uuid.UUID) (int64, *time.Time, error) {
	query := `SELECT COUNT(*), MAX(started_at) FROM scrape_runs WHERE dealership_id = $1`

	var count int64
	var last *time.Time
	if err := r.pgpool.QueryRow(ctx, query, dealershipID).Scan(&count, &last); err != nil {
		r.logger.ErrorContext(ctx, "Error reading scrape activity", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return 0, nil, fmt.Errorf("database error reading scrape activity: %w", err)
	}
	return count, last, nil
}
