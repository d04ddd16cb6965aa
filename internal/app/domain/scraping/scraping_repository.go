package scraping

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

var _ ScrapeRepo = (*PostgresScrapeRepo)(nil)

// ScrapeRepo persists scrape configuration and run history. One config row
// per dealership.
type ScrapeRepo interface {
	UpsertConfig(ctx context.Context, cfg *models.ScrapeConfig) (*models.ScrapeConfig, error)
	GetConfig(ctx context.Context, dealershipID uuid.UUID) (*models.ScrapeConfig, error)
	UpdateRunOutcome(ctx context.Context, dealershipID uuid.UUID, status models.ScrapeStatus, lastError string, lastSyncAt, nextSyncAt time.Time) error
	UpdateSchedule(ctx context.Context, dealershipID uuid.UUID, frequency models.ScheduleFrequency, isActive *bool, nextSyncAt time.Time) (*models.ScrapeConfig, error)
	ListDue(ctx context.Context, now time.Time) ([]models.ScrapeConfig, error)
	RecordRun(ctx context.Context, dealershipID uuid.UUID, result *models.ScrapeResult, startedAt time.Time) error
}

type PostgresScrapeRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresScrapeRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresScrapeRepo {
	return &PostgresScrapeRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const scrapeConfigColumns = `id, dealership_id, website_url, detected_platform, status,
	schedule_frequency, is_active, max_vehicles,
	last_sync_at, next_sync_at, last_error, created_at, updated_at`

func scanScrapeConfig(row pgx.Row) (*models.ScrapeConfig, error) {
	var cfg models.ScrapeConfig
	err := row.Scan(
		&cfg.ID, &cfg.DealershipID, &cfg.WebsiteURL, &cfg.DetectedPlatform, &cfg.Status,
		&cfg.ScheduleFrequency, &cfg.IsActive, &cfg.MaxVehicles,
		&cfg.LastSyncAt, &cfg.NextSyncAt, &cfg.LastError, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertConfig writes the setup row, replacing URL and platform when the
// dealership reconfigures. Schedule and activity flags survive a re-setup.
func (r *PostgresScrapeRepo) UpsertConfig(ctx context.Context, cfg *models.ScrapeConfig) (*models.ScrapeConfig, error) {
	query := `INSERT INTO scrape_configs
		(dealership_id, website_url, detected_platform, status, schedule_frequency, is_active, max_vehicles, next_sync_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (dealership_id) DO UPDATE SET
			website_url = EXCLUDED.website_url,
			detected_platform = EXCLUDED.detected_platform,
			status = EXCLUDED.status,
			last_error = '',
			updated_at = now()
		RETURNING ` + scrapeConfigColumns

	saved, err := scanScrapeConfig(r.pgpool.QueryRow(ctx, query,
		cfg.DealershipID, cfg.WebsiteURL, cfg.DetectedPlatform, cfg.Status,
		cfg.ScheduleFrequency, cfg.IsActive, cfg.MaxVehicles, cfg.NextSyncAt,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error upserting scrape config", slog.Any("error", err), slog.String("dealership_id", cfg.DealershipID.String()))
		return nil, fmt.Errorf("database error upserting scrape config: %w", err)
	}
	return saved, nil
}

func (r *PostgresScrapeRepo) GetConfig(ctx context.Context, dealershipID uuid.UUID) (*models.ScrapeConfig, error) {
	query := `SELECT ` + scrapeConfigColumns + ` FROM scrape_configs WHERE dealership_id = $1`

	cfg, err := scanScrapeConfig(r.pgpool.QueryRow(ctx, query, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scrape config for dealership %s not found: %w", dealershipID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching scrape config", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error fetching scrape config: %w", err)
	}
	return cfg, nil
}

func (r *PostgresScrapeRepo) UpdateRunOutcome(ctx context.Context, dealershipID uuid.UUID, status models.ScrapeStatus, lastError string, lastSyncAt, nextSyncAt time.Time) error {
	query := `UPDATE scrape_configs SET
		status = $2, last_error = $3, last_sync_at = $4, next_sync_at = $5, updated_at = now()
		WHERE dealership_id = $1`

	tag, err := r.pgpool.Exec(ctx, query, dealershipID, status, lastError, lastSyncAt, nextSyncAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating scrape outcome", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return fmt.Errorf("database error updating scrape outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scrape config for dealership %s not found: %w", dealershipID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresScrapeRepo) UpdateSchedule(ctx context.Context, dealershipID uuid.UUID, frequency models.ScheduleFrequency, isActive *bool, nextSyncAt time.Time) (*models.ScrapeConfig, error) {
	query := `UPDATE scrape_configs SET
		schedule_frequency = $2,
		is_active = COALESCE($3, is_active),
		next_sync_at = $4,
		updated_at = now()
		WHERE dealership_id = $1
		RETURNING ` + scrapeConfigColumns

	cfg, err := scanScrapeConfig(r.pgpool.QueryRow(ctx, query, dealershipID, frequency, isActive, nextSyncAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("scrape config for dealership %s not found: %w", dealershipID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating scrape schedule", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error updating scrape schedule: %w", err)
	}
	return cfg, nil
}

// ListDue returns active configs whose next sync time has passed, oldest
// first so starved tenants catch up before fresh ones.
func (r *PostgresScrapeRepo) ListDue(ctx context.Context, now time.Time) ([]models.ScrapeConfig, error) {
	query := `SELECT ` + scrapeConfigColumns + ` FROM scrape_configs
		WHERE is_active AND next_sync_at IS NOT NULL AND next_sync_at <= $1
		ORDER BY next_sync_at ASC`

	rows, err := r.pgpool.Query(ctx, query, now)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing due scrape configs", slog.Any("error", err))
		return nil, fmt.Errorf("database error listing due scrape configs: %w", err)
	}
	defer rows.Close()

	var configs []models.ScrapeConfig
	for rows.Next() {
		cfg, err := scanScrapeConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning scrape config: %w", err)
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

// RecordRun appends one orchestrator run to the history used by dashboards.
func (r *PostgresScrapeRepo) RecordRun(ctx context.Context, dealershipID uuid.UUID, result *models.ScrapeResult, startedAt time.Time) error {
	query := `INSERT INTO scrape_runs
		(dealership_id, detected_platform, scraped_count, error_count, errors, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	_, err := r.pgpool.Exec(ctx, query,
		dealershipID, result.DetectedPlatform, result.ScrapedCount, result.ErrorCount, errs, startedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error recording scrape run", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return fmt.Errorf("database error recording scrape run: %w", err)
	}
	return nil
}
