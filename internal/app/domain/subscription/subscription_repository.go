package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

var _ SubscriptionRepo = (*PostgresSubscriptionRepo)(nil)

// Repository persists subscriptions. One row per dealership.
type SubscriptionRepo interface {
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	GetByDealershipID(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, dealershipID uuid.UUID, status models.SubscriptionStatus) error
}

type PostgresSubscriptionRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const subscriptionColumns = `id, dealership_id, plan_id, status, billing_cycle, amount,
	current_period_start, current_period_end, trial_end,
	provider, provider_customer_id, provider_subscription_id, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.DealershipID, &sub.PlanID, &sub.Status, &sub.BillingCycle, &sub.Amount,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEnd,
		&sub.Provider, &sub.ProviderCustomerID, &sub.ProviderSubID, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *PostgresSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	query := `INSERT INTO subscriptions
		(dealership_id, plan_id, status, billing_cycle, amount,
		 current_period_start, current_period_end, trial_end,
		 provider, provider_customer_id, provider_subscription_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + subscriptionColumns

	created, err := scanSubscription(r.pgpool.QueryRow(ctx, query,
		sub.DealershipID, sub.PlanID, sub.Status, sub.BillingCycle, sub.Amount,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEnd,
		sub.Provider, sub.ProviderCustomerID, sub.ProviderSubID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("subscription for dealership %s already exists: %w", sub.DealershipID, models.ErrConflict)
		}
		r.logger.ErrorContext(ctx, "Error creating subscription", slog.Any("error", err), slog.String("dealership_id", sub.DealershipID.String()))
		return nil, fmt.Errorf("database error creating subscription: %w", err)
	}
	return created, nil
}

func (r *PostgresSubscriptionRepo) GetByDealershipID(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE dealership_id = $1`

	sub, err := scanSubscription(r.pgpool.QueryRow(ctx, query, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription for dealership %s not found: %w", dealershipID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching subscription", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error fetching subscription: %w", err)
	}
	return sub, nil
}

func (r *PostgresSubscriptionRepo) Update(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	query := `UPDATE subscriptions SET
		plan_id = $2, status = $3, billing_cycle = $4, amount = $5,
		current_period_start = $6, current_period_end = $7, trial_end = $8,
		provider = $9, provider_customer_id = $10, provider_subscription_id = $11,
		updated_at = now()
		WHERE dealership_id = $1
		RETURNING ` + subscriptionColumns

	updated, err := scanSubscription(r.pgpool.QueryRow(ctx, query,
		sub.DealershipID, sub.PlanID, sub.Status, sub.BillingCycle, sub.Amount,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEnd,
		sub.Provider, sub.ProviderCustomerID, sub.ProviderSubID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription for dealership %s not found: %w", sub.DealershipID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error updating subscription", slog.Any("error", err), slog.String("dealership_id", sub.DealershipID.String()))
		return nil, fmt.Errorf("database error updating subscription: %w", err)
	}
	return updated, nil
}

func (r *PostgresSubscriptionRepo) UpdateStatus(ctx context.Context, dealershipID uuid.UUID, status models.SubscriptionStatus) error {
	query := `UPDATE subscriptions SET status = $2, updated_at = now() WHERE dealership_id = $1`

	tag, err := r.pgpool.Exec(ctx, query, dealershipID, status)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating subscription status", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return fmt.Errorf("database error updating subscription status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription for dealership %s not found: %w", dealershipID, models.ErrNotFound)
	}
	return nil
}
