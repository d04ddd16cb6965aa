package payments

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

var _ PaymentRepo = (*PostgresPaymentRepo)(nil)

// PaymentRepo persists charge attempts. Rows are append-mostly: only the
// status, failure reason and processed timestamp change after insert.
type PaymentRepo interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	GetByID(ctx context.Context, dealershipID, id uuid.UUID) (*models.Payment, error)
	GetByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
	ListByDealership(ctx context.Context, dealershipID uuid.UUID, limit, offset int) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, failureReason string, processedAt *time.Time) error
}

type PostgresPaymentRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresPaymentRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const paymentColumns = `id, dealership_id, subscription_id, provider, provider_payment_id,
	plan_id, billing_cycle, amount, currency, status, description, failure_reason,
	created_at, processed_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.DealershipID, &p.SubscriptionID, &p.Provider, &p.ProviderPaymentID,
		&p.PlanID, &p.BillingCycle, &p.Amount, &p.Currency, &p.Status, &p.Description, &p.FailureReason,
		&p.CreatedAt, &p.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPaymentRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	query := `INSERT INTO payments
		(dealership_id, subscription_id, provider, provider_payment_id,
		 plan_id, billing_cycle, amount, currency, status, description, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + paymentColumns

	created, err := scanPayment(r.pgpool.QueryRow(ctx, query,
		payment.DealershipID, payment.SubscriptionID, payment.Provider, payment.ProviderPaymentID,
		payment.PlanID, payment.BillingCycle, payment.Amount, payment.Currency,
		payment.Status, payment.Description, payment.FailureReason,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Error creating payment", slog.Any("error", err), slog.String("dealership_id", payment.DealershipID.String()))
		return nil, fmt.Errorf("database error creating payment: %w", err)
	}
	return created, nil
}

func (r *PostgresPaymentRepo) GetByID(ctx context.Context, dealershipID, id uuid.UUID) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND dealership_id = $2`

	payment, err := scanPayment(r.pgpool.QueryRow(ctx, query, id, dealershipID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s not found: %w", id, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching payment", slog.Any("error", err), slog.String("payment_id", id.String()))
		return nil, fmt.Errorf("database error fetching payment: %w", err)
	}
	return payment, nil
}

// GetByProviderID resolves the provider's payment reference from a webhook
// back to our row. Provider ids are unique per provider, the newest row wins
// if a provider ever reuses one.
func (r *PostgresPaymentRepo) GetByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE provider_payment_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	payment, err := scanPayment(r.pgpool.QueryRow(ctx, query, providerPaymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment with provider id %q not found: %w", providerPaymentID, models.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Error fetching payment by provider id", slog.Any("error", err), slog.String("provider_payment_id", providerPaymentID))
		return nil, fmt.Errorf("database error fetching payment: %w", err)
	}
	return payment, nil
}

func (r *PostgresPaymentRepo) ListByDealership(ctx context.Context, dealershipID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE dealership_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pgpool.Query(ctx, query, dealershipID, limit, offset)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error listing payments", slog.Any("error", err), slog.String("dealership_id", dealershipID.String()))
		return nil, fmt.Errorf("database error listing payments: %w", err)
	}
	defer rows.Close()

	payments := make([]models.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning payment: %w", err)
		}
		payments = append(payments, *payment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating payments: %w", err)
	}
	return payments, nil
}

func (r *PostgresPaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, failureReason string, processedAt *time.Time) error {
	query := `UPDATE payments SET status = $2, failure_reason = $3, processed_at = $4 WHERE id = $1`

	tag, err := r.pgpool.Exec(ctx, query, id, status, failureReason, processedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error updating payment status", slog.Any("error", err), slog.String("payment_id", id.String()))
		return fmt.Errorf("database error updating payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found: %w", id, models.ErrNotFound)
	}
	return nil
}
