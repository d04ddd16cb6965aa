package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/domain/subscription"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/app/observability/metrics"
	"github.com/FACorreiaa/dealerflow/internal/pkg/config"
)

var _ PaymentService = (*PaymentServiceImpl)(nil)

// SubscriptionLifecycle is the slice of the subscription service payments
// drives: webhooks activate, demote or cancel plans, checkout records the
// provider identifiers.
type SubscriptionLifecycle interface {
	Get(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)
	ActivateFromPayment(ctx context.Context, dealershipID uuid.UUID, planID models.PlanID, cycle models.BillingCycle) (*models.Subscription, error)
	MarkPastDue(ctx context.Context, dealershipID uuid.UUID) error
	Cancel(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)
	AttachBillingProvider(ctx context.Context, dealershipID uuid.UUID, provider, customerID, providerSubID string) error
}

// PaymentService charges dealerships for plan upgrades and applies the
// provider's webhook verdicts back onto the subscription.
type PaymentService interface {
	// CreateCheckout opens a one-time charge for a paid plan. The plan is
	// activated only once the provider confirms through the webhook.
	CreateCheckout(ctx context.Context, dealershipID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutResponse, error)
	// SetupRecurring provisions a provider-managed recurring subscription
	// for a paid plan and records its identifiers.
	SetupRecurring(ctx context.Context, dealershipID uuid.UUID, email string, req *models.CheckoutRequest) (*models.CheckoutResponse, error)
	// CancelRecurring stops the recurring charge at the provider and cancels
	// the plan immediately.
	CancelRecurring(ctx context.Context, dealershipID uuid.UUID) error

	// HandleWebhook applies a normalized provider event. Unknown event types
	// and references to unknown payments are acknowledged and ignored so the
	// provider stops retrying.
	HandleWebhook(ctx context.Context, event *models.WebhookEvent) error

	ListPayments(ctx context.Context, dealershipID uuid.UUID, limit, offset int) ([]models.Payment, error)
	GetPayment(ctx context.Context, dealershipID, paymentID uuid.UUID) (*models.Payment, error)
	// RefundPayment reverses a completed charge in full.
	RefundPayment(ctx context.Context, dealershipID, paymentID uuid.UUID) (*models.Payment, error)
}

type PaymentServiceImpl struct {
	logger        *zap.Logger
	repo          PaymentRepo
	processor     PaymentProcessor
	subscriptions SubscriptionLifecycle
	cfg           *config.Config
}

func NewPaymentService(repo PaymentRepo, processor PaymentProcessor, subscriptions SubscriptionLifecycle, cfg *config.Config, logger *zap.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		logger:        logger,
		repo:          repo,
		processor:     processor,
		subscriptions: subscriptions,
		cfg:           cfg,
	}
}

// NewProcessorFromConfig selects the configured billing provider. Stripe
// needs an API key, everything else runs on the helcim simulation.
func NewProcessorFromConfig(cfg *config.Config, logger *zap.Logger) PaymentProcessor {
	if cfg.Payments.Provider == "stripe" {
		if cfg.Payments.StripeAPIKey == "" {
			logger.Warn("Stripe selected without an API key, using the helcim simulation instead")
			return NewHelcimProcessor(logger)
		}
		return NewStripeProcessor(cfg.Payments.StripeAPIKey)
	}
	return NewHelcimProcessor(logger)
}

func (s *PaymentServiceImpl) currency() string {
	if s.cfg != nil && s.cfg.Payments.Currency != "" {
		return s.cfg.Payments.Currency
	}
	return "USD"
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func billingInterval(cycle models.BillingCycle) string {
	if cycle == models.BillingYearly {
		return "year"
	}
	return "month"
}

// resolvePlan validates the requested plan and cycle the same way an upgrade
// does: unknown plans and the free trial are not purchasable.
func resolvePlan(req *models.CheckoutRequest) (models.Plan, models.BillingCycle, error) {
	plan, ok := subscription.PlanByID(req.Plan)
	if !ok {
		return models.Plan{}, "", fmt.Errorf("unknown plan %q: %w", req.Plan, models.ErrInvalidPlan)
	}
	if plan.PriceMonthly == 0 {
		return models.Plan{}, "", fmt.Errorf("plan %q is not purchasable: %w", req.Plan, models.ErrInvalidPlan)
	}
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = models.BillingMonthly
	}
	if cycle != models.BillingMonthly && cycle != models.BillingYearly {
		return models.Plan{}, "", fmt.Errorf("unknown billing cycle %q: %w", cycle, models.ErrValidation)
	}
	return plan, cycle, nil
}

func (s *PaymentServiceImpl) CreateCheckout(ctx context.Context, dealershipID uuid.UUID, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	l := s.logger.With(zap.String("method", "CreateCheckout"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("plan", string(req.Plan)))

	tracer := otel.Tracer("PaymentService")
	ctx, span := tracer.Start(ctx, "PaymentService.CreateCheckout", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("payment.plan", string(req.Plan)),
	))
	defer span.End()

	plan, cycle, err := resolvePlan(req)
	if err != nil {
		span.SetStatus(codes.Error, "Plan rejected")
		return nil, err
	}

	sub, err := s.subscriptions.Get(ctx, dealershipID)
	if err != nil {
		l.Error("Failed to load subscription for checkout", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subscription lookup failed")
		return nil, err
	}

	amount := subscription.Price(plan, cycle)
	currency := s.currency()
	providerID, clientSecret, err := s.processor.CreatePayment(toCents(amount), currency, map[string]interface{}{
		"dealership_id": dealershipID.String(),
		"plan":          string(plan.ID),
		"billing_cycle": string(cycle),
	})
	if err != nil {
		l.Error("Provider rejected payment", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider payment failed")
		return nil, fmt.Errorf("payment provider %s unavailable: %w", s.processor.Name(), models.ErrUpstream)
	}

	payment := &models.Payment{
		DealershipID:      dealershipID,
		SubscriptionID:    sub.ID,
		Provider:          s.processor.Name(),
		ProviderPaymentID: providerID,
		PlanID:            plan.ID,
		BillingCycle:      cycle,
		Amount:            amount,
		Currency:          currency,
		Status:            models.PaymentPending,
		Description:       fmt.Sprintf("%s plan, billed %s", plan.Name, cycle),
	}

	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Payment persistence failed")
		return nil, err
	}

	metrics.Get().PaymentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", created.Provider),
		attribute.String("status", string(models.PaymentPending)),
	))

	l.Info("Checkout created",
		zap.String("paymentID", created.ID.String()),
		zap.Float64("amount", amount))
	span.SetStatus(codes.Ok, "Checkout created")
	return &models.CheckoutResponse{
		PaymentID:    created.ID,
		ProviderID:   providerID,
		ClientSecret: clientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (s *PaymentServiceImpl) SetupRecurring(ctx context.Context, dealershipID uuid.UUID, email string, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	l := s.logger.With(zap.String("method", "SetupRecurring"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("plan", string(req.Plan)))

	tracer := otel.Tracer("PaymentService")
	ctx, span := tracer.Start(ctx, "PaymentService.SetupRecurring", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("payment.plan", string(req.Plan)),
	))
	defer span.End()

	plan, cycle, err := resolvePlan(req)
	if err != nil {
		span.SetStatus(codes.Error, "Plan rejected")
		return nil, err
	}

	sub, err := s.subscriptions.Get(ctx, dealershipID)
	if err != nil {
		l.Error("Failed to load subscription for recurring setup", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subscription lookup failed")
		return nil, err
	}

	customerID := sub.ProviderCustomerID
	if customerID == "" || sub.Provider != s.processor.Name() {
		customerID, err = s.processor.CreateCustomer(dealershipID, email, map[string]interface{}{
			"dealership_id": dealershipID.String(),
		})
		if err != nil {
			l.Error("Provider rejected customer creation", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Provider customer failed")
			return nil, fmt.Errorf("payment provider %s unavailable: %w", s.processor.Name(), models.ErrUpstream)
		}
	}

	amount := subscription.Price(plan, cycle)
	currency := s.currency()
	recurring := RecurringPlan{
		PlanID:      plan.ID,
		Name:        "DealerFlow " + plan.Name,
		Description: fmt.Sprintf("DealerFlow %s plan, billed %s", plan.Name, cycle),
		AmountCents: toCents(amount),
		Currency:    currency,
		Interval:    billingInterval(cycle),
	}
	providerSubID, clientSecret, err := s.processor.CreateSubscription(customerID, recurring, map[string]interface{}{
		"dealership_id": dealershipID.String(),
		"plan":          string(plan.ID),
	})
	if err != nil {
		l.Error("Provider rejected subscription creation", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider subscription failed")
		return nil, fmt.Errorf("payment provider %s unavailable: %w", s.processor.Name(), models.ErrUpstream)
	}

	if err := s.subscriptions.AttachBillingProvider(ctx, dealershipID, s.processor.Name(), customerID, providerSubID); err != nil {
		l.Error("Failed to record billing provider", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider attachment failed")
		return nil, err
	}

	// The first invoice settles through the webhook flow keyed by the
	// provider subscription id, so the pending row carries it.
	payment := &models.Payment{
		DealershipID:      dealershipID,
		SubscriptionID:    sub.ID,
		Provider:          s.processor.Name(),
		ProviderPaymentID: providerSubID,
		PlanID:            plan.ID,
		BillingCycle:      cycle,
		Amount:            amount,
		Currency:          currency,
		Status:            models.PaymentPending,
		Description:       fmt.Sprintf("%s plan recurring setup, billed %s", plan.Name, cycle),
	}

	created, err := s.repo.Create(ctx, payment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Payment persistence failed")
		return nil, err
	}

	metrics.Get().PaymentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", created.Provider),
		attribute.String("status", string(models.PaymentPending)),
	))

	l.Info("Recurring billing configured",
		zap.String("paymentID", created.ID.String()),
		zap.String("providerSubscriptionID", providerSubID))
	span.SetStatus(codes.Ok, "Recurring billing configured")
	return &models.CheckoutResponse{
		PaymentID:    created.ID,
		ProviderID:   providerSubID,
		ClientSecret: clientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

func (s *PaymentServiceImpl) CancelRecurring(ctx context.Context, dealershipID uuid.UUID) error {
	l := s.logger.With(zap.String("method", "CancelRecurring"), zap.String("dealershipID", dealershipID.String()))

	sub, err := s.subscriptions.Get(ctx, dealershipID)
	if err != nil {
		return err
	}
	if sub.ProviderSubID == "" {
		return fmt.Errorf("no recurring billing configured: %w", models.ErrNotFound)
	}

	if err := s.processor.CancelSubscription(sub.ProviderSubID); err != nil {
		l.Error("Provider rejected subscription cancellation", zap.Error(err))
		return fmt.Errorf("payment provider %s unavailable: %w", s.processor.Name(), models.ErrUpstream)
	}

	if _, err := s.subscriptions.Cancel(ctx, dealershipID); err != nil {
		return err
	}

	// The customer id survives for future checkouts, the subscription is gone.
	if err := s.subscriptions.AttachBillingProvider(ctx, dealershipID, sub.Provider, sub.ProviderCustomerID, ""); err != nil {
		return err
	}

	l.Info("Recurring billing cancelled")
	return nil
}

func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, event *models.WebhookEvent) error {
	l := s.logger.With(zap.String("method", "HandleWebhook"), zap.String("eventType", event.Type))

	tracer := otel.Tracer("PaymentService")
	ctx, span := tracer.Start(ctx, "PaymentService.HandleWebhook", trace.WithAttributes(
		attribute.String("payment.event", event.Type),
	))
	defer span.End()

	switch event.Type {
	case models.WebhookPaymentSucceeded:
		return s.applyPaymentSucceeded(ctx, l, event)
	case models.WebhookPaymentFailed:
		return s.applyPaymentFailed(ctx, l, event)
	case models.WebhookSubscriptionCancelled:
		return s.applySubscriptionCancelled(ctx, l, event)
	default:
		// Providers send more event types than we act on. Acknowledge so
		// they stop retrying.
		l.Warn("Ignoring unhandled webhook event type")
		span.SetStatus(codes.Ok, "Event ignored")
		return nil
	}
}

func (s *PaymentServiceImpl) applyPaymentSucceeded(ctx context.Context, l *zap.Logger, event *models.WebhookEvent) error {
	payment, err := s.repo.GetByProviderID(ctx, event.ProviderPaymentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			l.Warn("Webhook references unknown payment", zap.String("providerPaymentID", event.ProviderPaymentID))
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, payment.ID, models.PaymentCompleted, "", &now); err != nil {
		return err
	}

	metrics.Get().PaymentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", payment.Provider),
		attribute.String("status", string(models.PaymentCompleted)),
	))

	if payment.PlanID == "" {
		l.Warn("Completed payment carries no plan, nothing to activate", zap.String("paymentID", payment.ID.String()))
		return nil
	}

	if _, err := s.subscriptions.ActivateFromPayment(ctx, payment.DealershipID, payment.PlanID, payment.BillingCycle); err != nil {
		l.Error("Failed to activate plan after payment", zap.Error(err), zap.String("paymentID", payment.ID.String()))
		return err
	}

	l.Info("Payment completed and plan activated",
		zap.String("paymentID", payment.ID.String()),
		zap.String("plan", string(payment.PlanID)))
	return nil
}

func (s *PaymentServiceImpl) applyPaymentFailed(ctx context.Context, l *zap.Logger, event *models.WebhookEvent) error {
	payment, err := s.repo.GetByProviderID(ctx, event.ProviderPaymentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			l.Warn("Webhook references unknown payment", zap.String("providerPaymentID", event.ProviderPaymentID))
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, payment.ID, models.PaymentFailed, event.Reason, &now); err != nil {
		return err
	}

	metrics.Get().PaymentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", payment.Provider),
		attribute.String("status", string(models.PaymentFailed)),
	))

	if err := s.subscriptions.MarkPastDue(ctx, payment.DealershipID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			l.Warn("Failed payment for dealership without subscription", zap.String("paymentID", payment.ID.String()))
			return nil
		}
		return err
	}

	l.Warn("Payment failed, subscription past due",
		zap.String("paymentID", payment.ID.String()),
		zap.String("reason", event.Reason))
	return nil
}

func (s *PaymentServiceImpl) applySubscriptionCancelled(ctx context.Context, l *zap.Logger, event *models.WebhookEvent) error {
	dealershipID := event.DealershipID
	if dealershipID == uuid.Nil && event.ProviderPaymentID != "" {
		payment, err := s.repo.GetByProviderID(ctx, event.ProviderPaymentID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				l.Warn("Cancellation webhook references unknown payment", zap.String("providerPaymentID", event.ProviderPaymentID))
				return nil
			}
			return err
		}
		dealershipID = payment.DealershipID
	}
	if dealershipID == uuid.Nil {
		l.Warn("Cancellation webhook carries no dealership reference")
		return nil
	}

	if _, err := s.subscriptions.Cancel(ctx, dealershipID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			l.Warn("Cancellation webhook for unknown subscription", zap.String("dealershipID", dealershipID.String()))
			return nil
		}
		return err
	}

	l.Info("Subscription cancelled by provider", zap.String("dealershipID", dealershipID.String()))
	return nil
}

func (s *PaymentServiceImpl) ListPayments(ctx context.Context, dealershipID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	return s.repo.ListByDealership(ctx, dealershipID, limit, offset)
}

func (s *PaymentServiceImpl) GetPayment(ctx context.Context, dealershipID, paymentID uuid.UUID) (*models.Payment, error) {
	return s.repo.GetByID(ctx, dealershipID, paymentID)
}

func (s *PaymentServiceImpl) RefundPayment(ctx context.Context, dealershipID, paymentID uuid.UUID) (*models.Payment, error) {
	l := s.logger.With(zap.String("method", "RefundPayment"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("paymentID", paymentID.String()))

	payment, err := s.repo.GetByID(ctx, dealershipID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentCompleted {
		return nil, fmt.Errorf("only completed payments can be refunded, payment is %s: %w", payment.Status, models.ErrBadRequest)
	}

	if err := s.processor.Refund(payment.ProviderPaymentID, nil); err != nil {
		l.Error("Provider refund failed", zap.Error(err))
		return nil, fmt.Errorf("payment provider %s unavailable: %w", s.processor.Name(), models.ErrUpstream)
	}

	if err := s.repo.UpdateStatus(ctx, payment.ID, models.PaymentRefunded, "", payment.ProcessedAt); err != nil {
		return nil, err
	}
	payment.Status = models.PaymentRefunded

	metrics.Get().PaymentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", payment.Provider),
		attribute.String("status", string(models.PaymentRefunded)),
	))

	l.Info("Payment refunded", zap.Float64("amount", payment.Amount))
	return payment, nil
}
