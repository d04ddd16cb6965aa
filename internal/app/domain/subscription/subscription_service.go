package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/app/observability/metrics"
)

var _ SubscriptionService = (*SubscriptionServiceImpl)(nil)

// SubscriptionService owns the billing lifecycle of a dealership and answers
// every feature gate question in the application. Lifecycle mutations for the
// same dealership are serialized so concurrent upgrade, cancel and webhook
// transitions cannot interleave.
type SubscriptionService interface {
	// CreateTrial provisions the 14 day trial subscription for a new dealership.
	CreateTrial(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)
	Get(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)

	// Upgrade moves a dealership onto a paid plan. The trial plan is not
	// purchasable and is rejected with models.ErrInvalidPlan.
	Upgrade(ctx context.Context, dealershipID uuid.UUID, req *models.UpgradeRequest) (*models.Subscription, error)
	// Cancel marks the subscription cancelled. Access cuts off immediately,
	// there is no proration.
	Cancel(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error)

	// ActivateFromPayment applies a successful payment webhook: the plan is
	// activated and the billing period restarts now.
	ActivateFromPayment(ctx context.Context, dealershipID uuid.UUID, planID models.PlanID, cycle models.BillingCycle) (*models.Subscription, error)
	// MarkPastDue applies a failed renewal webhook.
	MarkPastDue(ctx context.Context, dealershipID uuid.UUID) error
	// AttachBillingProvider records the provider side identifiers created
	// during checkout so later webhooks and cancellations can reference them.
	AttachBillingProvider(ctx context.Context, dealershipID uuid.UUID, provider, customerID, providerSubID string) error

	CheckFeatureAccess(ctx context.Context, dealershipID uuid.UUID, feature models.Feature) (bool, error)
	PlatformAccess(ctx context.Context, dealershipID uuid.UUID) ([]string, error)
	FeatureSummary(ctx context.Context, dealershipID uuid.UUID) (*models.FeatureAccess, error)
}

type SubscriptionServiceImpl struct {
	logger *zap.Logger
	repo   SubscriptionRepo
	cache  *cache.Cache

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewSubscriptionService(repo SubscriptionRepo, logger *zap.Logger) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(60*time.Second, 5*time.Minute),
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// tenantLock returns the held per-dealership mutex. Callers unlock via defer.
func (s *SubscriptionServiceImpl) tenantLock(dealershipID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	m, ok := s.locks[dealershipID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[dealershipID] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m
}

func subscriptionCacheKey(dealershipID uuid.UUID) string {
	return "subscription:" + dealershipID.String()
}

// cachedSubscription reads the subscription through a short lived cache so the
// gate table can be consulted on every request without a database round trip.
// Misses and errors are never cached.
func (s *SubscriptionServiceImpl) cachedSubscription(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error) {
	cacheKey := subscriptionCacheKey(dealershipID)
	if cached, found := s.cache.Get(cacheKey); found {
		if sub, ok := cached.(*models.Subscription); ok {
			return sub, nil
		}
	}

	sub, err := s.repo.GetByDealershipID(ctx, dealershipID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKey, sub, cache.DefaultExpiration)
	return sub, nil
}

func (s *SubscriptionServiceImpl) invalidate(dealershipID uuid.UUID) {
	s.cache.Delete(subscriptionCacheKey(dealershipID))
}

func (s *SubscriptionServiceImpl) CreateTrial(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error) {
	l := s.logger.With(zap.String("method", "CreateTrial"), zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("SubscriptionService")
	ctx, span := tracer.Start(ctx, "SubscriptionService.CreateTrial", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	now := time.Now().UTC()
	sub := &models.Subscription{
		DealershipID:       dealershipID,
		PlanID:             models.PlanTrial,
		Status:             models.SubscriptionTrial,
		BillingCycle:       models.BillingMonthly,
		Amount:             0,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   models.BillingMonthly.PeriodEnd(now),
		TrialEnd:           now.AddDate(0, 0, TrialDays),
	}

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		l.Error("Failed to create trial subscription", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trial creation failed")
		return nil, err
	}

	l.Info("Trial subscription created", zap.Time("trialEnd", created.TrialEnd))
	span.SetStatus(codes.Ok, "Trial created")
	return created, nil
}

func (s *SubscriptionServiceImpl) Get(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error) {
	return s.cachedSubscription(ctx, dealershipID)
}

func (s *SubscriptionServiceImpl) Upgrade(ctx context.Context, dealershipID uuid.UUID, req *models.UpgradeRequest) (*models.Subscription, error) {
	l := s.logger.With(zap.String("method", "Upgrade"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("plan", string(req.Plan)))

	tracer := otel.Tracer("SubscriptionService")
	ctx, span := tracer.Start(ctx, "SubscriptionService.Upgrade", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("subscription.plan", string(req.Plan)),
	))
	defer span.End()

	plan, ok := PlanByID(req.Plan)
	if !ok {
		span.SetStatus(codes.Error, "Unknown plan")
		return nil, fmt.Errorf("unknown plan %q: %w", req.Plan, models.ErrInvalidPlan)
	}
	if plan.PriceMonthly == 0 {
		span.SetStatus(codes.Error, "Plan not purchasable")
		return nil, fmt.Errorf("plan %q is not purchasable: %w", req.Plan, models.ErrInvalidPlan)
	}
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = models.BillingMonthly
	}
	if cycle != models.BillingMonthly && cycle != models.BillingYearly {
		span.SetStatus(codes.Error, "Unknown billing cycle")
		return nil, fmt.Errorf("unknown billing cycle %q: %w", cycle, models.ErrValidation)
	}

	defer s.tenantLock(dealershipID).Unlock()

	sub, err := s.repo.GetByDealershipID(ctx, dealershipID)
	if err != nil {
		l.Error("Failed to load subscription for upgrade", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subscription lookup failed")
		return nil, err
	}

	now := time.Now().UTC()
	sub.PlanID = plan.ID
	sub.Status = models.SubscriptionActive
	sub.BillingCycle = cycle
	sub.Amount = Price(plan, cycle)
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = cycle.PeriodEnd(now)

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		l.Error("Failed to persist upgrade", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Upgrade persistence failed")
		return nil, err
	}
	s.invalidate(dealershipID)

	l.Info("Subscription upgraded",
		zap.String("cycle", string(updated.BillingCycle)),
		zap.Float64("amount", updated.Amount))
	span.SetStatus(codes.Ok, "Subscription upgraded")
	return updated, nil
}

func (s *SubscriptionServiceImpl) Cancel(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error) {
	l := s.logger.With(zap.String("method", "Cancel"), zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("SubscriptionService")
	ctx, span := tracer.Start(ctx, "SubscriptionService.Cancel", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	defer s.tenantLock(dealershipID).Unlock()

	sub, err := s.repo.GetByDealershipID(ctx, dealershipID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subscription lookup failed")
		return nil, err
	}

	// The period end is kept for record keeping. Active status checks look at
	// the status first, so access cuts off now.
	sub.Status = models.SubscriptionCancelled

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		l.Error("Failed to persist cancellation", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cancellation persistence failed")
		return nil, err
	}
	s.invalidate(dealershipID)

	l.Info("Subscription cancelled", zap.String("plan", string(updated.PlanID)))
	span.SetStatus(codes.Ok, "Subscription cancelled")
	return updated, nil
}

func (s *SubscriptionServiceImpl) ActivateFromPayment(ctx context.Context, dealershipID uuid.UUID, planID models.PlanID, cycle models.BillingCycle) (*models.Subscription, error) {
	l := s.logger.With(zap.String("method", "ActivateFromPayment"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("plan", string(planID)))

	tracer := otel.Tracer("SubscriptionService")
	ctx, span := tracer.Start(ctx, "SubscriptionService.ActivateFromPayment", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.String("subscription.plan", string(planID)),
	))
	defer span.End()

	plan, ok := PlanByID(planID)
	if !ok {
		span.SetStatus(codes.Error, "Unknown plan")
		return nil, fmt.Errorf("unknown plan %q: %w", planID, models.ErrInvalidPlan)
	}
	if cycle != models.BillingYearly {
		cycle = models.BillingMonthly
	}

	defer s.tenantLock(dealershipID).Unlock()

	sub, err := s.repo.GetByDealershipID(ctx, dealershipID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Subscription lookup failed")
		return nil, err
	}

	now := time.Now().UTC()
	sub.PlanID = plan.ID
	sub.Status = models.SubscriptionActive
	sub.BillingCycle = cycle
	sub.Amount = Price(plan, cycle)
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = cycle.PeriodEnd(now)

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		l.Error("Failed to activate subscription from payment", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Activation persistence failed")
		return nil, err
	}
	s.invalidate(dealershipID)

	l.Info("Subscription activated from payment", zap.Time("periodEnd", updated.CurrentPeriodEnd))
	span.SetStatus(codes.Ok, "Subscription activated")
	return updated, nil
}

func (s *SubscriptionServiceImpl) MarkPastDue(ctx context.Context, dealershipID uuid.UUID) error {
	l := s.logger.With(zap.String("method", "MarkPastDue"), zap.String("dealershipID", dealershipID.String()))

	defer s.tenantLock(dealershipID).Unlock()

	if err := s.repo.UpdateStatus(ctx, dealershipID, models.SubscriptionPastDue); err != nil {
		l.Error("Failed to mark subscription past due", zap.Error(err))
		return err
	}
	s.invalidate(dealershipID)

	l.Warn("Subscription marked past due")
	return nil
}

func (s *SubscriptionServiceImpl) AttachBillingProvider(ctx context.Context, dealershipID uuid.UUID, provider, customerID, providerSubID string) error {
	l := s.logger.With(zap.String("method", "AttachBillingProvider"), zap.String("dealershipID", dealershipID.String()))

	defer s.tenantLock(dealershipID).Unlock()

	sub, err := s.repo.GetByDealershipID(ctx, dealershipID)
	if err != nil {
		return err
	}

	sub.Provider = provider
	sub.ProviderCustomerID = customerID
	sub.ProviderSubID = providerSubID

	if _, err := s.repo.Update(ctx, sub); err != nil {
		l.Error("Failed to record billing provider", zap.Error(err))
		return err
	}
	s.invalidate(dealershipID)

	l.Info("Billing provider recorded", zap.String("provider", provider))
	return nil
}

func (s *SubscriptionServiceImpl) CheckFeatureAccess(ctx context.Context, dealershipID uuid.UUID, feature models.Feature) (bool, error) {
	sub, err := s.cachedSubscription(ctx, dealershipID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	allowed := HasFeature(sub, feature, time.Now().UTC())
	metrics.Get().FeatureChecksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("feature", string(feature)),
		attribute.Bool("allowed", allowed),
	))
	return allowed, nil
}

func (s *SubscriptionServiceImpl) PlatformAccess(ctx context.Context, dealershipID uuid.UUID) ([]string, error) {
	sub, err := s.cachedSubscription(ctx, dealershipID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return DefaultPlatforms(), nil
		}
		return nil, err
	}
	return PlatformsFor(sub, time.Now().UTC()), nil
}

func (s *SubscriptionServiceImpl) FeatureSummary(ctx context.Context, dealershipID uuid.UUID) (*models.FeatureAccess, error) {
	sub, err := s.cachedSubscription(ctx, dealershipID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	summary := &models.FeatureAccess{
		IsActive:         sub.IsActiveAt(now),
		PlanID:           sub.PlanID,
		Platforms:        PlatformsFor(sub, now),
		DaysUntilRenewal: sub.DaysUntilRenewalAt(now),
	}
	if plan, ok := PlanByID(sub.PlanID); ok {
		summary.MaxPostsPerMonth = plan.MaxPostsPerMonth
		summary.MaxImages = plan.MaxImages
		summary.Automation = HasFeature(sub, models.FeatureAutomation, now)
		summary.Analytics = HasFeature(sub, models.FeatureAnalytics, now)
	}
	return summary, nil
}
