package statistics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

var _ StatisticsService = (*StatisticsServiceImpl)(nil)

// PlanReader resolves the caller's current plan limits. Implemented by the
// subscription service.
type PlanReader interface {
	FeatureSummary(ctx context.Context, dealershipID uuid.UUID) (*models.FeatureAccess, error)
}

// StatisticsService aggregates per tenant usage for the dashboard.
type StatisticsService interface {
	Dashboard(ctx context.Context, dealershipID uuid.UUID) (*models.DashboardStats, error)
}

type StatisticsServiceImpl struct {
	logger *zap.Logger
	repo   StatsRepo
	plans  PlanReader
}

func NewStatisticsService(repo StatsRepo, plans PlanReader, logger *zap.Logger) *StatisticsServiceImpl {
	return &StatisticsServiceImpl{
		logger: logger,
		repo:   repo,
		plans:  plans,
	}
}

// Dashboard fans the aggregate queries out concurrently and joins them with
// the plan limits into one usage summary. Every goroutine fills disjoint
// fields, so no lock is needed around stats.
func (s *StatisticsServiceImpl) Dashboard(ctx context.Context, dealershipID uuid.UUID) (*models.DashboardStats, error) {
	l := s.logger.With(zap.String("method", "Dashboard"),
		zap.String("dealershipID", dealershipID.String()))

	tracer := otel.Tracer("StatisticsService")
	ctx, span := tracer.Start(ctx, "StatisticsService.Dashboard", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	monthStart := startOfMonth(time.Now().UTC())

	var (
		stats  models.DashboardStats
		access *models.FeatureAccess
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.VehicleCount(gctx, dealershipID)
		stats.TotalVehicles = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.ImageCount(gctx, dealershipID)
		stats.TotalImages = n
		return err
	})
	g.Go(func() error {
		n, last, err := s.repo.PostActivity(gctx, dealershipID, monthStart)
		stats.PostsThisMonth = n
		stats.LastPostAt = last
		return err
	})
	g.Go(func() error {
		n, last, err := s.repo.ScrapeActivity(gctx, dealershipID)
		stats.ScrapeRuns = n
		stats.LastScrapeAt = last
		return err
	})
	g.Go(func() error {
		var err error
		access, err = s.plans.FeatureSummary(gctx, dealershipID)
		return err
	})

	if err := g.Wait(); err != nil {
		l.Error("Failed to aggregate dashboard statistics", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Dashboard aggregation failed")
		return nil, err
	}

	stats.RemainingPosts = remaining(access.MaxPostsPerMonth, stats.PostsThisMonth)
	stats.RemainingImages = remaining(access.MaxImages, stats.TotalImages)

	l.Info("Dashboard statistics aggregated",
		zap.Int64("vehicles", stats.TotalVehicles),
		zap.Int64("images", stats.TotalImages),
		zap.Int64("postsThisMonth", stats.PostsThisMonth))
	span.SetStatus(codes.Ok, "Dashboard aggregated")
	return &stats, nil
}

// startOfMonth truncates to the first instant of the month in UTC. Monthly
// post quotas reset on this boundary.
func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// remaining is the quota left on a capped plan. Unlimited passes through as
// the sentinel and overuse after a downgrade clamps to zero.
func remaining(limit, used int64) int64 {
	if limit == models.Unlimited {
		return models.Unlimited
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
