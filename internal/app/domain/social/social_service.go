package social

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/app/observability/metrics"
)

var _ SocialService = (*SocialServiceImpl)(nil)

// AccessChecker is the slice of the subscription service post generation
// needs: the bulk gate plus the plan's platform list.
type AccessChecker interface {
	CheckFeatureAccess(ctx context.Context, dealershipID uuid.UUID, feature models.Feature) (bool, error)
	PlatformAccess(ctx context.Context, dealershipID uuid.UUID) ([]string, error)
}

// VehicleGetter loads the vehicle a caption is rendered from. Implemented by
// the inventory service.
type VehicleGetter interface {
	Get(ctx context.Context, dealershipID, vehicleID uuid.UUID) (*models.Vehicle, error)
}

// SocialService renders template captions for a vehicle across the plan's
// platforms and tracks post state.
type SocialService interface {
	// GeneratePosts renders one draft per requested platform, filtered to
	// the plan's platform list. More than one platform per call requires
	// the bulk_generation feature.
	GeneratePosts(ctx context.Context, dealershipID uuid.UUID, req *models.GeneratePostsRequest) ([]models.GeneratedPost, error)
	ListPosts(ctx context.Context, dealershipID uuid.UUID, filter *models.PostFilter) ([]models.GeneratedPost, error)
	UpdatePostStatus(ctx context.Context, dealershipID, postID uuid.UUID, status models.PostStatus) (*models.GeneratedPost, error)
}

type SocialServiceImpl struct {
	logger   *zap.Logger
	repo     PostRepo
	access   AccessChecker
	vehicles VehicleGetter
}

func NewSocialService(repo PostRepo, access AccessChecker, vehicles VehicleGetter, logger *zap.Logger) *SocialServiceImpl {
	return &SocialServiceImpl{
		logger:   logger,
		repo:     repo,
		access:   access,
		vehicles: vehicles,
	}
}

// allowedPlatforms filters the request against the plan, preserving request
// order and dropping duplicates and unknown names.
func allowedPlatforms(requested, plan []string) []string {
	planSet := make(map[string]bool, len(plan))
	for _, p := range plan {
		planSet[p] = true
	}

	var out []string
	seen := make(map[string]bool, len(requested))
	for _, p := range requested {
		if seen[p] || !KnownPlatform(p) || !planSet[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func (s *SocialServiceImpl) GeneratePosts(ctx context.Context, dealershipID uuid.UUID, req *models.GeneratePostsRequest) ([]models.GeneratedPost, error) {
	l := s.logger.With(zap.String("method", "GeneratePosts"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("vehicleID", req.VehicleID.String()))

	tracer := otel.Tracer("SocialService")
	ctx, span := tracer.Start(ctx, "SocialService.GeneratePosts", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
		attribute.Int("platforms.requested", len(req.Platforms)),
	))
	defer span.End()

	if len(req.Platforms) == 0 {
		return nil, fmt.Errorf("at least one platform is required: %w", models.ErrValidation)
	}

	plan, err := s.access.PlatformAccess(ctx, dealershipID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Platform access lookup failed")
		return nil, err
	}

	platforms := allowedPlatforms(req.Platforms, plan)
	if len(platforms) == 0 {
		span.SetStatus(codes.Error, "No platform available")
		return nil, fmt.Errorf("none of the requested platforms are available on your plan: %w", models.ErrForbidden)
	}

	if len(platforms) > 1 {
		allowed, err := s.access.CheckFeatureAccess(ctx, dealershipID, models.FeatureBulkGeneration)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Feature check failed")
			return nil, err
		}
		if !allowed {
			span.SetStatus(codes.Error, "Bulk generation denied")
			return nil, fmt.Errorf("generating for multiple platforms requires bulk generation: %w", models.ErrForbidden)
		}
	}

	vehicle, err := s.vehicles.Get(ctx, dealershipID, req.VehicleID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Vehicle lookup failed")
		return nil, err
	}

	drafts := make([]models.GeneratedPost, 0, len(platforms))
	for _, platform := range platforms {
		drafts = append(drafts, models.GeneratedPost{
			DealershipID: dealershipID,
			VehicleID:    vehicle.ID,
			Platform:     platform,
			Content:      renderCaption(platform, vehicle),
			Status:       models.PostDraft,
		})
	}

	saved, err := s.repo.CreatePosts(ctx, drafts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Post persistence failed")
		return nil, err
	}

	for _, p := range saved {
		metrics.Get().PostsGeneratedTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("platform", p.Platform),
		))
	}

	l.Info("Posts generated", zap.Int("count", len(saved)), zap.Strings("platforms", platforms))
	span.SetStatus(codes.Ok, "Posts generated")
	return saved, nil
}

func (s *SocialServiceImpl) ListPosts(ctx context.Context, dealershipID uuid.UUID, filter *models.PostFilter) ([]models.GeneratedPost, error) {
	tracer := otel.Tracer("SocialService")
	ctx, span := tracer.Start(ctx, "SocialService.ListPosts", trace.WithAttributes(
		attribute.String("dealership.id", dealershipID.String()),
	))
	defer span.End()

	return s.repo.List(ctx, dealershipID, filter)
}

func (s *SocialServiceImpl) UpdatePostStatus(ctx context.Context, dealershipID, postID uuid.UUID, status models.PostStatus) (*models.GeneratedPost, error) {
	l := s.logger.With(zap.String("method", "UpdatePostStatus"),
		zap.String("dealershipID", dealershipID.String()),
		zap.String("postID", postID.String()))

	switch status {
	case models.PostDraft, models.PostScheduled, models.PostPublished:
	default:
		return nil, fmt.Errorf("unknown post status %q: %w", status, models.ErrValidation)
	}

	p, err := s.repo.UpdateStatus(ctx, dealershipID, postID, status)
	if err != nil {
		return nil, err
	}

	l.Info("Post status changed", zap.String("status", string(status)))
	return p, nil
}
