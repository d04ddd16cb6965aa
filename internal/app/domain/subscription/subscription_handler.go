package subscription

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
)

type SubscriptionHandlers struct {
	subscriptionService SubscriptionService
	logger              *zap.Logger
}

func NewSubscriptionHandlers(subscriptionService SubscriptionService, logger *zap.Logger) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// ListPlans godoc
// @Summary List purchasable plans
// @Description Returns the full plan catalog including the trial plan
// @Tags subscription
// @Produce json
// @Success 200 {array} models.Plan
// @Router /api/v1/subscription/plans [get]
func (h *SubscriptionHandlers) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, AllPlans())
}

// GetSubscription godoc
// @Summary Get the current subscription
// @Description Returns the subscription together with its derived activity state
// @Tags subscription
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/subscription [get]
func (h *SubscriptionHandlers) GetSubscription(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sub, err := h.subscriptionService.Get(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to get subscription", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"subscription":       sub,
		"is_active":          sub.IsActiveAt(now),
		"days_until_renewal": sub.DaysUntilRenewalAt(now),
	})
}

// Upgrade godoc
// @Summary Upgrade to a paid plan
// @Description Moves the dealership onto a paid plan. The trial plan cannot be purchased.
// @Tags subscription
// @Accept json
// @Produce json
// @Param upgrade body models.UpgradeRequest true "Target plan and billing cycle"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/subscription/upgrade [post]
func (h *SubscriptionHandlers) Upgrade(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.UpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid upgrade request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := h.subscriptionService.Upgrade(c.Request.Context(), dealershipID, &req)
	if err != nil {
		h.logger.Error("Failed to upgrade subscription",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("plan", string(req.Plan)),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// Cancel godoc
// @Summary Cancel the subscription
// @Description Cancellation takes effect immediately, there is no proration
// @Tags subscription
// @Produce json
// @Success 200 {object} models.Subscription
// @Failure 404 {object} map[string]string
// @Router /api/v1/subscription/cancel [post]
func (h *SubscriptionHandlers) Cancel(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to cancel subscription", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// GetFeatures godoc
// @Summary Summarize feature access
// @Description Returns the full gate evaluation for the dealership's current plan
// @Tags subscription
// @Produce json
// @Success 200 {object} models.FeatureAccess
// @Failure 404 {object} map[string]string
// @Router /api/v1/subscription/features [get]
func (h *SubscriptionHandlers) GetFeatures(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	summary, err := h.subscriptionService.FeatureSummary(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to summarize features", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CheckFeature godoc
// @Summary Check a single feature gate
// @Tags subscription
// @Produce json
// @Param feature path string true "Feature name"
// @Success 200 {object} map[string]any
// @Router /api/v1/subscription/features/{feature} [get]
func (h *SubscriptionHandlers) CheckFeature(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	feature := models.Feature(c.Param("feature"))
	allowed, err := h.subscriptionService.CheckFeatureAccess(c.Request.Context(), dealershipID, feature)
	if err != nil {
		h.logger.Error("Failed to check feature access",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("feature", string(feature)),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feature": feature, "has_access": allowed})
}

// GetPlatforms godoc
// @Summary List social platforms available to the dealership
// @Description Falls back to the default platform set when the caller is anonymous or no subscription is active
// @Tags subscription
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/subscription/platforms [get]
func (h *SubscriptionHandlers) GetPlatforms(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"platforms": DefaultPlatforms()})
		return
	}

	platforms, err := h.subscriptionService.PlatformAccess(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to resolve platform access", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"platforms": platforms})
}
