package social

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

type SocialHandlers struct {
	socialService SocialService
	logger        *zap.Logger
}

func NewSocialHandlers(socialService SocialService, logger *zap.Logger) *SocialHandlers {
	return &SocialHandlers{
		socialService: socialService,
		logger:        logger,
	}
}

// Generate godoc
// @Summary Generate social posts for a vehicle
// @Description Renders template captions for the requested platforms. Platforms outside the plan are skipped; more than one platform requires the bulk_generation feature.
// @Tags social
// @Accept json
// @Produce json
// @Param generate body models.GeneratePostsRequest true "Vehicle and platforms"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/social/generate [post]
func (h *SocialHandlers) Generate(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.GeneratePostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid generate body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	posts, err := h.socialService.GeneratePosts(c.Request.Context(), dealershipID, &req)
	if err != nil {
		h.logger.Error("Failed to generate posts",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("vehicleID", req.VehicleID.String()),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

// ListPosts godoc
// @Summary List generated posts
// @Tags social
// @Produce json
// @Param platform query string false "Filter by platform"
// @Param status query string false "draft, scheduled or published"
// @Param limit query int false "Page size, default 50, max 200"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /api/v1/social/posts [get]
func (h *SocialHandlers) ListPosts(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var filter models.PostFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Error("Invalid post filter", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	posts, err := h.socialService.ListPosts(c.Request.Context(), dealershipID, &filter)
	if err != nil {
		h.logger.Error("Failed to list posts", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": posts,
		"count": len(posts),
	})
}

// UpdatePostStatus godoc
// @Summary Update a post's status
// @Description Moves a post between draft, scheduled and published
// @Tags social
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param status body models.UpdatePostStatusRequest true "New status"
// @Success 200 {object} models.GeneratedPost
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/social/posts/{id}/status [put]
func (h *SocialHandlers) UpdatePostStatus(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	var req models.UpdatePostStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid post status body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	post, err := h.socialService.UpdatePostStatus(c.Request.Context(), dealershipID, postID, req.Status)
	if err != nil {
		h.logger.Error("Failed to update post status",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("postID", postID.String()),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}
