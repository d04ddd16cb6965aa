package statistics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
)

type StatisticsHandlers struct {
	statsService StatisticsService
	logger       *zap.Logger
}

func NewStatisticsHandlers(statsService StatisticsService, logger *zap.Logger) *StatisticsHandlers {
	return &StatisticsHandlers{
		statsService: statsService,
		logger:       logger,
	}
}

// Dashboard godoc
// @Summary Dashboard usage summary
// @Description Vehicle, image, post and scrape counts plus remaining plan quotas. -1 means unlimited.
// @Tags statistics
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Failure 401 {object} map[string]string
// @Router /api/v1/statistics/dashboard [get]
func (h *StatisticsHandlers) Dashboard(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	stats, err := h.statsService.Dashboard(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to build dashboard statistics", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
