package dms

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

type DMSHandlers struct {
	dmsService DMSService
	logger     *zap.Logger
}

func NewDMSHandlers(dmsService DMSService, logger *zap.Logger) *DMSHandlers {
	return &DMSHandlers{
		dmsService: dmsService,
		logger:     logger,
	}
}

// Providers godoc
// @Summary List supported DMS providers
// @Description Returns the integration catalog with display names
// @Tags dms
// @Produce json
// @Success 200 {array} dms.ProviderSummary
// @Router /api/v1/dms/providers [get]
func (h *DMSHandlers) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, SupportedProviders())
}

// Connect godoc
// @Summary Connect a DMS provider
// @Description Links the dealership to a provider. Requires the dms_integration feature.
// @Tags dms
// @Accept json
// @Produce json
// @Param connect body models.ConnectDMSRequest true "Provider id"
// @Success 200 {object} models.DMSConnection
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/v1/dms/connect [post]
func (h *DMSHandlers) Connect(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.ConnectDMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid DMS connect body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	conn, err := h.dmsService.Connect(c.Request.Context(), dealershipID, req.Provider)
	if err != nil {
		h.logger.Error("Failed to connect DMS",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("provider", string(req.Provider)),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, conn)
}

// Sync godoc
// @Summary Sync DMS inventory now
// @Description Pulls the connected provider's inventory into vehicles and images
// @Tags dms
// @Produce json
// @Success 200 {object} models.DMSSyncResult
// @Failure 404 {object} map[string]string
// @Router /api/v1/dms/sync [post]
func (h *DMSHandlers) Sync(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.dmsService.Sync(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to sync DMS", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetConnection godoc
// @Summary Get the DMS connection
// @Tags dms
// @Produce json
// @Success 200 {object} models.DMSConnection
// @Failure 404 {object} map[string]string
// @Router /api/v1/dms/connection [get]
func (h *DMSHandlers) GetConnection(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	conn, err := h.dmsService.GetConnection(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to get DMS connection", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, conn)
}

// Disconnect godoc
// @Summary Disconnect the DMS
// @Description Marks the connection disconnected. The synced vehicles stay in inventory.
// @Tags dms
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/dms/connection [delete]
func (h *DMSHandlers) Disconnect(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.dmsService.Disconnect(c.Request.Context(), dealershipID); err != nil {
		h.logger.Error("Failed to disconnect DMS", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "DMS disconnected"})
}
