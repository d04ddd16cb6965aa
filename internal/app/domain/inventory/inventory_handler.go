package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

type InventoryHandlers struct {
	inventoryService InventoryService
	logger           *zap.Logger
}

func NewInventoryHandlers(inventoryService InventoryService, logger *zap.Logger) *InventoryHandlers {
	return &InventoryHandlers{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// Search godoc
// @Summary List vehicles
// @Description Lists the dealership's inventory, optionally filtered by make, model, year range, price range, status or source
// @Tags vehicles
// @Produce json
// @Param make query string false "Exact make"
// @Param model query string false "Exact model"
// @Param year_min query int false "Minimum model year"
// @Param year_max query int false "Maximum model year"
// @Param price_min query int false "Minimum price in whole dollars"
// @Param price_max query int false "Maximum price in whole dollars"
// @Param status query string false "available, pending or sold"
// @Param source query string false "scraping, dms or manual"
// @Param limit query int false "Page size, default 50, max 200"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string
// @Router /api/v1/vehicles [get]
func (h *InventoryHandlers) Search(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var filter models.VehicleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Error("Invalid vehicle filter", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	vehicles, err := h.inventoryService.Search(c.Request.Context(), dealershipID, &filter)
	if err != nil {
		h.logger.Error("Failed to search vehicles", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// Stats godoc
// @Summary Inventory summary
// @Description Vehicle counts by status and the average listed price
// @Tags vehicles
// @Produce json
// @Success 200 {object} models.InventoryStats
// @Failure 401 {object} map[string]string
// @Router /api/v1/vehicles/stats [get]
func (h *InventoryHandlers) Stats(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	stats, err := h.inventoryService.Stats(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to compute inventory stats", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Get godoc
// @Summary Get a vehicle
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} models.Vehicle
// @Failure 404 {object} map[string]string
// @Router /api/v1/vehicles/{id} [get]
func (h *InventoryHandlers) Get(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle id"})
		return
	}

	vehicle, err := h.inventoryService.Get(c.Request.Context(), dealershipID, vehicleID)
	if err != nil {
		h.logger.Error("Failed to get vehicle",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("vehicleID", vehicleID.String()),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// UpdateStatus godoc
// @Summary Update vehicle status
// @Description Moves a vehicle between available, pending and sold
// @Tags vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Param status body models.UpdateVehicleStatusRequest true "New status"
// @Success 200 {object} models.Vehicle
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/vehicles/{id}/status [put]
func (h *InventoryHandlers) UpdateStatus(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle id"})
		return
	}

	var req models.UpdateVehicleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid status body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	vehicle, err := h.inventoryService.UpdateStatus(c.Request.Context(), dealershipID, vehicleID, req.Status)
	if err != nil {
		h.logger.Error("Failed to update vehicle status",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("vehicleID", vehicleID.String()),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// Delete godoc
// @Summary Delete a vehicle
// @Description Removes the vehicle row. Its images stay until deleted separately.
// @Tags vehicles
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/vehicles/{id} [delete]
func (h *InventoryHandlers) Delete(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle id"})
		return
	}

	if err := h.inventoryService.Delete(c.Request.Context(), dealershipID, vehicleID); err != nil {
		h.logger.Error("Failed to delete vehicle",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("vehicleID", vehicleID.String()),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted successfully"})
}
