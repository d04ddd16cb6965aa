package scraping

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

type ScrapingHandlers struct {
	scrapingService ScrapingService
	logger          *zap.Logger
}

func NewScrapingHandlers(scrapingService ScrapingService, logger *zap.Logger) *ScrapingHandlers {
	return &ScrapingHandlers{
		scrapingService: scrapingService,
		logger:          logger,
	}
}

// Setup godoc
// @Summary Configure website scraping
// @Description Validates the dealership site URL, detects its platform and stores the scrape configuration
// @Tags scraping
// @Accept json
// @Produce json
// @Param setup body models.SetupScrapingRequest true "Dealership website URL"
// @Success 200 {object} models.ScrapeConfig
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/scraping/setup [post]
func (h *ScrapingHandlers) Setup(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.SetupScrapingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid scraping setup body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cfg, err := h.scrapingService.SetupScraping(c.Request.Context(), dealershipID, req.WebsiteURL)
	if err != nil {
		h.logger.Error("Failed to set up scraping",
			zap.String("dealershipID", dealershipID.String()),
			zap.String("url", req.WebsiteURL),
			zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Run godoc
// @Summary Run a scrape now
// @Description Scrapes the configured website immediately. Requires the website_scraping feature.
// @Tags scraping
// @Accept json
// @Produce json
// @Param run body models.RunScrapeRequest false "Optional per run vehicle cap"
// @Success 200 {object} models.ScrapeResult
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/scraping/run [post]
func (h *ScrapingHandlers) Run(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	// The body is optional; an empty one means "use the configured cap".
	var req models.RunScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("Invalid scrape run body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.scrapingService.RunScrape(c.Request.Context(), dealershipID, req.MaxVehicles)
	if err != nil {
		h.logger.Error("Failed to run scrape", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Status godoc
// @Summary Get scraping status
// @Tags scraping
// @Produce json
// @Success 200 {object} models.ScrapeConfig
// @Failure 404 {object} map[string]string
// @Router /api/v1/scraping/status [get]
func (h *ScrapingHandlers) Status(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	cfg, err := h.scrapingService.GetScrapeStatus(c.Request.Context(), dealershipID)
	if err != nil {
		h.logger.Error("Failed to get scrape status", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// UpdateSchedule godoc
// @Summary Update the automatic scrape schedule
// @Description Sets the cadence (daily, weekly, monthly) and toggles automatic runs
// @Tags scraping
// @Accept json
// @Produce json
// @Param schedule body models.UpdateScheduleRequest true "New cadence"
// @Success 200 {object} models.ScrapeConfig
// @Failure 404 {object} map[string]string
// @Router /api/v1/scraping/schedule [put]
func (h *ScrapingHandlers) UpdateSchedule(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid schedule body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cfg, err := h.scrapingService.UpdateSchedule(c.Request.Context(), dealershipID, &req)
	if err != nil {
		h.logger.Error("Failed to update schedule", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}
