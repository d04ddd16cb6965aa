package images

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

type ImageHandlers struct {
	imageService ImageService
	logger       *zap.Logger
}

func NewImageHandlers(imageService ImageService, logger *zap.Logger) *ImageHandlers {
	return &ImageHandlers{
		imageService: imageService,
		logger:       logger,
	}
}

// Upload godoc
// @Summary Upload vehicle images
// @Description Accepts one or more files in the multipart "images" field plus optional vehicle fields (year, make, model, vin, stock_number, alt_text, tags)
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/images/upload [post]
func (h *ImageHandlers) Upload(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Error("Invalid upload form", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No images provided"})
		return
	}

	year, _ := strconv.Atoi(c.PostForm("year"))
	identity := models.VehicleIdentity{
		Year:        year,
		Make:        c.PostForm("make"),
		Model:       c.PostForm("model"),
		VIN:         c.PostForm("vin"),
		StockNumber: c.PostForm("stock_number"),
	}
	altText := c.PostForm("alt_text")
	var tags []string
	for _, t := range strings.Split(c.PostForm("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	uploaded := make([]models.ImageRecord, 0, len(files))
	var uploadErrs []string
	for _, file := range files {
		rec, err := h.imageService.Upload(c.Request.Context(), dealershipID, file, identity, altText, tags)
		if err != nil {
			uploadErrs = append(uploadErrs, fmt.Sprintf("%s: %v", file.Filename, err))
			continue
		}
		uploaded = append(uploaded, *rec)
	}

	if len(uploaded) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "No images could be uploaded",
			"errors": uploadErrs,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully uploaded %d images", len(uploaded)),
		"images":  uploaded,
		"errors":  uploadErrs,
	})
}

// List godoc
// @Summary List images
// @Description Active images for the dealership, newest first, filterable by vehicle identity fields
// @Tags images
// @Produce json
// @Param year query int false "Vehicle year"
// @Param make query string false "Vehicle make"
// @Param model query string false "Vehicle model"
// @Param vin query string false "Vehicle VIN"
// @Param stock_number query string false "Stock number"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /api/v1/images [get]
func (h *ImageHandlers) List(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var filter models.ImageFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	records, err := h.imageService.List(c.Request.Context(), dealershipID, &filter)
	if err != nil {
		h.logger.Error("Failed to list images", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images": records,
		"count":  len(records),
	})
}

// Get godoc
// @Summary Get one image
// @Tags images
// @Produce json
// @Success 200 {object} models.ImageRecord
// @Failure 404 {object} map[string]string
// @Router /api/v1/images/{id} [get]
func (h *ImageHandlers) Get(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return
	}

	rec, err := h.imageService.Get(c.Request.Context(), dealershipID, imageID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ServeFile godoc
// @Summary Serve the image file
// @Tags images
// @Produce image/jpeg
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /api/v1/images/{id}/file [get]
func (h *ImageHandlers) ServeFile(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return
	}

	rec, err := h.imageService.Get(c.Request.Context(), dealershipID, imageID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	if _, err := os.Stat(rec.FilePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image file not found"})
		return
	}
	c.File(rec.FilePath)
}

// SetPrimary godoc
// @Summary Make an image the vehicle's primary photo
// @Description Clears the primary flag on the vehicle's other photos in the same request
// @Tags images
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/images/{id}/primary [put]
func (h *ImageHandlers) SetPrimary(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return
	}

	if err := h.imageService.SetPrimary(c.Request.Context(), dealershipID, imageID); err != nil {
		h.logger.Error("Failed to set primary image", zap.String("imageID", imageID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Primary image updated"})
}

// UpdateMetadata godoc
// @Summary Update image metadata
// @Description Only the fields present in the body change
// @Tags images
// @Accept json
// @Produce json
// @Param metadata body models.ImageMetadataUpdate true "Fields to change"
// @Success 200 {object} models.ImageRecord
// @Failure 404 {object} map[string]string
// @Router /api/v1/images/{id} [put]
func (h *ImageHandlers) UpdateMetadata(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return
	}

	var update models.ImageMetadataUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Error("Invalid image metadata body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rec, err := h.imageService.UpdateMetadata(c.Request.Context(), dealershipID, imageID, &update)
	if err != nil {
		h.logger.Error("Failed to update image metadata", zap.String("imageID", imageID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// Delete godoc
// @Summary Delete an image
// @Description Soft delete; the record stays for auditing but leaves every listing
// @Tags images
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/images/{id} [delete]
func (h *ImageHandlers) Delete(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	imageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image id"})
		return
	}

	if err := h.imageService.SoftDelete(c.Request.Context(), dealershipID, imageID); err != nil {
		h.logger.Error("Failed to delete image", zap.String("imageID", imageID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
