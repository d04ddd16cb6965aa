package payments

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/common"
	"github.com/FACorreiaa/dealerflow/internal/app/middleware"
	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

type PaymentHandlers struct {
	paymentService PaymentService
	logger         *zap.Logger
}

func NewPaymentHandlers(paymentService PaymentService, logger *zap.Logger) *PaymentHandlers {
	return &PaymentHandlers{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateCheckout godoc
// @Summary Start a one-time payment for a paid plan
// @Description Opens a charge with the billing provider. The plan activates once the provider confirms through the webhook.
// @Tags payments
// @Accept json
// @Produce json
// @Param checkout body models.CheckoutRequest true "Plan and billing cycle"
// @Success 201 {object} models.CheckoutResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/payments/checkout [post]
func (h *PaymentHandlers) CreateCheckout(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.paymentService.CreateCheckout(c.Request.Context(), dealershipID, &req)
	if err != nil {
		h.logger.Warn("Checkout failed", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SetupRecurring godoc
// @Summary Set up recurring billing for a paid plan
// @Description Creates a provider-managed subscription. The first invoice settles through the webhook like any other payment.
// @Tags payments
// @Accept json
// @Produce json
// @Param subscription body models.CheckoutRequest true "Plan and billing cycle"
// @Success 201 {object} models.CheckoutResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/payments/subscribe [post]
func (h *PaymentHandlers) SetupRecurring(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	email := middleware.GetUserEmailFromContext(c)
	resp, err := h.paymentService.SetupRecurring(c.Request.Context(), dealershipID, email, &req)
	if err != nil {
		h.logger.Warn("Recurring setup failed", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CancelRecurring godoc
// @Summary Stop recurring billing
// @Description Cancels the provider subscription and the plan. Access ends immediately.
// @Tags payments
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/payments/subscribe [delete]
func (h *PaymentHandlers) CancelRecurring(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.paymentService.CancelRecurring(c.Request.Context(), dealershipID); err != nil {
		h.logger.Warn("Recurring cancellation failed", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// ListPayments godoc
// @Summary List past and pending payments
// @Tags payments
// @Produce json
// @Param limit query int false "Page size, defaults to 50"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Payment
// @Failure 401 {object} map[string]string
// @Router /api/v1/payments [get]
func (h *PaymentHandlers) ListPayments(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	payments, err := h.paymentService.ListPayments(c.Request.Context(), dealershipID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list payments", zap.String("dealershipID", dealershipID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetPayment godoc
// @Summary Get a single payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment id"
// @Success 200 {object} models.Payment
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandlers) GetPayment(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), dealershipID, paymentID)
	if err != nil {
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// RefundPayment godoc
// @Summary Refund a completed payment in full
// @Tags payments
// @Produce json
// @Param id path string true "Payment id"
// @Success 200 {object} models.Payment
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/payments/{id}/refund [post]
func (h *PaymentHandlers) RefundPayment(c *gin.Context) {
	dealershipID, err := middleware.DealershipID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment id"})
		return
	}

	payment, err := h.paymentService.RefundPayment(c.Request.Context(), dealershipID, paymentID)
	if err != nil {
		h.logger.Warn("Refund failed", zap.String("paymentID", paymentID.String()), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Webhook godoc
// @Summary Receive a billing provider event
// @Description Applies a normalized provider event. Unknown event types are acknowledged so the provider stops retrying.
// @Tags payments
// @Accept json
// @Produce json
// @Param event body models.WebhookEvent true "Normalized provider event"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/v1/payments/webhook [post]
func (h *PaymentHandlers) Webhook(c *gin.Context) {
	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), &event); err != nil {
		h.logger.Error("Webhook processing failed", zap.String("eventType", event.Type), zap.Error(err))
		common.ErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
