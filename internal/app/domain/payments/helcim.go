package payments

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ PaymentProcessor = (*HelcimProcessor)(nil)

// HelcimProcessor is the demo mode billing backend and the default provider.
// It never calls out: every operation succeeds and returns hlc_ prefixed
// identifiers, so the whole checkout and webhook flow can be driven locally.
type HelcimProcessor struct {
	logger *zap.Logger
}

func NewHelcimProcessor(logger *zap.Logger) *HelcimProcessor {
	return &HelcimProcessor{logger: logger}
}

func (h *HelcimProcessor) Name() string {
	return "helcim"
}

func helcimID(kind string) string {
	return "hlc_" + kind + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (h *HelcimProcessor) CreateCustomer(userID uuid.UUID, email string, metadata map[string]interface{}) (string, error) {
	customerID := helcimID("cus")
	h.logger.Debug("Simulated customer created",
		zap.String("customerID", customerID),
		zap.String("userID", userID.String()),
		zap.String("email", email))
	return customerID, nil
}

func (h *HelcimProcessor) CreatePayment(amountCents int64, currency string, metadata map[string]interface{}) (string, string, error) {
	if amountCents <= 0 {
		return "", "", fmt.Errorf("payment amount must be positive, got %d cents", amountCents)
	}

	paymentID := helcimID("pay")
	h.logger.Debug("Simulated payment created",
		zap.String("paymentID", paymentID),
		zap.Int64("amountCents", amountCents),
		zap.String("currency", currency))
	return paymentID, paymentID + "_secret", nil
}

// GetPaymentStatus always reports completed. The simulation has no pending
// state on the provider side.
func (h *HelcimProcessor) GetPaymentStatus(providerPaymentID string) (string, error) {
	if !strings.HasPrefix(providerPaymentID, "hlc_") {
		return "", fmt.Errorf("unknown payment id %q", providerPaymentID)
	}
	return "completed", nil
}

func (h *HelcimProcessor) Refund(providerPaymentID string, amountCents *int64) error {
	if !strings.HasPrefix(providerPaymentID, "hlc_") {
		return fmt.Errorf("unknown payment id %q", providerPaymentID)
	}

	amount := int64(0)
	if amountCents != nil {
		amount = *amountCents
	}
	h.logger.Debug("Simulated refund issued",
		zap.String("paymentID", providerPaymentID),
		zap.Int64("amountCents", amount))
	return nil
}

func (h *HelcimProcessor) CreateSubscription(customerID string, plan RecurringPlan, metadata map[string]interface{}) (string, string, error) {
	if plan.AmountCents <= 0 {
		return "", "", fmt.Errorf("subscription amount must be positive, got %d cents", plan.AmountCents)
	}

	subscriptionID := helcimID("sub")
	h.logger.Debug("Simulated subscription created",
		zap.String("subscriptionID", subscriptionID),
		zap.String("customerID", customerID),
		zap.String("plan", string(plan.PlanID)),
		zap.String("interval", plan.Interval))
	return subscriptionID, subscriptionID + "_secret", nil
}

func (h *HelcimProcessor) CancelSubscription(providerSubscriptionID string) error {
	if !strings.HasPrefix(providerSubscriptionID, "hlc_") {
		return fmt.Errorf("unknown subscription id %q", providerSubscriptionID)
	}
	h.logger.Debug("Simulated subscription cancelled",
		zap.String("subscriptionID", providerSubscriptionID))
	return nil
}
