package payments

import (
	"github.com/google/uuid"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// RecurringPlan describes the recurring charge a processor should set up.
// The service maps a catalog plan and billing cycle into this before calling
// CreateSubscription so processors never consult the catalog themselves.
type RecurringPlan struct {
	PlanID      models.PlanID
	Name        string
	Description string
	AmountCents int64
	Currency    string
	// Interval is the provider billing interval, "month" or "year".
	Interval string
}

// PaymentProcessor abstracts the billing provider. Implementations return
// provider side identifiers which are stored on the payment and subscription
// rows and echoed back by webhooks.
type PaymentProcessor interface {
	// Name identifies the provider in stored rows, "helcim" or "stripe".
	Name() string

	// CreateCustomer registers the dealership with the provider and returns
	// the provider customer id.
	CreateCustomer(userID uuid.UUID, email string, metadata map[string]interface{}) (string, error)

	// CreatePayment opens a one-time charge for the amount in cents and
	// returns the provider payment id plus the client secret the frontend
	// confirms the payment with.
	CreatePayment(amountCents int64, currency string, metadata map[string]interface{}) (string, string, error)

	// GetPaymentStatus returns the provider's view of a payment.
	GetPaymentStatus(providerPaymentID string) (string, error)

	// Refund reverses a charge. A nil amount refunds the full charge.
	Refund(providerPaymentID string, amountCents *int64) error

	// CreateSubscription sets up a recurring charge for the plan and returns
	// the provider subscription id plus the client secret for the first
	// invoice.
	CreateSubscription(customerID string, plan RecurringPlan, metadata map[string]interface{}) (string, string, error)

	// CancelSubscription stops the recurring charge immediately.
	CancelSubscription(providerSubscriptionID string) error
}
