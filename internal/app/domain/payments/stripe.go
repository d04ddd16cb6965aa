package payments

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/price"
	"github.com/stripe/stripe-go/v83/product"
	"github.com/stripe/stripe-go/v83/refund"
	"github.com/stripe/stripe-go/v83/subscription"
)

var _ PaymentProcessor = (*StripeProcessor)(nil)

// StripeProcessor bills through Stripe. Selected with PAYMENT_PROVIDER=stripe
// and a configured API key.
type StripeProcessor struct {
	apiKey string
}

func NewStripeProcessor(apiKey string) *StripeProcessor {
	stripe.Key = apiKey
	return &StripeProcessor{
		apiKey: apiKey,
	}
}

func (s *StripeProcessor) Name() string {
	return "stripe"
}

// stripeMetadata flattens arbitrary metadata values into the string map
// Stripe accepts.
func stripeMetadata(metadata map[string]interface{}) map[string]string {
	converted := make(map[string]string, len(metadata))
	for k, v := range metadata {
		converted[k] = fmt.Sprintf("%v", v)
	}
	return converted
}

func (s *StripeProcessor) CreateCustomer(userID uuid.UUID, email string, metadata map[string]interface{}) (string, error) {
	meta := stripeMetadata(metadata)
	meta["user_id"] = userID.String()

	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Metadata: meta,
	}

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	return c.ID, nil
}

// CreatePayment opens a payment intent. Automatic payment methods cover
// cards, Apple Pay and Google Pay through Stripe's Payment Element.
func (s *StripeProcessor) CreatePayment(amountCents int64, currency string, metadata map[string]interface{}) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: stripeMetadata(metadata),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	return pi.ID, pi.ClientSecret, nil
}

func (s *StripeProcessor) GetPaymentStatus(providerPaymentID string) (string, error) {
	pi, err := paymentintent.Get(providerPaymentID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get payment intent: %w", err)
	}

	return string(pi.Status), nil
}

func (s *StripeProcessor) Refund(providerPaymentID string, amountCents *int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerPaymentID),
	}
	if amountCents != nil {
		params.Amount = stripe.Int64(*amountCents)
	}

	_, err := refund.New(params)
	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

// CreateSubscription provisions the product, its recurring price and the
// subscription in one go. Plans are few enough that re-creating the product
// per subscription keeps the account self-contained.
func (s *StripeProcessor) CreateSubscription(customerID string, plan RecurringPlan, metadata map[string]interface{}) (string, string, error) {
	productID, err := s.createProduct(plan)
	if err != nil {
		return "", "", err
	}

	priceID, err := s.createPrice(productID, plan)
	if err != nil {
		return "", "", err
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				Price: stripe.String(priceID),
			},
		},
		Metadata:        stripeMetadata(metadata),
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
		// Expand the latest invoice to surface the client secret for the
		// first payment.
		Expand: []*string{
			stripe.String("latest_invoice.payment_intent"),
		},
	}

	sub, err := subscription.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create subscription: %w", err)
	}

	clientSecret := ""
	if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret.ClientSecret != "" {
		clientSecret = sub.LatestInvoice.ConfirmationSecret.ClientSecret
	}

	return sub.ID, clientSecret, nil
}

func (s *StripeProcessor) createProduct(plan RecurringPlan) (string, error) {
	params := &stripe.ProductParams{
		Name:        stripe.String(plan.Name),
		Description: stripe.String(plan.Description),
		Metadata: map[string]string{
			"plan_id": string(plan.PlanID),
		},
	}

	p, err := product.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	return p.ID, nil
}

func (s *StripeProcessor) createPrice(productID string, plan RecurringPlan) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		UnitAmount: stripe.Int64(plan.AmountCents),
		Currency:   stripe.String(plan.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(plan.Interval),
		},
	}

	p, err := price.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create price: %w", err)
	}

	return p.ID, nil
}

// CancelSubscription cancels immediately. Plan access is cut at cancellation
// time, there is no run-out period.
func (s *StripeProcessor) CancelSubscription(providerSubscriptionID string) error {
	_, err := subscription.Cancel(providerSubscriptionID, nil)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	return nil
}
