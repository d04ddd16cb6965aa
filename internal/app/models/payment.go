package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle of a single charge.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is one charge attempt against a subscription.
type Payment struct {
	ID                uuid.UUID     `json:"id" db:"id"`
	DealershipID      uuid.UUID     `json:"dealership_id" db:"dealership_id"`
	SubscriptionID    uuid.UUID     `json:"subscription_id" db:"subscription_id"`
	Provider          string        `json:"provider" db:"provider"`
	ProviderPaymentID string        `json:"provider_payment_id,omitempty" db:"provider_payment_id"`
	PlanID            PlanID        `json:"plan_id,omitempty" db:"plan_id"`
	BillingCycle      BillingCycle  `json:"billing_cycle,omitempty" db:"billing_cycle"`
	Amount            float64       `json:"amount" db:"amount"`
	Currency          string        `json:"currency" db:"currency"`
	Status            PaymentStatus `json:"status" db:"status"`
	Description       string        `json:"description,omitempty" db:"description"`
	FailureReason     string        `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	ProcessedAt       *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
}

// CheckoutRequest starts a payment for a plan upgrade.
type CheckoutRequest struct {
	Plan         PlanID       `json:"plan" binding:"required"`
	BillingCycle BillingCycle `json:"billing_cycle"`
}

// CheckoutResponse returns the provider handle the frontend completes
// payment with.
type CheckoutResponse struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ProviderID   string    `json:"provider_payment_id"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
}

// Webhook event types the payments service understands. Anything else is
// acknowledged and ignored.
const (
	WebhookPaymentSucceeded      = "payment.succeeded"
	WebhookPaymentFailed         = "payment.failed"
	WebhookSubscriptionCancelled = "subscription.cancelled"
)

// WebhookEvent is the normalized provider callback payload.
type WebhookEvent struct {
	Type              string    `json:"type" binding:"required"`
	DealershipID      uuid.UUID `json:"dealership_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Reason            string    `json:"reason,omitempty"`
}
