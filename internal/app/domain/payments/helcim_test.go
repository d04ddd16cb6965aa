package payments

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

func TestHelcimProcessor(t *testing.T) {
	proc := NewHelcimProcessor(zap.NewNop())

	t.Run("IssuesPrefixedIdentifiers", func(t *testing.T) {
		customerID, err := proc.CreateCustomer(uuid.New(), "owner@smithmotors.example", nil)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(customerID, "hlc_cus_"))

		paymentID, secret, err := proc.CreatePayment(19700, "USD", nil)
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(paymentID, "hlc_pay_"))
		assert.Equal(t, paymentID+"_secret", secret)

		otherID, _, err := proc.CreatePayment(19700, "USD", nil)
		assert.NoError(t, err)
		assert.NotEqual(t, paymentID, otherID)
	})

	t.Run("RejectsNonPositiveAmounts", func(t *testing.T) {
		_, _, err := proc.CreatePayment(0, "USD", nil)
		assert.Error(t, err)

		_, _, err = proc.CreateSubscription("hlc_cus_x", RecurringPlan{
			PlanID:      models.PlanStarter,
			AmountCents: -100,
			Currency:    "USD",
			Interval:    "month",
		}, nil)
		assert.Error(t, err)
	})

	t.Run("ReportsPaymentsCompleted", func(t *testing.T) {
		status, err := proc.GetPaymentStatus("hlc_pay_known")
		assert.NoError(t, err)
		assert.Equal(t, "completed", status)

		_, err = proc.GetPaymentStatus("pi_stripe_id")
		assert.Error(t, err)
	})

	t.Run("RefundsAndCancelsItsOwnIDsOnly", func(t *testing.T) {
		assert.NoError(t, proc.Refund("hlc_pay_known", nil))
		assert.Error(t, proc.Refund("unknown", nil))

		assert.NoError(t, proc.CancelSubscription("hlc_sub_known"))
		assert.Error(t, proc.CancelSubscription("sub_stripe"))
	})
}
