package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// MockSubscriptionRepo is a mock implementation of the SubscriptionRepo interface
type MockSubscriptionRepo struct {
	mock.Mock
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) GetByDealershipID(ctx context.Context, dealershipID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) Update(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepo) UpdateStatus(ctx context.Context, dealershipID uuid.UUID, status models.SubscriptionStatus) error {
	args := m.Called(ctx, dealershipID, status)
	return args.Error(0)
}

func TestCreateTrial(t *testing.T) {
	mockRepo := new(MockSubscriptionRepo)
	logger := zap.NewNop()
	service := NewSubscriptionService(mockRepo, logger)

	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		dealershipID := uuid.New()

		var created *models.Subscription
		// Use mock.Anything for context since the service adds tracing context
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Subscription")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*models.Subscription)
			}).
			Return(&models.Subscription{DealershipID: dealershipID}, nil).Once()

		_, err := service.CreateTrial(ctx, dealershipID)

		assert.NoError(t, err)
		assert.Equal(t, models.PlanTrial, created.PlanID)
		assert.Equal(t, models.SubscriptionTrial, created.Status)
		assert.Equal(t, float64(0), created.Amount)
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 14), created.TrialEnd, 5*time.Second)
		assert.Equal(t, 30*24*time.Hour, created.CurrentPeriodEnd.Sub(created.CurrentPeriodStart))
		mockRepo.AssertExpectations(t)
	})

	t.Run("AlreadyExists", func(t *testing.T) {
		ctx := context.Background()
		dealershipID := uuid.New()

		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Subscription")).
			Return(nil, models.ErrConflict).Once()

		sub, err := service.CreateTrial(ctx, dealershipID)

		assert.Error(t, err)
		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestUpgrade(t *testing.T) {
	t.Run("TrialPlanRejected", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()

		sub, err := service.Upgrade(ctx, uuid.New(), &models.UpgradeRequest{Plan: models.PlanTrial})

		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrInvalidPlan)
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("UnknownPlanRejected", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()

		sub, err := service.Upgrade(ctx, uuid.New(), &models.UpgradeRequest{Plan: "platinum"})

		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrInvalidPlan)
	})

	t.Run("MissingSubscription", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		sub, err := service.Upgrade(ctx, dealershipID, &models.UpgradeRequest{Plan: models.PlanStarter})

		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("YearlyEnterprise", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		existing := &models.Subscription{
			DealershipID: dealershipID,
			PlanID:       models.PlanTrial,
			Status:       models.SubscriptionTrial,
			TrialEnd:     time.Now().UTC().AddDate(0, 0, 7),
		}

		var updated *models.Subscription
		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).Return(existing, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Subscription")).
			Run(func(args mock.Arguments) {
				updated = args.Get(1).(*models.Subscription)
			}).
			Return(existing, nil).Once()

		_, err := service.Upgrade(ctx, dealershipID, &models.UpgradeRequest{
			Plan:         models.PlanEnterprise,
			BillingCycle: models.BillingYearly,
		})

		assert.NoError(t, err)
		assert.Equal(t, models.PlanEnterprise, updated.PlanID)
		assert.Equal(t, models.SubscriptionActive, updated.Status)
		assert.Equal(t, 5970.0, updated.Amount)
		assert.Equal(t, 365*24*time.Hour, updated.CurrentPeriodEnd.Sub(updated.CurrentPeriodStart))
		mockRepo.AssertExpectations(t)
	})

	t.Run("MonthlyIsTheDefaultCycle", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		existing := &models.Subscription{
			DealershipID: dealershipID,
			PlanID:       models.PlanTrial,
			Status:       models.SubscriptionTrial,
		}

		var updated *models.Subscription
		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).Return(existing, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Subscription")).
			Run(func(args mock.Arguments) {
				updated = args.Get(1).(*models.Subscription)
			}).
			Return(existing, nil).Once()

		_, err := service.Upgrade(ctx, dealershipID, &models.UpgradeRequest{Plan: models.PlanStarter})

		assert.NoError(t, err)
		assert.Equal(t, models.BillingMonthly, updated.BillingCycle)
		assert.Equal(t, 197.0, updated.Amount)
		assert.Equal(t, 30*24*time.Hour, updated.CurrentPeriodEnd.Sub(updated.CurrentPeriodStart))
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownBillingCycle", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()

		sub, err := service.Upgrade(ctx, uuid.New(), &models.UpgradeRequest{
			Plan:         models.PlanStarter,
			BillingCycle: "weekly",
		})

		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestCancel(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()
		periodEnd := time.Now().UTC().AddDate(0, 0, 20)

		existing := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanStarter,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: periodEnd,
		}

		var updated *models.Subscription
		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).Return(existing, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Subscription")).
			Run(func(args mock.Arguments) {
				updated = args.Get(1).(*models.Subscription)
			}).
			Return(existing, nil).Once()

		_, err := service.Cancel(ctx, dealershipID)

		assert.NoError(t, err)
		assert.Equal(t, models.SubscriptionCancelled, updated.Status)
		// Period end is kept for record keeping, access still ends now.
		assert.Equal(t, periodEnd, updated.CurrentPeriodEnd)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingSubscription", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		sub, err := service.Cancel(ctx, dealershipID)

		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}

func TestActivateFromPayment(t *testing.T) {
	t.Run("ActivatesAndResetsPeriod", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		existing := &models.Subscription{
			DealershipID: dealershipID,
			PlanID:       models.PlanStarter,
			Status:       models.SubscriptionPastDue,
		}

		var updated *models.Subscription
		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).Return(existing, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Subscription")).
			Run(func(args mock.Arguments) {
				updated = args.Get(1).(*models.Subscription)
			}).
			Return(existing, nil).Once()

		_, err := service.ActivateFromPayment(ctx, dealershipID, models.PlanProfessional, models.BillingMonthly)

		assert.NoError(t, err)
		assert.Equal(t, models.SubscriptionActive, updated.Status)
		assert.Equal(t, models.PlanProfessional, updated.PlanID)
		assert.Equal(t, 397.0, updated.Amount)
		assert.WithinDuration(t, time.Now().UTC(), updated.CurrentPeriodStart, 5*time.Second)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownPlan", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		sub, err := service.ActivateFromPayment(context.Background(), uuid.New(), "platinum", models.BillingMonthly)

		assert.Nil(t, sub)
		assert.ErrorIs(t, err, models.ErrInvalidPlan)
	})
}

func TestMarkPastDue(t *testing.T) {
	mockRepo := new(MockSubscriptionRepo)
	service := NewSubscriptionService(mockRepo, zap.NewNop())
	ctx := context.Background()
	dealershipID := uuid.New()

	mockRepo.On("UpdateStatus", ctx, dealershipID, models.SubscriptionPastDue).Return(nil).Once()

	err := service.MarkPastDue(ctx, dealershipID)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAttachBillingProvider(t *testing.T) {
	mockRepo := new(MockSubscriptionRepo)
	service := NewSubscriptionService(mockRepo, zap.NewNop())
	ctx := context.Background()
	dealershipID := uuid.New()

	existing := &models.Subscription{
		DealershipID: dealershipID,
		PlanID:       models.PlanStarter,
		Status:       models.SubscriptionActive,
	}

	var updated *models.Subscription
	mockRepo.On("GetByDealershipID", ctx, dealershipID).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, mock.AnythingOfType("*models.Subscription")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*models.Subscription)
		}).
		Return(existing, nil).Once()

	err := service.AttachBillingProvider(ctx, dealershipID, "stripe", "cus_123", "sub_456")

	assert.NoError(t, err)
	assert.Equal(t, "stripe", updated.Provider)
	assert.Equal(t, "cus_123", updated.ProviderCustomerID)
	assert.Equal(t, "sub_456", updated.ProviderSubID)
	mockRepo.AssertExpectations(t)
}

func TestCheckFeatureAccess(t *testing.T) {
	t.Run("NoSubscriptionMeansNoAccess", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		mockRepo.On("GetByDealershipID", ctx, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		allowed, err := service.CheckFeatureAccess(ctx, dealershipID, models.FeatureWebsiteScraping)

		assert.NoError(t, err)
		assert.False(t, allowed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ActiveSubscription", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		sub := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanEnterprise,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: time.Now().UTC().AddDate(0, 0, 20),
		}
		mockRepo.On("GetByDealershipID", ctx, dealershipID).Return(sub, nil).Once()

		allowed, err := service.CheckFeatureAccess(ctx, dealershipID, models.FeatureYoutube)

		assert.NoError(t, err)
		assert.True(t, allowed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("SecondReadServedFromCache", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		sub := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanStarter,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: time.Now().UTC().AddDate(0, 0, 20),
		}
		// A single repository read must serve both checks.
		mockRepo.On("GetByDealershipID", ctx, dealershipID).Return(sub, nil).Once()

		first, err := service.CheckFeatureAccess(ctx, dealershipID, models.FeatureAutomation)
		assert.NoError(t, err)
		second, err := service.CheckFeatureAccess(ctx, dealershipID, models.FeatureAnalytics)
		assert.NoError(t, err)

		assert.True(t, first)
		assert.True(t, second)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MutationInvalidatesCache", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		active := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanStarter,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: time.Now().UTC().AddDate(0, 0, 20),
		}
		cancelled := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanStarter,
			Status:           models.SubscriptionCancelled,
			CurrentPeriodEnd: active.CurrentPeriodEnd,
		}

		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).Return(active, nil).Twice()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Subscription")).Return(cancelled, nil).Once()
		mockRepo.On("GetByDealershipID", mock.Anything, dealershipID).Return(cancelled, nil).Once()

		allowed, err := service.CheckFeatureAccess(ctx, dealershipID, models.FeatureAutomation)
		assert.NoError(t, err)
		assert.True(t, allowed)

		_, err = service.Cancel(ctx, dealershipID)
		assert.NoError(t, err)

		allowed, err = service.CheckFeatureAccess(ctx, dealershipID, models.FeatureAutomation)
		assert.NoError(t, err)
		assert.False(t, allowed)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()
		expectedError := errors.New("database error")

		mockRepo.On("GetByDealershipID", ctx, dealershipID).Return(nil, expectedError).Once()

		allowed, err := service.CheckFeatureAccess(ctx, dealershipID, models.FeatureAutomation)

		assert.Error(t, err)
		assert.False(t, allowed)
		assert.Contains(t, err.Error(), expectedError.Error())
		mockRepo.AssertExpectations(t)
	})
}

func TestPlatformAccess(t *testing.T) {
	t.Run("DefaultsWhenMissing", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		mockRepo.On("GetByDealershipID", ctx, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		platforms, err := service.PlatformAccess(ctx, dealershipID)

		assert.NoError(t, err)
		assert.Equal(t, []string{"facebook", "instagram"}, platforms)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ActiveProfessional", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		sub := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanProfessional,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: time.Now().UTC().AddDate(0, 0, 20),
		}
		mockRepo.On("GetByDealershipID", ctx, dealershipID).Return(sub, nil).Once()

		platforms, err := service.PlatformAccess(ctx, dealershipID)

		assert.NoError(t, err)
		assert.Len(t, platforms, 5)
		assert.NotContains(t, platforms, "youtube")
		mockRepo.AssertExpectations(t)
	})
}

func TestFeatureSummary(t *testing.T) {
	t.Run("ActiveProfessional", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		sub := &models.Subscription{
			DealershipID:     dealershipID,
			PlanID:           models.PlanProfessional,
			Status:           models.SubscriptionActive,
			CurrentPeriodEnd: time.Now().UTC().AddDate(0, 0, 20).Add(12 * time.Hour),
		}
		mockRepo.On("GetByDealershipID", ctx, dealershipID).Return(sub, nil).Once()

		summary, err := service.FeatureSummary(ctx, dealershipID)

		assert.NoError(t, err)
		assert.True(t, summary.IsActive)
		assert.Equal(t, models.PlanProfessional, summary.PlanID)
		assert.Equal(t, int64(1000), summary.MaxPostsPerMonth)
		assert.Equal(t, int64(2000), summary.MaxImages)
		assert.True(t, summary.Automation)
		assert.True(t, summary.Analytics)
		assert.Len(t, summary.Platforms, 5)
		assert.Equal(t, 20, summary.DaysUntilRenewal)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingSubscription", func(t *testing.T) {
		mockRepo := new(MockSubscriptionRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())
		ctx := context.Background()
		dealershipID := uuid.New()

		mockRepo.On("GetByDealershipID", ctx, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		summary, err := service.FeatureSummary(ctx, dealershipID)

		assert.Nil(t, summary)
		assert.ErrorIs(t, err, models.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})
}
