package scraping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// MockScrapeRepo is a mock implementation of the ScrapeRepo interface
type MockScrapeRepo struct {
	mock.Mock
}

func (m *MockScrapeRepo) UpsertConfig(ctx context.Context, cfg *models.ScrapeConfig) (*models.ScrapeConfig, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeConfig), args.Error(1)
}

func (m *MockScrapeRepo) GetConfig(ctx context.Context, dealershipID uuid.UUID) (*models.ScrapeConfig, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeConfig), args.Error(1)
}

func (m *MockScrapeRepo) UpdateRunOutcome(ctx context.Context, dealershipID uuid.UUID, status models.ScrapeStatus, lastError string, lastSyncAt, nextSyncAt time.Time) error {
	args := m.Called(ctx, dealershipID, status, lastError, lastSyncAt, nextSyncAt)
	return args.Error(0)
}

func (m *MockScrapeRepo) UpdateSchedule(ctx context.Context, dealershipID uuid.UUID, frequency models.ScheduleFrequency, isActive *bool, nextSyncAt time.Time) (*models.ScrapeConfig, error) {
	args := m.Called(ctx, dealershipID, frequency, isActive, nextSyncAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeConfig), args.Error(1)
}

func (m *MockScrapeRepo) ListDue(ctx context.Context, now time.Time) ([]models.ScrapeConfig, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScrapeConfig), args.Error(1)
}

func (m *MockScrapeRepo) RecordRun(ctx context.Context, dealershipID uuid.UUID, result *models.ScrapeResult, startedAt time.Time) error {
	args := m.Called(ctx, dealershipID, result, startedAt)
	return args.Error(0)
}

// MockFeatureChecker is a mock implementation of the FeatureChecker interface
type MockFeatureChecker struct {
	mock.Mock
}

func (m *MockFeatureChecker) CheckFeatureAccess(ctx context.Context, dealershipID uuid.UUID, feature models.Feature) (bool, error) {
	args := m.Called(ctx, dealershipID, feature)
	return args.Bool(0), args.Error(1)
}

// MockPlatformDetection is a mock implementation of the PlatformDetection interface
type MockPlatformDetection struct {
	mock.Mock
}

func (m *MockPlatformDetection) Detect(ctx context.Context, rawURL string) models.WebsitePlatform {
	args := m.Called(ctx, rawURL)
	return args.Get(0).(models.WebsitePlatform)
}

// MockSiteScraper is a mock implementation of the SiteScraper interface
type MockSiteScraper struct {
	mock.Mock
}

func (m *MockSiteScraper) Run(ctx context.Context, dealershipID uuid.UUID, websiteURL string, maxVehicles int) models.ScrapeResult {
	args := m.Called(ctx, dealershipID, websiteURL, maxVehicles)
	return args.Get(0).(models.ScrapeResult)
}

func newServiceUnderTest(repo ScrapeRepo, features FeatureChecker, detector PlatformDetection, orchestrator SiteScraper) *ScrapingServiceImpl {
	return NewScrapingService(repo, features, detector, orchestrator, testScraperCfg(), zap.NewNop())
}

func TestSetupScraping(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		mockDetector := new(MockPlatformDetection)
		service := newServiceUnderTest(mockRepo, nil, mockDetector, nil)
		ctx := context.Background()
		dealershipID := uuid.New()

		mockDetector.On("Detect", mock.Anything, "https://smith-motors.example.com").
			Return(models.PlatformWordpress).Once()

		var upserted *models.ScrapeConfig
		mockRepo.On("UpsertConfig", mock.Anything, mock.AnythingOfType("*models.ScrapeConfig")).
			Run(func(args mock.Arguments) {
				upserted = args.Get(1).(*models.ScrapeConfig)
			}).
			Return(&models.ScrapeConfig{DealershipID: dealershipID, Status: models.ScrapeConfigured}, nil).Once()

		cfg, err := service.SetupScraping(ctx, dealershipID, "https://smith-motors.example.com")

		require.NoError(t, err)
		assert.Equal(t, models.ScrapeConfigured, cfg.Status)
		assert.Equal(t, models.PlatformWordpress, upserted.DetectedPlatform)
		assert.Equal(t, models.ScheduleWeekly, upserted.ScheduleFrequency)
		assert.True(t, upserted.IsActive)
		require.NotNil(t, upserted.NextSyncAt)
		assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), *upserted.NextSyncAt, 5*time.Second)
		mockRepo.AssertExpectations(t)
		mockDetector.AssertExpectations(t)
	})

	t.Run("RejectsInvalidURL", func(t *testing.T) {
		for _, bad := range []string{"", "not a url", "ftp://dealer.example.com", "dealer.example.com", "https://"} {
			mockRepo := new(MockScrapeRepo)
			service := newServiceUnderTest(mockRepo, nil, new(MockPlatformDetection), nil)

			cfg, err := service.SetupScraping(context.Background(), uuid.New(), bad)

			assert.Nil(t, cfg, "url %q", bad)
			assert.ErrorIs(t, err, models.ErrValidation, "url %q", bad)
			mockRepo.AssertNotCalled(t, "UpsertConfig", mock.Anything, mock.Anything)
		}
	})
}

func TestRunScrape(t *testing.T) {
	dealershipID := uuid.New()
	storedCfg := &models.ScrapeConfig{
		DealershipID:      dealershipID,
		WebsiteURL:        "https://smith-motors.example.com",
		ScheduleFrequency: models.ScheduleDaily,
		MaxVehicles:       25,
	}

	t.Run("FeatureDenied", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		mockFeatures := new(MockFeatureChecker)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, nil)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureWebsiteScraping).
			Return(false, nil).Once()

		result, err := service.RunScrape(context.Background(), dealershipID, 0)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, models.ErrForbidden)
		mockRepo.AssertNotCalled(t, "GetConfig", mock.Anything, mock.Anything)
	})

	t.Run("NotConfigured", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		mockFeatures := new(MockFeatureChecker)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, nil)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureWebsiteScraping).
			Return(true, nil).Once()
		mockRepo.On("GetConfig", mock.Anything, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		result, err := service.RunScrape(context.Background(), dealershipID, 0)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("SuccessUsesConfiguredCap", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		mockFeatures := new(MockFeatureChecker)
		mockScraper := new(MockSiteScraper)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, mockScraper)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureWebsiteScraping).
			Return(true, nil).Once()
		mockRepo.On("GetConfig", mock.Anything, dealershipID).Return(storedCfg, nil).Once()
		mockScraper.On("Run", mock.Anything, dealershipID, storedCfg.WebsiteURL, 25).
			Return(models.ScrapeResult{ScrapedCount: 7, DetectedPlatform: models.PlatformWordpress}).Once()
		mockRepo.On("RecordRun", mock.Anything, dealershipID, mock.AnythingOfType("*models.ScrapeResult"), mock.Anything).
			Return(nil).Once()
		mockRepo.On("UpdateRunOutcome", mock.Anything, dealershipID, models.ScrapeConfigured, "", mock.Anything, mock.Anything).
			Return(nil).Once()

		result, err := service.RunScrape(context.Background(), dealershipID, 0)

		require.NoError(t, err)
		assert.Equal(t, 7, result.ScrapedCount)
		mockScraper.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("FullFailureFlagsConfig", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		mockFeatures := new(MockFeatureChecker)
		mockScraper := new(MockSiteScraper)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, mockScraper)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureWebsiteScraping).
			Return(true, nil).Once()
		mockRepo.On("GetConfig", mock.Anything, dealershipID).Return(storedCfg, nil).Once()
		mockScraper.On("Run", mock.Anything, dealershipID, storedCfg.WebsiteURL, 10).
			Return(models.ScrapeResult{
				ErrorCount:       1,
				Errors:           []string{"Page scraping error for https://smith-motors.example.com: status 503"},
				DetectedPlatform: models.PlatformUnknown,
			}).Once()
		mockRepo.On("RecordRun", mock.Anything, dealershipID, mock.Anything, mock.Anything).Return(nil).Once()

		var nextSync time.Time
		mockRepo.On("UpdateRunOutcome", mock.Anything, dealershipID, models.ScrapeError,
			"Page scraping error for https://smith-motors.example.com: status 503", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				nextSync = args.Get(5).(time.Time)
			}).
			Return(nil).Once()

		result, err := service.RunScrape(context.Background(), dealershipID, 10)

		require.NoError(t, err)
		assert.Equal(t, 0, result.ScrapedCount)
		assert.Equal(t, 1, result.ErrorCount)
		// Daily cadence: next sync lands a day out even after a failed run.
		assert.WithinDuration(t, time.Now().UTC().Add(24*time.Hour), nextSync, 5*time.Second)
		mockRepo.AssertExpectations(t)
	})
}

func TestUpdateSchedule(t *testing.T) {
	dealershipID := uuid.New()

	t.Run("UnknownFrequencyFallsBackToWeekly", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		service := newServiceUnderTest(mockRepo, nil, nil, nil)

		mockRepo.On("UpdateSchedule", mock.Anything, dealershipID, models.ScheduleWeekly, (*bool)(nil), mock.Anything).
			Return(&models.ScrapeConfig{ScheduleFrequency: models.ScheduleWeekly, IsActive: true}, nil).Once()

		cfg, err := service.UpdateSchedule(context.Background(), dealershipID, &models.UpdateScheduleRequest{Frequency: "hourly"})

		require.NoError(t, err)
		assert.Equal(t, models.ScheduleWeekly, cfg.ScheduleFrequency)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MonthlyCadence", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		service := newServiceUnderTest(mockRepo, nil, nil, nil)
		active := false

		var nextSync time.Time
		mockRepo.On("UpdateSchedule", mock.Anything, dealershipID, models.ScheduleMonthly, &active, mock.Anything).
			Run(func(args mock.Arguments) {
				nextSync = args.Get(4).(time.Time)
			}).
			Return(&models.ScrapeConfig{ScheduleFrequency: models.ScheduleMonthly, IsActive: false}, nil).Once()

		cfg, err := service.UpdateSchedule(context.Background(), dealershipID, &models.UpdateScheduleRequest{
			Frequency: models.ScheduleMonthly,
			IsActive:  &active,
		})

		require.NoError(t, err)
		assert.False(t, cfg.IsActive)
		assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), nextSync, 5*time.Second)
		mockRepo.AssertExpectations(t)
	})
}

func TestSchedulerRunDue(t *testing.T) {
	t.Run("RunsEveryDueTenant", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		first := uuid.New()
		second := uuid.New()

		mockRepo.On("ListDue", mock.Anything, mock.Anything).Return([]models.ScrapeConfig{
			{DealershipID: first, MaxVehicles: 10},
			{DealershipID: second, MaxVehicles: 20},
		}, nil).Once()

		runner := new(mockScrapeRunner)
		runner.On("RunScrape", mock.Anything, first, 10).
			Return(&models.ScrapeResult{ScrapedCount: 1}, nil).Once()
		// One gated tenant must not stop the others.
		runner.On("RunScrape", mock.Anything, second, 20).
			Return(nil, models.ErrForbidden).Once()

		scheduler := NewScheduler(mockRepo, runner, zap.NewNop())
		scheduler.RunDue(context.Background())

		runner.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NothingDue", func(t *testing.T) {
		mockRepo := new(MockScrapeRepo)
		mockRepo.On("ListDue", mock.Anything, mock.Anything).Return([]models.ScrapeConfig{}, nil).Once()

		runner := new(mockScrapeRunner)
		scheduler := NewScheduler(mockRepo, runner, zap.NewNop())
		scheduler.RunDue(context.Background())

		runner.AssertNotCalled(t, "RunScrape", mock.Anything, mock.Anything, mock.Anything)
	})
}

// mockScrapeRunner stubs the full ScrapingService for scheduler tests; only
// RunScrape matters there.
type mockScrapeRunner struct {
	mock.Mock
}

func (m *mockScrapeRunner) SetupScraping(ctx context.Context, dealershipID uuid.UUID, websiteURL string) (*models.ScrapeConfig, error) {
	args := m.Called(ctx, dealershipID, websiteURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeConfig), args.Error(1)
}

func (m *mockScrapeRunner) RunScrape(ctx context.Context, dealershipID uuid.UUID, maxVehicles int) (*models.ScrapeResult, error) {
	args := m.Called(ctx, dealershipID, maxVehicles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeResult), args.Error(1)
}

func (m *mockScrapeRunner) GetScrapeStatus(ctx context.Context, dealershipID uuid.UUID) (*models.ScrapeConfig, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeConfig), args.Error(1)
}

func (m *mockScrapeRunner) UpdateSchedule(ctx context.Context, dealershipID uuid.UUID, req *models.UpdateScheduleRequest) (*models.ScrapeConfig, error) {
	args := m.Called(ctx, dealershipID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScrapeConfig), args.Error(1)
}
