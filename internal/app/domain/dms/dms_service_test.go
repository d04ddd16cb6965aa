package dms

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

// MockDMSRepo is a mock implementation of the DMSRepo interface
type MockDMSRepo struct {
	mock.Mock
}

func (m *MockDMSRepo) UpsertConnection(ctx context.Context, dealershipID uuid.UUID, provider models.DMSProvider) (*models.DMSConnection, error) {
	args := m.Called(ctx, dealershipID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DMSConnection), args.Error(1)
}

func (m *MockDMSRepo) GetConnection(ctx context.Context, dealershipID uuid.UUID) (*models.DMSConnection, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DMSConnection), args.Error(1)
}

func (m *MockDMSRepo) RecordSync(ctx context.Context, dealershipID uuid.UUID, syncedAt time.Time, vehicleCount int) error {
	args := m.Called(ctx, dealershipID, syncedAt, vehicleCount)
	return args.Error(0)
}

func (m *MockDMSRepo) UpdateStatus(ctx context.Context, dealershipID uuid.UUID, status models.DMSConnectionStatus) error {
	args := m.Called(ctx, dealershipID, status)
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

// MockVehicleUpserter is a mock implementation of the VehicleUpserter interface
type MockVehicleUpserter struct {
	mock.Mock
}

func (m *MockVehicleUpserter) Upsert(ctx context.Context, dealershipID uuid.UUID, incoming *models.Vehicle) (*models.Vehicle, bool, error) {
	args := m.Called(ctx, dealershipID, incoming)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Vehicle), args.Bool(1), args.Error(2)
}

// MockImageIngestor is a mock implementation of the ImageIngestor interface
type MockImageIngestor struct {
	mock.Mock
}

func (m *MockImageIngestor) IngestListing(ctx context.Context, dealershipID uuid.UUID, listing models.VehicleListing) (int, []string, error) {
	args := m.Called(ctx, dealershipID, listing)
	var errs []string
	if args.Get(1) != nil {
		errs = args.Get(1).([]string)
	}
	return args.Int(0), errs, args.Error(2)
}

func newServiceUnderTest(repo DMSRepo, features FeatureChecker, inventory VehicleUpserter, ingestor ImageIngestor) *DMSServiceImpl {
	return NewDMSService(repo, features, inventory, ingestor, zap.NewNop())
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		mockFeatures := new(MockFeatureChecker)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, nil)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureDMSIntegration).
			Return(true, nil).Once()
		mockRepo.On("UpsertConnection", mock.Anything, dealershipID, models.DMSCDK).
			Return(&models.DMSConnection{
				DealershipID: dealershipID,
				Provider:     models.DMSCDK,
				Status:       models.DMSConnected,
			}, nil).Once()

		conn, err := service.Connect(ctx, dealershipID, models.DMSCDK)

		require.NoError(t, err)
		assert.Equal(t, models.DMSConnected, conn.Status)
		mockRepo.AssertExpectations(t)
		mockFeatures.AssertExpectations(t)
	})

	t.Run("GatedForTrial", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		mockFeatures := new(MockFeatureChecker)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, nil)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureDMSIntegration).
			Return(false, nil).Once()

		_, err := service.Connect(ctx, dealershipID, models.DMSDealerSocket)

		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrForbidden)
		mockRepo.AssertNotCalled(t, "UpsertConnection", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		mockFeatures := new(MockFeatureChecker)
		service := newServiceUnderTest(mockRepo, mockFeatures, nil, nil)

		mockFeatures.On("CheckFeatureAccess", mock.Anything, dealershipID, models.FeatureDMSIntegration).
			Return(true, nil).Once()

		_, err := service.Connect(ctx, dealershipID, models.DMSProvider("homegrown"))

		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrBadRequest)
		mockRepo.AssertNotCalled(t, "UpsertConnection", mock.Anything, mock.Anything, mock.Anything)
	})
}

func connectedTo(dealershipID uuid.UUID, provider models.DMSProvider) *models.DMSConnection {
	return &models.DMSConnection{
		ID:           uuid.New(),
		DealershipID: dealershipID,
		Provider:     provider,
		Status:       models.DMSConnected,
	}
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("FeedLandsInInventoryAndImages", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		mockInventory := new(MockVehicleUpserter)
		mockIngestor := new(MockImageIngestor)
		service := newServiceUnderTest(mockRepo, nil, mockInventory, mockIngestor)

		mockRepo.On("GetConnection", mock.Anything, dealershipID).
			Return(connectedTo(dealershipID, models.DMSDealerSocket), nil).Once()

		var upserted []*models.Vehicle
		mockInventory.On("Upsert", mock.Anything, dealershipID, mock.Anything).
			Run(func(args mock.Arguments) {
				upserted = append(upserted, args.Get(2).(*models.Vehicle))
			}).
			Return(&models.Vehicle{ID: uuid.New()}, true, nil).Once()
		mockInventory.On("Upsert", mock.Anything, dealershipID, mock.Anything).
			Run(func(args mock.Arguments) {
				upserted = append(upserted, args.Get(2).(*models.Vehicle))
			}).
			Return(&models.Vehicle{ID: uuid.New()}, false, nil).Once()

		var listings []models.VehicleListing
		mockIngestor.On("IngestListing", mock.Anything, dealershipID, mock.Anything).
			Run(func(args mock.Arguments) {
				listings = append(listings, args.Get(2).(models.VehicleListing))
			}).
			Return(2, nil, nil)

		mockRepo.On("RecordSync", mock.Anything, dealershipID, mock.Anything, 2).
			Return(nil).Once()

		result, err := service.Sync(ctx, dealershipID)

		require.NoError(t, err)
		assert.Equal(t, models.DMSDealerSocket, result.Provider)
		assert.Equal(t, 2, result.VehiclesSeen)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, 1, result.Updated)
		assert.Empty(t, result.Errors)

		require.Len(t, upserted, 2)
		assert.Equal(t, "1HGBH41JXMN109186", upserted[0].VIN)
		assert.Equal(t, "A12345", upserted[0].StockNumber)
		assert.Equal(t, "LX", upserted[0].Trim)
		assert.Equal(t, "Silver", upserted[0].ExteriorColor)
		assert.Equal(t, models.SourceDMS, upserted[0].Source)
		assert.Equal(t, models.VehicleAvailable, upserted[0].Status)
		assert.Equal(t, int64(22995), upserted[0].Price)
		assert.Equal(t, "2T1BURHE0JC123456", upserted[1].VIN)

		require.Len(t, listings, 2)
		assert.Len(t, listings[0].ImageURLs, 3)
		assert.Len(t, listings[1].ImageURLs, 2)
		assert.Equal(t, "A12345", listings[0].StockNumber)

		mockRepo.AssertExpectations(t)
		mockInventory.AssertExpectations(t)
	})

	t.Run("RequiresConnection", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		service := newServiceUnderTest(mockRepo, nil, nil, nil)

		mockRepo.On("GetConnection", mock.Anything, dealershipID).
			Return(nil, models.ErrNotFound).Once()

		_, err := service.Sync(ctx, dealershipID)

		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("RejectsDisconnected", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		service := newServiceUnderTest(mockRepo, nil, nil, nil)

		conn := connectedTo(dealershipID, models.DMSCDK)
		conn.Status = models.DMSDisconnected
		mockRepo.On("GetConnection", mock.Anything, dealershipID).Return(conn, nil).Once()

		_, err := service.Sync(ctx, dealershipID)

		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	t.Run("AllRecordsFailingFlagsConnection", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		mockInventory := new(MockVehicleUpserter)
		mockIngestor := new(MockImageIngestor)
		service := newServiceUnderTest(mockRepo, nil, mockInventory, mockIngestor)

		mockRepo.On("GetConnection", mock.Anything, dealershipID).
			Return(connectedTo(dealershipID, models.DMSReynolds), nil).Once()
		mockInventory.On("Upsert", mock.Anything, dealershipID, mock.Anything).
			Return(nil, false, assert.AnError)
		mockRepo.On("UpdateStatus", mock.Anything, dealershipID, models.DMSError).
			Return(nil).Once()

		result, err := service.Sync(ctx, dealershipID)

		require.NoError(t, err)
		assert.Equal(t, 2, result.VehiclesSeen)
		assert.Zero(t, result.Created)
		assert.Zero(t, result.Updated)
		assert.Len(t, result.Errors, 2)
		assert.Contains(t, result.Errors[0], "Vehicle A12345")

		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "RecordSync", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockIngestor.AssertNotCalled(t, "IngestListing", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ImageErrorsCollectWithoutAborting", func(t *testing.T) {
		dealershipID := uuid.New()
		mockRepo := new(MockDMSRepo)
		mockInventory := new(MockVehicleUpserter)
		mockIngestor := new(MockImageIngestor)
		service := newServiceUnderTest(mockRepo, nil, mockInventory, mockIngestor)

		mockRepo.On("GetConnection", mock.Anything, dealershipID).
			Return(connectedTo(dealershipID, models.DMSAutomate), nil).Once()
		mockInventory.On("Upsert", mock.Anything, dealershipID, mock.Anything).
			Return(&models.Vehicle{ID: uuid.New()}, true, nil)
		mockIngestor.On("IngestListing", mock.Anything, dealershipID, mock.Anything).
			Return(1, []string{"download failed for https://example-dms.com/images/A12345_2.jpg: 404"}, nil).Once()
		mockIngestor.On("IngestListing", mock.Anything, dealershipID, mock.Anything).
			Return(2, nil, nil).Once()
		mockRepo.On("RecordSync", mock.Anything, dealershipID, mock.Anything, 2).
			Return(nil).Once()

		result, err := service.Sync(ctx, dealershipID)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Created)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "download failed")
		mockIngestor.AssertNumberOfCalls(t, "IngestListing", 2)
	})
}

func TestDisconnect(t *testing.T) {
	dealershipID := uuid.New()
	mockRepo := new(MockDMSRepo)
	service := newServiceUnderTest(mockRepo, nil, nil, nil)

	mockRepo.On("UpdateStatus", mock.Anything, dealershipID, models.DMSDisconnected).
		Return(nil).Once()

	err := service.Disconnect(context.Background(), dealershipID)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
