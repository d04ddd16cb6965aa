package images

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresImageRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	repo := NewPostgresImageRepo(mockPool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return mockPool, repo
}

func imageRows(recs ...models.ImageRecord) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "dealership_id", "filename", "original_filename", "file_path",
		"file_size", "mime_type", "width", "height", "source_type", "source_url",
		"vehicle_year", "vehicle_make", "vehicle_model", "vehicle_vin",
		"vehicle_stock_number", "alt_text", "tags", "is_primary", "is_active",
		"created_at", "updated_at",
	})
	for _, rec := range recs {
		rows = rows.AddRow(
			rec.ID, rec.DealershipID, rec.Filename, rec.OriginalFilename, rec.FilePath,
			rec.FileSize, rec.MimeType, rec.Width, rec.Height, rec.SourceType, rec.SourceURL,
			rec.VehicleYear, rec.VehicleMake, rec.VehicleModel, rec.VehicleVIN,
			rec.VehicleStockNum, rec.AltText, rec.Tags, rec.IsPrimary, rec.IsActive,
			rec.CreatedAt, rec.UpdatedAt,
		)
	}
	return rows
}

func sampleRecord(dealershipID uuid.UUID) models.ImageRecord {
	return models.ImageRecord{
		ID:               uuid.New(),
		DealershipID:     dealershipID,
		Filename:         "0f1e2d3c.jpg",
		OriginalFilename: "camry.jpg",
		FilePath:         "uploads/scraped/0f1e2d3c.jpg",
		FileSize:         2048,
		MimeType:         "image/jpeg",
		Width:            1200,
		Height:           800,
		SourceType:       models.ImageSourceScraping,
		SourceURL:        "https://dealer.example.com/photos/camry.jpg",
		VehicleYear:      2022,
		VehicleMake:      "Toyota",
		VehicleModel:     "Camry",
		Tags:             []string{"scraped", "website", "toyota"},
		IsPrimary:        true,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
}

func TestRepoCreate(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID := uuid.New()
	rec := sampleRecord(dealershipID)

	mockPool.ExpectQuery(`INSERT INTO images`).
		WithArgs(rec.DealershipID, rec.Filename, rec.OriginalFilename, rec.FilePath,
			rec.FileSize, rec.MimeType, rec.Width, rec.Height, rec.SourceType,
			rec.SourceURL, rec.VehicleYear, rec.VehicleMake, rec.VehicleModel,
			rec.VehicleVIN, rec.VehicleStockNum, rec.AltText, rec.Tags,
			rec.IsPrimary, rec.IsActive).
		WillReturnRows(imageRows(rec))

	created, err := repo.Create(context.Background(), &rec)

	require.NoError(t, err)
	assert.Equal(t, rec.ID, created.ID)
	assert.Equal(t, rec.Tags, created.Tags)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoCreateDefaultsNilTags(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	rec := sampleRecord(uuid.New())
	rec.Tags = nil
	returned := rec
	returned.Tags = []string{}

	mockPool.ExpectQuery(`INSERT INTO images`).
		WithArgs(rec.DealershipID, rec.Filename, rec.OriginalFilename, rec.FilePath,
			rec.FileSize, rec.MimeType, rec.Width, rec.Height, rec.SourceType,
			rec.SourceURL, rec.VehicleYear, rec.VehicleMake, rec.VehicleModel,
			rec.VehicleVIN, rec.VehicleStockNum, rec.AltText, []string{},
			rec.IsPrimary, rec.IsActive).
		WillReturnRows(imageRows(returned))

	_, err := repo.Create(context.Background(), &rec)

	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoGetByIDNotFound(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	mockPool.ExpectQuery(`FROM images WHERE id = \$1 AND dealership_id = \$2 AND is_active`).
		WithArgs(imageID, dealershipID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), dealershipID, imageID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoListAppliesFilters(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID := uuid.New()
	rec := sampleRecord(dealershipID)

	mockPool.ExpectQuery(`FROM images WHERE dealership_id = \$1 AND is_active = \$2 AND vehicle_make = \$3 ORDER BY created_at DESC LIMIT 25`).
		WithArgs(dealershipID, true, "Toyota").
		WillReturnRows(imageRows(rec))

	records, err := repo.List(context.Background(), dealershipID, &models.ImageFilter{Make: "Toyota", Limit: 25})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoListDefaultsLimit(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID := uuid.New()
	mockPool.ExpectQuery(`ORDER BY created_at DESC LIMIT 50`).
		WithArgs(dealershipID, true).
		WillReturnRows(imageRows())

	records, err := repo.List(context.Background(), dealershipID, nil)

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoSetPrimaryGroupsByVIN(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	target := sampleRecord(dealershipID)
	target.ID = imageID
	target.VehicleVIN = "1HGBH41JXMN109186"

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(`FROM images WHERE id = \$1 AND dealership_id = \$2 AND is_active FOR UPDATE`).
		WithArgs(imageID, dealershipID).
		WillReturnRows(imageRows(target))
	mockPool.ExpectExec(`UPDATE images SET is_primary = \$1`).
		WithArgs(false, dealershipID, true, "1HGBH41JXMN109186").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mockPool.ExpectExec(`UPDATE images SET is_primary = TRUE`).
		WithArgs(imageID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	require.NoError(t, repo.SetPrimary(context.Background(), dealershipID, imageID))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoSetPrimaryFallsBackToYearMakeModel(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	target := sampleRecord(dealershipID)
	target.ID = imageID

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(`FOR UPDATE`).
		WithArgs(imageID, dealershipID).
		WillReturnRows(imageRows(target))
	// No VIN or stock number on the target, so siblings match on
	// year/make/model. squirrel orders map keys alphabetically.
	mockPool.ExpectExec(`UPDATE images SET is_primary = \$1`).
		WithArgs(false, dealershipID, true, "Toyota", "Camry", 2022).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))
	mockPool.ExpectExec(`UPDATE images SET is_primary = TRUE`).
		WithArgs(imageID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	require.NoError(t, repo.SetPrimary(context.Background(), dealershipID, imageID))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoSetPrimaryMissingImage(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	mockPool.ExpectBegin()
	mockPool.ExpectQuery(`FOR UPDATE`).
		WithArgs(imageID, dealershipID).
		WillReturnError(pgx.ErrNoRows)
	mockPool.ExpectRollback()

	err := repo.SetPrimary(context.Background(), dealershipID, imageID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoSoftDelete(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	mockPool.ExpectExec(`UPDATE images SET is_active = FALSE`).
		WithArgs(imageID, dealershipID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SoftDelete(context.Background(), dealershipID, imageID))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoSoftDeleteNotFound(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	mockPool.ExpectExec(`UPDATE images SET is_active = FALSE`).
		WithArgs(imageID, dealershipID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SoftDelete(context.Background(), dealershipID, imageID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoUpdateMetadataCoalesces(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	rec := sampleRecord(dealershipID)
	rec.ID = imageID

	alt := "Updated alt text"
	tags := []string{"hero"}
	update := &models.ImageMetadataUpdate{AltText: &alt, Tags: &tags}

	// Only alt_text and tags carry values; everything else is a NULL
	// parameter that COALESCE ignores.
	mockPool.ExpectQuery(`UPDATE images SET alt_text = COALESCE\(\$3, alt_text\)`).
		WithArgs(imageID, dealershipID, &alt, &tags,
			(*int)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnRows(imageRows(rec))

	updated, err := repo.UpdateMetadata(context.Background(), dealershipID, imageID, update)

	require.NoError(t, err)
	assert.Equal(t, imageID, updated.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepoUpdateMetadataNotFound(t *testing.T) {
	mockPool, repo := newMockRepo(t)

	dealershipID, imageID := uuid.New(), uuid.New()
	mockPool.ExpectQuery(`UPDATE images SET alt_text`).
		WithArgs(imageID, dealershipID,
			(*string)(nil), (*[]string)(nil), (*int)(nil),
			(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateMetadata(context.Background(), dealershipID, imageID, &models.ImageMetadataUpdate{})

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
