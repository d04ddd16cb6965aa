package dms

import (
	"github.com/google/uuid"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// sampleUnit is one record of the canned provider feed.
type sampleUnit struct {
	VIN           string
	StockNumber   string
	Year          int
	Make          string
	Model         string
	Trim          string
	ExteriorColor string
	Mileage       int64
	Price         int64
	ImageURLs     []string
}

func (u sampleUnit) vehicle(dealershipID uuid.UUID) *models.Vehicle {
	return &models.Vehicle{
		DealershipID:  dealershipID,
		Year:          u.Year,
		Make:          u.Make,
		Model:         u.Model,
		Trim:          u.Trim,
		Price:         u.Price,
		Mileage:       u.Mileage,
		VIN:           u.VIN,
		StockNumber:   u.StockNumber,
		ExteriorColor: u.ExteriorColor,
		Status:        models.VehicleAvailable,
		Source:        models.SourceDMS,
	}
}

func (u sampleUnit) listing() models.VehicleListing {
	return models.VehicleListing{
		Year:        u.Year,
		Make:        u.Make,
		Model:       u.Model,
		Price:       u.Price,
		Mileage:     u.Mileage,
		StockNumber: u.StockNumber,
		VIN:         u.VIN,
		ImageURLs:   u.ImageURLs,
	}
}

// sampleInventory is the deterministic feed every provider serves. Real
// provider APIs would replace this; the fixed VINs and stock numbers make
// repeated syncs exercise the update path instead of duplicating rows.
func sampleInventory(models.DMSProvider) []sampleUnit {
	return []sampleUnit{
		{
			VIN:           "1HGBH41JXMN109186",
			StockNumber:   "A12345",
			Year:          2023,
			Make:          "Honda",
			Model:         "Civic",
			Trim:          "LX",
			ExteriorColor: "Silver",
			Mileage:       15000,
			Price:         22995,
			ImageURLs: []string{
				"https://example-dms.com/images/A12345_1.jpg",
				"https://example-dms.com/images/A12345_2.jpg",
				"https://example-dms.com/images/A12345_3.jpg",
			},
		},
		{
			VIN:           "2T1BURHE0JC123456",
			StockNumber:   "B67890",
			Year:          2022,
			Make:          "Toyota",
			Model:         "Camry",
			Trim:          "LE",
			ExteriorColor: "Blue",
			Mileage:       35000,
			Price:         24995,
			ImageURLs: []string{
				"https://example-dms.com/images/B67890_1.jpg",
				"https://example-dms.com/images/B67890_2.jpg",
			},
		},
	}
}
