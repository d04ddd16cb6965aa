package models

import (
	"time"

	"github.com/google/uuid"
)

// VehicleStatus tracks a unit through the lot.
type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "available"
	VehiclePending   VehicleStatus = "pending"
	VehicleSold      VehicleStatus = "sold"
)

// Valid reports whether s is one of the lot states.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehiclePending, VehicleSold:
		return true
	}
	return false
}

// VehicleSource records where a vehicle row came from.
type VehicleSource string

const (
	SourceScraping VehicleSource = "scraping"
	SourceDMS      VehicleSource = "dms"
	SourceManual   VehicleSource = "manual"
)

// VehicleListing is the ephemeral output of the listing extractor. A listing
// is accepted only when Year is set and ImageURLs is non-empty; everything
// else is dropped without a reported error.
type VehicleListing struct {
	Year        int      `json:"year"`
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Price       int64    `json:"price"`
	Mileage     int64    `json:"mileage"`
	StockNumber string   `json:"stock_number"`
	VIN         string   `json:"vin"`
	ImageURLs   []string `json:"image_urls"`
	DetailURL   string   `json:"detail_url"`
}

// Valid is the pipeline acceptance gate.
func (l VehicleListing) Valid() bool {
	return l.Year != 0 && len(l.ImageURLs) > 0
}

// Vehicle is a persisted inventory unit.
type Vehicle struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	DealershipID  uuid.UUID     `json:"dealership_id" db:"dealership_id"`
	Year          int           `json:"year" db:"year"`
	Make          string        `json:"make" db:"make"`
	Model         string        `json:"model" db:"model"`
	Trim          string        `json:"trim,omitempty" db:"trim"`
	Price         int64         `json:"price" db:"price"`
	Mileage       int64         `json:"mileage" db:"mileage"`
	VIN           string        `json:"vin,omitempty" db:"vin"`
	StockNumber   string        `json:"stock_number,omitempty" db:"stock_number"`
	ExteriorColor string        `json:"exterior_color,omitempty" db:"exterior_color"`
	Status        VehicleStatus `json:"status" db:"status"`
	Source        VehicleSource `json:"source" db:"source"`
	DetailURL     string        `json:"detail_url,omitempty" db:"detail_url"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// VehicleFilter narrows inventory searches. Zero values mean "no filter".
type VehicleFilter struct {
	Make     string        `form:"make"`
	Model    string        `form:"model"`
	YearMin  int           `form:"year_min"`
	YearMax  int           `form:"year_max"`
	PriceMin int64         `form:"price_min"`
	PriceMax int64         `form:"price_max"`
	Status   VehicleStatus `form:"status"`
	Source   VehicleSource `form:"source"`
	Limit    int           `form:"limit"`
	Offset   int           `form:"offset"`
}

// UpdateVehicleStatusRequest moves a unit between lot states.
type UpdateVehicleStatusRequest struct {
	Status VehicleStatus `json:"status" binding:"required"`
}

// InventoryStats summarizes a dealership's lot.
type InventoryStats struct {
	Total        int64   `json:"total"`
	Available    int64   `json:"available"`
	Pending      int64   `json:"pending"`
	Sold         int64   `json:"sold"`
	AveragePrice float64 `json:"average_price"`
}
