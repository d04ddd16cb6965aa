package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageSource records how an image entered the system.
type ImageSource string

const (
	ImageSourceUpload   ImageSource = "upload"
	ImageSourceScraping ImageSource = "scraping"
	ImageSourceDMS      ImageSource = "dms"
)

// ImageRecord is a stored vehicle photo plus the metadata needed to group
// images back to a vehicle. Deletion is soft via IsActive.
type ImageRecord struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	DealershipID     uuid.UUID   `json:"dealership_id" db:"dealership_id"`
	Filename         string      `json:"filename" db:"filename"`
	OriginalFilename string      `json:"original_filename,omitempty" db:"original_filename"`
	FilePath         string      `json:"file_path" db:"file_path"`
	FileSize         int64       `json:"file_size" db:"file_size"`
	MimeType         string      `json:"mime_type" db:"mime_type"`
	Width            int         `json:"width" db:"width"`
	Height           int         `json:"height" db:"height"`
	SourceType       ImageSource `json:"source_type" db:"source_type"`
	SourceURL        string      `json:"source_url,omitempty" db:"source_url"`
	VehicleYear      int         `json:"vehicle_year,omitempty" db:"vehicle_year"`
	VehicleMake      string      `json:"vehicle_make,omitempty" db:"vehicle_make"`
	VehicleModel     string      `json:"vehicle_model,omitempty" db:"vehicle_model"`
	VehicleVIN       string      `json:"vehicle_vin,omitempty" db:"vehicle_vin"`
	VehicleStockNum  string      `json:"vehicle_stock_number,omitempty" db:"vehicle_stock_number"`
	AltText          string      `json:"alt_text,omitempty" db:"alt_text"`
	Tags             []string    `json:"tags,omitempty" db:"tags"`
	IsPrimary        bool        `json:"is_primary" db:"is_primary"`
	IsActive         bool        `json:"is_active" db:"is_active"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// VehicleIdentity keys images to a vehicle: VIN first, stock number second,
// year/make/model as the last resort.
type VehicleIdentity struct {
	Year        int    `json:"year,omitempty"`
	Make        string `json:"make,omitempty"`
	Model       string `json:"model,omitempty"`
	VIN         string `json:"vin,omitempty"`
	StockNumber string `json:"stock_number,omitempty"`
}

// ImageFilter narrows image listings by vehicle fields.
type ImageFilter struct {
	Year        int    `form:"year"`
	Make        string `form:"make"`
	Model       string `form:"model"`
	VIN         string `form:"vin"`
	StockNumber string `form:"stock_number"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// ImageMetadataUpdate carries the editable subset of image fields. Nil
// pointers leave the stored value untouched.
type ImageMetadataUpdate struct {
	AltText         *string   `json:"alt_text,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	VehicleYear     *int      `json:"vehicle_year,omitempty"`
	VehicleMake     *string   `json:"vehicle_make,omitempty"`
	VehicleModel    *string   `json:"vehicle_model,omitempty"`
	VehicleVIN      *string   `json:"vehicle_vin,omitempty"`
	VehicleStockNum *string   `json:"vehicle_stock_number,omitempty"`
}

// IngestResult reports a best effort image ingestion batch. Per image
// failures land in Errors, they never abort the batch.
type IngestResult struct {
	SavedCount int      `json:"saved_count"`
	Errors     []string `json:"errors,omitempty"`
}
