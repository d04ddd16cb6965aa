package models

import (
	"time"

	"github.com/google/uuid"
)

// WebsitePlatform is the detected CMS behind a dealership site.
type WebsitePlatform string

const (
	PlatformAutotrader     WebsitePlatform = "autotrader"
	PlatformCarsDotCom     WebsitePlatform = "cars.com"
	PlatformDealerFire     WebsitePlatform = "dealerfire"
	PlatformDealerSocket   WebsitePlatform = "dealersocket"
	PlatformAutoRevolution WebsitePlatform = "autorevolution"
	PlatformCobalt         WebsitePlatform = "cobalt"
	PlatformDealerDotCom   WebsitePlatform = "dealer.com"
	PlatformWordpress      WebsitePlatform = "wordpress"
	PlatformCustom         WebsitePlatform = "custom"
	PlatformUnknown        WebsitePlatform = "unknown"
)

// ScrapeStatus tracks whether a dealership has scraping configured.
type ScrapeStatus string

const (
	ScrapeNotConfigured ScrapeStatus = "not_configured"
	ScrapeConfigured    ScrapeStatus = "configured"
	ScrapeError         ScrapeStatus = "error"
)

// ScheduleFrequency drives the automatic scrape cadence.
type ScheduleFrequency string

const (
	ScheduleDaily   ScheduleFrequency = "daily"
	ScheduleWeekly  ScheduleFrequency = "weekly"
	ScheduleMonthly ScheduleFrequency = "monthly"
)

// NextRun computes the next sync time for the frequency. Unknown values
// fall back to weekly.
func (f ScheduleFrequency) NextRun(now time.Time) time.Time {
	switch f {
	case ScheduleDaily:
		return now.Add(24 * time.Hour)
	case ScheduleMonthly:
		return now.Add(30 * 24 * time.Hour)
	default:
		return now.Add(7 * 24 * time.Hour)
	}
}

// ScrapeConfig is the per dealership scraping setup, updated after each run.
type ScrapeConfig struct {
	ID                uuid.UUID         `json:"id" db:"id"`
	DealershipID      uuid.UUID         `json:"dealership_id" db:"dealership_id"`
	WebsiteURL        string            `json:"website_url" db:"website_url"`
	DetectedPlatform  WebsitePlatform   `json:"detected_platform" db:"detected_platform"`
	Status            ScrapeStatus      `json:"status" db:"status"`
	ScheduleFrequency ScheduleFrequency `json:"schedule_frequency" db:"schedule_frequency"`
	IsActive          bool              `json:"is_active" db:"is_active"`
	MaxVehicles       int               `json:"max_vehicles" db:"max_vehicles"`
	LastSyncAt        *time.Time        `json:"last_sync_at,omitempty" db:"last_sync_at"`
	NextSyncAt        *time.Time        `json:"next_sync_at,omitempty" db:"next_sync_at"`
	LastError         string            `json:"last_error,omitempty" db:"last_error"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`
}

// ScrapeResult aggregates one orchestrator run. Page and image failures are
// accumulated here, never raised.
type ScrapeResult struct {
	ScrapedCount     int             `json:"scraped_count"`
	ErrorCount       int             `json:"error_count"`
	Errors           []string        `json:"errors,omitempty"`
	DetectedPlatform WebsitePlatform `json:"detected_platform"`
}

// SetupScrapingRequest configures scraping for a dealership site.
type SetupScrapingRequest struct {
	WebsiteURL string `json:"website_url" binding:"required"`
}

// RunScrapeRequest triggers a manual scrape.
type RunScrapeRequest struct {
	MaxVehicles int `json:"max_vehicles"`
}

// UpdateScheduleRequest changes the automatic cadence.
type UpdateScheduleRequest struct {
	Frequency ScheduleFrequency `json:"frequency" binding:"required"`
	IsActive  *bool             `json:"is_active,omitempty"`
}
