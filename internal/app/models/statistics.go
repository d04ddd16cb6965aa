package models

import "time"

// DashboardStats is the per dealership usage summary. Remaining quotas are
// plan limits minus current usage; Unlimited plans report -1.
type DashboardStats struct {
	TotalVehicles   int64      `json:"total_vehicles"`
	TotalImages     int64      `json:"total_images"`
	PostsThisMonth  int64      `json:"posts_this_month"`
	ScrapeRuns      int64      `json:"scrape_runs"`
	RemainingPosts  int64      `json:"remaining_posts"`
	RemainingImages int64      `json:"remaining_images"`
	LastScrapeAt    *time.Time `json:"last_scrape_at,omitempty"`
	LastPostAt      *time.Time `json:"last_post_at,omitempty"`
}
