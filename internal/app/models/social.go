package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus is the publishing state of a generated post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostScheduled PostStatus = "scheduled"
	PostPublished PostStatus = "published"
)

// GeneratedPost is a rendered social caption for one vehicle and platform.
type GeneratedPost struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	DealershipID uuid.UUID  `json:"dealership_id" db:"dealership_id"`
	VehicleID    uuid.UUID  `json:"vehicle_id" db:"vehicle_id"`
	Platform     string     `json:"platform" db:"platform"`
	Content      string     `json:"content" db:"content"`
	Status       PostStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// GeneratePostsRequest asks for captions across platforms for a vehicle.
type GeneratePostsRequest struct {
	VehicleID uuid.UUID `json:"vehicle_id" binding:"required"`
	Platforms []string  `json:"platforms" binding:"required"`
}

// PostFilter narrows post listings.
type PostFilter struct {
	Platform string     `form:"platform"`
	Status   PostStatus `form:"status"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// UpdatePostStatusRequest moves a post through its states.
type UpdatePostStatusRequest struct {
	Status PostStatus `json:"status" binding:"required"`
}
