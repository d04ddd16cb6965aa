package models

import "errors"

// Domain specific errors shared by services and handlers.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidPlan     = errors.New("plan not purchasable or unknown")
	ErrUpstream        = errors.New("upstream site unavailable")
)
