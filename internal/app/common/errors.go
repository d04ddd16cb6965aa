package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/dealerflow/internal/app/models"
)

// StatusFromError translates domain sentinel errors into HTTP status codes.
// Anything unrecognized is a 500.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrInvalidPlan):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse writes the JSON error body for err. Messages for 5xx statuses
// are replaced with a generic one so wrapped driver errors never reach clients.
func ErrorResponse(c *gin.Context, err error) {
	status := StatusFromError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}
