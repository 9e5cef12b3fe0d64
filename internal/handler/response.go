package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/repository"
	"fleet/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrTicketNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidTicketRef),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidSettings):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrTripAlreadyActive),
		errors.Is(err, service.ErrNoActiveTrip),
		errors.Is(err, service.ErrDuplicateScan),
		errors.Is(err, service.ErrDriverBusy):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
