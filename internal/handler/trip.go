package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// TripHandler handles HTTP requests for driver trip operations.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID      string  `json:"trip_id"`
	DriverID    string  `json:"driver_id"`
	TripDate    string  `json:"trip_date"`
	Sequence    int     `json:"sequence"`
	Capacity    int     `json:"capacity"`
	Required    int     `json:"required"`
	Passengers  int     `json:"passengers"`
	Occupancy   float64 `json:"occupancy_pct"`
	Status      string  `json:"status"`
	StartedAt   string  `json:"started_at"`
	CompletedAt string  `json:"completed_at,omitempty"`
}

func toTripResponse(trip *domain.TripSession) TripResponse {
	resp := TripResponse{
		TripID:     trip.ID,
		DriverID:   trip.DriverID,
		TripDate:   trip.TripDate,
		Sequence:   trip.Sequence,
		Capacity:   trip.Capacity,
		Required:   trip.Required,
		Passengers: trip.Passengers,
		Occupancy:  trip.Occupancy() * 100,
		Status:     string(trip.Status),
		StartedAt:  trip.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if !trip.CompletedAt.IsZero() {
		resp.CompletedAt = trip.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// StartTripRequest is the request body for starting a trip.
type StartTripRequest struct {
	Capacity int `json:"capacity" binding:"required"`
}

// StartTrip handles POST /v1/drivers/:id/trips
func (h *TripHandler) StartTrip(c *gin.Context) {
	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidCapacity)
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), service.StartTripRequest{
		DriverID: c.Param("id"),
		Capacity: req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// ScanTicketRequest is the request body for scanning a ticket.
type ScanTicketRequest struct {
	TicketRef string `json:"ticket_ref" binding:"required"`
}

// ScanResponse is the HTTP response for a ticket scan.
type ScanResponse struct {
	Trip           TripResponse `json:"trip"`
	PassengerOrder int          `json:"passenger_order"`
	TripCompleted  bool         `json:"trip_completed"`
}

// ScanTicket handles POST /v1/drivers/:id/trips/scan
func (h *TripHandler) ScanTicket(c *gin.Context) {
	var req ScanTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidTicketRef)
		return
	}

	result, err := h.tripService.ScanTicket(c.Request.Context(), c.Param("id"), req.TicketRef)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ScanResponse{
		Trip:           toTripResponse(result.Trip),
		PassengerOrder: result.PassengerOrder,
		TripCompleted:  result.TripCompleted,
	})
}

// CompleteTrip handles POST /v1/drivers/:id/trips/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	trip, err := h.tripService.CompleteTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTrip handles POST /v1/drivers/:id/trips/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetActiveTrip handles GET /v1/drivers/:id/trips/active
func (h *TripHandler) GetActiveTrip(c *gin.Context) {
	trip, err := h.tripService.ActiveTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if trip == nil {
		respondError(c, service.ErrNoActiveTrip)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}
