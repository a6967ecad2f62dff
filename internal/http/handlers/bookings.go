package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/http/middleware"
)

type optionRequest struct {
	OptionIndex int `json:"option_index"`
}

type activityRequest struct {
	Day           int `json:"day"`
	ActivityIndex int `json:"activity_index"`
}

type cancelRequest struct {
	BookingType string `json:"booking_type"`
}

func (h *Handler) loadItinerary(c *gin.Context) (models.Itinerary, bool) {
	saved, err := h.itineraries(c).Get(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return models.Itinerary{}, false
	}
	return saved.Itinerary, true
}

func outOfRange(field string, idx, n int) error {
	return domain.ValidationError{Field: field, Msg: fmt.Sprintf("%s %d is out of range (0-%d)", field, idx, n-1)}
}

// BookFlight handles POST /api/itineraries/:id/bookings/flight
func (h *Handler) BookFlight(c *gin.Context) {
	var req optionRequest
	if !BindOptionalJSON(c, &req) {
		return
	}
	it, ok := h.loadItinerary(c)
	if !ok {
		return
	}
	if req.OptionIndex < 0 || req.OptionIndex >= len(it.FlightOptions) {
		RespondDomainError(c, outOfRange("option_index", req.OptionIndex, len(it.FlightOptions)))
		return
	}
	res, err := h.bookings(c).BookFlight(c.Request.Context(), middleware.GetUserEmail(c), it.ID, it.FlightOptions[req.OptionIndex])
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BookHotel handles POST /api/itineraries/:id/bookings/hotel
func (h *Handler) BookHotel(c *gin.Context) {
	var req optionRequest
	if !BindOptionalJSON(c, &req) {
		return
	}
	it, ok := h.loadItinerary(c)
	if !ok {
		return
	}
	if req.OptionIndex < 0 || req.OptionIndex >= len(it.AccommodationOptions) {
		RespondDomainError(c, outOfRange("option_index", req.OptionIndex, len(it.AccommodationOptions)))
		return
	}
	res, err := h.bookings(c).BookHotel(c.Request.Context(), middleware.GetUserEmail(c), it.ID, it.AccommodationOptions[req.OptionIndex])
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BookActivity handles POST /api/itineraries/:id/bookings/activity.
// day is 1-based and counts days in itinerary order.
func (h *Handler) BookActivity(c *gin.Context) {
	req := activityRequest{Day: 1}
	if !BindOptionalJSON(c, &req) {
		return
	}
	it, ok := h.loadItinerary(c)
	if !ok {
		return
	}
	if req.Day < 1 || req.Day > len(it.DailyItinerary) {
		RespondDomainError(c, domain.ValidationError{Field: "day", Msg: fmt.Sprintf("day must be between 1 and %d", len(it.DailyItinerary))})
		return
	}
	acts := it.DailyItinerary[req.Day-1].Activities
	if req.ActivityIndex < 0 || req.ActivityIndex >= len(acts) {
		RespondDomainError(c, outOfRange("activity_index", req.ActivityIndex, len(acts)))
		return
	}
	res, err := h.bookings(c).BookActivity(c.Request.Context(), middleware.GetUserEmail(c), it.ID, acts[req.ActivityIndex])
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListBookings handles GET /api/itineraries/:id/bookings
func (h *Handler) ListBookings(c *gin.Context) {
	it, ok := h.loadItinerary(c)
	if !ok {
		return
	}
	records, err := h.bookings(c).ListBookings(c.Request.Context(), it.ID, middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": records})
}

// CancelBooking handles POST /api/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	var req cancelRequest
	if !BindOptionalJSON(c, &req) {
		return
	}
	res, err := h.bookings(c).CancelBooking(c.Request.Context(), middleware.GetUserEmail(c), c.Param("id"), req.BookingType)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
