package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/http/middleware"
	"travelplanner/internal/services"
)

// Probe is a named dependency check reported by /api/health.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler holds service prototypes; each request works on a copy tagged
// with its request id.
type Handler struct {
	Users       services.UserService
	Itineraries services.ItineraryService
	Bookings    services.BookingService
	Payments    services.PaymentService
	Exports     services.ExportService
	Checkouts   services.CheckoutService
	Probes      []Probe
}

func (h *Handler) users(c *gin.Context) services.UserService {
	s := h.Users
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) itineraries(c *gin.Context) services.ItineraryService {
	s := h.Itineraries
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) bookings(c *gin.Context) services.BookingService {
	s := h.Bookings
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) payments(c *gin.Context) services.PaymentService {
	s := h.Payments
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handler) exports(c *gin.Context) services.ExportService {
	s := h.Exports
	s.RequestID = middleware.GetRequestID(c)
	if s.Loader == nil {
		s.Loader = h.itineraries(c).Get
	}
	return s
}

func (h *Handler) checkout(c *gin.Context) services.CheckoutService {
	s := h.Checkouts
	s.RequestID = middleware.GetRequestID(c)
	return s
}
