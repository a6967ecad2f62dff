package api

import (
	"log/slog"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	h "travelplanner/internal/http/handlers"
	"travelplanner/internal/http/middleware"
)

// Options wires the router to its handlers and token parser.
type Options struct {
	Handler        *h.Handler
	ParseToken     middleware.TokenParser
	AllowedOrigins []string
	// Metrics mounts /metrics and the request metrics middleware.
	Metrics bool
}

func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(opts.AllowedOrigins))
	if opts.Metrics {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		slog.Warn("failed to set trusted proxies", "error", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	hd := opts.Handler
	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/register", hd.Register)
		auth.POST("/login", hd.Login)

		secured := api.Group("", middleware.AuthRequired(opts.ParseToken))
		secured.GET("/routes", h.Routes)

		// Profile
		me := secured.Group("/me")
		me.GET("", hd.Me)
		me.PUT("/preferences", hd.UpdatePreferences)
		me.GET("/history", hd.BookingHistory)

		// Itineraries
		itineraries := secured.Group("/itineraries")
		itineraries.POST("", hd.CreateItineraries)
		itineraries.GET("/:id", hd.GetItinerary)
		itineraries.GET("/:id/ical", hd.ExportICal)
		itineraries.GET("/:id/pdf", hd.ExportPDF)
		itineraries.GET("/:id/bookings", hd.ListBookings)
		itineraries.POST("/:id/bookings/flight", hd.BookFlight)
		itineraries.POST("/:id/bookings/hotel", hd.BookHotel)
		itineraries.POST("/:id/bookings/activity", hd.BookActivity)
		itineraries.POST("/:id/checkout", hd.Checkout)

		// Bookings & payments
		secured.POST("/bookings/:id/cancel", hd.CancelBooking)
		secured.POST("/payments/:id/refund", hd.RefundPayment)
	}

	h.SetRouter(r)
	return r
}
