package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/metrics"
	"travelplanner/internal/repositories"
	"travelplanner/internal/utils"
)

var (
	FlightProviders   = []string{"skyscanner", "google_flights", "expedia"}
	HotelProviders    = []string{"booking", "expedia", "airbnb"}
	ActivityProviders = []string{"viator", "getyourguide", "airbnb_experiences"}
)

// A provider call succeeds when the draw is above its failure threshold.
const (
	bookingFailThreshold = 0.1
	cancelFailThreshold  = 0.2
)

// BookingService books flights, hotels and activities with simulated
// providers and records confirmed bookings.
type BookingService struct {
	BookingRepo repositories.BookingRepository
	Rand        Rand
	Delay       DelayFunc
	// Breakers is keyed by booking type; a missing entry runs unguarded.
	Breakers  map[models.BookingType]*gobreaker.CircuitBreaker
	RequestID string
}

// NewBookingBreakers builds one breaker per booking category.
func NewBookingBreakers(newBreaker func(name string) *gobreaker.CircuitBreaker) map[models.BookingType]*gobreaker.CircuitBreaker {
	return map[models.BookingType]*gobreaker.CircuitBreaker{
		models.BookingFlight:   newBreaker("booking-flight"),
		models.BookingHotel:    newBreaker("booking-hotel"),
		models.BookingActivity: newBreaker("booking-activity"),
	}
}

type bookingRequest struct {
	kind         models.BookingType
	prefix       string
	providers    []string
	latency      time.Duration
	confirmation func(provider string) string
	declined     string
	price        float64
	data         any
}

func (s BookingService) BookFlight(ctx context.Context, email, itineraryID string, flight models.FlightOption) (models.BookingResult, error) {
	return s.book(ctx, email, itineraryID, bookingRequest{
		kind:      models.BookingFlight,
		prefix:    "FL",
		providers: FlightProviders,
		latency:   time.Second,
		confirmation: func(provider string) string {
			return fmt.Sprintf("Flight confirmed with %s via %s", utils.FirstNonEmpty(flight.Airline, "Unknown"), provider)
		},
		declined: "No available flights matching your criteria",
		price:    flight.Price,
		data:     flight,
	})
}

func (s BookingService) BookHotel(ctx context.Context, email, itineraryID string, hotel models.AccommodationOption) (models.BookingResult, error) {
	return s.book(ctx, email, itineraryID, bookingRequest{
		kind:      models.BookingHotel,
		prefix:    "HT",
		providers: HotelProviders,
		latency:   time.Second,
		confirmation: func(provider string) string {
			return fmt.Sprintf("Hotel confirmed at %s via %s", utils.FirstNonEmpty(hotel.Name, "Unknown"), provider)
		},
		declined: "No available rooms matching your criteria",
		price:    hotel.TotalPrice,
		data:     hotel,
	})
}

func (s BookingService) BookActivity(ctx context.Context, email, itineraryID string, activity models.Activity) (models.BookingResult, error) {
	return s.book(ctx, email, itineraryID, bookingRequest{
		kind:      models.BookingActivity,
		prefix:    "AC",
		providers: ActivityProviders,
		latency:   500 * time.Millisecond,
		confirmation: func(provider string) string {
			return fmt.Sprintf("Activity confirmed: %s via %s", utils.FirstNonEmpty(activity.Name, "Unknown"), provider)
		},
		declined: "Activity not available for the selected dates",
		price:    activity.Cost,
		data:     activity,
	})
}

func (s BookingService) book(ctx context.Context, email, itineraryID string, req bookingRequest) (models.BookingResult, error) {
	rnd := pickRand(s.Rand)
	itineraryID = utils.FirstNonEmpty(itineraryID, "unknown")

	out, err := s.guard(req.kind, func() (any, error) {
		if err := pickDelay(s.Delay)(ctx, req.latency); err != nil {
			return nil, err
		}
		provider := choice(rnd, req.providers)
		success := rnd.Float64() > bookingFailThreshold
		bookingID := fmt.Sprintf("%s%d", req.prefix, randBetween(rnd, 10000, 99999))
		return providerOutcome{provider: provider, success: success, id: bookingID}, nil
	})
	if err != nil {
		utils.LogWarn(s.RequestID, "booking", "book_"+string(req.kind), "provider call failed: "+err.Error())
		return models.BookingResult{}, domain.ProviderError{Provider: string(req.kind), Msg: "booking provider unavailable", Err: err}
	}
	res := out.(providerOutcome)
	metrics.IncBooking(string(req.kind), res.success)

	if !res.success {
		utils.LogEvent(s.RequestID, "booking", "book_"+string(req.kind), "declined by "+res.provider)
		return models.BookingResult{Success: false, Error: req.declined, Provider: res.provider}, nil
	}

	data, err := json.Marshal(req.data)
	if err != nil {
		data = []byte("{}")
	}
	record := models.BookingRecord{
		BookingID:   res.id,
		BookingType: req.kind,
		Provider:    res.provider,
		ItineraryID: itineraryID,
		Email:       email,
		BookingData: string(data),
		Price:       req.price,
		Status:      models.StatusConfirmed,
		CreatedAt:   utils.NowUTC(),
	}
	if err := s.BookingRepo.Create(ctx, record); err != nil {
		utils.LogWarn(s.RequestID, "booking", "book_"+string(req.kind), "error recording booking: "+err.Error())
	}
	utils.LogEvent(s.RequestID, "booking", "book_"+string(req.kind), "confirmed "+res.id+" via "+res.provider)

	return models.BookingResult{
		Success:      true,
		BookingID:    res.id,
		Confirmation: req.confirmation(res.provider),
		Price:        req.price,
		Provider:     res.provider,
		ItineraryID:  itineraryID,
	}, nil
}

// CancelBooking asks the provider to cancel a booking made by email.
// Another user's booking reads as not found. A refusal is reported in the
// result, not as an error. The stored booking type wins over bookingType.
func (s BookingService) CancelBooking(ctx context.Context, email, bookingID, bookingType string) (models.CancelResult, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return models.CancelResult{}, domain.ValidationError{Field: "booking_id", Msg: "booking_id is required"}
	}
	rec, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.CancelResult{}, err
		}
		return models.CancelResult{}, domain.InternalError{Msg: "failed to load booking", Err: err}
	}
	if !strings.EqualFold(rec.Email, strings.TrimSpace(email)) {
		return models.CancelResult{}, domain.NotFoundError{Resource: "booking"}
	}
	if rec.Status == models.StatusCancelled {
		return models.CancelResult{}, domain.ConflictError{Resource: "booking", Msg: "booking already cancelled"}
	}
	bookingType = utils.FirstNonEmpty(string(rec.BookingType), bookingType, "booking")
	if err := pickDelay(s.Delay)(ctx, time.Second); err != nil {
		return models.CancelResult{}, err
	}
	rnd := pickRand(s.Rand)
	success := rnd.Float64() > cancelFailThreshold
	metrics.IncCancellation(success)
	if !success {
		return models.CancelResult{Success: false, Error: "Unable to cancel booking - please contact customer service"}, nil
	}

	if err := s.BookingRepo.UpdateStatus(ctx, bookingID, models.StatusCancelled); err != nil {
		utils.LogWarn(s.RequestID, "booking", "cancel", "error updating booking status: "+err.Error())
	}
	utils.LogEvent(s.RequestID, "booking", "cancel", "cancelled "+bookingID)

	return models.CancelResult{
		Success:      true,
		Message:      fmt.Sprintf("%s booking %s successfully cancelled", capitalize(bookingType), bookingID),
		RefundAmount: randBetween(rnd, 50, 100),
	}, nil
}

// ListBookings returns the bookings made against an itinerary by email.
func (s BookingService) ListBookings(ctx context.Context, itineraryID, email string) ([]models.BookingRecord, error) {
	records, err := s.BookingRepo.ListByItinerary(ctx, strings.TrimSpace(itineraryID))
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to load bookings", Err: err}
	}
	out := make([]models.BookingRecord, 0, len(records))
	for _, r := range records {
		if email == "" || strings.EqualFold(r.Email, email) {
			out = append(out, r)
		}
	}
	return out, nil
}

type providerOutcome struct {
	provider string
	success  bool
	id       string
}

func (s BookingService) guard(kind models.BookingType, fn func() (any, error)) (any, error) {
	cb := s.Breakers[kind]
	if cb == nil {
		return fn()
	}
	out, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s providers: circuit open: %w", kind, err)
	}
	return out, err
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
