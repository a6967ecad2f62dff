package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"

	"travelplanner/internal/clients"
	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/repositories"
)

func TestBookFlightConfirmed(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs("FL12345", "flight", "google_flights", "it-1", "ana@example.com", sqlmock.AnyArg(), 420.0, "confirmed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.5}, ints: []int{1, 2345}},
		Delay:       NoDelay,
	}
	res, err := svc.BookFlight(context.Background(), "ana@example.com", "it-1", models.FlightOption{Airline: "Delta", Price: 420})
	if err != nil {
		t.Fatalf("BookFlight error: %v", err)
	}
	if !res.Success || res.BookingID != "FL12345" || res.Provider != "google_flights" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Confirmation != "Flight confirmed with Delta via google_flights" {
		t.Fatalf("unexpected confirmation %q", res.Confirmation)
	}
	if res.Price != 420 || res.ItineraryID != "it-1" {
		t.Fatalf("unexpected price/itinerary %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBookHotelDeclinedDoesNotPersist(t *testing.T) {
	db, mock := newMock(t)
	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.05}, ints: []int{0}},
		Delay:       NoDelay,
	}
	res, err := svc.BookHotel(context.Background(), "", "it-1", models.AccommodationOption{Name: "Hilton Paris", TotalPrice: 900})
	if err != nil {
		t.Fatalf("BookHotel error: %v", err)
	}
	if res.Success || res.Error != "No available rooms matching your criteria" || res.Provider != "booking" {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db calls: %v", err)
	}
}

func TestBookActivityPersistenceFailureIsNotFatal(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO bookings").WillReturnError(errors.New("db down"))

	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.9}, ints: []int{2, 0}},
		Delay:       NoDelay,
	}
	res, err := svc.BookActivity(context.Background(), "", "", models.Activity{Name: "Food Tour", Cost: 55})
	if err != nil {
		t.Fatalf("BookActivity error: %v", err)
	}
	if !res.Success || res.BookingID != "AC10000" || res.ItineraryID != "unknown" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Confirmation != "Activity confirmed: Food Tour via airbnb_experiences" || res.Price != 55 {
		t.Fatalf("unexpected confirmation %+v", res)
	}
}

func TestBookingBreakerOpensAfterProviderFailures(t *testing.T) {
	calls := 0
	svc := BookingService{
		Rand: &scriptedRand{floats: []float64{0.05}},
		Delay: func(context.Context, time.Duration) error {
			calls++
			return context.DeadlineExceeded
		},
		Breakers: NewBookingBreakers(func(name string) *gobreaker.CircuitBreaker { return clients.NewCircuitBreaker(name + "-" + t.Name()) }),
	}
	for i := 0; i < 4; i++ {
		_, err := svc.BookFlight(context.Background(), "", "it-1", models.FlightOption{})
		if !domain.IsProvider(err) {
			t.Fatalf("call %d: expected provider error, got %v", i, err)
		}
	}
	if calls != 3 {
		t.Fatalf("expected breaker to stop calls after 3 failures, got %d", calls)
	}
	// Other categories keep their own breaker.
	svc.Delay = NoDelay
	res, err := svc.BookHotel(context.Background(), "", "it-1", models.AccommodationOption{})
	if err != nil {
		t.Fatalf("hotel booking should not be blocked: %v", err)
	}
	if res.Success || res.Error == "" {
		t.Fatalf("expected a declined hotel result, got %+v", res)
	}
}

var bookingCols = []string{"booking_id", "booking_type", "provider", "itinerary_id", "email", "booking_data", "price", "status", "created_at"}

func expectBooking(mock sqlmock.Sqlmock, id, kind, email, status string) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM bookings").WithArgs(id).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(id, kind, "expedia", "it-1", email, "{}", 300.0, status, created))
}

func TestCancelBooking(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, "FL12345", "flight", "ana@example.com", "confirmed")
	mock.ExpectExec("UPDATE bookings SET status").WithArgs("cancelled", "FL12345").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.5}, ints: []int{30}},
		Delay:       NoDelay,
	}
	res, err := svc.CancelBooking(context.Background(), "ana@example.com", "FL12345", "flight")
	if err != nil {
		t.Fatalf("CancelBooking error: %v", err)
	}
	if !res.Success || res.Message != "Flight booking FL12345 successfully cancelled" || res.RefundAmount != 80 {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingRefused(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, "HT10001", "hotel", "ana@example.com", "confirmed")

	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.15}},
		Delay:       NoDelay,
	}
	res, err := svc.CancelBooking(context.Background(), "ana@example.com", "HT10001", "hotel")
	if err != nil {
		t.Fatalf("CancelBooking error: %v", err)
	}
	if res.Success || res.Error != "Unable to cancel booking - please contact customer service" {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := svc.CancelBooking(context.Background(), "ana@example.com", " ", "hotel"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingResolvesTypeFromRecord(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, "AC20000", "activity", "ana@example.com", "confirmed")
	mock.ExpectExec("UPDATE bookings SET status").WithArgs("cancelled", "AC20000").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.9}, ints: []int{0}},
		Delay:       NoDelay,
	}
	res, err := svc.CancelBooking(context.Background(), "ana@example.com", "AC20000", "")
	if err != nil {
		t.Fatalf("CancelBooking error: %v", err)
	}
	if res.Message != "Activity booking AC20000 successfully cancelled" || res.RefundAmount != 50 {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingOfAnotherUserIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, "FL12345", "flight", "ana@example.com", "confirmed")

	svc := BookingService{
		BookingRepo: repositories.BookingRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.9}},
		Delay:       NoDelay,
	}
	_, err := svc.CancelBooking(context.Background(), "mallory@example.com", "FL12345", "flight")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCancelBookingTwiceIsConflict(t *testing.T) {
	db, mock := newMock(t)
	expectBooking(mock, "FL12345", "flight", "ana@example.com", "cancelled")

	svc := BookingService{BookingRepo: repositories.BookingRepository{DB: db}, Delay: NoDelay}
	_, err := svc.CancelBooking(context.Background(), "ana@example.com", "FL12345", "flight")
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestListBookingsFiltersByOwner(t *testing.T) {
	db, mock := newMock(t)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM bookings").WithArgs("it-1").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow("FL10000", "flight", "expedia", "it-1", "ana@example.com", "{}", 300.0, "confirmed", created).
			AddRow("HT10000", "hotel", "booking", "it-1", "bob@example.com", "{}", 800.0, "confirmed", created))

	svc := BookingService{BookingRepo: repositories.BookingRepository{DB: db}}
	out, err := svc.ListBookings(context.Background(), "it-1", "ANA@example.com")
	if err != nil {
		t.Fatalf("ListBookings error: %v", err)
	}
	if len(out) != 1 || out[0].BookingID != "FL10000" {
		t.Fatalf("unexpected bookings %+v", out)
	}
}
