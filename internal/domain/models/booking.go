package models

import "time"

type BookingType string

const (
	BookingFlight   BookingType = "flight"
	BookingHotel    BookingType = "hotel"
	BookingActivity BookingType = "activity"
)

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// BookingRecord is a row of the bookings table.
type BookingRecord struct {
	BookingID   string      `json:"booking_id"`
	BookingType BookingType `json:"booking_type"`
	Provider    string      `json:"provider"`
	ItineraryID string      `json:"itinerary_id"`
	Email       string      `json:"email"`
	BookingData string      `json:"booking_data"`
	Price       float64     `json:"price"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

// BookingResult is returned for every booking attempt, successful or not.
type BookingResult struct {
	Success      bool    `json:"success"`
	BookingID    string  `json:"booking_id,omitempty"`
	Confirmation string  `json:"confirmation,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Provider     string  `json:"provider"`
	ItineraryID  string  `json:"itinerary_id,omitempty"`
	Error        string  `json:"error,omitempty"`
}

type CancelResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	RefundAmount int    `json:"refund_amount,omitempty"`
	Error        string `json:"error,omitempty"`
}
