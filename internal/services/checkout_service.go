package services

import (
	"context"
	"strings"
	"time"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/utils"
)

// CheckoutResult is returned after a successful package payment.
type CheckoutResult struct {
	Payment     models.PaymentResult `json:"payment"`
	History     map[string]any       `json:"history_entry"`
	Preferences map[string]any       `json:"preferences"`
}

// CheckoutService pays for a whole itinerary and records it on the user.
type CheckoutService struct {
	Itineraries ItineraryService
	Payments    PaymentService
	Users       UserService
	Now         func() time.Time
	RequestID   string
}

func (s CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func validatePaymentDetails(d models.PaymentDetails) error {
	for _, v := range []string{d.CardNumber, d.CardHolder, d.Expiry, d.CVV} {
		if strings.TrimSpace(v) == "" {
			return domain.ValidationError{Msg: "Please fill all fields and agree to terms"}
		}
	}
	if !d.AgreeTerms {
		return domain.ValidationError{Field: "agree_terms", Msg: "Please fill all fields and agree to terms"}
	}
	return nil
}

// Checkout charges the itinerary's total cost. A declined charge returns a
// ProviderError carrying the gateway's message.
func (s CheckoutService) Checkout(ctx context.Context, email, itineraryID string, details models.PaymentDetails) (CheckoutResult, error) {
	if err := validatePaymentDetails(details); err != nil {
		return CheckoutResult{}, err
	}
	s.Itineraries.RequestID = s.RequestID
	s.Payments.RequestID = s.RequestID
	s.Users.RequestID = s.RequestID

	saved, err := s.Itineraries.Get(ctx, itineraryID, email)
	if err != nil {
		return CheckoutResult{}, err
	}
	it := saved.Itinerary

	payment, err := s.Payments.ProcessPayment(ctx, email, it.TotalCost, "mock_token", "Travel booking for "+saved.Destination)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !payment.Success {
		return CheckoutResult{Payment: payment}, domain.ProviderError{Provider: payment.Provider, Msg: "Payment failed: " + payment.Error}
	}

	entry := map[string]any{
		"type":              "complete_package",
		"destination":       saved.Destination,
		"itinerary_id":      it.ID,
		"total_cost":        it.TotalCost,
		"booking_date":      s.now().Format(time.RFC3339),
		"payment_reference": payment.TransactionID,
	}
	if err := s.Users.AddBookingToHistory(ctx, email, entry); err != nil {
		utils.LogWarn(s.RequestID, "checkout", "history", "failed to record booking history: "+err.Error())
	}

	prefs, err := s.Users.MergePreferences(ctx, email, map[string]any{
		"last_destination": saved.Destination,
		"preferred_budget": it.TotalCost,
		"travel_style":     strings.ToLower(it.Focus),
	})
	if err != nil {
		utils.LogWarn(s.RequestID, "checkout", "preferences", "failed to update preferences: "+err.Error())
	}
	utils.LogEvent(s.RequestID, "checkout", "complete", "paid "+it.ID+" with "+payment.TransactionID)

	return CheckoutResult{Payment: payment, History: entry, Preferences: prefs}, nil
}
