package models

import "time"

const (
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

// Payment is a row of the payments table.
type Payment struct {
	TransactionID string    `json:"transaction_id"`
	Email         string    `json:"email"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description"`
	Provider      string    `json:"provider"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type PaymentResult struct {
	Success       bool    `json:"success"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Description   string  `json:"description,omitempty"`
	Provider      string  `json:"provider"`
	Timestamp     int64   `json:"timestamp,omitempty"`
	Error         string  `json:"error,omitempty"`
}

type RefundResult struct {
	Success       bool    `json:"success"`
	RefundID      string  `json:"refund_id,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// PaymentDetails is the card form submitted at checkout.
type PaymentDetails struct {
	CardNumber string `json:"card_number"`
	CardHolder string `json:"card_holder"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	AgreeTerms bool   `json:"agree_terms"`
}
