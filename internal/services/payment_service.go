package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/metrics"
	"travelplanner/internal/repositories"
	"travelplanner/internal/utils"
)

var PaymentProviders = []string{"stripe", "paypal", "square", "braintree"}

const (
	paymentFailThreshold = 0.05
	refundFailThreshold  = 0.1
	currencyUSD          = "USD"
)

// PaymentService is the simulated payment gateway.
type PaymentService struct {
	PaymentRepo repositories.PaymentRepository
	Rand        Rand
	Delay       DelayFunc
	Now         func() time.Time
	RequestID   string
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// ProcessPayment charges amount to email. A decline comes back as Success=false.
func (s PaymentService) ProcessPayment(ctx context.Context, email string, amount float64, token, description string) (models.PaymentResult, error) {
	if amount <= 0 {
		return models.PaymentResult{}, domain.ValidationError{Field: "amount", Msg: "amount must be greater than zero"}
	}
	if strings.TrimSpace(token) == "" {
		return models.PaymentResult{}, domain.ValidationError{Field: "token", Msg: "payment token is required"}
	}
	if err := pickDelay(s.Delay)(ctx, 1500*time.Millisecond); err != nil {
		return models.PaymentResult{}, err
	}

	rnd := pickRand(s.Rand)
	provider := choice(rnd, PaymentProviders)
	success := rnd.Float64() > paymentFailThreshold
	txnID := fmt.Sprintf("TXN%d", randBetween(rnd, 100000, 999999))
	metrics.IncPayment("charge", success)

	if !success {
		utils.LogEvent(s.RequestID, "payment", "charge", "declined by "+provider)
		return models.PaymentResult{Success: false, Error: "Payment declined by bank", Provider: provider}, nil
	}

	now := s.now()
	err := s.PaymentRepo.Create(ctx, models.Payment{
		TransactionID: txnID,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		Amount:        amount,
		Currency:      currencyUSD,
		Description:   description,
		Provider:      provider,
		Status:        models.PaymentCompleted,
		CreatedAt:     now,
	})
	if err != nil {
		utils.LogWarn(s.RequestID, "payment", "charge", "error recording payment: "+err.Error())
	}
	utils.LogEvent(s.RequestID, "payment", "charge", "completed "+txnID+" "+utils.FormatUSD(amount)+" via "+provider)

	return models.PaymentResult{
		Success:       true,
		TransactionID: txnID,
		Amount:        amount,
		Currency:      currencyUSD,
		Description:   description,
		Provider:      provider,
		Timestamp:     now.Unix(),
	}, nil
}

// RefundPayment refunds a transaction paid by email. Another payer's
// transaction reads as not found. A zero amount means a simulated partial
// refund of 50-100, never more than was charged.
func (s PaymentService) RefundPayment(ctx context.Context, email, transactionID string, amount float64) (models.RefundResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return models.RefundResult{}, domain.ValidationError{Field: "transaction_id", Msg: "transaction_id is required"}
	}
	if amount < 0 {
		return models.RefundResult{}, domain.ValidationError{Field: "amount", Msg: "amount must not be negative"}
	}
	payment, err := s.PaymentRepo.GetByID(ctx, transactionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.RefundResult{}, err
		}
		return models.RefundResult{}, domain.InternalError{Msg: "failed to load payment", Err: err}
	}
	if !strings.EqualFold(payment.Email, strings.TrimSpace(email)) {
		return models.RefundResult{}, domain.NotFoundError{Resource: "payment"}
	}
	if payment.Status == models.PaymentRefunded {
		return models.RefundResult{}, domain.ConflictError{Resource: "payment", Msg: "payment already refunded"}
	}
	if amount > payment.Amount {
		return models.RefundResult{}, domain.ValidationError{Field: "amount", Msg: fmt.Sprintf("amount exceeds the charged %s", utils.FormatUSD(payment.Amount))}
	}
	if err := pickDelay(s.Delay)(ctx, time.Second); err != nil {
		return models.RefundResult{}, err
	}

	rnd := pickRand(s.Rand)
	success := rnd.Float64() > refundFailThreshold
	metrics.IncPayment("refund", success)
	if !success {
		return models.RefundResult{Success: false, Error: "Unable to process refund - please contact support"}, nil
	}

	if err := s.PaymentRepo.UpdateStatus(ctx, transactionID, models.PaymentRefunded); err != nil {
		utils.LogWarn(s.RequestID, "payment", "refund", "error updating payment status: "+err.Error())
	}
	refundID := fmt.Sprintf("RFN%d", randBetween(rnd, 100000, 999999))
	if amount == 0 {
		amount = math.Min(float64(randBetween(rnd, 50, 100)), payment.Amount)
	}
	utils.LogEvent(s.RequestID, "payment", "refund", "refunded "+transactionID+" as "+refundID)

	return models.RefundResult{
		Success:       true,
		RefundID:      refundID,
		TransactionID: transactionID,
		Amount:        amount,
		Message:       "Refund processed successfully",
	}, nil
}
