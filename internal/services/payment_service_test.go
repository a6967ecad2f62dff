package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"travelplanner/internal/domain"
	"travelplanner/internal/repositories"
)

func TestProcessPaymentCompleted(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO payments").
		WithArgs("TXN123456", "ana@example.com", 99.5, "USD", "Travel booking for Paris", "square", "completed", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.5}, ints: []int{2, 23456}},
		Delay:       NoDelay,
		Now:         func() time.Time { return now },
	}
	res, err := svc.ProcessPayment(context.Background(), "Ana@Example.com", 99.5, "mock_token", "Travel booking for Paris")
	if err != nil {
		t.Fatalf("ProcessPayment error: %v", err)
	}
	if !res.Success || res.TransactionID != "TXN123456" || res.Currency != "USD" || res.Provider != "square" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Timestamp != now.Unix() {
		t.Fatalf("unexpected timestamp %d", res.Timestamp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcessPaymentDeclined(t *testing.T) {
	svc := PaymentService{Rand: &scriptedRand{floats: []float64{0.01}}, Delay: NoDelay}
	res, err := svc.ProcessPayment(context.Background(), "ana@example.com", 10, "tok", "x")
	if err != nil {
		t.Fatalf("ProcessPayment error: %v", err)
	}
	if res.Success || res.Error != "Payment declined by bank" || res.Provider != "stripe" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestProcessPaymentValidation(t *testing.T) {
	svc := PaymentService{Delay: NoDelay}
	if _, err := svc.ProcessPayment(context.Background(), "ana@example.com", 0, "tok", "x"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
	if _, err := svc.ProcessPayment(context.Background(), "ana@example.com", 10, " ", "x"); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty token, got %v", err)
	}
}

func expectPayment(mock sqlmock.Sqlmock, id, email string, amount float64, status string) {
	mock.ExpectQuery("FROM payments").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "email", "amount", "currency", "description", "provider", "status", "created_at"}).
			AddRow(id, email, amount, "USD", "Travel booking for Paris", "stripe", status, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))
}

func TestRefundPayment(t *testing.T) {
	db, mock := newMock(t)
	expectPayment(mock, "TXN123456", "ana@example.com", 200, "completed")
	mock.ExpectExec("UPDATE payments SET status").WithArgs("refunded", "TXN123456").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.5}, ints: []int{111111, 25}},
		Delay:       NoDelay,
	}
	res, err := svc.RefundPayment(context.Background(), "ana@example.com", "TXN123456", 0)
	if err != nil {
		t.Fatalf("RefundPayment error: %v", err)
	}
	if !res.Success || res.RefundID != "RFN211111" || res.Amount != 75 || res.Message != "Refund processed successfully" {
		t.Fatalf("unexpected result %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefundPaymentSimulatedAmountNeverExceedsCharge(t *testing.T) {
	db, mock := newMock(t)
	expectPayment(mock, "TXN123456", "ana@example.com", 60, "completed")
	mock.ExpectExec("UPDATE payments SET status").WillReturnResult(sqlmock.NewResult(0, 1))

	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.5}, ints: []int{0, 50}},
		Delay:       NoDelay,
	}
	res, err := svc.RefundPayment(context.Background(), "ana@example.com", "TXN123456", 0)
	if err != nil {
		t.Fatalf("RefundPayment error: %v", err)
	}
	if res.Amount != 60 {
		t.Fatalf("expected refund capped at 60, got %v", res.Amount)
	}
}

func TestRefundPaymentRefused(t *testing.T) {
	db, mock := newMock(t)
	expectPayment(mock, "TXN1", "ana@example.com", 100, "completed")

	svc := PaymentService{
		PaymentRepo: repositories.PaymentRepository{DB: db},
		Rand:        &scriptedRand{floats: []float64{0.1}},
		Delay:       NoDelay,
	}
	res, err := svc.RefundPayment(context.Background(), "ana@example.com", "TXN1", 40)
	if err != nil {
		t.Fatalf("RefundPayment error: %v", err)
	}
	if res.Success || res.Error != "Unable to process refund - please contact support" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRefundPaymentGuards(t *testing.T) {
	cases := []struct {
		name   string
		email  string
		amount float64
		status string
		check  func(error) bool
	}{
		{"another payer", "mallory@example.com", 10, "completed", domain.IsNotFound},
		{"more than charged", "ana@example.com", 9999, "completed", domain.IsValidation},
		{"already refunded", "ana@example.com", 10, "refunded", domain.IsConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			expectPayment(mock, "TXN123456", "ana@example.com", 1200, tc.status)

			svc := PaymentService{
				PaymentRepo: repositories.PaymentRepository{DB: db},
				Rand:        &scriptedRand{floats: []float64{0.9}},
				Delay:       NoDelay,
			}
			_, err := svc.RefundPayment(context.Background(), tc.email, "TXN123456", tc.amount)
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestDelayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := PaymentService{Rand: &scriptedRand{}}
	if _, err := svc.ProcessPayment(ctx, "ana@example.com", 10, "tok", "x"); err == nil {
		t.Fatalf("expected cancelled context to abort payment")
	}
}
