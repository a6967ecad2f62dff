package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intconfig "travelplanner/internal/config"
	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
)

type PaymentRepository struct {
	DB *sql.DB
}

func (r PaymentRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PaymentRepository) Create(ctx context.Context, p models.Payment) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db().ExecContext(ctx, `
		INSERT INTO payments (transaction_id, email, amount, currency, description, provider, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.TransactionID, p.Email, p.Amount, p.Currency, p.Description, p.Provider, p.Status, createdAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r PaymentRepository) GetByID(ctx context.Context, transactionID string) (models.Payment, error) {
	var p models.Payment
	err := r.db().QueryRowContext(ctx, `
		SELECT transaction_id, email, amount, currency, description, provider, status, created_at
		FROM payments
		WHERE transaction_id = ?
		LIMIT 1
	`, transactionID).Scan(&p.TransactionID, &p.Email, &p.Amount, &p.Currency, &p.Description, &p.Provider, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, domain.NotFoundError{Resource: "payment", Err: err}
		}
		return models.Payment{}, fmt.Errorf("query payment: %w", err)
	}
	return p, nil
}

func (r PaymentRepository) UpdateStatus(ctx context.Context, transactionID, status string) error {
	res, err := r.db().ExecContext(ctx, `UPDATE payments SET status = ? WHERE transaction_id = ?`, status, transactionID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "payment"}
	}
	return nil
}
