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

type BookingRepository struct {
	DB *sql.DB
}

func (r BookingRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r BookingRepository) Create(ctx context.Context, b models.BookingRecord) error {
	createdAt := b.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db().ExecContext(ctx, `
		INSERT INTO bookings (booking_id, booking_type, provider, itinerary_id, email, booking_data, price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.BookingID, string(b.BookingType), b.Provider, b.ItineraryID, b.Email, b.BookingData, b.Price, b.Status, createdAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r BookingRepository) GetByID(ctx context.Context, bookingID string) (models.BookingRecord, error) {
	var (
		b     models.BookingRecord
		btype string
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT booking_id, booking_type, provider, itinerary_id, email, booking_data, price, status, created_at
		FROM bookings
		WHERE booking_id = ?
		LIMIT 1
	`, bookingID).Scan(&b.BookingID, &btype, &b.Provider, &b.ItineraryID, &b.Email, &b.BookingData, &b.Price, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BookingRecord{}, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return models.BookingRecord{}, fmt.Errorf("query booking: %w", err)
	}
	b.BookingType = models.BookingType(btype)
	return b, nil
}

// UpdateStatus returns NotFoundError when no booking has the id.
func (r BookingRepository) UpdateStatus(ctx context.Context, bookingID, status string) error {
	res, err := r.db().ExecContext(ctx, `UPDATE bookings SET status = ? WHERE booking_id = ?`, status, bookingID)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "booking"}
	}
	return nil
}

func (r BookingRepository) ListByItinerary(ctx context.Context, itineraryID string) ([]models.BookingRecord, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT booking_id, booking_type, provider, itinerary_id, email, booking_data, price, status, created_at
		FROM bookings
		WHERE itinerary_id = ?
		ORDER BY created_at ASC
	`, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	out := []models.BookingRecord{}
	for rows.Next() {
		var (
			b     models.BookingRecord
			btype string
		)
		if err := rows.Scan(&b.BookingID, &btype, &b.Provider, &b.ItineraryID, &b.Email, &b.BookingData, &b.Price, &b.Status, &b.CreatedAt); err != nil {
			return out, err
		}
		b.BookingType = models.BookingType(btype)
		out = append(out, b)
	}
	return out, rows.Err()
}
