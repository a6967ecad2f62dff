package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intconfig "travelplanner/internal/config"
	intdb "travelplanner/internal/db"
	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
)

// HistoryEntry is one row of a user's booking history.
type HistoryEntry struct {
	Email       string
	BookingID   string
	BookingType string
	BookingData string
	CreatedAt   time.Time
}

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// ExistsByEmail reports whether an account with email exists.
func (r UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (r UserRepository) Create(ctx context.Context, u models.User) error {
	prefs, err := intdb.EncodeJSON(u.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.db().ExecContext(ctx, `
		INSERT INTO users (email, password_hash, name, preferences, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, u.Email, u.PasswordHash, u.Name, prefs, createdAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail returns NotFoundError when no row matches.
func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var (
		u     models.User
		prefs sql.NullString
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT email, password_hash, name, preferences, created_at
		FROM users
		WHERE email = ?
		LIMIT 1
	`, email).Scan(&u.Email, &u.PasswordHash, &u.Name, &prefs, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.User{}, fmt.Errorf("query user: %w", err)
	}

	u.Preferences, err = intdb.DecodeJSONMap(prefs.String)
	if err != nil {
		// A corrupt preferences blob should not lock the user out.
		u.Preferences = map[string]any{}
	}
	return u, nil
}

func (r UserRepository) UpdatePreferences(ctx context.Context, email string, prefs map[string]any) error {
	raw, err := intdb.EncodeJSON(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	res, err := r.db().ExecContext(ctx, `UPDATE users SET preferences = ? WHERE email = ?`, raw, email)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}

func (r UserRepository) AddHistory(ctx context.Context, e HistoryEntry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db().ExecContext(ctx, `
		INSERT INTO user_bookings (email, booking_id, booking_type, booking_data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Email, e.BookingID, e.BookingType, e.BookingData, createdAt)
	if err != nil {
		return fmt.Errorf("insert booking history: %w", err)
	}
	return nil
}

// ListHistory returns the decoded booking data of a user, newest first.
// Rows whose data is not a JSON object are skipped.
func (r UserRepository) ListHistory(ctx context.Context, email string) ([]map[string]any, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT booking_data
		FROM user_bookings
		WHERE email = ?
		ORDER BY created_at DESC, id DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("query booking history: %w", err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return out, err
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		entry, err := intdb.DecodeJSONMap(raw)
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
