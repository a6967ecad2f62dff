package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/repositories"
	"travelplanner/internal/utils"
)

const minPasswordLength = 6

// UserService owns accounts, login tokens, preferences and booking history.
type UserService struct {
	UserRepo   repositories.UserRepository
	JWTSecret  []byte
	TokenTTL   time.Duration
	BcryptCost int
	Now        func() time.Time
	RequestID  string
}

func (s UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s UserService) cost() int {
	if s.BcryptCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.BcryptCost
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with empty preferences.
func (s UserService) Register(ctx context.Context, email, password, name string) (models.Profile, error) {
	email = normalizeEmail(email)
	name = utils.NormalizeSpace(name)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return models.Profile{}, domain.ValidationError{Field: "email", Msg: "a valid email is required"}
	}
	if len(password) < minPasswordLength {
		return models.Profile{}, domain.ValidationError{Field: "password", Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	if name == "" {
		return models.Profile{}, domain.ValidationError{Field: "name", Msg: "name is required"}
	}

	exists, err := s.UserRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return models.Profile{}, domain.InternalError{Msg: "failed to check user", Err: err}
	}
	if exists {
		return models.Profile{}, domain.ConflictError{Resource: "user", Msg: "Email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return models.Profile{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	u := models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Preferences:  map[string]any{},
		CreatedAt:    s.now(),
	}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		return models.Profile{}, domain.InternalError{Msg: "failed to save user", Err: err}
	}
	utils.LogEvent(s.RequestID, "user", "register", "registered "+email)
	return u.ToProfile(nil), nil
}

// Login checks credentials and returns the profile with a signed token.
// Unknown email and wrong password fail the same way.
func (s UserService) Login(ctx context.Context, email, password string) (models.Profile, string, error) {
	email = normalizeEmail(email)
	invalid := domain.UnauthorizedError{Msg: "Invalid email or password"}

	u, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.Profile{}, "", invalid
		}
		return models.Profile{}, "", domain.InternalError{Msg: "failed to load user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return models.Profile{}, "", invalid
	}

	history, err := s.UserRepo.ListHistory(ctx, email)
	if err != nil {
		utils.LogWarn(s.RequestID, "user", "login", "history unavailable: "+err.Error())
		history = nil
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return models.Profile{}, "", domain.InternalError{Msg: "failed to create token", Err: err}
	}
	utils.LogEvent(s.RequestID, "user", "login", "login "+email)
	return u.ToProfile(history), token, nil
}

// IssueToken signs an HS256 token carrying email, name and exp.
func (s UserService) IssueToken(u models.User) (string, error) {
	if len(s.JWTSecret) == 0 {
		return "", errors.New("jwt secret is empty")
	}
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": u.Email,
		"name":  u.Name,
		"exp":   s.now().Add(ttl).Unix(),
	})
	return token.SignedString(s.JWTSecret)
}

// ParseToken validates a token and returns its email claim.
func (s UserService) ParseToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.JWTSecret, nil
	})
	if err != nil {
		return "", domain.UnauthorizedError{Msg: "invalid token", Err: err}
	}
	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return "", domain.UnauthorizedError{Msg: "invalid token"}
	}
	return email, nil
}

// Profile reloads the user with current history and preferences.
func (s UserService) Profile(ctx context.Context, email string) (models.Profile, error) {
	u, err := s.UserRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return models.Profile{}, err
	}
	history, err := s.UserRepo.ListHistory(ctx, u.Email)
	if err != nil {
		return models.Profile{}, domain.InternalError{Msg: "failed to load booking history", Err: err}
	}
	return u.ToProfile(history), nil
}

func (s UserService) UpdatePreferences(ctx context.Context, email string, prefs map[string]any) error {
	if prefs == nil {
		prefs = map[string]any{}
	}
	if err := s.UserRepo.UpdatePreferences(ctx, normalizeEmail(email), prefs); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "user", "preferences", "updated preferences for "+normalizeEmail(email))
	return nil
}

// MergePreferences overlays updates on the stored preferences.
func (s UserService) MergePreferences(ctx context.Context, email string, updates map[string]any) (map[string]any, error) {
	u, err := s.UserRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	for k, v := range updates {
		prefs[k] = v
	}
	if err := s.UpdatePreferences(ctx, u.Email, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// AddBookingToHistory stores data as one history entry. booking_id defaults
// to BK<unix nanos> and type to "unknown".
func (s UserService) AddBookingToHistory(ctx context.Context, email string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	now := s.now()
	bookingID, _ := data["booking_id"].(string)
	if strings.TrimSpace(bookingID) == "" {
		bookingID = fmt.Sprintf("BK%d", now.UnixNano())
	}
	bookingType, _ := data["type"].(string)
	if strings.TrimSpace(bookingType) == "" {
		bookingType = "unknown"
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode booking data: %w", err)
	}
	return s.UserRepo.AddHistory(ctx, repositories.HistoryEntry{
		Email:       normalizeEmail(email),
		BookingID:   bookingID,
		BookingType: bookingType,
		BookingData: string(raw),
		CreatedAt:   now,
	})
}

func (s UserService) BookingHistory(ctx context.Context, email string) ([]map[string]any, error) {
	return s.UserRepo.ListHistory(ctx, normalizeEmail(email))
}
