package models

import "time"

// User is a stored account. PasswordHash never leaves the server.
type User struct {
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	Preferences  map[string]any `json:"preferences"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Profile is what login returns: the user without credentials plus history.
type Profile struct {
	Email          string           `json:"email"`
	Name           string           `json:"name"`
	BookingHistory []map[string]any `json:"booking_history"`
	Preferences    map[string]any   `json:"preferences"`
	Authenticated  bool             `json:"authenticated"`
}

func (u User) ToProfile(history []map[string]any) Profile {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	if history == nil {
		history = []map[string]any{}
	}
	return Profile{
		Email:          u.Email,
		Name:           u.Name,
		BookingHistory: history,
		Preferences:    prefs,
		Authenticated:  true,
	}
}
