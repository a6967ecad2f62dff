package models

// DayForecast is the outlook for a single calendar day.
type DayForecast struct {
	Condition       string   `json:"condition"`
	High            int      `json:"high"`
	Low             int      `json:"low"`
	Recommendations []string `json:"recommendations"`
}

// Forecast is keyed by YYYY-MM-DD.
type Forecast map[string]DayForecast
