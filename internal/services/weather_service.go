package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"travelplanner/internal/clients"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/utils"
)

var WeatherConditions = []string{"Sunny", "Partly Cloudy", "Cloudy", "Rainy", "Stormy"}

// highRanges are the inclusive high-temperature bounds (°F) per condition.
var highRanges = map[string][2]int{
	"Sunny":         {75, 95},
	"Partly Cloudy": {70, 85},
	"Cloudy":        {65, 80},
	"Rainy":         {60, 75},
	"Stormy":        {55, 70},
}

var weatherRecommendations = map[string][]string{
	"Sunny": {
		"Perfect day for outdoor activities",
		"Don't forget sunscreen and a hat",
		"Great day for beach or water activities",
	},
	"Partly Cloudy": {
		"Good day for outdoor activities",
		"Might want to bring a light jacket",
		"Comfortable conditions for sightseeing",
	},
	"Cloudy": {
		"Good day for outdoor activities without strong sun",
		"Might want to have indoor alternatives planned",
		"Comfortable temperatures for walking tours",
	},
	"Rainy": {
		"Plan indoor activities or bring rain gear",
		"Consider museums, galleries, or indoor markets",
		"Check if outdoor activities have rain dates",
	},
	"Stormy": {
		"Avoid outdoor activities if possible",
		"Consider rescheduling outdoor plans",
		"Have indoor backup plans ready",
	},
}

const NoDisasterAlert = "No significant natural disasters reported"

var disasterAlerts = []string{
	"Minor earthquake activity reported in the region",
	"Tropical storm warning in effect",
	"Wildfire risk elevated due to dry conditions",
	"Flood watch in effect for low-lying areas",
}

var disasterProne = []string{"Japan", "Indonesia", "Philippines", "California", "Florida"}

// WeatherService produces simulated forecasts and hazard advisories.
type WeatherService struct {
	Cache     *clients.Cache
	Rand      Rand
	RequestID string
}

// Recommendations returns the advice list for a condition.
func Recommendations(condition string) []string {
	if recs, ok := weatherRecommendations[condition]; ok {
		return append([]string(nil), recs...)
	}
	return []string{"Check local weather advisories"}
}

// Forecast returns one entry per day starting at start, keyed YYYY-MM-DD.
// A cached forecast for the same destination and dates is reused.
func (s WeatherService) Forecast(ctx context.Context, destination string, start time.Time, days int) models.Forecast {
	startKey := utils.FormatDate(start)
	if s.Cache != nil {
		cached, err := s.Cache.LoadForecast(ctx, destination, startKey, days)
		if err == nil && len(cached) == days {
			return cached
		}
		if err != nil && !errors.Is(err, clients.ErrCacheMiss) {
			utils.LogWarn(s.RequestID, "weather", "forecast", "cache read failed: "+err.Error())
		}
	}

	f := s.generate(start, days)
	if s.Cache != nil {
		if err := s.Cache.SaveForecast(ctx, destination, startKey, days, f); err != nil {
			utils.LogWarn(s.RequestID, "weather", "forecast", "cache write failed: "+err.Error())
		}
	}
	return f
}

func (s WeatherService) generate(start time.Time, days int) models.Forecast {
	rnd := pickRand(s.Rand)
	f := make(models.Forecast, days)
	day := start
	for i := 0; i < days; i++ {
		condition := choice(rnd, WeatherConditions)
		r := highRanges[condition]
		f[utils.FormatDate(day)] = models.DayForecast{
			Condition:       condition,
			High:            randBetween(rnd, r[0], r[1]),
			Low:             randBetween(rnd, r[0]-15, r[1]-10),
			Recommendations: Recommendations(condition),
		}
		day = day.AddDate(0, 0, 1)
	}
	return f
}

// DisasterAlerts returns exactly one advisory line. Destinations in known
// hazard regions draw a warning 30% of the time.
func (s WeatherService) DisasterAlerts(destination string) []string {
	rnd := pickRand(s.Rand)
	prone := false
	for _, region := range disasterProne {
		if strings.Contains(destination, region) {
			prone = true
			break
		}
	}
	if prone && rnd.Float64() > 0.7 {
		return []string{choice(rnd, disasterAlerts)}
	}
	return []string{NoDisasterAlert}
}
