package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"travelplanner/internal/clients"
	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/metrics"
	"travelplanner/internal/utils"
)

const (
	MinTripDays           = 1
	MaxTripDays           = 30
	MinBudget             = 500
	MaxBudget             = 10000
	DefaultNumItineraries = 3
	MaxNumItineraries     = 5

	SourceAI       = "ai"
	SourceFallback = "fallback"

	fallbackSource = "Fallback data"
)

// TextGenerator is the language model used to draft itineraries.
// *clients.GeminiClient satisfies it.
type TextGenerator interface {
	Configured() bool
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	fallbackFocuses   = []string{"Luxury", "Budget", "Adventure", "Cultural", "Relaxation", "Food"}
	fallbackAirlines  = []string{"Delta", "United", "American", "Southwest", "JetBlue"}
	fallbackHotels    = []string{"Marriott", "Hilton", "Hyatt", "InterContinental", "Holiday Inn"}
	activityTypeOrder = []string{"Adventure", "Cultural", "Relaxation", "Food"}
	activityCatalog   = map[string][]string{
		"Adventure":  {"Zip Lining", "Hiking", "White Water Rafting", "Rock Climbing"},
		"Cultural":   {"Museum Tour", "Historical Site", "Local Market", "Traditional Show"},
		"Relaxation": {"Spa Day", "Beach Time", "Yoga Session", "Meditation"},
		"Food":       {"Cooking Class", "Food Tour", "Wine Tasting", "Local Restaurant"},
	}
	indoorAlternatives = map[string]string{
		"Zip Lining":          "Indoor rock climbing",
		"Hiking":              "Museum visit",
		"White Water Rafting": "Indoor water park",
		"Rock Climbing":       "Indoor rock climbing gym",
		"Beach Time":          "Spa day",
		"Yoga Session":        "Indoor yoga studio",
		"Meditation":          "Wellness center visit",
	}
)

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// ItineraryService drafts itinerary options and keeps them for later
// booking and export.
type ItineraryService struct {
	AI        TextGenerator
	Weather   WeatherService
	Cache     *clients.Cache
	Rand      Rand
	NewID     func() string
	RequestID string
}

func (s ItineraryService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Normalize validates req and fills defaults.
func (s ItineraryService) Normalize(req models.PlanRequest) (models.PlanRequest, error) {
	req.Destination = utils.NormalizeSpace(req.Destination)
	if req.Destination == "" {
		return req, domain.ValidationError{Field: "destination", Msg: "Please enter a destination"}
	}
	if req.StartDate.IsZero() {
		return req, domain.ValidationError{Field: "start_date", Msg: "start_date is required"}
	}
	if req.NumDays < MinTripDays || req.NumDays > MaxTripDays {
		return req, domain.ValidationError{Field: "num_days", Msg: fmt.Sprintf("num_days must be between %d and %d", MinTripDays, MaxTripDays)}
	}
	if req.Budget < MinBudget || req.Budget > MaxBudget {
		return req, domain.ValidationError{Field: "budget", Msg: fmt.Sprintf("budget must be between %d and %d", MinBudget, MaxBudget)}
	}
	if req.NumItineraries == 0 {
		req.NumItineraries = DefaultNumItineraries
	}
	if req.NumItineraries < 1 || req.NumItineraries > MaxNumItineraries {
		return req, domain.ValidationError{Field: "num_itineraries", Msg: fmt.Sprintf("num_itineraries must be between 1 and %d", MaxNumItineraries)}
	}
	return req, nil
}

// Generate drafts itineraries with the language model when one is
// configured and falls back to the local generator on any failure.
// Every returned itinerary is stored under its id for owner.
func (s ItineraryService) Generate(ctx context.Context, owner string, req models.PlanRequest) ([]models.Itinerary, error) {
	req, err := s.Normalize(req)
	if err != nil {
		return nil, err
	}
	s.Weather.RequestID = s.RequestID

	forecast := s.Weather.Forecast(ctx, req.Destination, req.StartDate, req.NumDays)
	alerts := s.Weather.DisasterAlerts(req.Destination)

	source := SourceFallback
	var itineraries []models.Itinerary
	if s.AI != nil && s.AI.Configured() {
		itineraries, err = s.generateWithAI(ctx, req, forecast, alerts)
		if err != nil {
			utils.LogWarn(s.RequestID, "itinerary", "generate", "ai generation failed, using fallback: "+err.Error())
		} else {
			source = SourceAI
		}
	}
	if source == SourceFallback {
		itineraries = s.Fallback(req, forecast, alerts)
	}

	for i := range itineraries {
		saved := models.SavedItinerary{
			Itinerary:   itineraries[i],
			Destination: req.Destination,
			StartDate:   utils.FormatDate(req.StartDate),
			Owner:       owner,
		}
		if s.Cache != nil {
			if err := s.Cache.SaveItinerary(ctx, saved); err != nil {
				return nil, domain.InternalError{Msg: "failed to store itinerary", Err: err}
			}
		}
	}
	metrics.IncItineraries(source, len(itineraries))
	utils.LogEvent(s.RequestID, "itinerary", "generate", fmt.Sprintf("generated %d %s itineraries for %s", len(itineraries), source, req.Destination))
	return itineraries, nil
}

// Get loads a stored itinerary. When owner is set, another user's
// itinerary reads as not found.
func (s ItineraryService) Get(ctx context.Context, id, owner string) (models.SavedItinerary, error) {
	if s.Cache == nil {
		return models.SavedItinerary{}, domain.NotFoundError{Resource: "itinerary"}
	}
	saved, err := s.Cache.LoadItinerary(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, clients.ErrCacheMiss) {
			return models.SavedItinerary{}, domain.NotFoundError{Resource: "itinerary", Err: err}
		}
		return models.SavedItinerary{}, domain.InternalError{Msg: "failed to load itinerary", Err: err}
	}
	if owner != "" && saved.Owner != "" && !strings.EqualFold(saved.Owner, owner) {
		return models.SavedItinerary{}, domain.NotFoundError{Resource: "itinerary"}
	}
	return saved, nil
}

func (s ItineraryService) generateWithAI(ctx context.Context, req models.PlanRequest, forecast models.Forecast, alerts []string) ([]models.Itinerary, error) {
	prompt, err := BuildPrompt(req, forecast, alerts)
	if err != nil {
		return nil, err
	}
	text, err := s.AI.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	itineraries, err := ParseItineraries(text)
	if err != nil {
		return nil, err
	}
	if len(itineraries) == 0 {
		return nil, errors.New("model returned no itineraries")
	}
	// Model-supplied ids are placeholders; storage needs unique ones.
	for i := range itineraries {
		itineraries[i].ID = s.newID()
	}
	return itineraries, nil
}

// ParseItineraries reads the first [...] span of text as a JSON array, or
// the whole text when there is none.
func ParseItineraries(text string) ([]models.Itinerary, error) {
	payload := text
	if m := jsonArrayPattern.FindString(text); m != "" {
		payload = m
	}
	var out []models.Itinerary
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, fmt.Errorf("parse itineraries: %w", err)
	}
	return out, nil
}

// BuildPrompt renders the planning instructions for the language model.
func BuildPrompt(req models.PlanRequest, forecast models.Forecast, alerts []string) (string, error) {
	weatherJSON, err := json.MarshalIndent(forecast, "", "  ")
	if err != nil {
		return "", err
	}
	alertsJSON, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`You are a professional travel consultant AI that creates detailed, budget-conscious travel itineraries.
Consider weather conditions and natural disaster alerts when planning itineraries.

Instructions:
- Create multiple itinerary options with different focuses (e.g., adventure, luxury, budget, cultural)
- Include flight options, hotel recommendations, and daily activities
- Provide detailed pricing breakdowns for each option
- Ensure the total cost stays within the user's budget
- Include practical information like transportation options and timing
- Consider weather forecasts and adjust activities accordingly
- Include safety recommendations based on natural disaster alerts
- Provide alternative indoor activities for bad weather days

`)
	fmt.Fprintf(&b, "Create %d different travel itinerary options for:\n", req.NumItineraries)
	fmt.Fprintf(&b, "**Destination:** %s\n", req.Destination)
	fmt.Fprintf(&b, "**Duration:** %d days\n", req.NumDays)
	fmt.Fprintf(&b, "**Start Date:** %s\n", utils.FormatDate(req.StartDate))
	fmt.Fprintf(&b, "**Budget:** $%d USD total\n", req.Budget)
	fmt.Fprintf(&b, "**Preferences:** %s\n\n", req.CombinedPreferences())
	fmt.Fprintf(&b, "**Weather Forecast:**\n%s\n\n", weatherJSON)
	fmt.Fprintf(&b, "**Natural Disaster Alerts:**\n%s\n\n", alertsJSON)
	fmt.Fprintf(&b, `For each itinerary option, provide:
1. A descriptive title and focus (e.g., "Luxury Getaway", "Budget Adventure")
2. Flight options with pricing
3. Accommodation options with pricing
4. Daily itinerary with activities, timing, and costs
5. Total estimated cost (must be under $%d)
6. A unique selling point for this itinerary
7. Weather considerations and alternative plans
8. Safety recommendations based on disaster alerts

Return the response as a JSON array with each itinerary having the following structure:
`, req.Budget)
	b.WriteString(promptSchema)
	return b.String(), nil
}

const promptSchema = `{
  "id": "unique_id",
  "title": "Itinerary title",
  "focus": "e.g., Luxury, Budget, Adventure, Cultural",
  "description": "Detailed description",
  "total_cost": 0,
  "weather_considerations": "Notes about weather and alternative plans",
  "safety_recommendations": "Notes about safety based on disaster alerts",
  "flight_options": [
    {"airline": "Airline name", "price": 0, "duration": "Flight duration", "dates": "Travel dates", "source": "Data source"}
  ],
  "accommodation_options": [
    {"name": "Hotel name", "type": "Hotel/Airbnb", "price_per_night": 0, "total_price": 0, "rating": 0, "location": "Location details", "source": "Data source"}
  ],
  "daily_itinerary": {
    "Day 1": [
      {"name": "Activity name", "description": "Activity details", "start_time": "09:00", "end_time": "12:00", "location": "Activity location", "cost": 0, "source": "Data source", "weather_alternative": "Alternative activity if weather is bad"}
    ]
  },
  "unique_selling_point": "What makes this itinerary special"
}
`

// Fallback builds itineraries locally from fixed catalogs.
func (s ItineraryService) Fallback(req models.PlanRequest, forecast models.Forecast, alerts []string) []models.Itinerary {
	rnd := pickRand(s.Rand)
	dest := req.Destination
	days := req.NumDays
	prefs := req.CombinedPreferences()
	limit := float64(req.Budget) * 0.9

	out := make([]models.Itinerary, 0, req.NumItineraries)
	for i := 0; i < req.NumItineraries; i++ {
		focus := choice(rnd, fallbackFocuses)
		flightPrice := randBetween(rnd, 200, 600)
		nightly := randBetween(rnd, 80, 300)
		total := flightPrice + nightly*days

		if float64(total) > limit {
			scale := limit / float64(total)
			flightPrice = int(float64(flightPrice) * scale)
			nightly = int(float64(nightly) * scale)
			total = flightPrice + nightly*days
		}

		it := models.Itinerary{
			ID:                    s.newID(),
			Title:                 fmt.Sprintf("%s %s Experience", focus, dest),
			Focus:                 focus,
			Description:           fmt.Sprintf("A %d-day %s trip to %s focusing on %s", days, strings.ToLower(focus), dest, prefs),
			TotalCost:             float64(total),
			WeatherConsiderations: "Check local weather forecast and plan accordingly. Have indoor alternatives ready.",
			SafetyRecommendations: strings.Join(alerts, " "),
			FlightOptions: []models.FlightOption{{
				Airline:  choice(rnd, fallbackAirlines),
				Price:    float64(flightPrice),
				Duration: fmt.Sprintf("%dh %dm", randBetween(rnd, 2, 8), randBetween(rnd, 0, 59)),
				Dates:    "Flexible dates",
				Source:   fallbackSource,
			}},
			AccommodationOptions: []models.AccommodationOption{{
				Name:          fmt.Sprintf("%s %s", choice(rnd, fallbackHotels), dest),
				Type:          "Hotel",
				PricePerNight: float64(nightly),
				TotalPrice:    float64(nightly * days),
				Rating:        math.Round((3.5+rnd.Float64()*1.5)*10) / 10,
				Location:      "City Center",
				Source:        fallbackSource,
			}},
			UniqueSellingPoint: fmt.Sprintf("Perfect for travelers seeking a %s experience", strings.ToLower(focus)),
		}

		day := req.StartDate
		for d := 1; d <= days; d++ {
			condition := "Sunny"
			if w, ok := forecast[utils.FormatDate(day)]; ok {
				condition = w.Condition
			}
			acts := make([]models.Activity, 0, 2)
			for j := 0; j < 2; j++ {
				activityType := focus
				if _, ok := activityCatalog[focus]; !ok {
					activityType = choice(rnd, activityTypeOrder)
				}
				name := choice(rnd, activityCatalog[activityType])
				alternative := ""
				if alt, ok := indoorAlternatives[name]; ok && (condition == "Rainy" || condition == "Stormy") {
					alternative = alt
				}
				acts = append(acts, models.Activity{
					Name:               name,
					Description:        fmt.Sprintf("Enjoy a %s experience in %s", strings.ToLower(name), dest),
					StartTime:          fmt.Sprintf("%d:00", 9+j*4),
					EndTime:            fmt.Sprintf("%d:00", 12+j*4),
					Location:           dest + " City Center",
					Cost:               float64(randBetween(rnd, 20, 100)),
					Source:             fallbackSource,
					WeatherAlternative: alternative,
				})
			}
			it.DailyItinerary = append(it.DailyItinerary, models.DayPlan{Label: fmt.Sprintf("Day %d", d), Activities: acts})
			day = day.AddDate(0, 0, 1)
		}
		out = append(out, it)
	}
	return out
}
