package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

type FlightOption struct {
	Airline  string  `json:"airline"`
	Price    float64 `json:"price"`
	Duration string  `json:"duration"`
	Dates    string  `json:"dates"`
	Source   string  `json:"source"`
}

type AccommodationOption struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	PricePerNight float64 `json:"price_per_night"`
	TotalPrice    float64 `json:"total_price"`
	Rating        float64 `json:"rating"`
	Location      string  `json:"location"`
	Source        string  `json:"source"`
}

type Activity struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	Location           string  `json:"location"`
	Cost               float64 `json:"cost"`
	Source             string  `json:"source"`
	WeatherAlternative string  `json:"weather_alternative"`
}

// DayPlan is one "Day N" entry of an itinerary.
type DayPlan struct {
	Label      string
	Activities []Activity
}

// DailyPlan keeps days in order. On the wire it is an object keyed by the
// day label ({"Day 1": [...], "Day 2": [...]}).
type DailyPlan []DayPlan

func (p DailyPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(day.Label)
		if err != nil {
			return nil, err
		}
		acts := day.Activities
		if acts == nil {
			acts = []Activity{}
		}
		val, err := json.Marshal(acts)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *DailyPlan) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*p = nil
		return nil
	}
	var raw map[string][]Activity
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(DailyPlan, 0, len(raw))
	for label, acts := range raw {
		out = append(out, DayPlan{Label: label, Activities: acts})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, okI := dayNumber(out[i].Label)
		nj, okJ := dayNumber(out[j].Label)
		if okI && okJ && ni != nj {
			return ni < nj
		}
		if okI != okJ {
			return okI
		}
		return out[i].Label < out[j].Label
	})
	*p = out
	return nil
}

// dayNumber reads the trailing integer of labels like "Day 3".
func dayNumber(label string) (int, bool) {
	fields := strings.Fields(label)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

type Itinerary struct {
	ID                    string                `json:"id"`
	Title                 string                `json:"title"`
	Focus                 string                `json:"focus"`
	Description           string                `json:"description"`
	TotalCost             float64               `json:"total_cost"`
	WeatherConsiderations string                `json:"weather_considerations"`
	SafetyRecommendations string                `json:"safety_recommendations"`
	FlightOptions         []FlightOption        `json:"flight_options"`
	AccommodationOptions  []AccommodationOption `json:"accommodation_options"`
	DailyItinerary        DailyPlan             `json:"daily_itinerary"`
	UniqueSellingPoint    string                `json:"unique_selling_point"`
}

// PaidActivities lists activities with a non-zero cost, in day order.
func (it Itinerary) PaidActivities() []Activity {
	var out []Activity
	for _, day := range it.DailyItinerary {
		for _, a := range day.Activities {
			if a.Cost > 0 {
				out = append(out, a)
			}
		}
	}
	return out
}

// PlanRequest is the planning form.
type PlanRequest struct {
	Destination    string    `json:"destination"`
	StartDate      time.Time `json:"start_date"`
	NumDays        int       `json:"num_days"`
	Budget         int       `json:"budget"`
	TravelStyles   []string  `json:"travel_style"`
	Preferences    string    `json:"preferences"`
	NumItineraries int       `json:"num_itineraries"`
}

// CombinedPreferences joins free-text preferences with the selected styles.
func (r PlanRequest) CombinedPreferences() string {
	return strings.TrimSpace(r.Preferences + " " + strings.Join(r.TravelStyles, ", "))
}

// SavedItinerary is an itinerary together with the plan it was generated for.
type SavedItinerary struct {
	Itinerary   Itinerary `json:"itinerary"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"start_date"`
	Owner       string    `json:"owner"`
}
