package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"travelplanner/internal/clients"
	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
)

type fakeAI struct {
	configured bool
	text       string
	err        error
	prompts    []string
}

func (f *fakeAI) Configured() bool { return f.configured }

func (f *fakeAI) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func planRequest() models.PlanRequest {
	return models.PlanRequest{
		Destination:  "Paris",
		StartDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		NumDays:      3,
		Budget:       2000,
		TravelStyles: []string{"Cultural", "Food"},
		Preferences:  "Vegetarian food",
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestNormalizePlanRequest(t *testing.T) {
	svc := ItineraryService{}
	req, err := svc.Normalize(planRequest())
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if req.NumItineraries != DefaultNumItineraries {
		t.Fatalf("expected default itinerary count, got %d", req.NumItineraries)
	}

	bad := []func(*models.PlanRequest){
		func(r *models.PlanRequest) { r.Destination = "  " },
		func(r *models.PlanRequest) { r.NumDays = 0 },
		func(r *models.PlanRequest) { r.NumDays = 31 },
		func(r *models.PlanRequest) { r.Budget = 499 },
		func(r *models.PlanRequest) { r.Budget = 10001 },
		func(r *models.PlanRequest) { r.StartDate = time.Time{} },
		func(r *models.PlanRequest) { r.NumItineraries = 9 },
	}
	for i, mutate := range bad {
		r := planRequest()
		mutate(&r)
		if _, err := svc.Normalize(r); !domain.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestFallbackRespectsBudgetAndShape(t *testing.T) {
	req := planRequest()
	req.Budget = 500
	req.NumDays = 7
	req.NumItineraries = 3
	forecast := WeatherService{}.Forecast(context.Background(), req.Destination, req.StartDate, req.NumDays)

	its := ItineraryService{NewID: sequentialIDs()}.Fallback(req, forecast, []string{NoDisasterAlert})
	if len(its) != 3 {
		t.Fatalf("expected 3 itineraries, got %d", len(its))
	}
	seen := map[string]bool{}
	for _, it := range its {
		if seen[it.ID] {
			t.Fatalf("duplicate id %s", it.ID)
		}
		seen[it.ID] = true

		flight := it.FlightOptions[0].Price
		nightly := it.AccommodationOptions[0].PricePerNight
		if it.TotalCost != flight+nightly*7 {
			t.Fatalf("total %v != %v + %v*7", it.TotalCost, flight, nightly)
		}
		if it.TotalCost > 450 {
			t.Fatalf("total %v exceeds 90%% of budget", it.TotalCost)
		}
		if r := it.AccommodationOptions[0].Rating; r < 3.5 || r > 5.0 {
			t.Fatalf("rating %v out of range", r)
		}
		if it.SafetyRecommendations != NoDisasterAlert {
			t.Fatalf("unexpected safety text %q", it.SafetyRecommendations)
		}
		if len(it.DailyItinerary) != 7 || it.DailyItinerary[6].Label != "Day 7" {
			t.Fatalf("unexpected daily plan %+v", it.DailyItinerary)
		}
		for _, day := range it.DailyItinerary {
			if len(day.Activities) != 2 {
				t.Fatalf("%s: expected 2 activities", day.Label)
			}
			a, b := day.Activities[0], day.Activities[1]
			if a.StartTime != "9:00" || a.EndTime != "12:00" || b.StartTime != "13:00" || b.EndTime != "16:00" {
				t.Fatalf("%s: unexpected times %+v", day.Label, day.Activities)
			}
			for _, act := range day.Activities {
				if act.Cost < 20 || act.Cost > 100 {
					t.Fatalf("activity cost %v out of range", act.Cost)
				}
			}
		}
	}
}

func TestFallbackIndoorAlternativesOnlyInBadWeather(t *testing.T) {
	req := planRequest()
	req.NumDays = 2
	req.NumItineraries = 5
	for _, condition := range []string{"Rainy", "Sunny"} {
		forecast := models.Forecast{
			"2025-06-01": {Condition: condition},
			"2025-06-02": {Condition: condition},
		}
		for _, it := range (ItineraryService{}).Fallback(req, forecast, nil) {
			for _, day := range it.DailyItinerary {
				for _, a := range day.Activities {
					want := ""
					if condition == "Rainy" {
						want = indoorAlternatives[a.Name]
					}
					if a.WeatherAlternative != want {
						t.Fatalf("%s/%s: alternative %q, want %q", condition, a.Name, a.WeatherAlternative, want)
					}
				}
			}
		}
	}
}

func TestGenerateUsesAIAndStores(t *testing.T) {
	ai := &fakeAI{
		configured: true,
		text: "Here are your options:\n```json\n[" +
			`{"id":"unique_id","title":"Luxury Paris","focus":"Luxury","total_cost":1800,` +
			`"daily_itinerary":{"Day 2":[{"name":"Louvre"}],"Day 1":[{"name":"Seine cruise"}]}}` +
			"]\n```\nEnjoy!",
	}
	cache := clients.NewMemoryCache(time.Hour)
	svc := ItineraryService{AI: ai, Cache: cache, NewID: sequentialIDs()}

	its, err := svc.Generate(context.Background(), "ana@example.com", planRequest())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(its) != 1 || its[0].ID != "id-1" || its[0].Title != "Luxury Paris" {
		t.Fatalf("unexpected itineraries %+v", its)
	}
	if its[0].DailyItinerary[0].Label != "Day 1" {
		t.Fatalf("days not ordered: %+v", its[0].DailyItinerary)
	}
	if len(ai.prompts) != 1 || !strings.Contains(ai.prompts[0], "**Destination:** Paris") ||
		!strings.Contains(ai.prompts[0], "Vegetarian food Cultural, Food") {
		t.Fatalf("unexpected prompt %v", ai.prompts)
	}

	saved, err := svc.Get(context.Background(), "id-1", "ana@example.com")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if saved.Destination != "Paris" || saved.StartDate != "2025-06-01" {
		t.Fatalf("unexpected saved itinerary %+v", saved)
	}
	if _, err := svc.Get(context.Background(), "id-1", "bob@example.com"); !domain.IsNotFound(err) {
		t.Fatalf("expected other owner to get not found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "nope", ""); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateFallsBack(t *testing.T) {
	cases := map[string]*fakeAI{
		"not configured": {configured: false},
		"ai error":       {configured: true, err: errors.New("quota exceeded")},
		"bad json":       {configured: true, text: "I cannot help with that."},
		"empty array":    {configured: true, text: "[]"},
	}
	for name, ai := range cases {
		t.Run(name, func(t *testing.T) {
			svc := ItineraryService{AI: ai, Cache: clients.NewMemoryCache(time.Hour)}
			its, err := svc.Generate(context.Background(), "ana@example.com", planRequest())
			if err != nil {
				t.Fatalf("Generate error: %v", err)
			}
			if len(its) != DefaultNumItineraries {
				t.Fatalf("expected %d fallback itineraries, got %d", DefaultNumItineraries, len(its))
			}
			if its[0].FlightOptions[0].Source != "Fallback data" {
				t.Fatalf("expected fallback source, got %+v", its[0].FlightOptions)
			}
			if !ai.configured && len(ai.prompts) != 0 {
				t.Fatalf("unconfigured model should not be called")
			}
		})
	}
}

func TestParseItinerariesWholeText(t *testing.T) {
	if _, err := ParseItineraries(`{"id":"x"}`); err == nil {
		t.Fatalf("expected error for a non-array payload")
	}
	its, err := ParseItineraries(`[{"id":"a"},{"id":"b"}]`)
	if err != nil || len(its) != 2 {
		t.Fatalf("ParseItineraries = %v, %v", its, err)
	}
}
