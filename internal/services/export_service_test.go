package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
)

func sampleItinerary() models.Itinerary {
	return models.Itinerary{
		ID:                    "it-1",
		Title:                 "Cultural Paris Experience",
		Focus:                 "Cultural",
		TotalCost:             1234.5,
		WeatherConsiderations: "Pack an umbrella.",
		SafetyRecommendations: NoDisasterAlert,
		FlightOptions:         []models.FlightOption{{Airline: "Delta", Price: 450, Duration: "7h 5m", Dates: "Flexible dates"}},
		AccommodationOptions:  []models.AccommodationOption{{Name: "Hilton Paris", Type: "Hotel", PricePerNight: 120, TotalPrice: 360, Rating: 4.5, Location: "City Center"}},
		DailyItinerary: models.DailyPlan{
			{Label: "Day 1", Activities: []models.Activity{
				{Name: "Museum Tour", Description: "Enjoy a museum tour experience in Paris", StartTime: "9:00", EndTime: "12:00"},
			}},
			{Label: "Day 2", Activities: []models.Activity{
				{Name: "Food Tour", StartTime: "13:00", EndTime: "16:00", Location: "Le Marais", WeatherAlternative: "Cooking class"},
			}},
		},
		UniqueSellingPoint: "Perfect for travelers seeking a cultural experience",
	}
}

func TestBuildICal(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	data, name := BuildICal(sampleItinerary(), "Paris", start, start)
	out := string(data)

	if name != "itinerary_paris.ics" {
		t.Fatalf("unexpected file name %q", name)
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//Travel Planner//Paris//EN",
		"SUMMARY:Museum Tour",
		"DTSTART:20250601T090000",
		"DTEND:20250601T120000",
		"LOCATION:Paris",
		"DTSTART:20250602T130000",
		"LOCATION:Le Marais",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("calendar missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "BEGIN:VEVENT") != 2 {
		t.Fatalf("expected 2 events:\n%s", out)
	}
}

func TestBuildPDF(t *testing.T) {
	data, name, err := BuildPDF(sampleItinerary(), "New York")
	if err != nil {
		t.Fatalf("BuildPDF error: %v", err)
	}
	if name != "itinerary_new_york.pdf" {
		t.Fatalf("unexpected file name %q", name)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestExportServiceUsesLoader(t *testing.T) {
	svc := ExportService{
		Loader: func(_ context.Context, id, owner string) (models.SavedItinerary, error) {
			if id != "it-1" || owner != "ana@example.com" {
				return models.SavedItinerary{}, domain.NotFoundError{Resource: "itinerary"}
			}
			return models.SavedItinerary{Itinerary: sampleItinerary(), Destination: "Paris", StartDate: "2025-06-01"}, nil
		},
	}

	ical, name, err := svc.ICal(context.Background(), "it-1", "ana@example.com")
	if err != nil || len(ical) == 0 || name != "itinerary_paris.ics" {
		t.Fatalf("ICal = %d bytes, %q, %v", len(ical), name, err)
	}
	pdf, name, err := svc.PDF(context.Background(), "it-1", "ana@example.com")
	if err != nil || len(pdf) == 0 || name != "itinerary_paris.pdf" {
		t.Fatalf("PDF = %d bytes, %q, %v", len(pdf), name, err)
	}
	if _, _, err := svc.PDF(context.Background(), "it-2", "ana@example.com"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
