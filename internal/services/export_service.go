package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/phpdave11/gofpdf"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/utils"
)

const layoutFloating = "20060102T150405"

// ExportService renders stored itineraries as calendar and PDF downloads.
type ExportService struct {
	// Loader resolves an itinerary id for the given owner.
	Loader    func(ctx context.Context, id, owner string) (models.SavedItinerary, error)
	Now       func() time.Time
	RequestID string
}

func (s ExportService) load(ctx context.Context, id, owner string) (models.SavedItinerary, error) {
	if s.Loader == nil {
		return models.SavedItinerary{}, domain.InternalError{Msg: "itinerary loader not configured"}
	}
	return s.Loader(ctx, id, owner)
}

func (s ExportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s ExportService) ICal(ctx context.Context, id, owner string) ([]byte, string, error) {
	saved, err := s.load(ctx, id, owner)
	if err != nil {
		return nil, "", err
	}
	start, err := utils.ParseDate(saved.StartDate)
	if err != nil {
		return nil, "", domain.ValidationError{Field: "start_date", Msg: "stored start date is invalid", Err: err}
	}
	data, name := BuildICal(saved.Itinerary, saved.Destination, start, s.now())
	utils.LogEvent(s.RequestID, "export", "ical", "exported "+saved.Itinerary.ID)
	return data, name, nil
}

func (s ExportService) PDF(ctx context.Context, id, owner string) ([]byte, string, error) {
	saved, err := s.load(ctx, id, owner)
	if err != nil {
		return nil, "", err
	}
	data, name, err := BuildPDF(saved.Itinerary, saved.Destination)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "failed to render pdf", Err: err}
	}
	utils.LogEvent(s.RequestID, "export", "pdf", "exported "+saved.Itinerary.ID)
	return data, name, nil
}

// ExportFilename is itinerary_<destination lowercased, spaces as _>.<ext>,
// with path and header-unsafe characters replaced.
func ExportFilename(destination, ext string) string {
	return fmt.Sprintf("itinerary_%s.%s", utils.SafeFilenamePart(utils.Slug(destination)), ext)
}

// BuildICal emits one event per activity. Day N falls on start + N-1.
// Times are floating local times at the destination.
func BuildICal(it models.Itinerary, destination string, start time.Time, stamp time.Time) ([]byte, string) {
	cal := ics.NewCalendar()
	cal.SetProductId(fmt.Sprintf("-//Travel Planner//%s//EN", destination))

	day := start
	for d, plan := range it.DailyItinerary {
		for i, a := range plan.Activities {
			event := cal.AddEvent(fmt.Sprintf("%s-%d-%d@travel-planner", utils.FirstNonEmpty(it.ID, "itinerary"), d+1, i+1))
			event.SetDtStampTime(stamp)
			event.SetSummary(utils.FirstNonEmpty(a.Name, "Activity"))
			event.SetDescription(a.Description)
			event.SetProperty(ics.ComponentPropertyDtStart, clockOn(day, a.StartTime, 9).Format(layoutFloating))
			event.SetProperty(ics.ComponentPropertyDtEnd, clockOn(day, a.EndTime, 12).Format(layoutFloating))
			event.SetLocation(utils.FirstNonEmpty(a.Location, destination))
		}
		day = day.AddDate(0, 0, 1)
	}
	return []byte(cal.Serialize()), ExportFilename(destination, "ics")
}

// clockOn places an HH:MM value on day, using defaultHour:00 when the value
// does not parse.
func clockOn(day time.Time, clock string, defaultHour int) time.Time {
	h, m, err := utils.ParseClock(clock)
	if err != nil {
		h, m = defaultHour, 0
	}
	return utils.AtClock(day, h, m)
}

// BuildPDF lays out the itinerary summary, options and daily plan.
func BuildPDF(it models.Itinerary, destination string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Travel Itinerary for "+destination), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 10, tr("TRAVEL ITINERARY FOR "+strings.ToUpper(destination)), "", "", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []string{
		"Title      : " + it.Title,
		"Focus      : " + it.Focus,
		"Total Cost : " + utils.FormatUSD(it.TotalCost),
	} {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
	}
	para := func(text string) {
		pdf.MultiCell(0, 6, tr(text), "", "", false)
	}

	section("Weather Considerations")
	para(safe(it.WeatherConsiderations, "-"))
	section("Safety Recommendations")
	para(safe(it.SafetyRecommendations, "-"))

	section("FLIGHT OPTIONS")
	for _, f := range it.FlightOptions {
		para(fmt.Sprintf("- %s: %s", f.Airline, utils.FormatUSD(f.Price)))
		para(fmt.Sprintf("  Duration: %s", f.Duration))
		para(fmt.Sprintf("  Dates: %s", f.Dates))
	}

	section("ACCOMMODATION OPTIONS")
	for _, h := range it.AccommodationOptions {
		para(fmt.Sprintf("- %s (%s)", h.Name, h.Type))
		para(fmt.Sprintf("  %s/night, Total: %s", utils.FormatUSD(h.PricePerNight), utils.FormatUSD(h.TotalPrice)))
		para(fmt.Sprintf("  Rating: %.1f/5", h.Rating))
		para(fmt.Sprintf("  Location: %s", h.Location))
	}

	section("DAILY ITINERARY")
	for _, day := range it.DailyItinerary {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, tr(strings.ToUpper(day.Label)+":"))
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		for _, a := range day.Activities {
			para(fmt.Sprintf("- %s-%s: %s", a.StartTime, a.EndTime, a.Name))
			para(fmt.Sprintf("  Cost: %s", utils.FormatUSD(a.Cost)))
			para(fmt.Sprintf("  Location: %s", a.Location))
			if a.WeatherAlternative != "" {
				para(fmt.Sprintf("  Weather Alternative: %s", a.WeatherAlternative))
			}
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 11)
	para("Unique Selling Point: " + it.UniqueSellingPoint)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ExportFilename(destination, "pdf"), nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
