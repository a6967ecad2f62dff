package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/http/middleware"
	"travelplanner/internal/utils"
)

type planRequest struct {
	Destination    string   `json:"destination"`
	StartDate      string   `json:"start_date"`
	NumDays        int      `json:"num_days"`
	Budget         int      `json:"budget"`
	TravelStyle    []string `json:"travel_style"`
	Preferences    string   `json:"preferences"`
	NumItineraries int      `json:"num_itineraries"`
}

func (r planRequest) toModel() (models.PlanRequest, error) {
	out := models.PlanRequest{
		Destination:    r.Destination,
		NumDays:        r.NumDays,
		Budget:         r.Budget,
		TravelStyles:   r.TravelStyle,
		Preferences:    r.Preferences,
		NumItineraries: r.NumItineraries,
	}
	if strings.TrimSpace(r.StartDate) != "" {
		start, err := utils.ParseDate(r.StartDate)
		if err != nil {
			return out, domain.ValidationError{Field: "start_date", Msg: "start_date must be YYYY-MM-DD", Err: err}
		}
		out.StartDate = start
	}
	return out, nil
}

// CreateItineraries handles POST /api/itineraries
func (h *Handler) CreateItineraries(c *gin.Context) {
	var req planRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	plan, err := req.toModel()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	itineraries, err := h.itineraries(c).Generate(c.Request.Context(), middleware.GetUserEmail(c), plan)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"itineraries": itineraries})
}

// GetItinerary handles GET /api/itineraries/:id
func (h *Handler) GetItinerary(c *gin.Context) {
	saved, err := h.itineraries(c).Get(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ExportICal handles GET /api/itineraries/:id/ical
func (h *Handler) ExportICal(c *gin.Context) {
	data, name, err := h.exports(c).ICal(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// ExportPDF handles GET /api/itineraries/:id/pdf
func (h *Handler) ExportPDF(c *gin.Context) {
	data, name, err := h.exports(c).PDF(c.Request.Context(), c.Param("id"), middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/pdf", data)
}
