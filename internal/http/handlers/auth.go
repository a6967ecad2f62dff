package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/http/middleware"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		respondError(c, http.StatusBadRequest, "validation_error", "Passwords do not match", nil)
		return
	}
	profile, err := h.users(c).Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful! Please login.",
		"user":    profile,
	})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	profile, token, err := h.users(c).Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  profile,
	})
}

// Me handles GET /api/me
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.users(c).Profile(c.Request.Context(), middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdatePreferences handles PUT /api/me/preferences
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var prefs map[string]any
	if !BindJSONOrError(c, &prefs) {
		return
	}
	if err := h.users(c).UpdatePreferences(c.Request.Context(), middleware.GetUserEmail(c), prefs); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// BookingHistory handles GET /api/me/history
func (h *Handler) BookingHistory(c *gin.Context) {
	history, err := h.users(c).BookingHistory(c.Request.Context(), middleware.GetUserEmail(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_history": history})
}
