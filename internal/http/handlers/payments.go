package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/domain"
	"travelplanner/internal/domain/models"
	"travelplanner/internal/http/middleware"
)

type refundRequest struct {
	Amount float64 `json:"amount"`
}

// Checkout handles POST /api/itineraries/:id/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var details models.PaymentDetails
	if !BindJSONOrError(c, &details) {
		return
	}
	res, err := h.checkout(c).Checkout(c.Request.Context(), middleware.GetUserEmail(c), c.Param("id"), details)
	if err != nil {
		if domain.IsProvider(err) {
			respondError(c, http.StatusPaymentRequired, "payment_declined", err.Error(), res.Payment)
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking completed successfully!",
		"payment": res.Payment,
		"booking": res.History,
	})
}

// RefundPayment handles POST /api/payments/:id/refund
func (h *Handler) RefundPayment(c *gin.Context) {
	var req refundRequest
	if !BindOptionalJSON(c, &req) {
		return
	}
	res, err := h.payments(c).RefundPayment(c.Request.Context(), middleware.GetUserEmail(c), c.Param("id"), req.Amount)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
