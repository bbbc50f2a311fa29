package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type paymentPayload struct {
	ReservationID int64  `json:"reservation_id" binding:"required"`
	Method        string `json:"payment_method"`
	Reference     string `json:"payment_reference"`
}

// POST /api/payments marks a reservation as paid.
func (a *API) MarkPaid(c *gin.Context) {
	var p paymentPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	if err := a.payments(c).MarkPaid(c.Request.Context(), p.ReservationID, p.Method, p.Reference); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment recorded", "reservation_id": p.ReservationID})
}
