package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transpo/internal/services"
)

type reservationPayload struct {
	ScheduleID     int64  `json:"schedule_id" binding:"required"`
	SeatNumber     int    `json:"seat_number"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PickupStopID   *int64 `json:"pickup_stop_id"`
	DropStopID     *int64 `json:"drop_stop_id"`
}

// POST /api/reservations/book
func (a *API) BookReservation(c *gin.Context) {
	var p reservationPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	r, err := a.booking(c).Book(c.Request.Context(), services.BookRequest{
		ScheduleID:     p.ScheduleID,
		SeatNumber:     p.SeatNumber,
		PassengerName:  p.PassengerName,
		PassengerEmail: p.PassengerEmail,
		PickupStopID:   p.PickupStopID,
		DropStopID:     p.DropStopID,
	}, caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// PUT /api/reservations/:id
func (a *API) UpdateReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var p reservationPayload
	if !BindJSONOrError(c, &p) {
		return
	}
	r, err := a.booking(c).Update(c.Request.Context(), id, services.UpdateRequest{
		ScheduleID:     p.ScheduleID,
		SeatNumber:     p.SeatNumber,
		PassengerName:  p.PassengerName,
		PassengerEmail: p.PassengerEmail,
		PickupStopID:   p.PickupStopID,
		DropStopID:     p.DropStopID,
	}, caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// DELETE /api/reservations/:id
func (a *API) CancelReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := a.booking(c).Cancel(c.Request.Context(), id, caller(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/reservations/by-email?email=
func (a *API) ReservationsByEmail(c *gin.Context) {
	out, err := a.booking(c).ByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/reservations/me
func (a *API) MyReservations(c *gin.Context) {
	out, err := a.booking(c).Mine(c.Request.Context(), caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/reservations/history
func (a *API) ReservationHistory(c *gin.Context) {
	out, err := a.booking(c).History(c.Request.Context(), caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/reservations
func (a *API) AllReservations(c *gin.Context) {
	out, err := a.booking(c).All(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/reservations/:id/e-ticket returns the PDF inline.
func (a *API) ReservationETicket(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdfBytes, filename, err := a.docs(c).ETicket(c.Request.Context(), id, caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
