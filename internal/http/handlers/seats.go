package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GET /api/schedules/:id/seat-info
func (a *API) SeatInfo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	info, err := a.availability(c).SeatInfo(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// GET /api/schedules/:id/seat-availability
func (a *API) SeatAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	grid, err := a.availability(c).SeatAvailability(c.Request.Context(), id, caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

// GET /api/schedules/:id/seats/:seat
func (a *API) SeatDetail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	seat, ok := paramSeat(c)
	if !ok {
		return
	}
	d, err := a.availability(c).SeatDetail(c.Request.Context(), id, seat)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type seatStatePayload struct {
	State string `json:"state" binding:"required"`
}

// PUT /api/schedules/:id/seats/:seat/state
func (a *API) SetSeatState(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	seat, ok := paramSeat(c)
	if !ok {
		return
	}
	var p seatStatePayload
	if !BindJSONOrError(c, &p) {
		return
	}
	row, err := a.availability(c).SetSeatState(c.Request.Context(), id, seat, p.State, caller(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func paramSeat(c *gin.Context) (int, bool) {
	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid seat", err)
		return 0, false
	}
	return seat, true
}
