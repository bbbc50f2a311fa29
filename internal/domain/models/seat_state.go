package models

import (
	"time"

	"transpo/internal/domain"
)

// SeatState is a conductor-set display override. It never touches capacity.
type SeatState struct {
	ID         int64             `json:"id"`
	ScheduleID int64             `json:"schedule_id"`
	SeatNumber int               `json:"seat_number"`
	State      domain.SeatStatus `json:"state"`
	UpdatedBy  string            `json:"updated_by"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
