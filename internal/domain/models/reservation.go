package models

import "time"

// Reservation is one passenger's claim on one seat of one schedule.
type Reservation struct {
	ID               int64     `json:"id"`
	ScheduleID       int64     `json:"schedule_id"`
	SeatNumber       int       `json:"seat_number"`
	PassengerName    string    `json:"passenger_name"`
	PassengerEmail   string    `json:"passenger_email"`
	Owner            *string   `json:"owner,omitempty"` // self-service caller; nil when booked by staff
	CreatedBy        string    `json:"created_by,omitempty"`
	BookingTime      time.Time `json:"booking_time"`
	Paid             bool      `json:"paid"`
	PaymentMethod    string    `json:"payment_method,omitempty"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	PickupStopID     *int64    `json:"pickup_stop_id,omitempty"`
	DropStopID       *int64    `json:"drop_stop_id,omitempty"`
}

// OwnedBy reports whether identity owns the reservation.
func (r Reservation) OwnedBy(identity string) bool {
	return r.Owner != nil && identity != "" && *r.Owner == identity
}

const (
	HistoryBooked    = "BOOKED"
	HistoryCancelled = "CANCELLED"
)

// ReservationHistory is an append-only trail of bookings and cancellations.
type ReservationHistory struct {
	ID             int64     `json:"id"`
	ReservationID  int64     `json:"reservation_id"`
	ScheduleID     int64     `json:"schedule_id"`
	SeatNumber     int       `json:"seat_number"`
	PassengerName  string    `json:"passenger_name"`
	PassengerEmail string    `json:"passenger_email"`
	Username       string    `json:"username"`
	CreatedBy      string    `json:"created_by"`
	Status         string    `json:"status"`
	Paid           bool      `json:"paid"`
	At             time.Time `json:"at"`
}
