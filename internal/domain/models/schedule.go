package models

import "time"

// Schedule is one departure of a bus on a route. Capacity comes from the bus.
type Schedule struct {
	ID             int64     `json:"id"`
	BusID          int64     `json:"bus_id"`
	BusNumber      string    `json:"bus_number"`
	RouteID        int64     `json:"route_id"`
	DepartureTime  time.Time `json:"departure_time"`
	Capacity       int       `json:"total_seats"`
	AvailableSeats int       `json:"available_seats"`
}

// SeatsTaken is the number of seats already booked on the schedule.
func (s Schedule) SeatsTaken() int {
	return s.Capacity - s.AvailableSeats
}

// BusStop is one stop on a route, ordered by Sequence.
type BusStop struct {
	ID        int64   `json:"id"`
	RouteID   int64   `json:"route_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sequence  int     `json:"sequence"`
}
