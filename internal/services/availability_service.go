package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"transpo/internal/domain"
	"transpo/internal/domain/models"
	"transpo/internal/repositories"
	"transpo/internal/utils"
)

// Seat is one cell of a SeatGrid. PassengerName is nil when the caller may
// not see who holds the seat.
type Seat struct {
	SeatNumber    int               `json:"seat_number"`
	Status        domain.SeatStatus `json:"status"`
	PassengerName *string           `json:"passenger_name"`
	Mine          bool              `json:"mine,omitempty"`
}

type SeatGrid struct {
	ScheduleID     int64  `json:"schedule_id"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	Seats          []Seat `json:"seats"`
}

// SeatInfo lists the reserved seat numbers in ascending order.
type SeatInfo struct {
	ReservedSeats       []int `json:"reserved_seats"`
	ReservedCount       int   `json:"reserved_count"`
	AvailableSeats      int   `json:"available_seats"`
	TotalSeats          int   `json:"total_seats"`
	QuotaSeats          int   `json:"quota_seats"`
	RemainingQuotaSeats int   `json:"remaining_quota_seats"`
}

type SeatDetail struct {
	ScheduleID    int64              `json:"schedule_id"`
	SeatNumber    int                `json:"seat_number"`
	Reserved      bool               `json:"reserved"`
	ReservationID *int64             `json:"reservation_id,omitempty"`
	PassengerName *string            `json:"passenger_name,omitempty"`
	Paid          *bool              `json:"paid,omitempty"`
	State         *domain.SeatStatus `json:"state,omitempty"`
	UpdatedBy     string             `json:"updated_by,omitempty"`
}

// AvailabilityService serves unlocked seat reads plus the conductor overlay.
// Results may be stale the moment they are returned.
type AvailabilityService struct {
	Store     repositories.Transactor
	RequestID string
}

func (s AvailabilityService) SeatAvailability(ctx context.Context, scheduleID int64, caller domain.Caller) (SeatGrid, error) {
	sc, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return SeatGrid{}, err
	}
	list, err := s.Store.Reservations().FindBySchedule(ctx, sc.ID)
	if err != nil {
		return SeatGrid{}, domain.InternalError{Msg: "could not read reservations", Err: err}
	}
	bySeat := lo.KeyBy(list, func(r models.Reservation) int { return r.SeatNumber })

	grid := SeatGrid{
		ScheduleID:     sc.ID,
		TotalSeats:     sc.Capacity,
		AvailableSeats: sc.AvailableSeats,
		Seats:          make([]Seat, 0, sc.Capacity),
	}
	for n := 1; n <= sc.Capacity; n++ {
		seat := Seat{SeatNumber: n, Status: domain.SeatAvailable}
		if r, ok := bySeat[n]; ok {
			seat.Status = domain.SeatReserved
			if r.Paid {
				seat.Status = domain.SeatPaid
			}
			seat.Mine = r.OwnedBy(caller.Identity)
			if caller.Role.Privileged() || seat.Mine {
				seat.PassengerName = lo.ToPtr(r.PassengerName)
			}
		}
		grid.Seats = append(grid.Seats, seat)
	}
	return grid, nil
}

func (s AvailabilityService) SeatInfo(ctx context.Context, scheduleID int64) (SeatInfo, error) {
	sc, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return SeatInfo{}, err
	}
	list, err := s.Store.Reservations().FindBySchedule(ctx, sc.ID)
	if err != nil {
		return SeatInfo{}, domain.InternalError{Msg: "could not read reservations", Err: err}
	}
	reserved := lo.Map(list, func(r models.Reservation, _ int) int { return r.SeatNumber })
	sort.Ints(reserved)

	return SeatInfo{
		ReservedSeats:       reserved,
		ReservedCount:       sc.SeatsTaken(),
		AvailableSeats:      sc.AvailableSeats,
		TotalSeats:          sc.Capacity,
		QuotaSeats:          Quota(sc.Capacity),
		RemainingQuotaSeats: RemainingQuota(sc),
	}, nil
}

// SeatDetail combines the live reservation (if any) with the overlay row (if any).
func (s AvailabilityService) SeatDetail(ctx context.Context, scheduleID int64, seatNumber int) (SeatDetail, error) {
	sc, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return SeatDetail{}, err
	}
	if err := checkSeatRange(sc, seatNumber); err != nil {
		return SeatDetail{}, err
	}

	out := SeatDetail{ScheduleID: sc.ID, SeatNumber: seatNumber}
	list, err := s.Store.Reservations().FindBySchedule(ctx, sc.ID)
	if err != nil {
		return SeatDetail{}, domain.InternalError{Msg: "could not read reservations", Err: err}
	}
	if r, ok := lo.Find(list, func(r models.Reservation) bool { return r.SeatNumber == seatNumber }); ok {
		out.Reserved = true
		out.ReservationID = lo.ToPtr(r.ID)
		out.PassengerName = lo.ToPtr(r.PassengerName)
		out.Paid = lo.ToPtr(r.Paid)
	}

	st, ok, err := s.Store.SeatStates().Find(ctx, sc.ID, seatNumber)
	if err != nil {
		return SeatDetail{}, domain.InternalError{Msg: "could not read seat state", Err: err}
	}
	if ok {
		out.State = lo.ToPtr(st.State)
		out.UpdatedBy = st.UpdatedBy
	}
	return out, nil
}

// SetSeatState upserts the display overlay. It never touches capacity.
func (s AvailabilityService) SetSeatState(ctx context.Context, scheduleID int64, seatNumber int, state string, caller domain.Caller) (models.SeatState, error) {
	if caller.Role != domain.RoleConductor {
		return models.SeatState{}, domain.ValidationError{Msg: "Only conductors can change seat state"}
	}
	st, ok := domain.ParseSeatStatus(state)
	if !ok {
		return models.SeatState{}, domain.ValidationError{Field: "state", Msg: fmt.Sprintf("invalid seat state %q", state)}
	}
	sc, err := s.schedule(ctx, scheduleID)
	if err != nil {
		return models.SeatState{}, err
	}
	if err := checkSeatRange(sc, seatNumber); err != nil {
		return models.SeatState{}, err
	}

	row := models.SeatState{
		ScheduleID: sc.ID,
		SeatNumber: seatNumber,
		State:      st,
		UpdatedBy:  caller.Identity,
		UpdatedAt:  time.Now(),
	}
	if err := s.Store.SeatStates().Upsert(ctx, row); err != nil {
		return models.SeatState{}, domain.InternalError{Msg: "could not save seat state", Err: err}
	}

	utils.LogEvent(s.RequestID, "seats", "set_state",
		fmt.Sprintf("schedule_id=%d seat=%d state=%s by=%s", sc.ID, seatNumber, st, caller.Identity))
	return row, nil
}

func (s AvailabilityService) schedule(ctx context.Context, id int64) (models.Schedule, error) {
	sc, err := s.Store.Schedules().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Schedule{}, domain.NotFoundError{Resource: "schedule", Msg: fmt.Sprintf("Schedule not found: %d", id)}
	}
	if err != nil {
		return models.Schedule{}, domain.InternalError{Msg: "could not load schedule", Err: err}
	}
	return sc, nil
}
