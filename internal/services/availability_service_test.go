package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpo/internal/domain"
)

func TestSeatAvailabilityRedaction(t *testing.T) {
	e := newEnv(t, 10, 2*time.Hour)
	ctx := context.Background()

	_, err := e.svc.Book(ctx, BookRequest{ScheduleID: 1, SeatNumber: 1, PassengerName: "Alice", PassengerEmail: "a@example.com"}, alice)
	require.NoError(t, err)
	paid, err := e.svc.Book(ctx, BookRequest{ScheduleID: 1, SeatNumber: 2, PassengerName: "Bob", PassengerEmail: "b@example.com"}, bob)
	require.NoError(t, err)
	require.NoError(t, e.store.Reservations().MarkPaid(ctx, paid.ID, "card", "x"))
	_, err = e.svc.Book(ctx, BookRequest{ScheduleID: 1, SeatNumber: 5, PassengerName: "Walk-in", PassengerEmail: "w@example.com"}, conductor)
	require.NoError(t, err)

	svc := AvailabilityService{Store: e.store}

	grid, err := svc.SeatAvailability(ctx, 1, alice)
	require.NoError(t, err)
	require.Len(t, grid.Seats, 10)
	assert.Equal(t, 10, grid.TotalSeats)
	assert.Equal(t, 7, grid.AvailableSeats)

	own := grid.Seats[0]
	assert.Equal(t, domain.SeatReserved, own.Status)
	require.NotNil(t, own.PassengerName)
	assert.Equal(t, "Alice", *own.PassengerName)
	assert.True(t, own.Mine)

	other := grid.Seats[1]
	assert.Equal(t, domain.SeatPaid, other.Status)
	assert.Nil(t, other.PassengerName)
	assert.False(t, other.Mine)

	assert.Equal(t, domain.SeatReserved, grid.Seats[4].Status)
	assert.Nil(t, grid.Seats[4].PassengerName)
	assert.Equal(t, domain.SeatAvailable, grid.Seats[2].Status)

	for _, who := range []domain.Caller{operator, conductor} {
		grid, err := svc.SeatAvailability(ctx, 1, who)
		require.NoError(t, err)
		for _, n := range []int{1, 2, 5} {
			require.NotNil(t, grid.Seats[n-1].PassengerName, "%s must see seat %d", who.Role, n)
		}
		assert.Equal(t, "Bob", *grid.Seats[1].PassengerName)
	}

	driver := domain.Caller{Identity: "drv", Role: domain.RoleDriver}
	grid, err = svc.SeatAvailability(ctx, 1, driver)
	require.NoError(t, err)
	assert.Nil(t, grid.Seats[0].PassengerName)

	_, err = svc.SeatAvailability(ctx, 99, alice)
	assert.True(t, domain.IsNotFound(err))
}

func TestSeatInfo(t *testing.T) {
	e := newEnv(t, 10, 2*time.Hour)
	ctx := context.Background()

	_, err := e.svc.Book(ctx, bookReq(1, 7), alice)
	require.NoError(t, err)
	_, err = e.svc.Book(ctx, bookReq(1, 3), operator)
	require.NoError(t, err)
	_, err = e.svc.Book(ctx, bookReq(1, 9), operator)
	require.NoError(t, err)

	info, err := AvailabilityService{Store: e.store}.SeatInfo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, SeatInfo{
		ReservedSeats:       []int{3, 7, 9},
		ReservedCount:       3,
		AvailableSeats:      7,
		TotalSeats:          10,
		QuotaSeats:          2,
		RemainingQuotaSeats: 0,
	}, info)

	empty, err := AvailabilityService{Store: e.store}.SeatInfo(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{}, empty.ReservedSeats)
}

func TestSeatDetailAndOverlay(t *testing.T) {
	e := newEnv(t, 10, 2*time.Hour)
	ctx := context.Background()
	svc := AvailabilityService{Store: e.store}

	r, err := e.svc.Book(ctx, BookRequest{ScheduleID: 1, SeatNumber: 4, PassengerName: "Dora", PassengerEmail: "d@example.com"}, operator)
	require.NoError(t, err)

	d, err := svc.SeatDetail(ctx, 1, 4)
	require.NoError(t, err)
	assert.True(t, d.Reserved)
	assert.Equal(t, r.ID, *d.ReservationID)
	assert.Equal(t, "Dora", *d.PassengerName)
	assert.False(t, *d.Paid)
	assert.Nil(t, d.State)

	_, err = svc.SetSeatState(ctx, 1, 6, "disabled", operator)
	assert.True(t, domain.IsValidation(err), "only conductors may set seat state")

	_, err = svc.SetSeatState(ctx, 1, 6, "BROKEN", conductor)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.SetSeatState(ctx, 1, 11, "DISABLED", conductor)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.SetSeatState(ctx, 42, 1, "DISABLED", conductor)
	assert.True(t, domain.IsNotFound(err))

	row, err := svc.SetSeatState(ctx, 1, 6, "disabled", conductor)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatDisabled, row.State)
	assert.Equal(t, "cond", row.UpdatedBy)

	d, err = svc.SeatDetail(ctx, 1, 6)
	require.NoError(t, err)
	assert.False(t, d.Reserved)
	require.NotNil(t, d.State)
	assert.Equal(t, domain.SeatDisabled, *d.State)
	assert.Equal(t, "cond", d.UpdatedBy)

	// the overlay is display-only: booking a disabled seat still works and capacity is untouched by the overlay
	assert.Equal(t, 9, available(t, e, 1))
	_, err = e.svc.Book(ctx, bookReq(1, 6), operator)
	require.NoError(t, err)
	assertInvariants(t, e, 1)

	_, err = svc.SeatDetail(ctx, 1, 0)
	assert.True(t, domain.IsValidation(err))
}
