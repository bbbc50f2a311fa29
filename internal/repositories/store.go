package repositories

import (
	"context"
	"errors"

	"transpo/internal/domain/models"
)

var (
	// ErrNotFound is returned by every store when the row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotLocked is returned when a capacity write is attempted without
	// holding the schedule lock in the current transaction.
	ErrNotLocked = errors.New("schedule is not locked by this transaction")
)

// ScheduleStore owns the per-schedule capacity counter.
type ScheduleStore interface {
	// FindByID is an unlocked read.
	FindByID(ctx context.Context, id int64) (models.Schedule, error)
	// LoadForUpdate blocks until the schedule's exclusive lock is acquired;
	// the lock is held until the enclosing transaction ends.
	LoadForUpdate(ctx context.Context, id int64) (models.Schedule, error)
	// Save persists AvailableSeats. Only valid inside the locking transaction.
	Save(ctx context.Context, s models.Schedule) error
}

type ReservationStore interface {
	FindByID(ctx context.Context, id int64) (models.Reservation, error)
	FindBySchedule(ctx context.Context, scheduleID int64) ([]models.Reservation, error)
	FindByCaller(ctx context.Context, identity string) ([]models.Reservation, error)
	FindByEmail(ctx context.Context, email string) ([]models.Reservation, error)
	FindAll(ctx context.Context) ([]models.Reservation, error)
	// Save inserts when r.ID == 0 and updates otherwise.
	Save(ctx context.Context, r models.Reservation) (models.Reservation, error)
	Delete(ctx context.Context, id int64) error
	MarkPaid(ctx context.Context, id int64, method, reference string) error
}

type SeatStateStore interface {
	Find(ctx context.Context, scheduleID int64, seatNumber int) (models.SeatState, bool, error)
	Upsert(ctx context.Context, s models.SeatState) error
}

type BusStopStore interface {
	FindByID(ctx context.Context, id int64) (models.BusStop, error)
}

type HistoryStore interface {
	Append(ctx context.Context, h models.ReservationHistory) error
	FindByUsername(ctx context.Context, username string) ([]models.ReservationHistory, error)
}

type UserStore interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
}

// Stores is the set of stores visible inside one unit of work.
type Stores interface {
	Schedules() ScheduleStore
	Reservations() ReservationStore
	BusStops() BusStopStore
	History() HistoryStore
}

// Transactor gives unlocked reads plus transactional units of work.
// fn's error (or a panic) rolls back every write made through tx and
// releases all schedule locks taken inside it.
type Transactor interface {
	Stores
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) error
	SeatStates() SeatStateStore
	Users() UserStore
}
