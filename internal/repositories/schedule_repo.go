package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "transpo/internal/db"
	"transpo/internal/domain/models"
)

const scheduleSelect = `
	SELECT s.id, s.bus_id, COALESCE(b.bus_number, ''), s.route_id,
	       s.departure_time, b.total_seats, s.available_seats
	FROM schedules s
	JOIN buses b ON b.id = s.bus_id
	WHERE s.id = ?`

// ScheduleRepo reads schedules joined with their bus for capacity.
// inTx is set only for repos bound to a *sql.Tx; LoadForUpdate and Save
// refuse to run on an autocommit connection.
type ScheduleRepo struct {
	DB   intdb.DBTX
	inTx bool
}

func (r ScheduleRepo) FindByID(ctx context.Context, id int64) (models.Schedule, error) {
	return r.scan(ctx, scheduleSelect, id)
}

func (r ScheduleRepo) LoadForUpdate(ctx context.Context, id int64) (models.Schedule, error) {
	if !r.inTx {
		return models.Schedule{}, ErrNotLocked
	}
	return r.scan(ctx, scheduleSelect+` FOR UPDATE`, id)
}

func (r ScheduleRepo) Save(ctx context.Context, s models.Schedule) error {
	if !r.inTx {
		return ErrNotLocked
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE schedules SET available_seats=? WHERE id=?`, s.AvailableSeats, s.ID)
	if err != nil {
		return fmt.Errorf("update schedule %d: %w", s.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so
		// only treat it as missing when the row is really gone.
		if _, ferr := r.FindByID(ctx, s.ID); errors.Is(ferr, ErrNotFound) {
			return ErrNotFound
		}
	}
	return nil
}

func (r ScheduleRepo) scan(ctx context.Context, query string, id int64) (models.Schedule, error) {
	var s models.Schedule
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.BusID,
		&s.BusNumber,
		&s.RouteID,
		&s.DepartureTime,
		&s.Capacity,
		&s.AvailableSeats,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Schedule{}, ErrNotFound
	}
	if err != nil {
		return models.Schedule{}, fmt.Errorf("load schedule %d: %w", id, err)
	}
	return s, nil
}
