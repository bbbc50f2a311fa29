package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "transpo/internal/db"
	"transpo/internal/domain/models"
)

const reservationCols = `id, schedule_id, seat_number, passenger_name, passenger_email,
	username, created_by, booking_time, paid, COALESCE(payment_method, ''),
	COALESCE(payment_reference, ''), pickup_stop_id, drop_stop_id`

type ReservationRepo struct {
	DB intdb.DBTX
}

func (r ReservationRepo) FindByID(ctx context.Context, id int64) (models.Reservation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id=? LIMIT 1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reservation{}, ErrNotFound
	}
	if err != nil {
		return models.Reservation{}, fmt.Errorf("load reservation %d: %w", id, err)
	}
	return res, nil
}

func (r ReservationRepo) FindBySchedule(ctx context.Context, scheduleID int64) ([]models.Reservation, error) {
	return r.list(ctx, `WHERE schedule_id=? ORDER BY seat_number ASC`, scheduleID)
}

func (r ReservationRepo) FindByCaller(ctx context.Context, identity string) ([]models.Reservation, error) {
	return r.list(ctx, `WHERE username=? ORDER BY id ASC`, identity)
}

func (r ReservationRepo) FindByEmail(ctx context.Context, email string) ([]models.Reservation, error) {
	return r.list(ctx, `WHERE passenger_email=? ORDER BY id ASC`, email)
}

func (r ReservationRepo) FindAll(ctx context.Context) ([]models.Reservation, error) {
	return r.list(ctx, `ORDER BY id ASC`)
}

func (r ReservationRepo) Save(ctx context.Context, res models.Reservation) (models.Reservation, error) {
	owner := sql.NullString{}
	if res.Owner != nil {
		owner = sql.NullString{String: *res.Owner, Valid: true}
	}

	if res.ID == 0 {
		out, err := r.DB.ExecContext(ctx, `
			INSERT INTO reservations
			(schedule_id, seat_number, passenger_name, passenger_email, username, created_by,
			 booking_time, paid, payment_method, payment_reference, pickup_stop_id, drop_stop_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ScheduleID, res.SeatNumber, res.PassengerName, res.PassengerEmail, owner, res.CreatedBy,
			res.BookingTime, res.Paid, intdb.NullIfEmpty(res.PaymentMethod), intdb.NullIfEmpty(res.PaymentReference),
			intdb.NullInt64(res.PickupStopID), intdb.NullInt64(res.DropStopID),
		)
		if err != nil {
			return models.Reservation{}, fmt.Errorf("insert reservation: %w", err)
		}
		id, err := out.LastInsertId()
		if err != nil {
			return models.Reservation{}, fmt.Errorf("insert reservation id: %w", err)
		}
		res.ID = id
		return res, nil
	}

	_, err := r.DB.ExecContext(ctx, `
		UPDATE reservations
		SET schedule_id=?, seat_number=?, passenger_name=?, passenger_email=?,
		    pickup_stop_id=?, drop_stop_id=?
		WHERE id=?`,
		res.ScheduleID, res.SeatNumber, res.PassengerName, res.PassengerEmail,
		intdb.NullInt64(res.PickupStopID), intdb.NullInt64(res.DropStopID), res.ID,
	)
	if err != nil {
		return models.Reservation{}, fmt.Errorf("update reservation %d: %w", res.ID, err)
	}
	return res, nil
}

func (r ReservationRepo) Delete(ctx context.Context, id int64) error {
	out, err := r.DB.ExecContext(ctx, `DELETE FROM reservations WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r ReservationRepo) MarkPaid(ctx context.Context, id int64, method, reference string) error {
	out, err := r.DB.ExecContext(ctx,
		`UPDATE reservations SET paid=1, payment_method=?, payment_reference=? WHERE id=?`,
		intdb.NullIfEmpty(method), intdb.NullIfEmpty(reference), id,
	)
	if err != nil {
		return fmt.Errorf("mark reservation %d paid: %w", id, err)
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		if _, ferr := r.FindByID(ctx, id); errors.Is(ferr, ErrNotFound) {
			return ErrNotFound
		}
	}
	return nil
}

func (r ReservationRepo) list(ctx context.Context, where string, args ...any) ([]models.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reservationCols+` FROM reservations `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return out, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (models.Reservation, error) {
	var (
		res          models.Reservation
		owner        sql.NullString
		pickup, drop sql.NullInt64
	)
	err := row.Scan(
		&res.ID,
		&res.ScheduleID,
		&res.SeatNumber,
		&res.PassengerName,
		&res.PassengerEmail,
		&owner,
		&res.CreatedBy,
		&res.BookingTime,
		&res.Paid,
		&res.PaymentMethod,
		&res.PaymentReference,
		&pickup,
		&drop,
	)
	if err != nil {
		return models.Reservation{}, err
	}
	res.Owner = intdb.StringPtr(owner)
	res.PickupStopID = intdb.Int64Ptr(pickup)
	res.DropStopID = intdb.Int64Ptr(drop)
	return res, nil
}
