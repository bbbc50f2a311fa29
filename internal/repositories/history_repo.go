package repositories

import (
	"context"
	"fmt"

	intdb "transpo/internal/db"
	"transpo/internal/domain/models"
)

type HistoryRepo struct {
	DB intdb.DBTX
}

func (r HistoryRepo) Append(ctx context.Context, h models.ReservationHistory) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO reservation_history
		(reservation_id, schedule_id, seat_number, passenger_name, passenger_email,
		 username, created_by, status, paid, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ReservationID, h.ScheduleID, h.SeatNumber, h.PassengerName, h.PassengerEmail,
		h.Username, h.CreatedBy, h.Status, h.Paid, h.At,
	)
	if err != nil {
		return fmt.Errorf("append history for reservation %d: %w", h.ReservationID, err)
	}
	return nil
}

func (r HistoryRepo) FindByUsername(ctx context.Context, username string) ([]models.ReservationHistory, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, reservation_id, schedule_id, seat_number, passenger_name, passenger_email,
		       username, created_by, status, paid, at
		FROM reservation_history
		WHERE username=?
		ORDER BY at DESC, id DESC`, username)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []models.ReservationHistory{}
	for rows.Next() {
		var h models.ReservationHistory
		if err := rows.Scan(
			&h.ID, &h.ReservationID, &h.ScheduleID, &h.SeatNumber, &h.PassengerName,
			&h.PassengerEmail, &h.Username, &h.CreatedBy, &h.Status, &h.Paid, &h.At,
		); err != nil {
			return out, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
