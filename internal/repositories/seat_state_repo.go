package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "transpo/internal/db"
	"transpo/internal/domain"
	"transpo/internal/domain/models"
)

// SeatStateRepo stores the conductor overlay. No business validation here.
type SeatStateRepo struct {
	DB intdb.DBTX
}

func (r SeatStateRepo) Find(ctx context.Context, scheduleID int64, seatNumber int) (models.SeatState, bool, error) {
	var (
		s     models.SeatState
		state string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, schedule_id, seat_number, state, updated_by, updated_at
		FROM seat_states
		WHERE schedule_id=? AND seat_number=?
		LIMIT 1`, scheduleID, seatNumber,
	).Scan(&s.ID, &s.ScheduleID, &s.SeatNumber, &state, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SeatState{}, false, nil
	}
	if err != nil {
		return models.SeatState{}, false, fmt.Errorf("load seat state %d/%d: %w", scheduleID, seatNumber, err)
	}
	s.State = domain.SeatStatus(state)
	return s, true, nil
}

func (r SeatStateRepo) Upsert(ctx context.Context, s models.SeatState) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO seat_states (schedule_id, seat_number, state, updated_by, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE state=VALUES(state), updated_by=VALUES(updated_by), updated_at=VALUES(updated_at)`,
		s.ScheduleID, s.SeatNumber, string(s.State), s.UpdatedBy, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert seat state %d/%d: %w", s.ScheduleID, s.SeatNumber, err)
	}
	return nil
}
