package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intdb "transpo/internal/db"
	"transpo/internal/domain/models"
)

type BusStopRepo struct {
	DB intdb.DBTX
}

func (r BusStopRepo) FindByID(ctx context.Context, id int64) (models.BusStop, error) {
	var s models.BusStop
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, route_id, name, latitude, longitude, sequence
		FROM bus_stops WHERE id=? LIMIT 1`, id,
	).Scan(&s.ID, &s.RouteID, &s.Name, &s.Latitude, &s.Longitude, &s.Sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BusStop{}, ErrNotFound
	}
	if err != nil {
		return models.BusStop{}, fmt.Errorf("load bus stop %d: %w", id, err)
	}
	return s, nil
}
