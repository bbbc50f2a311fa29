package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MySQL is the Transactor backed by InnoDB row locks.
type MySQL struct {
	DB *sql.DB
	// TxTimeout bounds every transaction, lock waits included.
	TxTimeout time.Duration
}

type mysqlStores struct {
	schedules    ScheduleRepo
	reservations ReservationRepo
	stops        BusStopRepo
	history      HistoryRepo
}

func (s mysqlStores) Schedules() ScheduleStore       { return s.schedules }
func (s mysqlStores) Reservations() ReservationStore { return s.reservations }
func (s mysqlStores) BusStops() BusStopStore         { return s.stops }
func (s mysqlStores) History() HistoryStore          { return s.history }

func (m MySQL) Schedules() ScheduleStore       { return ScheduleRepo{DB: m.DB} }
func (m MySQL) Reservations() ReservationStore { return ReservationRepo{DB: m.DB} }
func (m MySQL) BusStops() BusStopStore         { return BusStopRepo{DB: m.DB} }
func (m MySQL) History() HistoryStore          { return HistoryRepo{DB: m.DB} }
func (m MySQL) SeatStates() SeatStateStore     { return SeatStateRepo{DB: m.DB} }
func (m MySQL) Users() UserStore               { return UserRepo{DB: m.DB} }

// WithinTx runs fn in one database transaction. fn receives ctx bounded by
// TxTimeout and must issue its statements with it.
func (m MySQL) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Stores) error) (err error) {
	if m.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.TxTimeout)
		defer cancel()
	}

	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	err = fn(ctx, mysqlStores{
		schedules:    ScheduleRepo{DB: tx, inTx: true},
		reservations: ReservationRepo{DB: tx},
		stops:        BusStopRepo{DB: tx},
		history:      HistoryRepo{DB: tx},
	})
	return err
}
