// Package memory is an in-process Transactor. Schedule locks are a table of
// one-slot channels keyed by schedule id; writes made inside WithinTx are
// journaled so a failed unit of work leaves no trace.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"transpo/internal/domain/models"
	"transpo/internal/repositories"
)

type seatKey struct {
	scheduleID int64
	seat       int
}

type Store struct {
	// TxTimeout bounds every transaction, lock waits included.
	TxTimeout time.Duration

	mu           sync.RWMutex
	schedules    map[int64]models.Schedule
	reservations map[int64]models.Reservation
	stops        map[int64]models.BusStop
	seatStates   map[seatKey]models.SeatState
	history      []models.ReservationHistory
	users        []models.User
	nextID       int64

	locks lockTable
}

func New() *Store {
	return &Store{
		schedules:    map[int64]models.Schedule{},
		reservations: map[int64]models.Reservation{},
		stops:        map[int64]models.BusStop{},
		seatStates:   map[seatKey]models.SeatState{},
		locks:        lockTable{slots: map[int64]chan struct{}{}},
	}
}

// PutSchedule seeds master data as given; AvailableSeats is stored verbatim.
func (s *Store) PutSchedule(sc models.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sc.ID] = sc
}

func (s *Store) PutBusStop(st models.BusStop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops[st.ID] = st
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if u.ID == 0 {
		u.ID = s.nextID
	}
	s.users = append(s.users, u)
}

func (s *Store) Schedules() repositories.ScheduleStore       { return scheduleStore{s: s} }
func (s *Store) Reservations() repositories.ReservationStore { return reservationStore{s: s} }
func (s *Store) BusStops() repositories.BusStopStore         { return busStopStore{s: s} }
func (s *Store) History() repositories.HistoryStore          { return historyStore{s: s} }
func (s *Store) SeatStates() repositories.SeatStateStore     { return seatStateStore{s: s} }
func (s *Store) Users() repositories.UserStore               { return userStore{s: s} }

// WithinTx runs fn as one unit of work. fn receives ctx bounded by
// TxTimeout; lock waits give up when either context ends.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Stores) error) (err error) {
	if s.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.TxTimeout)
		defer cancel()
	}

	t := &tx{s: s, ctx: ctx, held: map[int64]bool{}}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			t.release()
			panic(p)
		}
		if err != nil {
			t.rollback()
		}
		t.release()
	}()

	err = fn(ctx, t)
	return err
}

// tx is one unit of work: the locks it holds and the undo journal.
type tx struct {
	s     *Store
	ctx   context.Context
	held  map[int64]bool
	order []int64
	undo  []func()
}

func (t *tx) Schedules() repositories.ScheduleStore       { return scheduleStore{s: t.s, tx: t} }
func (t *tx) Reservations() repositories.ReservationStore { return reservationStore{s: t.s, tx: t} }
func (t *tx) BusStops() repositories.BusStopStore         { return busStopStore{s: t.s} }
func (t *tx) History() repositories.HistoryStore          { return historyStore{s: t.s, tx: t} }

// journal must be called with s.mu held.
func (t *tx) journal(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *tx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.s.locks.release(t.order[i])
	}
	t.order = nil
	t.held = map[int64]bool{}
}

type lockTable struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
}

func (l *lockTable) slot(id int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[id] = ch
	}
	return ch
}

func (l *lockTable) acquire(ctx, txCtx context.Context, id int64) error {
	select {
	case l.slot(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-txCtx.Done():
		return txCtx.Err()
	}
}

func (l *lockTable) release(id int64) {
	<-l.slot(id)
}

type scheduleStore struct {
	s  *Store
	tx *tx
}

func (st scheduleStore) FindByID(_ context.Context, id int64) (models.Schedule, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()
	sc, ok := st.s.schedules[id]
	if !ok {
		return models.Schedule{}, repositories.ErrNotFound
	}
	return sc, nil
}

func (st scheduleStore) LoadForUpdate(ctx context.Context, id int64) (models.Schedule, error) {
	if st.tx == nil {
		return models.Schedule{}, repositories.ErrNotLocked
	}
	if !st.tx.held[id] {
		if _, err := st.FindByID(ctx, id); err != nil {
			return models.Schedule{}, err
		}
		if err := st.s.locks.acquire(ctx, st.tx.ctx, id); err != nil {
			return models.Schedule{}, err
		}
		st.tx.held[id] = true
		st.tx.order = append(st.tx.order, id)
	}
	// re-read after the lock so the caller sees the committed state
	return st.FindByID(ctx, id)
}

func (st scheduleStore) Save(_ context.Context, sc models.Schedule) error {
	if st.tx == nil || !st.tx.held[sc.ID] {
		return repositories.ErrNotLocked
	}
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	prev, ok := st.s.schedules[sc.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	st.tx.journal(func() { st.s.schedules[prev.ID] = prev })
	prev.AvailableSeats = sc.AvailableSeats
	st.s.schedules[sc.ID] = prev
	return nil
}

type reservationStore struct {
	s  *Store
	tx *tx
}

func (rs reservationStore) FindByID(_ context.Context, id int64) (models.Reservation, error) {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	r, ok := rs.s.reservations[id]
	if !ok {
		return models.Reservation{}, repositories.ErrNotFound
	}
	return r, nil
}

func (rs reservationStore) FindBySchedule(_ context.Context, scheduleID int64) ([]models.Reservation, error) {
	out := rs.filter(func(r models.Reservation) bool { return r.ScheduleID == scheduleID })
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

func (rs reservationStore) FindByCaller(_ context.Context, identity string) ([]models.Reservation, error) {
	return rs.filter(func(r models.Reservation) bool { return r.OwnedBy(identity) }), nil
}

func (rs reservationStore) FindByEmail(_ context.Context, email string) ([]models.Reservation, error) {
	return rs.filter(func(r models.Reservation) bool { return strings.EqualFold(r.PassengerEmail, email) }), nil
}

func (rs reservationStore) FindAll(_ context.Context) ([]models.Reservation, error) {
	return rs.filter(func(models.Reservation) bool { return true }), nil
}

func (rs reservationStore) filter(keep func(models.Reservation) bool) []models.Reservation {
	rs.s.mu.RLock()
	defer rs.s.mu.RUnlock()
	out := []models.Reservation{}
	for _, r := range rs.s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (rs reservationStore) Save(_ context.Context, r models.Reservation) (models.Reservation, error) {
	if rs.tx == nil || !rs.tx.held[r.ScheduleID] {
		return models.Reservation{}, repositories.ErrNotLocked
	}
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()

	if r.ID == 0 {
		rs.s.nextID++
		r.ID = rs.s.nextID
		id := r.ID
		rs.tx.journal(func() { delete(rs.s.reservations, id) })
		rs.s.reservations[r.ID] = r
		return r, nil
	}

	prev, ok := rs.s.reservations[r.ID]
	if !ok {
		return models.Reservation{}, repositories.ErrNotFound
	}
	if !rs.tx.held[prev.ScheduleID] {
		return models.Reservation{}, repositories.ErrNotLocked
	}
	rs.tx.journal(func() { rs.s.reservations[prev.ID] = prev })
	// payment fields are owned by MarkPaid
	r.Paid, r.PaymentMethod, r.PaymentReference = prev.Paid, prev.PaymentMethod, prev.PaymentReference
	rs.s.reservations[r.ID] = r
	return r, nil
}

func (rs reservationStore) Delete(_ context.Context, id int64) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	prev, ok := rs.s.reservations[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if rs.tx == nil || !rs.tx.held[prev.ScheduleID] {
		return repositories.ErrNotLocked
	}
	rs.tx.journal(func() { rs.s.reservations[prev.ID] = prev })
	delete(rs.s.reservations, id)
	return nil
}

func (rs reservationStore) MarkPaid(_ context.Context, id int64, method, reference string) error {
	rs.s.mu.Lock()
	defer rs.s.mu.Unlock()
	prev, ok := rs.s.reservations[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if rs.tx != nil {
		rs.tx.journal(func() { rs.s.reservations[prev.ID] = prev })
	}
	next := prev
	next.Paid, next.PaymentMethod, next.PaymentReference = true, method, reference
	rs.s.reservations[id] = next
	return nil
}

type busStopStore struct {
	s *Store
}

func (bs busStopStore) FindByID(_ context.Context, id int64) (models.BusStop, error) {
	bs.s.mu.RLock()
	defer bs.s.mu.RUnlock()
	st, ok := bs.s.stops[id]
	if !ok {
		return models.BusStop{}, repositories.ErrNotFound
	}
	return st, nil
}

type historyStore struct {
	s  *Store
	tx *tx
}

func (hs historyStore) Append(_ context.Context, h models.ReservationHistory) error {
	hs.s.mu.Lock()
	defer hs.s.mu.Unlock()
	hs.s.nextID++
	h.ID = hs.s.nextID
	if hs.tx != nil {
		id := h.ID
		hs.tx.journal(func() {
			hs.s.history = lo.Reject(hs.s.history, func(e models.ReservationHistory, _ int) bool { return e.ID == id })
		})
	}
	hs.s.history = append(hs.s.history, h)
	return nil
}

func (hs historyStore) FindByUsername(_ context.Context, username string) ([]models.ReservationHistory, error) {
	hs.s.mu.RLock()
	defer hs.s.mu.RUnlock()
	out := []models.ReservationHistory{}
	for i := len(hs.s.history) - 1; i >= 0; i-- {
		if hs.s.history[i].Username == username {
			out = append(out, hs.s.history[i])
		}
	}
	return out, nil
}

type seatStateStore struct {
	s *Store
}

func (ss seatStateStore) Find(_ context.Context, scheduleID int64, seatNumber int) (models.SeatState, bool, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	st, ok := ss.s.seatStates[seatKey{scheduleID, seatNumber}]
	return st, ok, nil
}

func (ss seatStateStore) Upsert(_ context.Context, st models.SeatState) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	key := seatKey{st.ScheduleID, st.SeatNumber}
	if prev, ok := ss.s.seatStates[key]; ok {
		st.ID = prev.ID
	} else {
		ss.s.nextID++
		st.ID = ss.s.nextID
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	ss.s.seatStates[key] = st
	return nil
}

type userStore struct {
	s *Store
}

func (us userStore) FindByLogin(_ context.Context, login string) (models.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()
	for _, u := range us.s.users {
		if strings.EqualFold(u.Email, login) || u.Username == login {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}
