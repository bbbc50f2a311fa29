package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"transpo/internal/domain"
	"transpo/internal/domain/models"
	"transpo/internal/metrics"
	"transpo/internal/repositories"
	"transpo/internal/utils"
)

var validate = validator.New()

// BookRequest is the input of BookingService.Book. Stop ids are optional.
type BookRequest struct {
	ScheduleID     int64
	PassengerName  string
	PassengerEmail string
	SeatNumber     int
	PickupStopID   *int64
	DropStopID     *int64
}

// UpdateRequest replaces every editable field of a reservation.
type UpdateRequest struct {
	ScheduleID     int64
	SeatNumber     int
	PassengerName  string
	PassengerEmail string
	PickupStopID   *int64
	DropStopID     *int64
}

// BookingService turns book/cancel/update requests into serialized seat
// assignments. Every capacity change happens inside Store.WithinTx after
// LoadForUpdate on each affected schedule.
type BookingService struct {
	Store     repositories.Transactor
	Policy    AdmissionPolicy
	RequestID string
}

func (s BookingService) now() time.Time {
	return s.Policy.now()
}

func (s BookingService) Book(ctx context.Context, req BookRequest, caller domain.Caller) (res models.Reservation, err error) {
	defer s.observe("book", &err)

	name := utils.NormalizeSpace(req.PassengerName)
	if name == "" {
		name = caller.Identity
	}
	email := strings.TrimSpace(req.PassengerEmail)
	if err := validatePassenger(name, email); err != nil {
		return models.Reservation{}, err
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Stores) error {
		sc, err := s.lock(ctx, tx, req.ScheduleID)
		if err != nil {
			return err
		}
		if err := checkSeatRange(sc, req.SeatNumber); err != nil {
			return err
		}
		if sc.AvailableSeats <= 0 {
			return domain.ConflictError{Msg: "No seats available"}
		}

		existing, err := tx.Reservations().FindBySchedule(ctx, sc.ID)
		if err != nil {
			return domain.InternalError{Msg: "could not read reservations", Err: err}
		}
		if err := checkSeatFree(existing, req.SeatNumber, 0); err != nil {
			return err
		}
		if caller.Role == domain.RoleSelfService {
			if err := checkSingleOwnership(existing, caller.Identity, 0); err != nil {
				return err
			}
		}

		if err := s.admit(caller.Role, sc, domain.ActionBook); err != nil {
			return err
		}

		if err := s.checkStops(ctx, tx, sc, req.PickupStopID, req.DropStopID); err != nil {
			return err
		}

		sc.AvailableSeats--
		if err := saveSchedule(ctx, tx, sc); err != nil {
			return err
		}

		r := models.Reservation{
			ScheduleID:     sc.ID,
			SeatNumber:     req.SeatNumber,
			PassengerName:  name,
			PassengerEmail: email,
			CreatedBy:      caller.Identity,
			BookingTime:    s.now(),
			PickupStopID:   req.PickupStopID,
			DropStopID:     req.DropStopID,
		}
		if caller.Role == domain.RoleSelfService && caller.Identity != "" {
			owner := caller.Identity
			r.Owner = &owner
		}
		res, err = tx.Reservations().Save(ctx, r)
		if err != nil {
			return domain.InternalError{Msg: "could not save reservation", Err: err}
		}
		return s.appendHistory(ctx, tx, res, caller, models.HistoryBooked)
	})
	if err != nil {
		return models.Reservation{}, classify(err)
	}

	utils.LogEvent(s.RequestID, "booking", "book",
		fmt.Sprintf("reservation_id=%d schedule_id=%d seat=%d role=%s", res.ID, res.ScheduleID, res.SeatNumber, caller.Role))
	return res, nil
}

func (s BookingService) Cancel(ctx context.Context, reservationID int64, caller domain.Caller) (err error) {
	defer s.observe("cancel", &err)

	r, err := s.findReservation(ctx, s.Store, reservationID)
	if err != nil {
		return err
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Stores) error {
		sc, err := s.lock(ctx, tx, r.ScheduleID)
		if err != nil {
			return err
		}
		// the row may have moved or gone while we waited for the lock
		cur, err := s.findReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if cur.ScheduleID != sc.ID {
			return domain.ConflictError{Resource: "reservation", Msg: "reservation was moved concurrently, please retry"}
		}
		if err := checkCallerOwns(cur, caller, "cancel"); err != nil {
			return err
		}

		if err := s.admit(caller.Role, sc, domain.ActionCancel); err != nil {
			return err
		}

		sc.AvailableSeats++
		if err := saveSchedule(ctx, tx, sc); err != nil {
			return err
		}
		if err := tx.Reservations().Delete(ctx, cur.ID); err != nil {
			return domain.InternalError{Msg: "could not delete reservation", Err: err}
		}
		return s.appendHistory(ctx, tx, cur, caller, models.HistoryCancelled)
	})
	if err != nil {
		return classify(err)
	}

	utils.LogEvent(s.RequestID, "booking", "cancel",
		fmt.Sprintf("reservation_id=%d schedule_id=%d seat=%d role=%s", r.ID, r.ScheduleID, r.SeatNumber, caller.Role))
	return nil
}

func (s BookingService) Update(ctx context.Context, reservationID int64, req UpdateRequest, caller domain.Caller) (res models.Reservation, err error) {
	defer s.observe("update", &err)

	if req.ScheduleID <= 0 {
		return models.Reservation{}, domain.ValidationError{Field: "schedule_id", Msg: "is required"}
	}
	name := utils.NormalizeSpace(req.PassengerName)
	email := strings.TrimSpace(req.PassengerEmail)
	if err := validatePassenger(name, email); err != nil {
		return models.Reservation{}, err
	}

	r, err := s.findReservation(ctx, s.Store, reservationID)
	if err != nil {
		return models.Reservation{}, err
	}
	oldID, newID := r.ScheduleID, req.ScheduleID

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Stores) error {
		locked := make(map[int64]models.Schedule, 2)
		for _, id := range lockOrder(oldID, newID) {
			sc, err := s.lock(ctx, tx, id)
			if err != nil {
				return err
			}
			locked[id] = sc
		}
		oldSc, newSc := locked[oldID], locked[newID]

		cur, err := s.findReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if cur.ScheduleID != oldID {
			return domain.ConflictError{Resource: "reservation", Msg: "reservation was moved concurrently, please retry"}
		}
		if err := checkCallerOwns(cur, caller, "update"); err != nil {
			return err
		}

		if err := checkSeatRange(newSc, req.SeatNumber); err != nil {
			return err
		}
		moving := oldID != newID
		if moving && newSc.AvailableSeats <= 0 {
			return domain.ConflictError{Msg: "No seats available"}
		}

		existing, err := tx.Reservations().FindBySchedule(ctx, newID)
		if err != nil {
			return domain.InternalError{Msg: "could not read reservations", Err: err}
		}
		if err := checkSeatFree(existing, req.SeatNumber, cur.ID); err != nil {
			return err
		}

		if err := s.admit(caller.Role, oldSc, domain.ActionUpdate); err != nil {
			return err
		}
		if moving {
			if caller.Role == domain.RoleSelfService {
				if err := checkSingleOwnership(existing, caller.Identity, cur.ID); err != nil {
					return err
				}
			}
			if err := s.admit(caller.Role, newSc, domain.ActionBook); err != nil {
				return err
			}
		}

		if err := s.checkStops(ctx, tx, newSc, req.PickupStopID, req.DropStopID); err != nil {
			return err
		}

		if moving {
			oldSc.AvailableSeats++
			newSc.AvailableSeats--
			if err := saveSchedule(ctx, tx, oldSc); err != nil {
				return err
			}
			if err := saveSchedule(ctx, tx, newSc); err != nil {
				return err
			}
		}

		cur.ScheduleID = newID
		cur.SeatNumber = req.SeatNumber
		cur.PassengerName = name
		cur.PassengerEmail = email
		cur.PickupStopID = req.PickupStopID
		cur.DropStopID = req.DropStopID
		res, err = tx.Reservations().Save(ctx, cur)
		if err != nil {
			return domain.InternalError{Msg: "could not save reservation", Err: err}
		}
		return nil
	})
	if err != nil {
		return models.Reservation{}, classify(err)
	}

	utils.LogEvent(s.RequestID, "booking", "update",
		fmt.Sprintf("reservation_id=%d schedule_id=%d->%d seat=%d", res.ID, oldID, newID, res.SeatNumber))
	return res, nil
}

// ByEmail lists reservations booked under a passenger email.
func (s BookingService) ByEmail(ctx context.Context, email string) ([]models.Reservation, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ValidationError{Field: "email", Msg: "is required"}
	}
	out, err := s.Store.Reservations().FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not list reservations", Err: err}
	}
	return out, nil
}

// Mine lists reservations owned by the caller.
func (s BookingService) Mine(ctx context.Context, caller domain.Caller) ([]models.Reservation, error) {
	if caller.Identity == "" {
		return []models.Reservation{}, nil
	}
	out, err := s.Store.Reservations().FindByCaller(ctx, caller.Identity)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not list reservations", Err: err}
	}
	return out, nil
}

func (s BookingService) All(ctx context.Context) ([]models.Reservation, error) {
	out, err := s.Store.Reservations().FindAll(ctx)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not list reservations", Err: err}
	}
	return out, nil
}

// History lists the caller's booking and cancellation trail, newest first.
func (s BookingService) History(ctx context.Context, caller domain.Caller) ([]models.ReservationHistory, error) {
	if caller.Identity == "" {
		return []models.ReservationHistory{}, nil
	}
	out, err := s.Store.History().FindByUsername(ctx, caller.Identity)
	if err != nil {
		return nil, domain.InternalError{Msg: "could not list history", Err: err}
	}
	return out, nil
}

func (s BookingService) lock(ctx context.Context, tx repositories.Stores, scheduleID int64) (models.Schedule, error) {
	start := time.Now()
	sc, err := tx.Schedules().LoadForUpdate(ctx, scheduleID)
	metrics.LockWait.Observe(time.Since(start).Seconds())
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Schedule{}, domain.NotFoundError{Resource: "schedule", Msg: fmt.Sprintf("Schedule not found: %d", scheduleID)}
	}
	if err != nil {
		return models.Schedule{}, domain.InternalError{Msg: "could not lock schedule", Err: err}
	}
	if sc.Capacity < 1 {
		return models.Schedule{}, domain.ValidationError{Msg: "Bus capacity is invalid for this schedule"}
	}
	return sc, nil
}

func (s BookingService) findReservation(ctx context.Context, st repositories.Stores, id int64) (models.Reservation, error) {
	r, err := st.Reservations().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Reservation{}, domain.NotFoundError{Resource: "reservation", Msg: fmt.Sprintf("Reservation not found: %d", id)}
	}
	if err != nil {
		return models.Reservation{}, domain.InternalError{Msg: "could not load reservation", Err: err}
	}
	return r, nil
}

func (s BookingService) admit(role domain.Role, sc models.Schedule, action domain.Action) error {
	d := s.Policy.Evaluate(role, sc, action)
	if d.Allowed {
		return nil
	}
	metrics.AdmissionDenials.WithLabelValues(action.Verb()).Inc()
	return domain.ValidationError{Msg: d.Reason}
}

// checkStops verifies both stops lie on the schedule's route, pickup first.
func (s BookingService) checkStops(ctx context.Context, tx repositories.Stores, sc models.Schedule, pickupID, dropID *int64) error {
	var pickup, drop *models.BusStop
	for _, ref := range []struct {
		id   *int64
		kind string
		dst  **models.BusStop
	}{
		{pickupID, "Pickup", &pickup},
		{dropID, "Drop", &drop},
	} {
		if ref.id == nil {
			continue
		}
		stop, err := tx.BusStops().FindByID(ctx, *ref.id)
		if errors.Is(err, repositories.ErrNotFound) {
			return domain.NotFoundError{Resource: "bus stop", Msg: fmt.Sprintf("%s stop not found: %d", ref.kind, *ref.id)}
		}
		if err != nil {
			return domain.InternalError{Msg: "could not load bus stop", Err: err}
		}
		if stop.RouteID != sc.RouteID {
			return domain.ValidationError{Msg: fmt.Sprintf("%s stop does not belong to this route", ref.kind)}
		}
		*ref.dst = &stop
	}
	if pickup != nil && drop != nil && pickup.Sequence >= drop.Sequence {
		return domain.ValidationError{Msg: "Pickup stop must come before drop stop in the route"}
	}
	return nil
}

func (s BookingService) appendHistory(ctx context.Context, tx repositories.Stores, r models.Reservation, caller domain.Caller, status string) error {
	username := caller.Identity
	if r.Owner != nil {
		username = *r.Owner
	}
	err := tx.History().Append(ctx, models.ReservationHistory{
		ReservationID:  r.ID,
		ScheduleID:     r.ScheduleID,
		SeatNumber:     r.SeatNumber,
		PassengerName:  r.PassengerName,
		PassengerEmail: r.PassengerEmail,
		Username:       username,
		CreatedBy:      r.CreatedBy,
		Status:         status,
		Paid:           r.Paid,
		At:             s.now(),
	})
	if err != nil {
		return domain.InternalError{Msg: "could not record history", Err: err}
	}
	return nil
}

func (s BookingService) observe(op string, err *error) {
	out := outcome(*err)
	metrics.BookingOperations.WithLabelValues(op, out).Inc()
	if out == "error" {
		utils.LogWarn(s.RequestID, "booking", op, (*err).Error())
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsValidation(err):
		return "bad_request"
	case domain.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}

// classify wraps transaction infrastructure failures (begin, commit, lock
// timeouts) that carry no domain kind.
func classify(err error) error {
	switch {
	case domain.IsNotFound(err), domain.IsValidation(err), domain.IsConflict(err),
		domain.IsUnauthorized(err), domain.IsInternal(err):
		return err
	default:
		return domain.InternalError{Msg: "transaction failed", Err: err}
	}
}

func saveSchedule(ctx context.Context, tx repositories.Stores, sc models.Schedule) error {
	if sc.AvailableSeats < 0 || sc.AvailableSeats > sc.Capacity {
		return domain.InternalError{Msg: fmt.Sprintf("schedule %d counter out of range: %d/%d", sc.ID, sc.AvailableSeats, sc.Capacity)}
	}
	if err := tx.Schedules().Save(ctx, sc); err != nil {
		return domain.InternalError{Msg: "could not save schedule", Err: err}
	}
	return nil
}

func validatePassenger(name, email string) error {
	if name == "" {
		return domain.ValidationError{Field: "passenger_name", Msg: "is required"}
	}
	if email == "" {
		return domain.ValidationError{Field: "passenger_email", Msg: "is required"}
	}
	if err := validate.Var(email, "email"); err != nil {
		return domain.ValidationError{Field: "passenger_email", Msg: "must be a valid email", Err: err}
	}
	return nil
}

func checkSeatRange(sc models.Schedule, seat int) error {
	if seat < 1 || seat > sc.Capacity {
		return domain.ValidationError{Msg: fmt.Sprintf("Seat number must be between 1 and %d", sc.Capacity)}
	}
	return nil
}

// checkSeatFree ignores the reservation with id skip.
func checkSeatFree(existing []models.Reservation, seat int, skip int64) error {
	for _, r := range existing {
		if r.ID != skip && r.SeatNumber == seat {
			return domain.ConflictError{Msg: fmt.Sprintf("Seat %d already taken for this schedule", seat)}
		}
	}
	return nil
}

func checkSingleOwnership(existing []models.Reservation, identity string, skip int64) error {
	for _, r := range existing {
		if r.ID != skip && r.OwnedBy(identity) {
			return domain.ConflictError{Msg: "You have already booked a seat on this schedule"}
		}
	}
	return nil
}

// checkCallerOwns limits self-service callers to their own reservations.
func checkCallerOwns(r models.Reservation, caller domain.Caller, verb string) error {
	if caller.Role != domain.RoleSelfService || r.OwnedBy(caller.Identity) {
		return nil
	}
	return domain.ValidationError{Msg: fmt.Sprintf("You can only %s your own reservations", verb)}
}

// lockOrder returns the distinct schedule ids in ascending order so two
// crossing updates always lock in the same sequence.
func lockOrder(a, b int64) []int64 {
	switch {
	case a == b:
		return []int64{a}
	case a < b:
		return []int64{a, b}
	default:
		return []int64{b, a}
	}
}
