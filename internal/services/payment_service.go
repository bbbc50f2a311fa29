package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"transpo/internal/domain"
	"transpo/internal/repositories"
	"transpo/internal/utils"
)

// PaymentService is the payment stub: it only flips the paid flag.
type PaymentService struct {
	Store     repositories.Transactor
	RequestID string
}

// MarkPaid records a payment against a reservation. No capacity changes, so
// no schedule lock is taken.
func (s PaymentService) MarkPaid(ctx context.Context, reservationID int64, method, reference string) error {
	if reservationID <= 0 {
		return domain.ValidationError{Field: "reservation_id", Msg: "is required"}
	}
	method = strings.TrimSpace(method)
	if method == "" {
		method = "cash"
	}

	err := s.Store.Reservations().MarkPaid(ctx, reservationID, method, strings.TrimSpace(reference))
	if errors.Is(err, repositories.ErrNotFound) {
		return domain.NotFoundError{Resource: "reservation", Msg: fmt.Sprintf("Reservation not found: %d", reservationID)}
	}
	if err != nil {
		return domain.InternalError{Msg: "could not record payment", Err: err}
	}

	utils.LogEvent(s.RequestID, "payment", "mark_paid", fmt.Sprintf("reservation_id=%d method=%s", reservationID, method))
	return nil
}
