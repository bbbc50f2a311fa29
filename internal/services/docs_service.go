package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"transpo/internal/domain"
	"transpo/internal/domain/models"
	"transpo/internal/repositories"
	"transpo/internal/utils"
)

// DocsService renders the PDF e-ticket of a paid reservation.
type DocsService struct {
	Store     repositories.Transactor
	RequestID string
}

type ticketData struct {
	Reservation models.Reservation
	Schedule    models.Schedule
	Pickup      string
	Drop        string
}

// ETicket returns the PDF bytes and a download filename.
func (s DocsService) ETicket(ctx context.Context, reservationID int64, caller domain.Caller) ([]byte, string, error) {
	r, err := s.Store.Reservations().FindByID(ctx, reservationID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", domain.NotFoundError{Resource: "reservation", Msg: fmt.Sprintf("Reservation not found: %d", reservationID)}
	}
	if err != nil {
		return nil, "", domain.InternalError{Msg: "could not load reservation", Err: err}
	}
	if caller.Role == domain.RoleSelfService && !r.OwnedBy(caller.Identity) {
		return nil, "", domain.ValidationError{Msg: "You can only download tickets for your own reservations"}
	}
	if !r.Paid {
		return nil, "", domain.ValidationError{Msg: "E-ticket is only available for paid reservations"}
	}

	sc, err := s.Store.Schedules().FindByID(ctx, r.ScheduleID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", domain.NotFoundError{Resource: "schedule", Msg: fmt.Sprintf("Schedule not found: %d", r.ScheduleID)}
	}
	if err != nil {
		return nil, "", domain.InternalError{Msg: "could not load schedule", Err: err}
	}

	d := ticketData{Reservation: r, Schedule: sc}
	d.Pickup = s.stopName(ctx, r.PickupStopID)
	d.Drop = s.stopName(ctx, r.DropStopID)

	utils.LogEvent(s.RequestID, "docs", "generate_eticket", fmt.Sprintf("reservation_id=%d", r.ID))
	return buildETicketPDF(d)
}

func (s DocsService) stopName(ctx context.Context, id *int64) string {
	if id == nil {
		return ""
	}
	st, err := s.Store.BusStops().FindByID(ctx, *id)
	if err != nil {
		return ""
	}
	return st.Name
}

func buildETicketPDF(d ticketData) ([]byte, string, error) {
	r, sc := d.Reservation, d.Schedule

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passenger   : %s", safe(r.PassengerName, "-")),
		fmt.Sprintf("Email       : %s", safe(r.PassengerEmail, "-")),
		fmt.Sprintf("Seat        : %d", r.SeatNumber),
		fmt.Sprintf("Bus         : %s", safe(sc.BusNumber, "-")),
		fmt.Sprintf("Departure   : %s", utils.FormatDateTimeHM(sc.DepartureTime)),
		fmt.Sprintf("Pickup      : %s", safe(d.Pickup, "-")),
		fmt.Sprintf("Drop        : %s", safe(d.Drop, "-")),
		fmt.Sprintf("Payment     : %s %s", safe(r.PaymentMethod, "-"), r.PaymentReference),
		fmt.Sprintf("Reservation : #%d", r.ID),
		fmt.Sprintf("Ticket code : TCK-%d-%d-%d", sc.ID, r.ID, r.SeatNumber),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This e-ticket is valid for one passenger and one seat. Please show it when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%d_%s.pdf", r.ID, safeFilenamePart(fmt.Sprintf("%s_%d", r.PassengerName, r.SeatNumber)))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
