package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpo/internal/domain"
)

func TestDocsServiceETicket(t *testing.T) {
	e := newEnv(t, 10, 2*time.Hour)
	ctx := context.Background()
	docs := DocsService{Store: e.store}

	r, err := e.svc.Book(ctx, BookRequest{ScheduleID: 1, SeatNumber: 2, PassengerName: "Ana Maria", PassengerEmail: "ana@example.com", PickupStopID: ptr(11), DropStopID: ptr(12)}, alice)
	require.NoError(t, err)

	_, _, err = docs.ETicket(ctx, r.ID, alice)
	assert.True(t, domain.IsValidation(err), "unpaid reservations have no ticket")

	require.NoError(t, PaymentService{Store: e.store}.MarkPaid(ctx, r.ID, "card", "TRX-9"))

	pdf, filename, err := docs.ETicket(ctx, r.ID, alice)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, fmt.Sprintf("ETICKET_%d_Ana_Maria_2.pdf", r.ID), filename)

	_, _, err = docs.ETicket(ctx, r.ID, bob)
	assert.True(t, domain.IsValidation(err))

	_, _, err = docs.ETicket(ctx, r.ID, conductor)
	assert.NoError(t, err)

	_, _, err = docs.ETicket(ctx, 999, operator)
	assert.True(t, domain.IsNotFound(err))
}

func TestSafeFilenamePart(t *testing.T) {
	assert.Equal(t, "NA", safeFilenamePart("  "))
	assert.Equal(t, "a_b_c", safeFilenamePart("a b/c"))
	assert.Len(t, safeFilenamePart("abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"), 40)
}
