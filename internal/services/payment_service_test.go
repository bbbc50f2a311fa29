package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transpo/internal/domain"
)

func TestMarkPaid(t *testing.T) {
	e := newEnv(t, 10, 2*time.Hour)
	ctx := context.Background()
	svc := PaymentService{Store: e.store}

	r, err := e.svc.Book(ctx, bookReq(1, 3), operator)
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaid(ctx, r.ID, "", " TRX-1 "))
	got, err := e.store.Reservations().FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, "cash", got.PaymentMethod)
	assert.Equal(t, "TRX-1", got.PaymentReference)
	assert.Equal(t, 9, available(t, e, 1), "payment never touches capacity")

	assert.True(t, domain.IsValidation(svc.MarkPaid(ctx, 0, "card", "")))
	assert.True(t, domain.IsNotFound(svc.MarkPaid(ctx, 999, "card", "")))
}
