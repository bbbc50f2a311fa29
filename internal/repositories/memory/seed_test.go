package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"transpo/internal/repositories"
)

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 20, 0, 0, time.UTC)

	s := New()
	require.NoError(t, SeedDemo(s, now, ""))

	sc, err := s.Schedules().FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, sc.AvailableSeats)
	assert.Equal(t, time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC), sc.DepartureTime)

	stop, err := s.BusStops().FindByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "University", stop.Name)

	_, err = s.Users().FindByLogin(ctx, "operator")
	assert.ErrorIs(t, err, repositories.ErrNotFound, "no accounts without a password")
}

func TestSeedDemoAccounts(t *testing.T) {
	s := New()
	require.NoError(t, SeedDemo(s, time.Now(), "demo"))

	u, err := s.Users().FindByLogin(context.Background(), "conductor@transpo.local")
	require.NoError(t, err)
	assert.Equal(t, "conductor", u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("demo")))
}
