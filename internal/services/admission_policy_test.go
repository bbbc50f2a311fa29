package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"transpo/internal/domain"
	"transpo/internal/domain/models"
)

func TestQuota(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 4: 1, 5: 1, 6: 2, 10: 2, 11: 3, 15: 3, 40: 8, 41: 9}
	for capacity, want := range cases {
		assert.Equal(t, want, Quota(capacity), "capacity %d", capacity)
	}
}

func TestRemainingQuota(t *testing.T) {
	assert.Equal(t, 2, RemainingQuota(models.Schedule{Capacity: 10, AvailableSeats: 10}))
	assert.Equal(t, 1, RemainingQuota(models.Schedule{Capacity: 10, AvailableSeats: 9}))
	assert.Equal(t, 0, RemainingQuota(models.Schedule{Capacity: 10, AvailableSeats: 3}))
}

func TestEvaluate(t *testing.T) {
	now := t0
	p := AdmissionPolicy{Now: func() time.Time { return now }}
	sched := func(departIn time.Duration, available int) models.Schedule {
		return models.Schedule{Capacity: 10, AvailableSeats: available, DepartureTime: now.Add(departIn)}
	}

	cases := []struct {
		name    string
		role    domain.Role
		s       models.Schedule
		action  domain.Action
		allowed bool
		reason  string
	}{
		{"operator inside window", domain.RoleOperator, sched(time.Minute, 0), domain.ActionBook, true, ""},
		{"conductor over quota", domain.RoleConductor, sched(time.Hour, 1), domain.ActionBook, true, ""},
		{"driver is not gated", domain.RoleDriver, sched(time.Minute, 1), domain.ActionCancel, true, ""},
		{"passenger 31 minutes out", domain.RoleSelfService, sched(31*time.Minute, 10), domain.ActionBook, true, ""},
		{"passenger exactly 30 minutes out", domain.RoleSelfService, sched(30*time.Minute, 10), domain.ActionBook, true, ""},
		{"passenger 29 minutes out", domain.RoleSelfService, sched(29*time.Minute, 10), domain.ActionBook, false, "Current time until departure: 29 minutes"},
		{"passenger cancel 29 minutes out", domain.RoleSelfService, sched(29*time.Minute, 5), domain.ActionCancel, false, "only cancel reservations"},
		{"passenger after departure", domain.RoleSelfService, sched(-5*time.Minute, 10), domain.ActionBook, false, "-5 minutes"},
		{"passenger below quota", domain.RoleSelfService, sched(time.Hour, 9), domain.ActionBook, true, ""},
		{"passenger at quota", domain.RoleSelfService, sched(time.Hour, 8), domain.ActionBook, false, "Only 2 out of 10 seats"},
		{"quota ignored on cancel", domain.RoleSelfService, sched(time.Hour, 0), domain.ActionCancel, true, ""},
		{"quota ignored on update", domain.RoleSelfService, sched(time.Hour, 0), domain.ActionUpdate, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := p.Evaluate(tc.role, tc.s, tc.action)
			assert.Equal(t, tc.allowed, d.Allowed)
			if tc.allowed {
				assert.Empty(t, d.Reason)
				return
			}
			assert.Contains(t, d.Reason, tc.reason)
		})
	}
}
