package services

import (
	"fmt"
	"time"

	"transpo/internal/domain"
	"transpo/internal/domain/models"
)

const (
	// MinLeadTime is how long before departure self-service callers may still book or cancel.
	MinLeadTime = 30 * time.Minute
	// QuotaPercent of a schedule's seats is reservable through self-service.
	QuotaPercent = 20
)

// Decision is the outcome of AdmissionPolicy.Evaluate. Reason is empty when allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// AdmissionPolicy decides whether a caller may book on or cancel from a schedule.
// It reads only the schedule it is given, so it must be evaluated on the copy
// loaded under the schedule lock.
type AdmissionPolicy struct {
	Now func() time.Time
}

func (p AdmissionPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p AdmissionPolicy) Evaluate(role domain.Role, s models.Schedule, action domain.Action) Decision {
	if role != domain.RoleSelfService {
		return allow()
	}

	until := s.DepartureTime.Sub(p.now())
	if until < MinLeadTime {
		return deny("Self-service passengers can only %s reservations at least %d minutes before departure. Current time until departure: %d minutes",
			action.Verb(), int(MinLeadTime.Minutes()), int(until.Minutes()))
	}

	if action == domain.ActionBook {
		quota := Quota(s.Capacity)
		if s.SeatsTaken() >= quota {
			return deny("Self-service booking limit reached. Only %d out of %d seats are allocated for self-service passengers. Please contact a conductor for assistance.",
				quota, s.Capacity)
		}
	}
	return allow()
}

// Quota is max(1, ceil(capacity * QuotaPercent / 100)), computed in integers.
func Quota(capacity int) int {
	q := (capacity*QuotaPercent + 99) / 100
	if q < 1 {
		return 1
	}
	return q
}

// RemainingQuota is the number of self-service seats still open on s.
func RemainingQuota(s models.Schedule) int {
	left := Quota(s.Capacity) - s.SeatsTaken()
	if left < 0 {
		return 0
	}
	return left
}
