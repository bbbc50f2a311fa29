package memory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"transpo/internal/domain/models"
)

// SeedDemo loads one route with two departures and, when password is not
// empty, one account per role sharing that password.
func SeedDemo(s *Store, now time.Time, password string) error {
	day := now.Truncate(time.Hour).Add(4 * time.Hour)
	s.PutSchedule(models.Schedule{ID: 1, BusID: 1, BusNumber: "BUS-01", RouteID: 1, Capacity: 40, AvailableSeats: 40, DepartureTime: day})
	s.PutSchedule(models.Schedule{ID: 2, BusID: 2, BusNumber: "BUS-02", RouteID: 1, Capacity: 20, AvailableSeats: 20, DepartureTime: day.Add(2 * time.Hour)})
	for i, name := range []string{"Central Station", "Market Square", "University", "Harbour"} {
		s.PutBusStop(models.BusStop{ID: int64(i + 1), RouteID: 1, Name: name, Sequence: i + 1})
	}

	if password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	for _, role := range []string{"operator", "conductor", "driver", "passenger"} {
		s.PutUser(models.User{Name: role, Username: role, Email: role + "@transpo.local", PasswordHash: string(hash), Role: role, Status: "active"})
	}
	return nil
}
