package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of caller roles understood by the booking engine.
type Role int

const (
	RoleUnknown Role = iota
	RoleOperator
	RoleConductor
	RoleDriver
	RoleSelfService
)

func (r Role) String() string {
	switch r {
	case RoleOperator:
		return "OPERATOR"
	case RoleConductor:
		return "CONDUCTOR"
	case RoleDriver:
		return "DRIVER"
	case RoleSelfService:
		return "PASSENGER"
	default:
		return "UNKNOWN"
	}
}

// Privileged reports whether the role bypasses admission rules and redaction.
func (r Role) Privileged() bool {
	return r == RoleOperator || r == RoleConductor
}

// ParseRole maps the stored/claimed role name onto a Role. Accepted aliases
// follow the users.role column ("admin" is an operator, "passenger"/"user" self-service).
func ParseRole(s string) (Role, error) {
	switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_") {
	case "OPERATOR", "ADMIN":
		return RoleOperator, nil
	case "CONDUCTOR":
		return RoleConductor, nil
	case "DRIVER":
		return RoleDriver, nil
	case "PASSENGER", "USER", "SELF_SERVICE":
		return RoleSelfService, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

// Caller carries authenticated identity when available.
type Caller struct {
	Identity string
	Role     Role
}

// Action is the kind of capacity-affecting request being admitted.
type Action int

const (
	ActionBook Action = iota + 1
	ActionCancel
	// ActionUpdate edits a reservation in place; only the time window applies.
	ActionUpdate
)

// Verb is the lower-case verb used in policy messages.
func (a Action) Verb() string {
	switch a {
	case ActionCancel:
		return "cancel"
	case ActionUpdate:
		return "update"
	default:
		return "book"
	}
}

// SeatStatus is the displayed state of one seat.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
	SeatPaid      SeatStatus = "PAID"
	SeatDisabled  SeatStatus = "DISABLED"
)

// ParseSeatStatus accepts any casing of the four overlay states.
func ParseSeatStatus(s string) (SeatStatus, bool) {
	switch st := SeatStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case SeatAvailable, SeatReserved, SeatPaid, SeatDisabled:
		return st, true
	default:
		return "", false
	}
}
