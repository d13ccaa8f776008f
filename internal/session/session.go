package session

import (
	"errors"
	"strings"
)

// Role is the actor kind for the running client
type Role string

const (
	RoleCommuter Role = "commuter"
	RoleDriver   Role = "driver"
)

// State is the session state machine position
type State int

const (
	StateUnselected State = iota
	StateCommuterActive
	StateDriverPendingLogin
	StateDriverActive
)

func (s State) String() string {
	switch s {
	case StateUnselected:
		return "unselected"
	case StateCommuterActive:
		return "commuter_active"
	case StateDriverPendingLogin:
		return "driver_pending_login"
	case StateDriverActive:
		return "driver_active"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyVehicleID    = errors.New("vehicle id must not be empty")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Session tracks the actor role and driver authentication for one running
// client. Entering StateDriverActive is the sole condition under which
// sampled positions are published outward. A Session is never persisted;
// every launch starts from StateUnselected.
type Session struct {
	state     State
	vehicleID string
}

func New() *Session {
	return &Session{state: StateUnselected}
}

func (s *Session) State() State {
	return s.state
}

// Role reports the cadence-relevant role. Drivers keep the driver cadence
// from the moment the role is chosen, before login completes.
func (s *Session) Role() Role {
	if s.state == StateDriverPendingLogin || s.state == StateDriverActive {
		return RoleDriver
	}
	return RoleCommuter
}

// VehicleID returns the bus number recorded at login, empty otherwise.
func (s *Session) VehicleID() string {
	return s.vehicleID
}

// Authenticated reports whether a driver login has completed.
func (s *Session) Authenticated() bool {
	return s.state == StateDriverActive
}

// CanPublish reports whether sampled positions may be sent outward.
func (s *Session) CanPublish() bool {
	return s.state == StateDriverActive
}

// ChooseRole moves out of StateUnselected into the chosen role's entry state.
func (s *Session) ChooseRole(role Role) error {
	if s.state != StateUnselected {
		return ErrInvalidTransition
	}
	switch role {
	case RoleCommuter:
		s.state = StateCommuterActive
	case RoleDriver:
		s.state = StateDriverPendingLogin
	default:
		return ErrInvalidTransition
	}
	return nil
}

// Login records the driver's bus number and activates the driver session.
// The id is trimmed first; an empty result fails with ErrEmptyVehicleID and
// leaves the state unchanged.
func (s *Session) Login(vehicleID string) error {
	if s.state != StateDriverPendingLogin {
		return ErrInvalidTransition
	}
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return ErrEmptyVehicleID
	}
	s.vehicleID = vehicleID
	s.state = StateDriverActive
	return nil
}

// Back returns from the driver login screen to role selection.
func (s *Session) Back() error {
	if s.state != StateDriverPendingLogin {
		return ErrInvalidTransition
	}
	s.state = StateUnselected
	return nil
}

// Reset drops any role and authentication and returns to StateUnselected.
// Used on logout so the sampler and channel gates close deterministically.
func (s *Session) Reset() {
	s.state = StateUnselected
	s.vehicleID = ""
}
