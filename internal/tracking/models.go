package tracking

import (
	"context"
	"errors"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/journal"
	"github.com/roncastellon/BWM-walker-app-sub000/internal/walk"
)

type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
	StateStopped  State = "stopped"
)

var (
	ErrInvalidState  = errors.New("invalid session state")
	ErrSessionActive = errors.New("a walk is already being tracked")
	ErrNotWalker     = errors.New("only walkers can track walks")
)

// Backend is the slice of the REST client a session drives.
type Backend interface {
	StartTracking(ctx context.Context, appointmentID string, pos walk.Position) error
	UpdateLocation(ctx context.Context, appointmentID string, pos walk.Position) error
	StopTracking(ctx context.Context, appointmentID string, pos *walk.Position) error
}

type Journal interface {
	Record(ctx context.Context, ev journal.Event) (journal.Event, error)
}

// Status is a point-in-time view of a session.
type Status struct {
	SessionID     string         `json:"session_id,omitempty"`
	AppointmentID string         `json:"appointment_id,omitempty"`
	State         State          `json:"state"`
	LastKnown     *walk.Position `json:"last_known,omitempty"`
}
