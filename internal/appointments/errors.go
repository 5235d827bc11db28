package appointments

import (
	"errors"
	"fmt"

	"github.com/imsolutions/chatdesk/internal/store"
)

var (
	ErrMissingTitle = errors.New("appointments: title is required")
	ErrMissingTime  = errors.New("appointments: time is required")
	ErrBadTime      = errors.New("appointments: time is not a valid timestamp")
)

// ConflictError reports that a non-cancelled appointment already occupies
// the requested slot.
type ConflictError struct {
	Existing store.Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("appointments: slot %s is already booked by %s", e.Existing.Time, e.Existing.ID)
}
