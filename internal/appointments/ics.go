package appointments

import (
	"fmt"
	"os"
	"path/filepath"

	ics "github.com/arran4/golang-ical"

	"github.com/imsolutions/chatdesk/internal/store"
)

// CalendarWriter drops one .ics file per scheduled appointment so bookings
// can be imported into any calendar client.
type CalendarWriter struct {
	dir string
}

// NewCalendarWriter ensures dir exists and returns a writer for it.
func NewCalendarWriter(dir string) (*CalendarWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("appointments: create calendar dir: %w", err)
	}
	return &CalendarWriter{dir: dir}, nil
}

// Write serializes the appointment as a single-event calendar file named
// <id>.ics.
func (c *CalendarWriter) Write(appt *store.Appointment) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(appt.ID)
	event.SetSummary(appt.Title)
	event.SetStartAt(appt.StartTime())
	event.SetDescription(appt.Notes)

	path := filepath.Join(c.dir, appt.ID+".ics")
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("appointments: write calendar file: %w", err)
	}
	return nil
}
