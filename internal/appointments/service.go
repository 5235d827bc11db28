package appointments

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imsolutions/chatdesk/internal/observability/metrics"
	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

var apptTracer = otel.Tracer("chatdesk.internal.appointments")

// ScheduleRequest is the validated-by-Schedule input for a new booking.
// User fields may be empty; UserAgent feeds the anonymous-name fallback.
type ScheduleRequest struct {
	Title     string
	Time      string
	Notes     string
	User      store.UserInfo
	UserAgent string
}

// Service owns the scheduling business rules: slot validation, conflict
// detection among non-cancelled appointments, id assignment, dual-store
// write-through and the calendar artifact.
type Service struct {
	store    *store.Store
	calendar *CalendarWriter
	metrics  *metrics.AppointmentMetrics
	logger   *logging.Logger

	now     func() time.Time
	randInt func(n int) int
}

// NewService wires the scheduler. calendar and apptMetrics may be nil.
func NewService(st *store.Store, calendar *CalendarWriter, apptMetrics *metrics.AppointmentMetrics, logger *logging.Logger) *Service {
	if st == nil {
		panic("appointments: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    st,
		calendar: calendar,
		metrics:  apptMetrics,
		logger:   logger,
		now:      time.Now,
		randInt:  rand.Intn,
	}
}

// Schedule validates the request, rejects slot conflicts and persists the
// new appointment to both stores. The returned WriteOutcome reports whether
// the primary-store copy landed; a degraded write is still a success.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*store.Appointment, store.WriteOutcome, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.schedule")
	defer span.End()

	if strings.TrimSpace(req.Title) == "" {
		return nil, store.WriteOutcome{}, ErrMissingTitle
	}
	if strings.TrimSpace(req.Time) == "" {
		return nil, store.WriteOutcome{}, ErrMissingTime
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Time))
	if err != nil {
		return nil, store.WriteOutcome{}, fmt.Errorf("%w: %q", ErrBadTime, req.Time)
	}
	start = start.UTC()

	existing, fromPrimary, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, store.WriteOutcome{}, fmt.Errorf("appointments: load existing bookings: %w", err)
	}
	span.SetAttributes(attribute.Bool("appointments.from_primary", fromPrimary))

	// Cancelled appointments free their slot on purpose.
	for i := range existing {
		if existing[i].Status == store.StatusCancelled {
			continue
		}
		if existing[i].StartTime().Equal(start) {
			s.metrics.ObserveConflict()
			return nil, store.WriteOutcome{}, &ConflictError{Existing: existing[i]}
		}
	}

	appt := &store.Appointment{
		ID:     s.newID(),
		Title:  strings.TrimSpace(req.Title),
		Time:   start.Format(time.RFC3339),
		Notes:  req.Notes,
		Status: store.StatusScheduled,
		User:   s.resolveUser(req),
	}

	outcome := s.store.SaveAppointment(ctx, appt)
	if !outcome.Ok() {
		return nil, outcome, fmt.Errorf("appointments: persist booking: %w", outcome.FileErr)
	}
	if outcome.Degraded() {
		s.logger.Warn("appointments: primary store write failed, flat file copy kept",
			"appointment_id", appt.ID, "error", outcome.PrimaryErr)
	}

	if s.calendar != nil {
		if err := s.calendar.Write(appt); err != nil {
			s.logger.Warn("appointments: failed to write calendar artifact",
				"appointment_id", appt.ID, "error", err)
		}
	}

	s.metrics.ObserveScheduled()
	s.logger.Info("appointment scheduled", "appointment_id", appt.ID, "time", appt.Time)
	return appt, outcome, nil
}

// newID builds an APT-<unixSeconds>-<4 digit> identifier.
func (s *Service) newID() string {
	return fmt.Sprintf("APT-%d-%d", s.now().Unix(), 1000+s.randInt(9000))
}

// resolveUser fills in an identity for bookings made without contact
// details, keyed off the caller's user agent.
func (s *Service) resolveUser(req ScheduleRequest) store.UserInfo {
	user := req.User
	if user.Name != "" {
		return user
	}
	switch {
	case strings.Contains(strings.ToLower(req.UserAgent), "bot"):
		user.Name = "Chatbot User"
	case req.UserAgent != "":
		user.Name = "Web User"
	default:
		user.Name = "Anonymous User"
	}
	return user
}

// Cancel flips the appointment to cancelled in both stores. The primary
// store's copy of the record wins when both have one; an id found nowhere
// still reports success with a minimal stub, matching the permissive
// contract the dashboard and widget rely on.
func (s *Service) Cancel(ctx context.Context, id string) (*store.Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	fileAppt, foundInFile, err := s.store.CancelInFile(id)
	if err != nil {
		s.logger.Warn("appointments: flat file cancel failed", "appointment_id", id, "error", err)
	}

	primaryAppt, err := s.store.CancelInPrimary(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrUnavailable) {
		s.logger.Warn("appointments: primary store cancel failed", "appointment_id", id, "error", err)
	}

	s.metrics.ObserveCancelled()

	switch {
	case primaryAppt != nil:
		return primaryAppt, nil
	case foundInFile:
		return fileAppt, nil
	default:
		return &store.Appointment{ID: id, Status: store.StatusCancelled}, nil
	}
}

// List returns every appointment from the primary store, falling back to
// the flat file when the primary is unavailable.
func (s *Service) List(ctx context.Context) ([]store.Appointment, error) {
	appts, _, err := s.store.ListAppointments(ctx)
	return appts, err
}
