package store

import (
	"context"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// WriteOutcome reports the result of a dual write. The flat file is the
// durability floor: a write counts as successful once the file write lands,
// and a primary-store failure is carried as a structured warning instead of
// failing the call.
type WriteOutcome struct {
	PrimaryErr error
	FileErr    error
}

// Ok reports whether the write reached at least the flat file.
func (w WriteOutcome) Ok() bool {
	return w.FileErr == nil
}

// Degraded reports whether the primary store missed the write.
func (w WriteOutcome) Degraded() bool {
	return w.PrimaryErr != nil
}

// Store composes the primary DynamoDB store with the flat-file fallback.
// primary may be nil when the document store is unconfigured; every
// operation then degrades to the file half or reports ErrUnavailable.
type Store struct {
	primary *DynamoStore
	files   *FileStore
	logger  *logging.Logger
}

// New builds the adapter. files is required; primary is optional.
func New(primary *DynamoStore, files *FileStore, logger *logging.Logger) *Store {
	if files == nil {
		panic("store: file store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{primary: primary, files: files, logger: logger}
}

// Available reports whether the primary store is configured.
func (s *Store) Available() bool {
	return s.primary != nil
}

// SaveAppointment writes through to both stores.
func (s *Store) SaveAppointment(ctx context.Context, appt *Appointment) WriteOutcome {
	var out WriteOutcome
	out.FileErr = s.files.AppendAppointment(appt)
	if s.primary == nil {
		out.PrimaryErr = ErrUnavailable
		return out
	}
	if err := s.primary.PutAppointment(ctx, appt); err != nil {
		s.logger.Warn("primary store rejected appointment write", "id", appt.ID, "error", err)
		out.PrimaryErr = err
	}
	return out
}

// ListAppointments prefers the primary store and falls back to the CSV
// file when the primary is unconfigured or failing. fromPrimary tells the
// caller which side answered.
func (s *Store) ListAppointments(ctx context.Context) (appts []Appointment, fromPrimary bool, err error) {
	if s.primary != nil {
		appts, err = s.primary.ListAppointments(ctx)
		if err == nil {
			return appts, true, nil
		}
		s.logger.Warn("primary store appointment read failed, using file fallback", "error", err)
	}
	appts, err = s.files.ListAppointments()
	return appts, false, err
}

// CancelInFile flips the status of the CSV copy, rewriting the file.
func (s *Store) CancelInFile(id string) (*Appointment, bool, error) {
	return s.files.MarkAppointmentCancelled(id)
}

// CancelInPrimary loads the primary copy, marks it cancelled and returns
// the updated record. ErrUnavailable when no primary store is configured.
func (s *Store) CancelInPrimary(ctx context.Context, id string) (*Appointment, error) {
	if s.primary == nil {
		return nil, ErrUnavailable
	}
	appt, err := s.primary.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.primary.UpdateAppointmentStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	appt.Status = StatusCancelled
	return appt, nil
}

// SaveLead writes a lead to the primary store. Leads have no flat-file
// fallback; an unconfigured store is a hard ErrUnavailable.
func (s *Store) SaveLead(ctx context.Context, lead *Lead) error {
	if s.primary == nil {
		return ErrUnavailable
	}
	return s.primary.PutLead(ctx, lead)
}

// ListLeads reads every lead from the primary store.
func (s *Store) ListLeads(ctx context.Context) ([]Lead, error) {
	if s.primary == nil {
		return nil, ErrUnavailable
	}
	return s.primary.ListLeads(ctx)
}

// SaveConversation stores a chat exchange in the primary store.
func (s *Store) SaveConversation(ctx context.Context, conv *Conversation) error {
	if s.primary == nil {
		return ErrUnavailable
	}
	return s.primary.PutConversation(ctx, conv)
}

// ListConversations reads every chat exchange from the primary store.
func (s *Store) ListConversations(ctx context.Context) ([]Conversation, error) {
	if s.primary == nil {
		return nil, ErrUnavailable
	}
	return s.primary.ListConversations(ctx)
}

// SaveFormUser writes through to the primary users collection, bumps the
// total_users counter, and appends the local JSON-lines backup.
func (s *Store) SaveFormUser(ctx context.Context, user *FormUser) WriteOutcome {
	var out WriteOutcome
	if s.primary == nil {
		out.PrimaryErr = ErrUnavailable
	} else {
		if err := s.primary.PutFormUser(ctx, user); err != nil {
			s.logger.Warn("primary store rejected user write", "error", err)
			out.PrimaryErr = err
		} else if err := s.primary.IncrementTotalUsers(ctx); err != nil {
			s.logger.Warn("failed to bump total_users counter", "error", err)
		}
	}
	out.FileErr = s.files.AppendFormUser(user)
	return out
}

// ListFormUsers prefers the primary users collection; when it is
// unconfigured, failing, or empty the local backup file answers instead.
func (s *Store) ListFormUsers(ctx context.Context) (users []FormUser, fromPrimary bool, err error) {
	if s.primary != nil {
		users, err = s.primary.ListFormUsers(ctx)
		if err == nil && len(users) > 0 {
			return users, true, nil
		}
		if err != nil {
			s.logger.Warn("primary store user read failed, using file fallback", "error", err)
		}
	}
	users, err = s.files.ListFormUsers()
	return users, false, err
}
