// Package leads captures sales leads submitted through the chat widget.
package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imsolutions/chatdesk/internal/notify"
	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

var (
	// ErrInvalidName is returned when the name is missing.
	ErrInvalidName = errors.New("leads: name is required")

	// ErrMissingContact is returned when both email and phone are missing.
	ErrMissingContact = errors.New("leads: either email or phone is required")
)

const defaultSource = "chatbot"

// CreateRequest carries the lead-capture form fields.
type CreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Store is the slice of the record store the lead service writes through.
type Store interface {
	Available() bool
	SaveLead(ctx context.Context, lead *store.Lead) error
}

// Service validates and persists leads and fires the sales alert.
type Service struct {
	store   Store
	alerter *notify.LeadAlerter
	logger  *logging.Logger
	now     func() time.Time
}

// NewService wires the lead service. alerter may be nil.
func NewService(st Store, alerter *notify.LeadAlerter, logger *logging.Logger) *Service {
	if st == nil {
		panic("leads: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, alerter: alerter, logger: logger, now: time.Now}
}

// Create validates the request and stores the lead. The invariant is a
// non-empty name plus at least one contact field.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.Lead, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	if name == "" {
		return nil, ErrInvalidName
	}
	if email == "" && phone == "" {
		return nil, ErrMissingContact
	}

	lead := &store.Lead{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Message:   strings.TrimSpace(req.Message),
		Source:    defaultSource,
		CreatedAt: s.now().UnixMilli(),
	}

	if err := s.store.SaveLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("leads: save: %w", err)
	}

	s.alerter.NotifyNewLead(ctx, lead)

	s.logger.Info("lead created", "lead_id", lead.ID, "source", lead.Source)
	return lead, nil
}
