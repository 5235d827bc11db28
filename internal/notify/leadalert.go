package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// LeadAlerter emails the sales inbox when the chatbot captures a new lead.
// Alerts are best-effort; a send failure never fails lead creation.
type LeadAlerter struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

// NewLeadAlerter wires the alerter. Returns nil when either the sender or
// the destination address is unconfigured, and callers treat a nil alerter
// as disabled.
func NewLeadAlerter(sender EmailSender, to string, logger *logging.Logger) *LeadAlerter {
	if sender == nil || to == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadAlerter{sender: sender, to: to, logger: logger}
}

// NotifyNewLead sends the alert email for a captured lead.
func (a *LeadAlerter) NotifyNewLead(ctx context.Context, lead *store.Lead) {
	if a == nil {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "A new lead came in via the %s widget.\n\n", lead.Source)
	fmt.Fprintf(&body, "Name: %s\n", lead.Name)
	if lead.Email != "" {
		fmt.Fprintf(&body, "Email: %s\n", lead.Email)
	}
	if lead.Phone != "" {
		fmt.Fprintf(&body, "Phone: %s\n", lead.Phone)
	}
	if lead.Message != "" {
		fmt.Fprintf(&body, "Message: %s\n", lead.Message)
	}
	fmt.Fprintf(&body, "Received: %s\n", time.UnixMilli(lead.CreatedAt).UTC().Format(time.RFC1123))

	msg := EmailMessage{
		To:      a.to,
		Subject: fmt.Sprintf("New lead: %s", lead.Name),
		Body:    body.String(),
	}
	if err := a.sender.Send(ctx, msg); err != nil {
		a.logger.Warn("lead alert email failed", "error", err, "lead_id", lead.ID)
		return
	}
	a.logger.Info("lead alert email sent", "lead_id", lead.ID)
}
