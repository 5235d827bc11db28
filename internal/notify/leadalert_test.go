package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/imsolutions/chatdesk/internal/store"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestNewLeadAlerter_NilWhenUnconfigured(t *testing.T) {
	if NewLeadAlerter(nil, "sales@x.com", nil) != nil {
		t.Error("expected nil alerter without a sender")
	}
	if NewLeadAlerter(&recordingSender{}, "", nil) != nil {
		t.Error("expected nil alerter without a destination")
	}
}

func TestNotifyNewLead(t *testing.T) {
	sender := &recordingSender{}
	alerter := NewLeadAlerter(sender, "sales@x.com", nil)

	alerter.NotifyNewLead(context.Background(), &store.Lead{
		ID:        "lead-1",
		Name:      "Jane",
		Email:     "jane@x.com",
		Message:   "Interested in SEO",
		Source:    "chatbot",
		CreatedAt: 1717200000000,
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "sales@x.com" {
		t.Errorf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "Jane") {
		t.Errorf("subject should name the lead, got %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Interested in SEO") {
		t.Errorf("body should carry the message, got %q", msg.Body)
	}
}

func TestNotifyNewLead_SendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	alerter := NewLeadAlerter(sender, "sales@x.com", nil)

	alerter.NotifyNewLead(context.Background(), &store.Lead{ID: "lead-1", Name: "Jane"})
}

func TestNotifyNewLead_NilAlerterSafe(t *testing.T) {
	var alerter *LeadAlerter
	alerter.NotifyNewLead(context.Background(), &store.Lead{ID: "lead-1"})
}
