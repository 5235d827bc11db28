// Package store is the single owner of the four persisted collections:
// leads, appointments, conversations and users. It writes through to a
// primary DynamoDB document store and a local flat-file fallback; readers
// prefer the primary when it is reachable.
package store

import "time"

// Appointment statuses. Cancellation is a soft state; records are never
// deleted.
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// UserInfo identifies the person attached to an appointment.
type UserInfo struct {
	Name    string `json:"name" dynamodbav:"name"`
	Email   string `json:"email" dynamodbav:"email"`
	Phone   string `json:"phone" dynamodbav:"phone"`
	Company string `json:"company" dynamodbav:"company"`
}

// Appointment is a scheduled or cancelled booking. Time is an RFC3339
// instant normalized to UTC. The flat user_* fields mirror legacy rows
// written before the nested user object existed; readers reconstruct
// UserInfo from them when User is empty.
type Appointment struct {
	ID     string   `json:"id" dynamodbav:"id"`
	Title  string   `json:"title" dynamodbav:"title"`
	Time   string   `json:"time" dynamodbav:"time"`
	Notes  string   `json:"notes" dynamodbav:"notes"`
	Status string   `json:"status" dynamodbav:"status"`
	User   UserInfo `json:"user" dynamodbav:"user"`

	UserName    string `json:"user_name,omitempty" dynamodbav:"user_name,omitempty"`
	UserEmail   string `json:"user_email,omitempty" dynamodbav:"user_email,omitempty"`
	UserPhone   string `json:"user_phone,omitempty" dynamodbav:"user_phone,omitempty"`
	UserCompany string `json:"user_company,omitempty" dynamodbav:"user_company,omitempty"`
}

// StartTime parses the normalized appointment time. The zero time is
// returned for records with a missing or unparseable time field.
func (a *Appointment) StartTime() time.Time {
	if a.Time == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, a.Time)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// ResolveUser returns the nested user when present, otherwise rebuilds one
// from the legacy flat fields. An unresolvable name becomes "Anonymous User".
func (a *Appointment) ResolveUser() UserInfo {
	u := a.User
	if u == (UserInfo{}) {
		u = UserInfo{
			Name:    a.UserName,
			Email:   a.UserEmail,
			Phone:   a.UserPhone,
			Company: a.UserCompany,
		}
	}
	if u.Name == "" || u.Name == "Anonymous" {
		u.Name = "Anonymous User"
	}
	return u
}

// Lead is a captured sales lead. CreatedAt is Unix milliseconds.
type Lead struct {
	ID        string `json:"id" dynamodbav:"id"`
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email" dynamodbav:"email"`
	Phone     string `json:"phone" dynamodbav:"phone"`
	Message   string `json:"message" dynamodbav:"message"`
	Source    string `json:"source" dynamodbav:"source"`
	CreatedAt int64  `json:"created_at" dynamodbav:"created_at"`
}

// ConversationUser carries the visitor details attached to a chat exchange.
type ConversationUser struct {
	Name  string `json:"name" dynamodbav:"name"`
	Email string `json:"email" dynamodbav:"email"`
	Phone string `json:"phone" dynamodbav:"phone"`
}

// Conversation is one chat exchange (user message + bot response).
// Timestamp is Unix milliseconds. SessionID groups exchanges into one
// logical visitor session.
type Conversation struct {
	ID          string           `json:"id" dynamodbav:"id"`
	UserMessage string           `json:"user_message" dynamodbav:"user_message"`
	BotResponse string           `json:"bot_response" dynamodbav:"bot_response"`
	Timestamp   int64            `json:"timestamp" dynamodbav:"timestamp"`
	SessionID   string           `json:"session_id" dynamodbav:"session_id"`
	UserDetails ConversationUser `json:"user_details" dynamodbav:"user_details"`
}

// FormUser is a visitor captured through the chatbot contact form.
// Timestamp is an RFC3339 instant.
type FormUser struct {
	ID        string `json:"id,omitempty" dynamodbav:"id"`
	Name      string `json:"name" dynamodbav:"name"`
	Email     string `json:"email" dynamodbav:"email"`
	Phone     string `json:"phone" dynamodbav:"phone"`
	Company   string `json:"company" dynamodbav:"company"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
	Source    string `json:"source" dynamodbav:"source"`
}
