package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

var dashTracer = otel.Tracer("chatdesk.internal.dashboard")

const storeUnavailableMessage = "Primary data store is not configured on the server. Upload credentials and restart the app."

const dayFormat = "2006-01-02"

// Metrics are the dashboard summary counters.
type Metrics struct {
	TotalLeads           int `json:"totalLeads"`
	LeadsToday           int `json:"leadsToday"`
	TotalAppointments    int `json:"totalAppointments"`
	UpcomingAppointments int `json:"upcomingAppointments"`
	TotalConversations   int `json:"totalConversations"`
	TotalUsers           int `json:"totalUsers"`
}

// LeadView is a lead row with its timestamp rendered for display.
type LeadView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// AppointmentView is an appointment row with its user resolved.
type AppointmentView struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Time   string         `json:"time"`
	Notes  string         `json:"notes"`
	Status string         `json:"status"`
	User   store.UserInfo `json:"user"`
}

// ConversationView is a chat exchange row.
type ConversationView struct {
	ID          string                 `json:"id"`
	UserMessage string                 `json:"user_message"`
	BotResponse string                 `json:"bot_response"`
	Timestamp   string                 `json:"timestamp"`
	SessionID   string                 `json:"session_id"`
	UserDetails store.ConversationUser `json:"user_details"`
}

// UserSession is the derived per-session aggregate built by folding
// conversations on their session id.
type UserSession struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	FirstSeen         string `json:"first_seen"`
	LastSeen          string `json:"last_seen"`
	SessionID         string `json:"session_id"`
	ConversationCount int    `json:"conversation_count"`
}

// ChartSeries pairs labels with values for chart rendering.
type ChartSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// View is the full dashboard payload.
type View struct {
	StoreAvailable bool               `json:"store_available"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	Metrics        Metrics            `json:"metrics"`
	Leads          []LeadView         `json:"leads"`
	Appointments   []AppointmentView  `json:"appointments"`
	Conversations  []ConversationView `json:"conversations"`
	Users          []UserSession      `json:"users"`
	LeadsChart     ChartSeries        `json:"leads_chart"`
	StatusChart    ChartSeries        `json:"status_chart"`
	LLMLatency     LatencySnapshot    `json:"llm_latency"`
}

// storeReader is the read-side slice of the record store the dashboard
// needs.
type storeReader interface {
	Available() bool
	ListLeads(ctx context.Context) ([]store.Lead, error)
	ListAppointments(ctx context.Context) ([]store.Appointment, bool, error)
	ListConversations(ctx context.Context) ([]store.Conversation, error)
	ListFormUsers(ctx context.Context) ([]store.FormUser, bool, error)
}

// Aggregator computes the dashboard view. It is strictly read-only over
// the store; every section degrades independently when its read fails.
type Aggregator struct {
	store    storeReader
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	now      func() time.Time
}

func NewAggregator(st storeReader, gatherer prometheus.Gatherer, logger *logging.Logger) *Aggregator {
	if st == nil {
		panic("dashboard: store cannot be nil")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{store: st, gatherer: gatherer, logger: logger, now: time.Now}
}

// Compute builds the dashboard view. An unconfigured primary store yields a
// zeroed view with an explicit flag rather than partial data.
func (a *Aggregator) Compute(ctx context.Context) View {
	ctx, span := dashTracer.Start(ctx, "dashboard.compute")
	defer span.End()

	now := a.now().UTC()
	view := View{
		StoreAvailable: a.store.Available(),
		Leads:          []LeadView{},
		Appointments:   []AppointmentView{},
		Conversations:  []ConversationView{},
		Users:          []UserSession{},
		LLMLatency:     snapshotLLMLatency(a.gatherer),
	}

	leadsByDay := map[string]int{}

	if !view.StoreAvailable {
		view.ErrorMessage = storeUnavailableMessage
	} else {
		view.Leads = a.collectLeads(ctx, leadsByDay)
		view.Appointments, view.Metrics.UpcomingAppointments, view.StatusChart = a.collectAppointments(ctx, now)
		view.Conversations, view.Users = a.collectConversations(ctx)
		view.Metrics.TotalUsers = a.countUniqueUsers(ctx, view.Users)
	}

	sortLeadsDesc(view.Leads)
	sortAppointmentsDesc(view.Appointments)
	sortConversationsDesc(view.Conversations)

	view.Metrics.TotalLeads = len(view.Leads)
	view.Metrics.TotalAppointments = len(view.Appointments)
	view.Metrics.TotalConversations = len(view.Conversations)
	if view.Metrics.TotalUsers == 0 {
		view.Metrics.TotalUsers = len(view.Users)
	}
	view.Metrics.LeadsToday = leadsByDay[now.Format(dayFormat)]

	view.LeadsChart = buildLeadsChart(leadsByDay, now)
	return view
}

func (a *Aggregator) collectLeads(ctx context.Context, leadsByDay map[string]int) []LeadView {
	leads, err := a.store.ListLeads(ctx)
	if err != nil {
		a.logger.Warn("dashboard: lead read failed", "error", err)
		return []LeadView{}
	}

	out := make([]LeadView, 0, len(leads))
	for _, lead := range leads {
		createdISO := ""
		if lead.CreatedAt > 0 {
			created := time.UnixMilli(lead.CreatedAt).UTC()
			createdISO = created.Format(time.RFC3339)
			leadsByDay[created.Format(dayFormat)]++
		}
		out = append(out, LeadView{
			ID:        lead.ID,
			Name:      lead.Name,
			Email:     lead.Email,
			Phone:     lead.Phone,
			Message:   lead.Message,
			Source:    lead.Source,
			CreatedAt: createdISO,
		})
	}
	return out
}

func (a *Aggregator) collectAppointments(ctx context.Context, now time.Time) ([]AppointmentView, int, ChartSeries) {
	appts, _, err := a.store.ListAppointments(ctx)
	if err != nil {
		a.logger.Warn("dashboard: appointment read failed", "error", err)
		return []AppointmentView{}, 0, ChartSeries{Labels: []string{}, Values: []int{}}
	}

	upcoming := 0
	statusCounts := map[string]int{}
	statusOrder := []string{}
	out := make([]AppointmentView, 0, len(appts))
	for i := range appts {
		appt := appts[i]
		status := strings.ToLower(appt.Status)
		if status == "" {
			status = "pending"
		}
		if _, seen := statusCounts[status]; !seen {
			statusOrder = append(statusOrder, status)
		}
		statusCounts[status]++

		start := appt.StartTime()
		if status != store.StatusCancelled && !start.IsZero() && start.After(now) {
			upcoming++
		}

		out = append(out, AppointmentView{
			ID:     appt.ID,
			Title:  appt.Title,
			Time:   appt.Time,
			Notes:  appt.Notes,
			Status: status,
			User:   appt.ResolveUser(),
		})
	}

	chart := ChartSeries{Labels: statusOrder, Values: make([]int, 0, len(statusOrder))}
	for _, status := range statusOrder {
		chart.Values = append(chart.Values, statusCounts[status])
	}
	return out, upcoming, chart
}

func (a *Aggregator) collectConversations(ctx context.Context) ([]ConversationView, []UserSession) {
	convs, err := a.store.ListConversations(ctx)
	if err != nil {
		a.logger.Warn("dashboard: conversation read failed", "error", err)
		return []ConversationView{}, []UserSession{}
	}

	out := make([]ConversationView, 0, len(convs))
	sessions := map[string]*UserSession{}
	sessionOrder := []string{}

	for _, conv := range convs {
		timestampISO := ""
		if conv.Timestamp > 0 {
			timestampISO = time.UnixMilli(conv.Timestamp).UTC().Format(time.RFC3339)
		}
		sessionID := conv.SessionID
		if sessionID == "" {
			sessionID = "default"
		}

		out = append(out, ConversationView{
			ID:          conv.ID,
			UserMessage: conv.UserMessage,
			BotResponse: conv.BotResponse,
			Timestamp:   timestampISO,
			SessionID:   sessionID,
			UserDetails: conv.UserDetails,
		})

		if agg, seen := sessions[sessionID]; seen {
			agg.LastSeen = timestampISO
			agg.ConversationCount++
			continue
		}
		name := conv.UserDetails.Name
		if name == "" {
			name = "Anonymous"
		}
		sessions[sessionID] = &UserSession{
			Name:              name,
			Email:             conv.UserDetails.Email,
			Phone:             conv.UserDetails.Phone,
			FirstSeen:         timestampISO,
			LastSeen:          timestampISO,
			SessionID:         sessionID,
			ConversationCount: 1,
		}
		sessionOrder = append(sessionOrder, sessionID)
	}

	users := make([]UserSession, 0, len(sessionOrder))
	for _, id := range sessionOrder {
		users = append(users, *sessions[id])
	}
	return out, users
}

// countUniqueUsers unions identity keys from the session aggregates and the
// form-captured users collection. The union, not either source alone, is
// the canonical total.
func (a *Aggregator) countUniqueUsers(ctx context.Context, sessionUsers []UserSession) int {
	keys := map[string]struct{}{}
	for _, u := range sessionUsers {
		if key, ok := u.identityKey(); ok {
			keys[key] = struct{}{}
		}
	}

	formUsers, _, err := a.store.ListFormUsers(ctx)
	if err != nil {
		a.logger.Warn("dashboard: form user read failed", "error", err)
	}
	for _, u := range formUsers {
		if key, ok := formUserIdentityKey(u.Email, u.Phone); ok {
			keys[key] = struct{}{}
		}
	}
	return len(keys)
}

// buildLeadsChart produces the 7-day trailing series, oldest day first and
// zero-filled. Labels are weekday abbreviations.
func buildLeadsChart(leadsByDay map[string]int, now time.Time) ChartSeries {
	chart := ChartSeries{Labels: make([]string, 0, 7), Values: make([]int, 0, 7)}
	today := now.Truncate(24 * time.Hour)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		chart.Labels = append(chart.Labels, day.Format("Mon"))
		chart.Values = append(chart.Values, leadsByDay[day.Format(dayFormat)])
	}
	return chart
}

// The three list sorts are stable and treat a missing sort key as the
// minimum value so malformed records sink to the bottom instead of
// erroring.

func sortLeadsDesc(leads []LeadView) {
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].CreatedAt > leads[j].CreatedAt
	})
}

func sortAppointmentsDesc(appts []AppointmentView) {
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Time > appts[j].Time
	})
}

func sortConversationsDesc(convs []ConversationView) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].Timestamp > convs[j].Timestamp
	})
}
