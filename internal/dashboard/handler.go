package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Handler serves the operational dashboard: a server-rendered page and a
// JSON payload for refreshes. Both sit behind the dashboard login.
type Handler struct {
	agg    *Aggregator
	tmpl   *template.Template
	logger *logging.Logger
}

func NewHandler(agg *Aggregator, logger *logging.Logger) *Handler {
	if agg == nil {
		panic("dashboard: aggregator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		agg:    agg,
		tmpl:   template.Must(template.New("dashboard").Parse(dashboardHTML)),
		logger: logger,
	}
}

// Page handles GET /dashboard.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	view := h.agg.Compute(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, view); err != nil {
		h.logger.Error("dashboard: render failed", "error", err)
	}
}

// Data handles GET /dashboard/data.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	view := h.agg.Compute(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ChatDesk Dashboard</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2430; }
  .banner { background: #fde8e8; border: 1px solid #e0b4b4; padding: .75rem 1rem; border-radius: 6px; margin-bottom: 1.5rem; }
  .cards { display: flex; gap: 1rem; flex-wrap: wrap; margin-bottom: 2rem; }
  .card { border: 1px solid #d8dce6; border-radius: 8px; padding: 1rem 1.5rem; min-width: 10rem; }
  .card h2 { margin: 0; font-size: 2rem; }
  .card p { margin: .25rem 0 0; color: #5b6372; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
  th, td { border-bottom: 1px solid #e2e5ec; text-align: left; padding: .5rem .75rem; font-size: .9rem; }
  th { color: #5b6372; text-transform: uppercase; font-size: .75rem; letter-spacing: .05em; }
  h3 { margin-top: 2rem; }
  .logout { float: right; }
</style>
</head>
<body>
<a class="logout" href="/logout">Log out</a>
<h1>ChatDesk Dashboard</h1>
{{if .ErrorMessage}}<div class="banner">{{.ErrorMessage}}</div>{{end}}
<div class="cards">
  <div class="card"><h2>{{.Metrics.TotalLeads}}</h2><p>Leads ({{.Metrics.LeadsToday}} today)</p></div>
  <div class="card"><h2>{{.Metrics.TotalAppointments}}</h2><p>Appointments ({{.Metrics.UpcomingAppointments}} upcoming)</p></div>
  <div class="card"><h2>{{.Metrics.TotalConversations}}</h2><p>Conversations</p></div>
  <div class="card"><h2>{{.Metrics.TotalUsers}}</h2><p>Unique users</p></div>
</div>

<h3>Leads this week</h3>
<table><tr>{{range .LeadsChart.Labels}}<th>{{.}}</th>{{end}}</tr>
<tr>{{range .LeadsChart.Values}}<td>{{.}}</td>{{end}}</tr></table>

<h3>Leads</h3>
<table>
<tr><th>Name</th><th>Email</th><th>Phone</th><th>Message</th><th>Source</th><th>Created</th></tr>
{{range .Leads}}<tr><td>{{.Name}}</td><td>{{.Email}}</td><td>{{.Phone}}</td><td>{{.Message}}</td><td>{{.Source}}</td><td>{{.CreatedAt}}</td></tr>{{end}}
</table>

<h3>Appointments</h3>
<table>
<tr><th>ID</th><th>Title</th><th>Time</th><th>Status</th><th>User</th></tr>
{{range .Appointments}}<tr><td>{{.ID}}</td><td>{{.Title}}</td><td>{{.Time}}</td><td>{{.Status}}</td><td>{{.User.Name}}</td></tr>{{end}}
</table>

<h3>Conversations</h3>
<table>
<tr><th>Time</th><th>Session</th><th>User</th><th>Message</th><th>Response</th></tr>
{{range .Conversations}}<tr><td>{{.Timestamp}}</td><td>{{.SessionID}}</td><td>{{.UserDetails.Name}}</td><td>{{.UserMessage}}</td><td>{{.BotResponse}}</td></tr>{{end}}
</table>

<h3>Sessions</h3>
<table>
<tr><th>Session</th><th>Name</th><th>Email</th><th>First seen</th><th>Last seen</th><th>Messages</th></tr>
{{range .Users}}<tr><td>{{.SessionID}}</td><td>{{.Name}}</td><td>{{.Email}}</td><td>{{.FirstSeen}}</td><td>{{.LastSeen}}</td><td>{{.ConversationCount}}</td></tr>{{end}}
</table>
</body>
</html>`
