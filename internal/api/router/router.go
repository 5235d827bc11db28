package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/imsolutions/chatdesk/internal/appointments"
	"github.com/imsolutions/chatdesk/internal/conversation"
	"github.com/imsolutions/chatdesk/internal/dashboard"
	"github.com/imsolutions/chatdesk/internal/http/handlers"
	httpmiddleware "github.com/imsolutions/chatdesk/internal/http/middleware"
	"github.com/imsolutions/chatdesk/internal/leads"
	"github.com/imsolutions/chatdesk/internal/sessions"
	"github.com/imsolutions/chatdesk/internal/sheets"
	"github.com/imsolutions/chatdesk/internal/telephony"
	"github.com/imsolutions/chatdesk/internal/users"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	ChatHandler         *conversation.Handler
	AppointmentsHandler *appointments.Handler
	LeadsHandler        *leads.Handler
	UsersHandler        *users.Handler
	SessionHandler      *sessions.Handler
	DashboardHandler    *dashboard.Handler
	SheetsHandler       *sheets.Handler
	VoiceHandler        *telephony.Handler
	LoginHandler        *handlers.LoginHandler
	MetricsHandler      http.Handler

	DashboardAuthSecret string
	CORSAllowedOrigins  []string

	// Per-IP throttle on the chat endpoint; zero disables it.
	ChatRateLimit float64
	ChatRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (widget, chat, scheduling, webhooks).
	r.Group(func(public chi.Router) {
		public.Get("/", handlers.Index)
		public.Get("/health", healthCheck)

		if cfg.ChatHandler != nil {
			public.Group(func(chat chi.Router) {
				if cfg.ChatRateLimit > 0 {
					chat.Use(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateBurst))
				}
				chat.Post("/messages", cfg.ChatHandler.SendMessage)
			})
		}

		if cfg.AppointmentsHandler != nil {
			public.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.Schedule)
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Post("/{id}/cancel", cfg.AppointmentsHandler.Cancel)
			})
		}

		if cfg.LeadsHandler != nil {
			public.Post("/leads", cfg.LeadsHandler.Create)
		}
		if cfg.UsersHandler != nil {
			public.Post("/users", cfg.UsersHandler.Store)
			public.Get("/users", cfg.UsersHandler.List)
		}
		if cfg.SessionHandler != nil {
			public.Post("/session/user", cfg.SessionHandler.SetUser)
		}

		if cfg.VoiceHandler != nil {
			public.Route("/voice", func(r chi.Router) {
				r.Post("/", cfg.VoiceHandler.Voice)
				r.Post("/input", cfg.VoiceHandler.HandleInput)
				r.Post("/completed", cfg.VoiceHandler.CallCompleted)
			})
			public.Post("/calls", cfg.VoiceHandler.InitiateCall)
		}

		if cfg.LoginHandler != nil {
			public.Get("/login", cfg.LoginHandler.ShowForm)
			public.Post("/login", cfg.LoginHandler.Submit)
			public.Get("/logout", cfg.LoginHandler.Logout)
		}

		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Login-gated dashboard routes.
	if cfg.DashboardAuthSecret != "" {
		r.Group(func(authed chi.Router) {
			authed.Use(httpmiddleware.DashboardAuth(cfg.DashboardAuthSecret))
			if cfg.DashboardHandler != nil {
				authed.Get("/dashboard", cfg.DashboardHandler.Page)
				authed.Get("/dashboard/data", cfg.DashboardHandler.Data)
			}
			if cfg.SheetsHandler != nil {
				authed.Get("/sheets/health", cfg.SheetsHandler.HealthCheck)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
