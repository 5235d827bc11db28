package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/imsolutions/chatdesk/internal/sessions"
	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Handler exposes the scheduling endpoints.
type Handler struct {
	service  *Service
	sessions sessions.Store
	logger   *logging.Logger
}

// NewHandler creates an appointments handler. sessionStore may be nil.
func NewHandler(service *Service, sessionStore sessions.Store, logger *logging.Logger) *Handler {
	if service == nil {
		panic("appointments: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, sessions: sessionStore, logger: logger}
}

type scheduleRequest struct {
	Title       string `json:"title"`
	Time        string `json:"time"`
	Notes       string `json:"notes"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	UserPhone   string `json:"user_phone"`
	UserCompany string `json:"user_company"`
	SessionID   string `json:"session_id"`
}

// Schedule handles POST /appointments.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	appt, _, err := h.service.Schedule(r.Context(), ScheduleRequest{
		Title:     req.Title,
		Time:      req.Time,
		Notes:     req.Notes,
		User:      h.resolveUser(r, req),
		UserAgent: r.Header.Get("User-Agent"),
	})
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.Is(err, ErrMissingTitle), errors.Is(err, ErrMissingTime):
			writeError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, ErrBadTime):
			writeError(w, http.StatusBadRequest, "Invalid appointment time")
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":                "This time slot is already booked. Please choose a different time.",
				"existing_appointment": conflict.Existing,
			})
		default:
			h.logger.Error("failed to schedule appointment", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to schedule appointment")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Appointment scheduled successfully",
		"appointment":    appt,
		"appointment_id": appt.ID,
	})
}

// resolveUser merges contact fields from the request body with the stored
// session context; body fields win, company comes from the body only.
func (h *Handler) resolveUser(r *http.Request, req scheduleRequest) store.UserInfo {
	user := store.UserInfo{
		Name:    strings.TrimSpace(req.UserName),
		Email:   strings.TrimSpace(req.UserEmail),
		Phone:   strings.TrimSpace(req.UserPhone),
		Company: strings.TrimSpace(req.UserCompany),
	}
	if h.sessions == nil {
		return user
	}
	sessionID := sessions.SessionID(r, req.SessionID)
	if sessionID == "" {
		return user
	}
	stored, ok, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil || !ok {
		return user
	}
	if user.Name == "" {
		user.Name = stored.Name
	}
	if user.Email == "" {
		user.Email = stored.Email
	}
	if user.Phone == "" {
		user.Phone = stored.Phone
	}
	return user
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if appts == nil {
		appts = []store.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// Cancel handles POST /appointments/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Appointment ID is required")
		return
	}

	appt, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to cancel appointment", "error", err, "appointment_id", id)
		writeError(w, http.StatusInternalServerError, "failed to cancel appointment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Appointment cancelled successfully",
		"appointment_id": id,
		"appointment":    appt,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
