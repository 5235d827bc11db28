package sessions

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// SessionHeader carries the client-generated session id.
const SessionHeader = "X-Session-ID"

// Handler exposes the session-context endpoint.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if store == nil {
		panic("sessions: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// SessionID extracts the session id from the header, falling back to the
// request body field.
func SessionID(r *http.Request, bodyID string) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(bodyID)
}

type setUserRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
}

// SetUser handles POST /session/user: it stores contact details so later
// appointment and chat requests can default unset fields from them.
func (h *Handler) SetUser(w http.ResponseWriter, r *http.Request) {
	var req setUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := SessionID(r, req.SessionID)
	if sessionID == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}

	user := UserContext{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Company: strings.TrimSpace(req.Company),
	}
	if err := h.store.Save(r.Context(), sessionID, user); err != nil {
		h.logger.Error("failed to save session user", "error", err, "session_id", sessionID)
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	h.logger.Info("session user updated", "session_id", sessionID, "name", user.Name)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
