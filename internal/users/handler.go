// Package users stores visitors captured through the chatbot contact form.
package users

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

const formSource = "chatbot_form"

// Handler exposes the form-user capture and listing endpoints.
type Handler struct {
	store  *store.Store
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates a users handler.
func NewHandler(st *store.Store, logger *logging.Logger) *Handler {
	if st == nil {
		panic("users: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: st, logger: logger, now: time.Now}
}

type storeUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// Store handles POST /users. The write is considered successful once the
// local backup lands; a primary-store failure is only a warning.
func (h *Handler) Store(w http.ResponseWriter, r *http.Request) {
	var req storeUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "invalid request body"})
		return
	}

	user := &store.FormUser{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Company:   strings.TrimSpace(req.Company),
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Source:    formSource,
	}

	outcome := h.store.SaveFormUser(r.Context(), user)
	if !outcome.Ok() {
		h.logger.Error("failed to store user data", "error", outcome.FileErr)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "failed to store user data"})
		return
	}
	if outcome.Degraded() {
		h.logger.Warn("user data stored locally only", "error", outcome.PrimaryErr)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "User data stored successfully"})
}

// List handles GET /users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, _, err := h.store.ListFormUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to read users data", "error", err)
		http.Error(w, "failed to read users data", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []store.FormUser{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"users": users})
}
