package conversation

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imsolutions/chatdesk/internal/sessions"
	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Handler exposes the chat message endpoint.
type Handler struct {
	responder *Responder
	store     *store.Store
	sessions  sessions.Store
	logger    *logging.Logger
}

// NewHandler creates a chat handler. sessionStore may be nil when session
// context is not configured.
func NewHandler(responder *Responder, st *store.Store, sessionStore sessions.Store, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("conversation: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{responder: responder, store: st, sessions: sessionStore, logger: logger}
}

type messageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type messageResponse struct {
	Response string `json:"response"`
}

// SendMessage handles POST /messages. The reply is always produced; storing
// the exchange is best-effort and never fails the request.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	reply := h.responder.Respond(r.Context(), req.Message)

	h.persistExchange(r, req, reply)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(messageResponse{Response: reply})
}

func (h *Handler) persistExchange(r *http.Request, req messageRequest, reply string) {
	if h.store == nil {
		return
	}

	sessionID := sessions.SessionID(r, req.SessionID)
	if sessionID == "" {
		sessionID = "default"
	}

	details := store.ConversationUser{Name: "Anonymous"}
	if h.sessions != nil {
		if user, ok, err := h.sessions.Get(r.Context(), sessionID); err == nil && ok {
			if user.Name != "" {
				details.Name = user.Name
			}
			details.Email = user.Email
			details.Phone = user.Phone
		}
	}

	conv := &store.Conversation{
		ID:          uuid.NewString(),
		UserMessage: req.Message,
		BotResponse: reply,
		Timestamp:   time.Now().UnixMilli(),
		SessionID:   sessionID,
		UserDetails: details,
	}
	if err := h.store.SaveConversation(r.Context(), conv); err != nil {
		h.logger.Warn("chat: failed to save conversation", "error", err, "session_id", sessionID)
	}
}
