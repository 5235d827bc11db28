package leads

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/imsolutions/chatdesk/internal/store"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Handler exposes the lead-capture endpoint.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a leads handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("leads: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Create handles POST /leads.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.service.store.Available() {
		writeResult(w, http.StatusServiceUnavailable, false, "Leads storage is not configured.", "")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, false, "Invalid request body.", "")
		return
	}

	lead, err := h.service.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName), errors.Is(err, ErrMissingContact):
			writeResult(w, http.StatusBadRequest, false, "Name and at least one contact (email or phone) are required.", "")
		case errors.Is(err, store.ErrUnavailable):
			writeResult(w, http.StatusServiceUnavailable, false, "Leads storage is not configured.", "")
		default:
			h.logger.Error("failed to create lead", "error", err)
			writeResult(w, http.StatusInternalServerError, false, "Failed to save lead.", "")
		}
		return
	}

	writeResult(w, http.StatusOK, true, "Lead submitted successfully", lead.ID)
}

func writeResult(w http.ResponseWriter, status int, success bool, message, leadID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": success, "message": message}
	if leadID != "" {
		body["lead_id"] = leadID
	}
	_ = json.NewEncoder(w).Encode(body)
}
