package sheets

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Handler exposes the spreadsheet connection probe.
type Handler struct {
	checker HealthChecker
	logger  *logging.Logger
}

// NewHandler creates a sheets handler. checker may be nil when the
// spreadsheet integration is not configured.
func NewHandler(checker HealthChecker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{checker: checker, logger: logger}
}

// HealthCheck handles GET /sheets/health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.checker == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Google Sheets is not configured on the server.",
		})
		return
	}

	report, err := h.checker.Health(r.Context())
	if err != nil {
		h.logger.Error("spreadsheet connection test failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": fmt.Sprintf("Error: %v", err),
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":       true,
		"message":       "Google Sheets connection successful",
		"read_result":   report.HeaderRow,
		"updated_range": report.UpdatedRange,
	})
}
