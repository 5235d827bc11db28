package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// Caller places outbound calls through Twilio's REST API.
type Caller struct {
	accountSID  string
	authToken   string
	from        string
	voiceURL    string
	callbackURL string
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewCaller builds an outbound caller. Returns nil when the Twilio account
// credentials or phone number are missing, which disables call initiation.
func NewCaller(accountSID, authToken, from, voiceURL, callbackURL string, logger *logging.Logger) *Caller {
	if accountSID == "" || authToken == "" || from == "" {
		return nil
	}
	if voiceURL == "" {
		voiceURL = "http://localhost:5001/voice"
	}
	if callbackURL == "" {
		callbackURL = "http://localhost:5001/voice/completed"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Caller{
		accountSID:  accountSID,
		authToken:   authToken,
		from:        from,
		voiceURL:    voiceURL,
		callbackURL: callbackURL,
		baseURL:     "https://api.twilio.com",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Call dials toNumber and wires the call to the voice webhook. Returns the
// Twilio call SID.
func (c *Caller) Call(ctx context.Context, toNumber string) (string, error) {
	ctx, span := voiceTracer.Start(ctx, "telephony.initiate_call")
	defer span.End()
	span.SetAttributes(attribute.String("call.to", toNumber))

	payload := url.Values{}
	payload.Set("To", toNumber)
	payload.Set("From", c.from)
	payload.Set("Url", c.voiceURL)
	payload.Set("StatusCallback", c.callbackURL)
	payload.Set("StatusCallbackEvent", "completed")
	payload.Set("StatusCallbackMethod", "POST")

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("initiate call: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("initiate call: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return "", err
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.SID == "" {
		return "", errors.New("initiate call: response missing call sid")
	}

	c.logger.Info("outbound call initiated", "call_sid", parsed.SID, "to", toNumber)
	return parsed.SID, nil
}

type initiateCallRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// InitiateCall handles POST /calls.
func (h *Handler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "telephony.calls")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")

	var req initiateCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.PhoneNumber) == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Phone number is required"})
		return
	}

	if h.caller == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Twilio is not configured on the server."})
		return
	}

	callSID, err := h.caller.Call(ctx, strings.TrimSpace(req.PhoneNumber))
	if err != nil {
		h.logger.Error("failed to initiate call", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": fmt.Sprintf("Error initiating call: %v", err)})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"message":  "Call initiated successfully",
		"call_sid": callSID,
	})
}
