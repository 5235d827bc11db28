// Package telephony handles Twilio voice webhooks: inbound call greeting,
// speech-driven conversation turns, and end-of-call summary export.
package telephony

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imsolutions/chatdesk/internal/observability/metrics"
	"github.com/imsolutions/chatdesk/internal/sheets"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

var voiceTracer = otel.Tracer("chatdesk.internal.telephony")

const (
	voicePath      = "/voice"
	voiceInputPath = "/voice/input"
)

// replier produces a spoken reply for a transcribed utterance.
type replier interface {
	Respond(ctx context.Context, message string) string
}

// Handler serves the Twilio voice webhook endpoints.
type Handler struct {
	responder   replier
	transcripts *TranscriptBuffer
	summaries   sheets.Appender
	caller      *Caller
	authToken   string
	metrics     *metrics.VoiceMetrics
	logger      *logging.Logger
}

// NewHandler creates a voice webhook handler. summaries may be nil when the
// spreadsheet export is not configured, and caller may be nil when outbound
// calling is not configured; authToken empty disables signature validation
// (local development).
func NewHandler(responder replier, transcripts *TranscriptBuffer, summaries sheets.Appender, caller *Caller, authToken string, voiceMetrics *metrics.VoiceMetrics, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("telephony: responder cannot be nil")
	}
	if transcripts == nil {
		transcripts = NewTranscriptBuffer()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		responder:   responder,
		transcripts: transcripts,
		summaries:   summaries,
		caller:      caller,
		authToken:   authToken,
		metrics:     voiceMetrics,
		logger:      logger,
	}
}

// Voice handles POST /voice: greets the caller and gathers speech.
func (h *Handler) Voice(w http.ResponseWriter, r *http.Request) {
	_, span := voiceTracer.Start(r.Context(), "telephony.voice")
	defer span.End()

	if !h.authorized(r) {
		h.metrics.ObserveWebhook("voice", "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.metrics.ObserveWebhook("voice", "ok")
	writeTwiML(w, welcomeTwiML(voiceInputPath, voicePath))
}

// HandleInput handles POST /voice/input: runs the transcribed speech
// through the chat responder and speaks the reply back.
func (h *Handler) HandleInput(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "telephony.voice_input")
	defer span.End()

	if !h.authorized(r) {
		h.metrics.ObserveWebhook("voice_input", "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	speech := r.FormValue("SpeechResult")
	callSID := r.FormValue("CallSid")
	span.SetAttributes(attribute.String("call.sid", callSID))

	if speech == "" {
		h.metrics.ObserveWebhook("voice_input", "no_speech")
		writeTwiML(w, retryTwiML(voicePath))
		return
	}

	reply := h.responder.Respond(ctx, speech)
	h.transcripts.Append(callSID, speech, reply)
	h.metrics.ObserveWebhook("voice_input", "ok")
	writeTwiML(w, replyTwiML(reply, voiceInputPath))
}

// CallCompleted handles POST /voice/completed: flushes the transcript,
// renders the summary, and appends it to the call log spreadsheet.
func (h *Handler) CallCompleted(w http.ResponseWriter, r *http.Request) {
	ctx, span := voiceTracer.Start(r.Context(), "telephony.call_completed")
	defer span.End()

	if !h.authorized(r) {
		h.metrics.ObserveWebhook("call_completed", "unauthorized")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	callSID := r.FormValue("CallSid")
	duration := r.FormValue("CallDuration")
	phone := r.FormValue("To")
	span.SetAttributes(attribute.String("call.sid", callSID))

	exchanges, ok := h.transcripts.Flush(callSID)
	if ok && h.summaries != nil {
		summary := summarize(exchanges)
		if err := h.summaries.AppendCallSummary(ctx, callSID, phone, duration, summary); err != nil {
			// Summary export is best effort; the call already happened.
			h.logger.Error("failed to export call summary", "call_sid", callSID, "error", err)
		}
	}

	h.metrics.ObserveWebhook("call_completed", "ok")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	if ValidateTwilioSignature(r, h.authToken, buildAbsoluteURL(r)) {
		return true
	}
	h.logger.Warn("invalid twilio signature", "path", r.URL.Path)
	return false
}

func writeTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
