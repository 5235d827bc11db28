package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReplier struct {
	reply string
}

func (f *fakeReplier) Respond(context.Context, string) string { return f.reply }

type recordingAppender struct {
	callSID  string
	phone    string
	duration string
	summary  string
	err      error
	calls    int
}

func (a *recordingAppender) AppendCallSummary(_ context.Context, callSID, phone, duration, summary string) error {
	a.calls++
	a.callSID = callSID
	a.phone = phone
	a.duration = duration
	a.summary = summary
	return a.err
}

func newTestHandler(appender *recordingAppender) (*Handler, *TranscriptBuffer) {
	buf := NewTranscriptBuffer()
	var h *Handler
	if appender != nil {
		h = NewHandler(&fakeReplier{reply: "We offer digital marketing."}, buf, appender, nil, "", nil, nil)
	} else {
		h = NewHandler(&fakeReplier{reply: "We offer digital marketing."}, buf, nil, nil, "", nil, nil)
	}
	return h, buf
}

func postForm(handler http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestVoiceGreeting(t *testing.T) {
	h, _ := newTestHandler(nil)

	rec := postForm(h.Voice, "/voice", url.Values{})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<Response>")
	assert.Contains(t, body, "Welcome to IM Solutions. How can I help you today?")
	assert.Contains(t, body, `<Gather input="speech" action="/voice/input" method="POST">`)
	assert.Contains(t, body, "<Redirect>/voice</Redirect>")
}

func TestHandleInputSpeaksReply(t *testing.T) {
	h, buf := newTestHandler(nil)

	form := url.Values{}
	form.Set("SpeechResult", "what are your services")
	form.Set("CallSid", "CA123")
	rec := postForm(h.HandleInput, "/voice/input", form)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "We offer digital marketing.")
	assert.Contains(t, body, "Is there anything else I can help you with?")
	assert.Equal(t, 1, buf.Len())
}

func TestHandleInputNoSpeechRetries(t *testing.T) {
	h, buf := newTestHandler(nil)

	rec := postForm(h.HandleInput, "/voice/input", url.Values{})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "I didn&#39;t catch that. Please try again.")
	assert.Contains(t, body, "<Redirect>/voice</Redirect>")
	assert.Equal(t, 0, buf.Len())
}

func TestHandleInputEscapesReply(t *testing.T) {
	buf := NewTranscriptBuffer()
	h := NewHandler(&fakeReplier{reply: `We build <b>sites</b> & apps`}, buf, nil, nil, "", nil, nil)

	form := url.Values{}
	form.Set("SpeechResult", "what do you do")
	form.Set("CallSid", "CA1")
	rec := postForm(h.HandleInput, "/voice/input", form)

	body := rec.Body.String()
	assert.Contains(t, body, "We build &lt;b&gt;sites&lt;/b&gt; &amp; apps")
	assert.NotContains(t, body, "<b>sites</b>")
}

func TestCallCompletedExportsSummary(t *testing.T) {
	appender := &recordingAppender{}
	h, buf := newTestHandler(appender)
	buf.Append("CA123", "hello", "Hi there!")

	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("CallDuration", "42")
	form.Set("To", "+15551234567")
	rec := postForm(h.CallCompleted, "/voice/completed", form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, appender.calls)
	assert.Equal(t, "CA123", appender.callSID)
	assert.Equal(t, "+15551234567", appender.phone)
	assert.Equal(t, "42", appender.duration)
	assert.Contains(t, appender.summary, "User: hello")
	assert.Contains(t, appender.summary, "Bot: Hi there!")
	assert.Equal(t, 0, buf.Len(), "transcript should be flushed")
}

func TestCallCompletedUnknownCall(t *testing.T) {
	appender := &recordingAppender{}
	h, _ := newTestHandler(appender)

	form := url.Values{}
	form.Set("CallSid", "CA-unknown")
	rec := postForm(h.CallCompleted, "/voice/completed", form)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, appender.calls)
}

func TestCallCompletedExportFailureStill200(t *testing.T) {
	appender := &recordingAppender{err: errors.New("sheets down")}
	h, buf := newTestHandler(appender)
	buf.Append("CA9", "hi", "hello")

	form := url.Values{}
	form.Set("CallSid", "CA9")
	rec := postForm(h.CallCompleted, "/voice/completed", form)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	buf := NewTranscriptBuffer()
	h := NewHandler(&fakeReplier{reply: "hi"}, buf, nil, nil, "auth-token", nil, nil)

	rec := postForm(h.Voice, "/voice", url.Values{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	const token = "auth-token"
	buf := NewTranscriptBuffer()
	h := NewHandler(&fakeReplier{reply: "hi"}, buf, nil, nil, token, nil, nil)

	form := url.Values{}
	req := httptest.NewRequest(http.MethodPost, "http://example.com/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	payload := buildSignaturePayload("http://example.com/voice", form)
	req.Header.Set("X-Twilio-Signature", computeSignature(payload, token))

	rec := httptest.NewRecorder()
	h.Voice(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitiateCallMissingNumber(t *testing.T) {
	h, _ := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.InitiateCall(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Phone number is required", resp["message"])
}

func TestInitiateCallNotConfigured(t *testing.T) {
	h, _ := newTestHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{"phone_number":"+15551234567"}`))
	rec := httptest.NewRecorder()
	h.InitiateCall(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Twilio is not configured on the server.", resp["message"])
}

func TestInitiateCallSuccess(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sid":"CA777","status":"queued"}`))
	}))
	defer srv.Close()

	caller := NewCaller("AC123", "token", "+15550001111", "https://bot.example.com/voice", "https://bot.example.com/voice/completed", nil)
	require.NotNil(t, caller)
	caller.baseURL = srv.URL

	buf := NewTranscriptBuffer()
	h := NewHandler(&fakeReplier{reply: "hi"}, buf, nil, caller, "", nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/calls", strings.NewReader(`{"phone_number":"+15551234567"}`))
	rec := httptest.NewRecorder()
	h.InitiateCall(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Call initiated successfully", resp["message"])
	assert.Equal(t, "CA777", resp["call_sid"])

	assert.Equal(t, "+15551234567", gotForm.Get("To"))
	assert.Equal(t, "+15550001111", gotForm.Get("From"))
	assert.Equal(t, "https://bot.example.com/voice", gotForm.Get("Url"))
	assert.Equal(t, "completed", gotForm.Get("StatusCallbackEvent"))
}

func TestNewCallerRequiresCredentials(t *testing.T) {
	assert.Nil(t, NewCaller("", "token", "+1555", "", "", nil))
	assert.Nil(t, NewCaller("AC1", "", "+1555", "", "", nil))
	assert.Nil(t, NewCaller("AC1", "token", "", "", "", nil))
}
