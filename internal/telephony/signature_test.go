package telephony

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTwilioSignature(t *testing.T) {
	const authToken = "secret-token"

	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("SpeechResult", "hello")

	req := httptest.NewRequest("POST", "http://example.com/voice/input", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload := buildSignaturePayload("http://example.com/voice/input", form)
	req.Header.Set("X-Twilio-Signature", computeSignature(payload, authToken))

	assert.True(t, ValidateTwilioSignature(req, authToken, "http://example.com/voice/input"))
}

func TestValidateTwilioSignatureRejectsTampering(t *testing.T) {
	const authToken = "secret-token"

	form := url.Values{}
	form.Set("CallSid", "CA123")

	req := httptest.NewRequest("POST", "http://example.com/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	payload := buildSignaturePayload("http://example.com/voice", form)
	req.Header.Set("X-Twilio-Signature", computeSignature(payload, authToken))

	// Signature computed for a different token fails.
	assert.False(t, ValidateTwilioSignature(req, "other-token", "http://example.com/voice"))
}

func TestValidateTwilioSignatureMissingHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "http://example.com/voice", strings.NewReader(""))
	assert.False(t, ValidateTwilioSignature(req, "secret", "http://example.com/voice"))
}

func TestBuildSignaturePayloadSortsKeys(t *testing.T) {
	form := url.Values{}
	form.Set("Zeta", "1")
	form.Set("Alpha", "2")

	payload := buildSignaturePayload("https://host/path", form)
	require.Equal(t, "https://host/pathAlpha2Zeta1", payload)
}

func TestBuildAbsoluteURLForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest("POST", "/voice", nil)
	req.Host = "internal:8080"
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "bot.example.com")

	assert.Equal(t, "https://bot.example.com/voice", buildAbsoluteURL(req))
}
