package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ValidateTwilioSignature validates that a webhook request came from Twilio.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := computeSignature(buildSignaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload concatenates the URL with the sorted form params,
// per Twilio's request-validation scheme.
func buildSignaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
