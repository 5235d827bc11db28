package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/imsolutions/chatdesk/internal/http/middleware"
)

func newTestLogin() *LoginHandler {
	h := NewLoginHandler("imsol", "hunter2", "", "signing-secret", nil)
	h.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }
	return h
}

func submitLogin(h *LoginHandler, target, username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

func TestShowForm(t *testing.T) {
	h := newTestLogin()

	rec := httptest.NewRecorder()
	h.ShowForm(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ChatDesk Dashboard")
	assert.Contains(t, body, `name="username"`)
	assert.NotContains(t, body, "Invalid credentials")
}

func TestSubmitValidCredentials(t *testing.T) {
	h := newTestLogin()

	rec := submitLogin(h, "/login", "imsol", "hunter2")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(*jwt.Token) (any, error) {
		return []byte("signing-secret"), nil
	}, jwt.WithTimeFunc(h.now))
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "imsol", claims.Subject)
}

func TestSubmitHonorsNextParam(t *testing.T) {
	h := newTestLogin()

	rec := submitLogin(h, "/login?next=%2Fdashboard%2Fdata", "imsol", "hunter2")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/data", rec.Header().Get("Location"))
}

func TestSubmitRejectsOffsiteNext(t *testing.T) {
	h := newTestLogin()

	rec := submitLogin(h, "/login?next=//evil.example.com", "imsol", "hunter2")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestSubmitInvalidCredentials(t *testing.T) {
	h := newTestLogin()

	rec := submitLogin(h, "/login", "imsol", "wrong")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, middleware.SessionCookieName, c.Name)
	}
}

func TestSubmitUnconfiguredCredentials(t *testing.T) {
	h := NewLoginHandler("", "", "", "secret", nil)

	rec := submitLogin(h, "/login", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	h := NewLoginHandler("imsol", "", string(hash), "secret", nil)
	h.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }

	rec := submitLogin(h, "/login", "imsol", "hunter2")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = submitLogin(h, "/login", "imsol", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestLogin()

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/dashboard", safeNext("/dashboard"))
	assert.Equal(t, "", safeNext("//evil.example.com"))
	assert.Equal(t, "", safeNext("https://evil.example.com"))
	assert.Equal(t, "", safeNext(""))
}
