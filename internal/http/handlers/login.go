// Package handlers holds HTTP handlers that do not belong to a domain
// package, currently the dashboard login flow.
package handlers

import (
	"crypto/subtle"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/imsolutions/chatdesk/internal/http/middleware"
	"github.com/imsolutions/chatdesk/pkg/logging"
)

const defaultTokenTTL = 12 * time.Hour

// LoginHandler serves the dashboard login form and issues session tokens.
type LoginHandler struct {
	username     string
	password     string
	passwordHash string
	secret       string
	tokenTTL     time.Duration
	tmpl         *template.Template
	logger       *logging.Logger
	now          func() time.Time
}

// NewLoginHandler creates the login handler. The credentials and signing
// secret come from the environment. When passwordHash (bcrypt) is set it
// takes precedence over the plaintext password.
func NewLoginHandler(username, password, passwordHash, secret string, logger *logging.Logger) *LoginHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LoginHandler{
		username:     username,
		password:     password,
		passwordHash: passwordHash,
		secret:       secret,
		tokenTTL: defaultTokenTTL,
		tmpl:     template.Must(template.New("login").Parse(loginHTML)),
		logger:   logger,
		now:      time.Now,
	}
}

// SetTokenTTL overrides the default session token lifetime.
func (h *LoginHandler) SetTokenTTL(d time.Duration) {
	if d > 0 {
		h.tokenTTL = d
	}
}

type loginView struct {
	Error string
	Next  string
}

// ShowForm handles GET /login.
func (h *LoginHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, loginView{Next: safeNext(r.URL.Query().Get("next"))}, http.StatusOK)
}

// Submit handles POST /login.
func (h *LoginHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, loginView{Error: "Invalid credentials"}, http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := strings.TrimSpace(r.PostFormValue("password"))
	next := safeNext(r.URL.Query().Get("next"))

	if !h.credentialsMatch(username, password) {
		h.logger.Warn("dashboard login rejected", "username", username)
		h.render(w, loginView{Error: "Invalid credentials", Next: next}, http.StatusUnauthorized)
		return
	}

	token, err := h.issueToken(username)
	if err != nil {
		h.logger.Error("failed to sign session token", "error", err)
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  h.now().Add(h.tokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if next == "" {
		next = "/dashboard"
	}
	h.logger.Info("dashboard login accepted", "username", username)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles GET /logout: clears the session cookie.
func (h *LoginHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *LoginHandler) credentialsMatch(username, password string) bool {
	if h.username == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 1

	if h.passwordHash != "" {
		return userOK && bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(password)) == nil
	}
	if h.password == "" {
		return false
	}
	return userOK && subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
}

func (h *LoginHandler) issueToken(username string) (string, error) {
	now := h.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
}

func (h *LoginHandler) render(w http.ResponseWriter, view loginView, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.Execute(w, view); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// safeNext only allows same-site relative redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

const loginHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ChatDesk Login</title>
<style>
body { font-family: -apple-system, Arial, sans-serif; background: #f4f6f8; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; }
.card { background: #fff; padding: 2rem; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.15); width: 320px; }
h1 { font-size: 1.25rem; margin-top: 0; }
label { display: block; margin: .75rem 0 .25rem; font-size: .9rem; }
input { width: 100%; padding: .5rem; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
button { margin-top: 1rem; width: 100%; padding: .6rem; background: #2563eb; color: #fff; border: none; border-radius: 4px; cursor: pointer; }
.error { color: #b91c1c; font-size: .85rem; margin-top: .75rem; }
</style>
</head>
<body>
<div class="card">
<h1>ChatDesk Dashboard</h1>
<form method="POST" action="/login{{if .Next}}?next={{.Next}}{{end}}">
<label for="username">Username</label>
<input id="username" name="username" autocomplete="username" required>
<label for="password">Password</label>
<input id="password" name="password" type="password" autocomplete="current-password" required>
<button type="submit">Sign in</button>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
</form>
</div>
</body>
</html>`
