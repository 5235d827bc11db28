package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const dashboardClaimsKey contextKey = "dashboardClaims"

// SessionCookieName carries the dashboard login token.
const SessionCookieName = "chatdesk_session"

// DashboardAuth enforces an HMAC-signed JWT for dashboard endpoints. The
// token is read from the session cookie (browser flows) or a Bearer header
// (programmatic access). Unauthenticated browser requests are redirected to
// the login page with the original path in ?next.
func DashboardAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "dashboard auth disabled", http.StatusUnauthorized)
				return
			}

			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				deny(w, r, "missing credentials")
				return
			}

			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				deny(w, r, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), dashboardClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DashboardClaimsFromContext returns the dashboard JWT claims if present.
func DashboardClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(dashboardClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func deny(w http.ResponseWriter, r *http.Request, reason string) {
	// Browsers navigating to the dashboard get sent to the login form;
	// API clients get a plain 401.
	if r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	http.Error(w, reason, http.StatusUnauthorized)
}
